package auth

import (
	"context"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/clock"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/random"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage"
)

// tokenPrefix distinguishes credential tokens from other opaque ids
const tokenPrefix = "cred_"

// Service issues and validates the per-player, per-lobby bearer
// credentials that reconnecting clients present to reclaim their
// Player identity.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
}

// New creates a new credential service
func New(storage storage.Storage, clock clock.Clock, random random.Random) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
	}
}

// Issue creates a credential binding a token to (lobby, player)
func (s *Service) Issue(ctx context.Context, lobby model.LobbyName, playerID model.PlayerID) (*model.Credential, error) {
	cred := &model.Credential{
		Token:    tokenPrefix + s.random.UUID(),
		Lobby:    lobby,
		PlayerID: playerID,
		IssuedAt: s.clock.Now(),
	}

	if err := s.storage.SaveCredential(ctx, cred); err != nil {
		return nil, err
	}

	return cred, nil
}

// Validate resolves a token to its join record. The lobby name the
// client claims must match the one the credential was issued for.
func (s *Service) Validate(ctx context.Context, token string, lobby model.LobbyName) (*model.Credential, error) {
	cred, err := s.storage.GetCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	if cred.Lobby != lobby {
		return nil, model.ErrInvalidCredential
	}

	return cred, nil
}

// Revoke removes a single credential
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.storage.DeleteCredential(ctx, token)
}

// RevokeLobby removes every credential issued for a lobby
func (s *Service) RevokeLobby(ctx context.Context, name model.LobbyName) error {
	return s.storage.DeleteCredentialsForLobby(ctx, name)
}
