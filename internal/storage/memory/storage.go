package memory

import (
	"context"
	"sync"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Lobbies and credentials are deep-copied on the way in and out, the
// same isolation a serializing backend gives for free, so the lobby a
// session actor is mutating is never aliased by a concurrent reader
// such as the public listing.
type Storage struct {
	mu sync.RWMutex

	lobbies          map[model.LobbyName]*model.Lobby
	credentials      map[string]*model.Credential
	credentialsByLob map[model.LobbyName]map[string]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		lobbies:          make(map[model.LobbyName]*model.Lobby),
		credentials:      make(map[string]*model.Credential),
		credentialsByLob: make(map[model.LobbyName]map[string]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Lobby operations

func (s *Storage) SaveLobby(ctx context.Context, lobby *model.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.Name] = cloneLobby(lobby)
	return nil
}

func (s *Storage) GetLobby(ctx context.Context, name model.LobbyName) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[name]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return cloneLobby(lobby), nil
}

func (s *Storage) DeleteLobby(ctx context.Context, name model.LobbyName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, name)
	return nil
}

func (s *Storage) LobbyExists(ctx context.Context, name model.LobbyName) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lobbies[name]
	return ok, nil
}

func (s *Storage) ListLobbies(ctx context.Context) ([]*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobbies := make([]*model.Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		lobbies = append(lobbies, cloneLobby(l))
	}
	return lobbies, nil
}

// cloneLobby deep-copies a lobby, including its roster and any in-flight
// round state
func cloneLobby(l *model.Lobby) *model.Lobby {
	out := *l
	out.Players = make([]*model.Player, len(l.Players))
	for i, p := range l.Players {
		cp := *p
		out.Players[i] = &cp
	}
	if l.Round != nil {
		r := *l.Round
		r.Submissions = make(map[model.PlayerID]*model.Submission, len(l.Round.Submissions))
		for id, sub := range l.Round.Submissions {
			cs := *sub
			r.Submissions[id] = &cs
		}
		r.Votes = make(map[model.PlayerID]model.PlayerID, len(l.Round.Votes))
		for voter, target := range l.Round.Votes {
			r.Votes[voter] = target
		}
		out.Round = &r
	}
	return &out
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cred
	s.credentials[cred.Token] = &cp
	if _, ok := s.credentialsByLob[cred.Lobby]; !ok {
		s.credentialsByLob[cred.Lobby] = make(map[string]struct{})
	}
	s.credentialsByLob[cred.Lobby][cred.Token] = struct{}{}
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, token string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[token]
	if !ok {
		return nil, model.ErrInvalidCredential
	}
	cp := *cred
	return &cp, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred, ok := s.credentials[token]; ok {
		delete(s.credentials, token)
		if tokens, ok := s.credentialsByLob[cred.Lobby]; ok {
			delete(tokens, token)
		}
	}
	return nil
}

func (s *Storage) DeleteCredentialsForLobby(ctx context.Context, name model.LobbyName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token := range s.credentialsByLob[name] {
		delete(s.credentials, token)
	}
	delete(s.credentialsByLob, name)
	return nil
}
