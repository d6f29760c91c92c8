package storage

import (
	"context"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Lobby operations
	SaveLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context, name model.LobbyName) (*model.Lobby, error)
	DeleteLobby(ctx context.Context, name model.LobbyName) error
	LobbyExists(ctx context.Context, name model.LobbyName) (bool, error)
	ListLobbies(ctx context.Context) ([]*model.Lobby, error)

	// Credential operations
	SaveCredential(ctx context.Context, cred *model.Credential) error
	GetCredential(ctx context.Context, token string) (*model.Credential, error)
	DeleteCredential(ctx context.Context, token string) error
	DeleteCredentialsForLobby(ctx context.Context, name model.LobbyName) error
}
