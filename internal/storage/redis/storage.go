package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Lobby operations

func (s *Storage) SaveLobby(ctx context.Context, lobby *model.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return err
	}

	// Pipeline the save with the name-index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, lobbyKey(lobby.Name), data, s.cfg.LobbyTTL)
	pipe.SAdd(ctx, lobbyIndexKey(), string(lobby.Name))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLobby(ctx context.Context, name model.LobbyName) (*model.Lobby, error) {
	data, err := s.client.Get(ctx, lobbyKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrLobbyNotFound
		}
		return nil, err
	}

	var lobby model.Lobby
	if err := json.Unmarshal(data, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (s *Storage) DeleteLobby(ctx context.Context, name model.LobbyName) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, lobbyKey(name))
	pipe.SRem(ctx, lobbyIndexKey(), string(name))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) LobbyExists(ctx context.Context, name model.LobbyName) (bool, error) {
	exists, err := s.client.Exists(ctx, lobbyKey(name)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) ListLobbies(ctx context.Context) ([]*model.Lobby, error) {
	names, err := s.client.SMembers(ctx, lobbyIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return []*model.Lobby{}, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = lobbyKey(model.LobbyName(n))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	lobbies := make([]*model.Lobby, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // lobby may have expired; the index lags
		}
		var lobby model.Lobby
		if err := json.Unmarshal([]byte(val.(string)), &lobby); err != nil {
			continue // skip invalid data
		}
		lobbies = append(lobbies, &lobby)
	}

	return lobbies, nil
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	indexKey := credentialsForLobbyIndexKey(cred.Lobby)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, credentialKey(cred.Token), data, s.cfg.CredentialTTL)
	pipe.SAdd(ctx, indexKey, cred.Token)
	pipe.Expire(ctx, indexKey, s.cfg.CredentialTTL) // keep index TTL in sync
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCredential(ctx context.Context, token string) (*model.Credential, error) {
	data, err := s.client.Get(ctx, credentialKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvalidCredential
		}
		return nil, err
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, token string) error {
	cred, err := s.GetCredential(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredential) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, credentialKey(token))
	pipe.SRem(ctx, credentialsForLobbyIndexKey(cred.Lobby), token)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteCredentialsForLobby(ctx context.Context, name model.LobbyName) error {
	indexKey := credentialsForLobbyIndexKey(name)

	tokens, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, token := range tokens {
		pipe.Del(ctx, credentialKey(token))
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}
