package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/clock"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/random"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/auth"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/registry"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/round"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/session"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage/memory"
	redisstorage "github.com/LeGioNSoftware/MonkeyPaw/internal/storage/redis"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService    *auth.Service
	Registry       *registry.Controller
	RoundEngine    *round.Controller
	SessionManager *session.Manager
	HubManager     *ws.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionConfig controls lobby teardown timing (optional)
	// If zero value, defaults to session.DefaultConfig()
	SessionConfig session.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	sessionCfg := cfg.SessionConfig
	if sessionCfg.DisconnectGrace == 0 {
		sessionCfg = session.DefaultConfig()
	}

	return NewWithDependencies(store, clk, rnd, sessionCfg, logger), nil
}

// NewWithDependencies creates an App with the given dependencies
// (useful for testing with mock clock and random)
func NewWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, sessionCfg session.Config, logger *slog.Logger) *App {
	authService := auth.New(store, clk, rnd)
	reg := registry.NewController(store, authService, clk, rnd, logger)
	engine := round.NewController(store, clk, rnd, logger)
	hubManager := ws.NewHubManager(logger)
	sessions := session.NewManager(reg, engine, hubBusProvider{hubManager}, clk, sessionCfg, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		AuthService:    authService,
		Registry:       reg,
		RoundEngine:    engine,
		SessionManager: sessions,
		HubManager:     hubManager,
	}
}

// hubBusProvider adapts the websocket hub manager to the session
// layer's broadcaster interface
type hubBusProvider struct {
	hubs *ws.HubManager
}

func (p hubBusProvider) Acquire(name model.LobbyName) session.Broadcaster {
	return lobbyBus{name: name, hubs: p.hubs}
}

// lobbyBus routes session events through the lobby's hub and removes
// the hub when the session closes it
type lobbyBus struct {
	name model.LobbyName
	hubs *ws.HubManager
}

func (b lobbyBus) Broadcast(event any) {
	b.hubs.GetOrCreateHub(b.name).Broadcast(event)
}

func (b lobbyBus) SendTo(player model.PlayerID, event any) {
	b.hubs.GetOrCreateHub(b.name).SendTo(player, event)
}

func (b lobbyBus) CloseAll() {
	b.hubs.RemoveHub(b.name)
}
