package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/registry"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/round"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/clock"
)

// Config controls lobby teardown timing
type Config struct {
	// DisconnectGrace is how long an active lobby with zero live
	// connections is kept before being destroyed
	DisconnectGrace time.Duration
	// GameOverRetention is how long a finished game's lobby lingers
	GameOverRetention time.Duration
}

// DefaultConfig returns the default teardown timing
func DefaultConfig() Config {
	return Config{
		DisconnectGrace:   2 * time.Minute,
		GameOverRetention: 10 * time.Minute,
	}
}

// BusProvider hands out the event broadcaster for a lobby, creating it
// on first use
type BusProvider interface {
	Acquire(name model.LobbyName) Broadcaster
}

// Manager owns the live sessions: one actor per lobby, created with the
// lobby and closed when it is destroyed
type Manager struct {
	registry *registry.Controller
	engine   *round.Controller
	buses    BusProvider
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[model.LobbyName]*Session
}

// NewManager creates a new session manager
func NewManager(
	reg *registry.Controller,
	engine *round.Controller,
	buses BusProvider,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		registry: reg,
		engine:   engine,
		buses:    buses,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "session")),
		sessions: make(map[model.LobbyName]*Session),
	}
}

// CreateLobby creates the lobby and its session. Name uniqueness is
// serialized by the manager lock.
func (m *Manager) CreateLobby(
	ctx context.Context,
	name model.LobbyName,
	password string,
	public bool,
	settings model.Settings,
	hostUsername string,
) (*model.Lobby, *model.Player, *model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[name]; ok {
		return nil, nil, nil, model.ErrLobbyExists
	}

	lobby, host, cred, err := m.registry.CreateLobby(ctx, name, password, public, settings, hostUsername)
	if err != nil {
		return nil, nil, nil, err
	}

	s := newSession(name, m.registry, m.engine, m.buses.Acquire(name), m.clock, m.cfg, m.logger, m.destroyIfIdle)
	m.sessions[name] = s
	return lobby, host, cred, nil
}

// JoinLobby adds a member to a live lobby
func (m *Manager) JoinLobby(
	ctx context.Context,
	name model.LobbyName,
	password, username string,
	spectator bool,
	presentedToken string,
) (*model.Lobby, *model.Player, *model.Credential, error) {
	s, err := m.Get(name)
	if err != nil {
		return nil, nil, nil, err
	}
	return s.Join(ctx, password, username, spectator, presentedToken)
}

// LeaveLobby removes a member, closing the session when the last
// member leaves
func (m *Manager) LeaveLobby(ctx context.Context, name model.LobbyName, playerID model.PlayerID) error {
	s, err := m.Get(name)
	if err != nil {
		return err
	}
	destroyed, err := s.Leave(ctx, playerID)
	if err != nil {
		return err
	}
	if destroyed {
		m.remove(name)
	}
	return nil
}

// Get returns the live session for a lobby
func (m *Manager) Get(name model.LobbyName) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[name]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return s, nil
}

// ListPublicLobbies returns a snapshot of joinable public lobbies
func (m *Manager) ListPublicLobbies(ctx context.Context) ([]registry.LobbySummary, error) {
	return m.registry.ListPublicLobbies(ctx)
}

// DestroyLobby tears down a lobby, its session and its connections
func (m *Manager) DestroyLobby(ctx context.Context, name model.LobbyName) error {
	m.remove(name)
	return m.registry.DestroyLobby(ctx, name)
}

// destroyIfIdle is the teardown-timer callback. A reconnect can race
// the timer, so the lobby is re-checked before being destroyed.
func (m *Manager) destroyIfIdle(name model.LobbyName) {
	ctx := context.Background()
	lobby, err := m.registry.GetLobby(ctx, name)
	if err == nil && lobby.ConnectedCount() > 0 && lobby.Phase() != model.PhaseGameOver {
		return
	}

	m.logger.Info("destroying idle lobby", slog.String("lobby", string(name)))
	if err := m.DestroyLobby(ctx, name); err != nil {
		m.logger.Error("idle lobby teardown failed",
			slog.String("lobby", string(name)),
			slog.String("error", err.Error()),
		)
	}
}

// Shutdown closes every live session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[model.LobbyName]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func (m *Manager) remove(name model.LobbyName) {
	m.mu.Lock()
	s, ok := m.sessions[name]
	delete(m.sessions, name)
	m.mu.Unlock()
	if ok {
		s.close()
	}
}
