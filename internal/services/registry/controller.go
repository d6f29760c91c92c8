package registry

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/clock"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/random"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/auth"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage"
)

// LobbySummary is the read-only listing entry for public lobbies
type LobbySummary struct {
	Name        model.LobbyName
	CreatedAt   time.Time
	PlayerCount int
}

// Controller manages the process-wide lobby namespace: creation with
// name uniqueness, joining, public listing and destruction. Round
// progression is the round engine's concern; only membership and
// lifecycle live here.
type Controller struct {
	storage storage.Storage
	auth    *auth.Service
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new lobby registry controller
func NewController(
	storage storage.Storage,
	auth *auth.Service,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		auth:    auth,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// CreateLobby allocates a lobby with the creator as host and first
// player, and issues the creator's credential
func (c *Controller) CreateLobby(
	ctx context.Context,
	name model.LobbyName,
	password string,
	public bool,
	settings model.Settings,
	hostUsername string,
) (*model.Lobby, *model.Player, *model.Credential, error) {
	if strings.TrimSpace(string(name)) == "" || strings.TrimSpace(hostUsername) == "" {
		return nil, nil, nil, model.ErrValidation
	}

	exists, err := c.storage.LobbyExists(ctx, name)
	if err != nil {
		return nil, nil, nil, err
	}
	if exists {
		return nil, nil, nil, model.ErrLobbyExists
	}

	var passwordHash string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, nil, err
		}
		passwordHash = string(hash)
	}

	now := c.clock.Now()
	host := &model.Player{
		ID:       model.PlayerID(c.random.UUID()),
		Username: hostUsername,
		IsHost:   true,
		JoinedAt: now,
	}

	if settings.TimerSeconds <= 0 {
		settings.TimerSeconds = model.DefaultSettings().TimerSeconds
	}
	if settings.ScoreGoal <= 0 {
		settings.ScoreGoal = model.DefaultSettings().ScoreGoal
	}

	lobby := &model.Lobby{
		Name:         name,
		PasswordHash: passwordHash,
		Public:       public,
		Settings:     settings,
		Players:      []*model.Player{host},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, nil, nil, err
	}

	cred, err := c.auth.Issue(ctx, name, host.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	c.logger.Info("lobby created",
		slog.String("lobby", string(name)),
		slog.Bool("public", public),
		slog.String("host", hostUsername),
	)

	return lobby, host, cred, nil
}

// JoinLobby appends a new player to a lobby and issues a credential.
// A caller presenting an existing credential whose username matches a
// current member is rebound to that member instead of duplicated.
func (c *Controller) JoinLobby(
	ctx context.Context,
	name model.LobbyName,
	password string,
	username string,
	spectator bool,
	presentedToken string,
) (*model.Lobby, *model.Player, *model.Credential, error) {
	if strings.TrimSpace(username) == "" {
		return nil, nil, nil, model.ErrValidation
	}

	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return nil, nil, nil, err
	}

	if lobby.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(lobby.PasswordHash), []byte(password)); err != nil {
			return nil, nil, nil, model.ErrWrongPassword
		}
	}

	// Rejoin path: a valid credential for this lobby plus a matching
	// username reclaims the existing Player, score and role intact.
	if presentedToken != "" {
		cred, err := c.auth.Validate(ctx, presentedToken, name)
		if err == nil {
			if p := lobby.GetPlayer(cred.PlayerID); p != nil && p.Username == username {
				return lobby, p, cred, nil
			}
		}
	}

	player := &model.Player{
		ID:          model.PlayerID(c.random.UUID()),
		Username:    username,
		IsSpectator: spectator,
		JoinedAt:    c.clock.Now(),
	}

	lobby.Players = append(lobby.Players, player)
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, nil, nil, err
	}

	cred, err := c.auth.Issue(ctx, name, player.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	c.logger.Info("player joined",
		slog.String("lobby", string(name)),
		slog.String("username", username),
		slog.Bool("spectator", spectator),
	)

	return lobby, player, cred, nil
}

// LeaveLobby removes a member. The host role passes to the next member
// in join order; the lobby is destroyed when the last member leaves.
// It reports whether the lobby was destroyed.
func (c *Controller) LeaveLobby(ctx context.Context, name model.LobbyName, playerID model.PlayerID) (*model.Lobby, bool, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return nil, false, err
	}

	member := lobby.GetPlayer(playerID)
	if member == nil {
		return nil, false, model.ErrPlayerNotFound
	}

	wasHost := member.IsHost
	for i, p := range lobby.Players {
		if p.ID == playerID {
			lobby.Players = append(lobby.Players[:i], lobby.Players[i+1:]...)
			break
		}
	}

	if len(lobby.Players) == 0 {
		if err := c.DestroyLobby(ctx, name); err != nil {
			return nil, false, err
		}
		return lobby, true, nil
	}

	if wasHost {
		lobby.Players[0].IsHost = true
	}

	lobby.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, false, err
	}

	return lobby, false, nil
}

// GetLobby retrieves a lobby by name
func (c *Controller) GetLobby(ctx context.Context, name model.LobbyName) (*model.Lobby, error) {
	return c.storage.GetLobby(ctx, name)
}

// ListPublicLobbies returns a snapshot of joinable public lobbies
func (c *Controller) ListPublicLobbies(ctx context.Context) ([]LobbySummary, error) {
	lobbies, err := c.storage.ListLobbies(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]LobbySummary, 0, len(lobbies))
	for _, l := range lobbies {
		if !l.Public {
			continue
		}
		summaries = append(summaries, LobbySummary{
			Name:        l.Name,
			CreatedAt:   l.CreatedAt,
			PlayerCount: len(l.Players),
		})
	}
	return summaries, nil
}

// DestroyLobby removes the lobby and revokes every credential issued
// for it. Subsequent operations on the name report ErrLobbyNotFound.
func (c *Controller) DestroyLobby(ctx context.Context, name model.LobbyName) error {
	if err := c.storage.DeleteLobby(ctx, name); err != nil {
		return err
	}
	if err := c.auth.RevokeLobby(ctx, name); err != nil {
		return err
	}

	c.logger.Info("lobby destroyed", slog.String("lobby", string(name)))
	return nil
}
