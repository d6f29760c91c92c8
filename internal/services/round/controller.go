package round

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/clock"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/random"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage"
)

// resolveDelay is the pause between a round being decided and the next
// wisher's round opening, so clients can show the result.
const resolveDelay = 5 * time.Second

// Controller drives the round state machine for every lobby: starting
// games, accepting wishes, consequences and votes, resolving winners
// and rotating the wisher. Each method is one atomic step over a lobby
// fetched from storage; callers are expected to serialize steps per
// lobby.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new round engine
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "round")),
	}
}

// SetSettings applies new lobby settings. Host only, and only while no
// game is running.
func (c *Controller) SetSettings(ctx context.Context, name model.LobbyName, actor model.PlayerID, settings model.Settings) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}

	player := lobby.GetPlayer(actor)
	if player == nil {
		return Result{}, model.ErrPlayerNotFound
	}
	if !player.IsHost {
		return Result{}, model.ErrNotHost
	}
	if lobby.Phase() != model.PhaseWaiting {
		return Result{}, model.ErrWrongPhase
	}
	if settings.TimerSeconds <= 0 || settings.ScoreGoal <= 0 {
		return Result{}, model.ErrValidation
	}

	lobby.Settings = settings
	lobby.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}

	var res Result
	res.broadcast(model.SettingsUpdateEvent{
		Type:     model.EventSettingsUpdate,
		Settings: model.SettingsInfoFromModel(settings),
	})
	return res, nil
}

// StartGame begins a game: scores reset, the first connected player in
// join order becomes the wisher, and the wish deadline is armed. Host
// only.
func (c *Controller) StartGame(ctx context.Context, name model.LobbyName, actor model.PlayerID) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}

	player := lobby.GetPlayer(actor)
	if player == nil {
		return Result{}, model.ErrPlayerNotFound
	}
	if !player.IsHost {
		return Result{}, model.ErrNotHost
	}
	if lobby.Phase() != model.PhaseWaiting {
		return Result{}, model.ErrWrongPhase
	}

	candidates := connectedActive(lobby)
	if len(candidates) < 2 {
		return Result{}, model.ErrNotEnoughPlayers
	}

	for _, p := range lobby.Players {
		p.Score = 0
	}

	wisher := candidates[0]
	lobby.Round = model.NewRound(0, wisher.ID)
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}

	c.logger.Info("game started",
		slog.String("lobby", string(name)),
		slog.String("wisher", string(wisher.ID)),
	)

	var res Result
	res.broadcast(model.GameStartedEvent{
		Type:  model.EventGameStarted,
		Round: model.RoundInfoFromModel(lobby.Round),
	})
	res.ArmTimer = &TimerReq{
		Phase:      model.PhaseWishPending,
		RoundIndex: 0,
		Duration:   phaseDuration(lobby),
	}
	return res, nil
}

// SubmitWish records the wisher's prompt and opens the collecting phase
func (c *Controller) SubmitWish(ctx context.Context, name model.LobbyName, actor model.PlayerID, wish string) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}

	if lobby.Phase() != model.PhaseWishPending {
		return Result{}, model.ErrWrongPhase
	}
	if actor != lobby.Round.WisherID {
		return Result{}, model.ErrNotWisher
	}
	wish = strings.TrimSpace(wish)
	if wish == "" {
		return Result{}, model.ErrValidation
	}

	lobby.Round.Wish = wish
	lobby.Round.Phase = model.PhaseCollecting
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}

	var res Result
	res.broadcast(model.WishSetEvent{
		Type:  model.EventWishSet,
		Round: model.RoundInfoFromModel(lobby.Round),
		Wish:  wish,
	})
	res.ArmTimer = &TimerReq{
		Phase:      model.PhaseCollecting,
		RoundIndex: lobby.Round.Index,
		Duration:   phaseDuration(lobby),
	}
	return res, nil
}

// SubmitConsequence records one player's anonymous consequence. When
// every expected responder has submitted, the round advances to voting.
func (c *Controller) SubmitConsequence(ctx context.Context, name model.LobbyName, actor model.PlayerID, text string) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}

	if lobby.Phase() != model.PhaseCollecting {
		return Result{}, model.ErrWrongPhase
	}
	player := lobby.GetPlayer(actor)
	if player == nil {
		return Result{}, model.ErrPlayerNotFound
	}
	if player.IsSpectator {
		return Result{}, model.ErrSpectator
	}
	if actor == lobby.Round.WisherID {
		return Result{}, model.ErrWisherCannotAct
	}
	if _, ok := lobby.Round.Submissions[actor]; ok {
		return Result{}, model.ErrAlreadySubmitted
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, model.ErrValidation
	}

	lobby.Round.Submissions[actor] = &model.Submission{
		PlayerID: actor,
		Text:     text,
		Order:    len(lobby.Round.Submissions),
	}
	lobby.UpdatedAt = c.clock.Now()

	var res Result
	res.broadcast(model.SubmissionsUpdateEvent{
		Type:  model.EventSubmissionsUpdate,
		Count: len(lobby.Round.Submissions),
		Total: expectedResponders(lobby),
	})
	res.merge(c.maybeFinishCollecting(lobby))

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Vote records one player's vote for a submission's author. When every
// expected responder has voted, the round resolves.
func (c *Controller) Vote(ctx context.Context, name model.LobbyName, voter, target model.PlayerID) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}

	if lobby.Phase() != model.PhaseVoting {
		return Result{}, model.ErrWrongPhase
	}
	player := lobby.GetPlayer(voter)
	if player == nil {
		return Result{}, model.ErrPlayerNotFound
	}
	if player.IsSpectator {
		return Result{}, model.ErrSpectator
	}
	if voter == lobby.Round.WisherID {
		return Result{}, model.ErrWisherCannotAct
	}
	if _, ok := lobby.Round.Votes[voter]; ok {
		return Result{}, model.ErrAlreadyVoted
	}
	if _, ok := lobby.Round.Submissions[target]; !ok {
		return Result{}, model.ErrNoSuchTarget
	}
	if target == voter {
		return Result{}, model.ErrSelfVote
	}

	lobby.Round.Votes[voter] = target
	lobby.UpdatedAt = c.clock.Now()

	var res Result
	res.broadcast(model.VotesUpdateEvent{
		Type:  model.EventVotesUpdate,
		Count: len(lobby.Round.Votes),
		Total: expectedVoters(lobby),
	})
	res.merge(c.maybeFinishVoting(lobby))

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}
	return res, nil
}

// HandleExpiredTimer applies a phase deadline. Callbacks for rounds or
// phases that have already moved on are stale and do nothing.
func (c *Controller) HandleExpiredTimer(ctx context.Context, name model.LobbyName, phase model.Phase, roundIndex int) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if lobby.Round == nil || lobby.Round.Index != roundIndex || lobby.Round.Phase != phase {
		return Result{}, nil
	}

	c.logger.Info("phase deadline expired",
		slog.String("lobby", string(name)),
		slog.String("phase", string(phase)),
		slog.Int("round", roundIndex),
	)

	var res Result
	switch phase {
	case model.PhaseWishPending:
		// The wisher missed the deadline. The wish role rotates on.
		res.merge(c.startNextRound(lobby))
	case model.PhaseCollecting:
		if len(lobby.Round.Submissions) == 0 {
			res.merge(c.startNextRound(lobby))
		} else {
			res.merge(c.revealSubmissions(lobby))
		}
	case model.PhaseVoting:
		res.merge(c.resolve(lobby))
	case model.PhaseRoundResolved:
		res.merge(c.startNextRound(lobby))
	}

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}
	return res, nil
}

func connectedActive(lobby *model.Lobby) []*model.Player {
	var out []*model.Player
	for _, p := range lobby.ActivePlayers() {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

// expectedResponders is the denominator for progress events: at least
// the connected eligible responders, never less than what has already
// arrived.
func expectedResponders(lobby *model.Lobby) int {
	n := len(lobby.EligibleResponders(lobby.Round.WisherID))
	if len(lobby.Round.Submissions) > n {
		n = len(lobby.Round.Submissions)
	}
	return n
}

// expectedVoters is the denominator for vote progress events, floored
// by the votes already recorded.
func expectedVoters(lobby *model.Lobby) int {
	n := len(eligibleVoters(lobby))
	if len(lobby.Round.Votes) > n {
		n = len(lobby.Round.Votes)
	}
	return n
}

func phaseDuration(lobby *model.Lobby) time.Duration {
	return time.Duration(lobby.Settings.TimerSeconds) * time.Second
}
