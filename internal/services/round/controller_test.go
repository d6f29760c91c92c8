package round

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/mocks"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage/memory"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

const lobbyName = model.LobbyName("test-lobby")

// seedLobby stores a lobby with the given connected players, the first
// of which is host
func (s *ControllerSuite) seedLobby(playerIDs ...string) *model.Lobby {
	players := make([]*model.Player, len(playerIDs))
	for i, id := range playerIDs {
		players[i] = &model.Player{
			ID:        model.PlayerID(id),
			Username:  id,
			IsHost:    i == 0,
			Connected: true,
			JoinedAt:  s.clock.Now(),
		}
	}
	lobby := &model.Lobby{
		Name:      lobbyName,
		Settings:  model.DefaultSettings(),
		Players:   players,
		CreatedAt: s.clock.Now(),
		UpdatedAt: s.clock.Now(),
	}
	s.Require().NoError(s.storage.SaveLobby(s.ctx, lobby))
	return lobby
}

// startedLobby seeds a lobby and starts a game; the first player is
// host and wisher
func (s *ControllerSuite) startedLobby(playerIDs ...string) {
	s.seedLobby(playerIDs...)
	_, err := s.controller.StartGame(s.ctx, lobbyName, model.PlayerID(playerIDs[0]))
	s.Require().NoError(err)
}

func (s *ControllerSuite) getLobby() *model.Lobby {
	lobby, err := s.storage.GetLobby(s.ctx, lobbyName)
	s.Require().NoError(err)
	return lobby
}

func findEvent[T any](res Result) (T, bool) {
	for _, e := range res.Effects {
		if ev, ok := e.Event.(T); ok {
			return ev, true
		}
	}
	var zero T
	return zero, false
}

// StartGame tests

func (s *ControllerSuite) TestStartGamePicksFirstWisherAndArmsTimer() {
	s.seedLobby("alice", "bob", "carol")

	res, err := s.controller.StartGame(s.ctx, lobbyName, "alice")
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Require().NotNil(lobby.Round)
	s.Equal(model.PhaseWishPending, lobby.Round.Phase)
	s.Equal(model.PlayerID("alice"), lobby.Round.WisherID)
	s.Equal(0, lobby.Round.Index)

	started, ok := findEvent[model.GameStartedEvent](res)
	s.Require().True(ok)
	s.Equal("alice", started.Round.WisherID)

	s.Require().NotNil(res.ArmTimer)
	s.Equal(model.PhaseWishPending, res.ArmTimer.Phase)
	s.Equal(60*time.Second, res.ArmTimer.Duration)
}

func (s *ControllerSuite) TestStartGameResetsScores() {
	lobby := s.seedLobby("alice", "bob")
	lobby.Players[0].Score = 3
	s.Require().NoError(s.storage.SaveLobby(s.ctx, lobby))

	_, err := s.controller.StartGame(s.ctx, lobbyName, "alice")
	s.Require().NoError(err)

	s.Equal(0, s.getLobby().Players[0].Score)
}

func (s *ControllerSuite) TestStartGameRequiresHost() {
	s.seedLobby("alice", "bob")

	_, err := s.controller.StartGame(s.ctx, lobbyName, "bob")
	s.ErrorIs(err, model.ErrNotHost)
}

func (s *ControllerSuite) TestStartGameRequiresTwoConnectedPlayers() {
	lobby := s.seedLobby("alice", "bob")
	lobby.Players[1].Connected = false
	s.Require().NoError(s.storage.SaveLobby(s.ctx, lobby))

	_, err := s.controller.StartGame(s.ctx, lobbyName, "alice")
	s.ErrorIs(err, model.ErrNotEnoughPlayers)
}

func (s *ControllerSuite) TestStartGameRejectedMidGame() {
	s.startedLobby("alice", "bob")

	_, err := s.controller.StartGame(s.ctx, lobbyName, "alice")
	s.ErrorIs(err, model.ErrWrongPhase)
}

// SetSettings tests

func (s *ControllerSuite) TestSetSettingsBroadcasts() {
	s.seedLobby("alice", "bob")

	res, err := s.controller.SetSettings(s.ctx, lobbyName, "alice", model.Settings{TimerSeconds: 30, ScoreGoal: 3})
	s.Require().NoError(err)

	ev, ok := findEvent[model.SettingsUpdateEvent](res)
	s.Require().True(ok)
	s.Equal(30, ev.Settings.TimerSeconds)
	s.Equal(3, s.getLobby().Settings.ScoreGoal)
}

func (s *ControllerSuite) TestSetSettingsRequiresHost() {
	s.seedLobby("alice", "bob")

	_, err := s.controller.SetSettings(s.ctx, lobbyName, "bob", model.Settings{TimerSeconds: 30, ScoreGoal: 3})
	s.ErrorIs(err, model.ErrNotHost)
}

func (s *ControllerSuite) TestSetSettingsRejectedMidGame() {
	s.startedLobby("alice", "bob")

	_, err := s.controller.SetSettings(s.ctx, lobbyName, "alice", model.Settings{TimerSeconds: 30, ScoreGoal: 3})
	s.ErrorIs(err, model.ErrWrongPhase)
}

func (s *ControllerSuite) TestSetSettingsValidatesValues() {
	s.seedLobby("alice", "bob")

	_, err := s.controller.SetSettings(s.ctx, lobbyName, "alice", model.Settings{TimerSeconds: 0, ScoreGoal: 3})
	s.ErrorIs(err, model.ErrValidation)
}

// Wish tests

func (s *ControllerSuite) TestSubmitWishOpensCollecting() {
	s.startedLobby("alice", "bob", "carol")

	res, err := s.controller.SubmitWish(s.ctx, lobbyName, "alice", "I wish for infinite pizza")
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Equal(model.PhaseCollecting, lobby.Round.Phase)
	s.Equal("I wish for infinite pizza", lobby.Round.Wish)

	ev, ok := findEvent[model.WishSetEvent](res)
	s.Require().True(ok)
	s.Equal("I wish for infinite pizza", ev.Wish)

	s.Require().NotNil(res.ArmTimer)
	s.Equal(model.PhaseCollecting, res.ArmTimer.Phase)
}

func (s *ControllerSuite) TestSubmitWishRejectsNonWisher() {
	s.startedLobby("alice", "bob")

	_, err := s.controller.SubmitWish(s.ctx, lobbyName, "bob", "a wish")
	s.ErrorIs(err, model.ErrNotWisher)
}

func (s *ControllerSuite) TestSubmitWishRejectsBlank() {
	s.startedLobby("alice", "bob")

	_, err := s.controller.SubmitWish(s.ctx, lobbyName, "alice", "   ")
	s.ErrorIs(err, model.ErrValidation)
}

// Consequence tests

func (s *ControllerSuite) collectingLobby(playerIDs ...string) {
	s.startedLobby(playerIDs...)
	_, err := s.controller.SubmitWish(s.ctx, lobbyName, model.PlayerID(playerIDs[0]), "a wish")
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestSubmitConsequenceCountsProgress() {
	s.collectingLobby("alice", "bob", "carol")

	res, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "but it is cold")
	s.Require().NoError(err)

	ev, ok := findEvent[model.SubmissionsUpdateEvent](res)
	s.Require().True(ok)
	s.Equal(1, ev.Count)
	s.Equal(2, ev.Total)
	s.Equal(model.PhaseCollecting, s.getLobby().Round.Phase)
}

func (s *ControllerSuite) TestSubmitConsequenceRejectsWisher() {
	s.collectingLobby("alice", "bob")

	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "alice", "text")
	s.ErrorIs(err, model.ErrWisherCannotAct)
}

func (s *ControllerSuite) TestSubmitConsequenceRejectsDuplicate() {
	s.collectingLobby("alice", "bob", "carol")

	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "first")
	s.Require().NoError(err)
	_, err = s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "second")
	s.ErrorIs(err, model.ErrAlreadySubmitted)
}

func (s *ControllerSuite) TestSubmitConsequenceRejectsSpectator() {
	s.collectingLobby("alice", "bob")
	lobby := s.getLobby()
	lobby.Players = append(lobby.Players, &model.Player{
		ID: "ghost", Username: "ghost", IsSpectator: true, Connected: true,
	})
	s.Require().NoError(s.storage.SaveLobby(s.ctx, lobby))

	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "ghost", "boo")
	s.ErrorIs(err, model.ErrSpectator)
}

func (s *ControllerSuite) TestCollectingCompletesWhenAllSubmit() {
	s.collectingLobby("alice", "bob", "carol")

	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "but it rains")
	s.Require().NoError(err)
	// Identity shuffle, so the reveal keeps arrival order
	s.random.QueueIntn(1)
	res, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "carol", "but it burns")
	s.Require().NoError(err)

	s.Equal(model.PhaseVoting, s.getLobby().Round.Phase)

	revealed, ok := findEvent[model.SubmissionsRevealedEvent](res)
	s.Require().True(ok)
	s.Require().Len(revealed.Submissions, 2)
	s.Equal("but it rains", revealed.Submissions[0].Text)
	s.Equal("but it burns", revealed.Submissions[1].Text)

	s.Require().NotNil(res.ArmTimer)
	s.Equal(model.PhaseVoting, res.ArmTimer.Phase)
}

func (s *ControllerSuite) TestRevealOrderIsShuffled() {
	s.collectingLobby("alice", "bob", "carol")

	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "first in")
	s.Require().NoError(err)
	// Swap the two entries at reveal
	s.random.QueueIntn(0)
	res, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "carol", "second in")
	s.Require().NoError(err)

	revealed, ok := findEvent[model.SubmissionsRevealedEvent](res)
	s.Require().True(ok)
	s.Require().Len(revealed.Submissions, 2)
	s.Equal("second in", revealed.Submissions[0].Text)
	s.Equal("first in", revealed.Submissions[1].Text)

	// The broadcast order is cosmetic; a voteless round still falls to
	// the earliest arrival
	_, err = s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseVoting, 0)
	s.Require().NoError(err)
	s.Equal(1, s.getLobby().GetPlayer("bob").Score)
}

// Voting tests

func (s *ControllerSuite) votingLobby(playerIDs ...string) {
	s.collectingLobby(playerIDs...)
	for _, id := range playerIDs[1:] {
		_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, model.PlayerID(id), "consequence by "+id)
		s.Require().NoError(err)
	}
	s.Require().Equal(model.PhaseVoting, s.getLobby().Round.Phase)
}

func (s *ControllerSuite) TestVoteRejectsSelfVote() {
	s.votingLobby("alice", "bob", "carol")

	_, err := s.controller.Vote(s.ctx, lobbyName, "bob", "bob")
	s.ErrorIs(err, model.ErrSelfVote)
}

func (s *ControllerSuite) TestVoteRejectsUnknownTarget() {
	s.votingLobby("alice", "bob", "carol")

	_, err := s.controller.Vote(s.ctx, lobbyName, "bob", "nobody")
	s.ErrorIs(err, model.ErrNoSuchTarget)
}

func (s *ControllerSuite) TestVoteRejectsDuplicate() {
	s.votingLobby("alice", "bob", "carol", "dave")

	_, err := s.controller.Vote(s.ctx, lobbyName, "bob", "carol")
	s.Require().NoError(err)
	_, err = s.controller.Vote(s.ctx, lobbyName, "bob", "dave")
	s.ErrorIs(err, model.ErrAlreadyVoted)
}

func (s *ControllerSuite) TestVoteRejectsWisher() {
	s.votingLobby("alice", "bob", "carol")

	_, err := s.controller.Vote(s.ctx, lobbyName, "alice", "bob")
	s.ErrorIs(err, model.ErrWisherCannotAct)
}

func (s *ControllerSuite) TestAllVotesResolveRound() {
	s.votingLobby("alice", "bob", "carol", "dave")

	_, err := s.controller.Vote(s.ctx, lobbyName, "bob", "carol")
	s.Require().NoError(err)
	_, err = s.controller.Vote(s.ctx, lobbyName, "dave", "carol")
	s.Require().NoError(err)
	res, err := s.controller.Vote(s.ctx, lobbyName, "carol", "bob")
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Equal(model.PhaseRoundResolved, lobby.Round.Phase)
	s.Equal(1, lobby.GetPlayer("carol").Score)

	end, ok := findEvent[model.RoundEndEvent](res)
	s.Require().True(ok)
	s.Equal("carol", end.Winner.ID)
	s.Equal(1, end.Scores["carol"])
	s.Len(end.Submissions, 3)

	s.Require().NotNil(res.ArmTimer)
	s.Equal(model.PhaseRoundResolved, res.ArmTimer.Phase)
	s.Equal(resolveDelay, res.ArmTimer.Duration)
}

func (s *ControllerSuite) TestTieFallsToEarliestSubmission() {
	s.collectingLobby("alice", "bob", "carol")
	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "carol", "carol was first")
	s.Require().NoError(err)
	_, err = s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "bob was second")
	s.Require().NoError(err)

	_, err = s.controller.Vote(s.ctx, lobbyName, "bob", "carol")
	s.Require().NoError(err)
	res, err := s.controller.Vote(s.ctx, lobbyName, "carol", "bob")
	s.Require().NoError(err)

	end, ok := findEvent[model.RoundEndEvent](res)
	s.Require().True(ok)
	s.Equal("carol", end.Winner.ID)
}

func (s *ControllerSuite) TestGameOverAtScoreGoal() {
	s.seedLobby("alice", "bob", "carol")
	_, err := s.controller.SetSettings(s.ctx, lobbyName, "alice", model.Settings{TimerSeconds: 60, ScoreGoal: 1})
	s.Require().NoError(err)
	_, err = s.controller.StartGame(s.ctx, lobbyName, "alice")
	s.Require().NoError(err)
	_, err = s.controller.SubmitWish(s.ctx, lobbyName, "alice", "a wish")
	s.Require().NoError(err)
	_, err = s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "b")
	s.Require().NoError(err)
	_, err = s.controller.SubmitConsequence(s.ctx, lobbyName, "carol", "c")
	s.Require().NoError(err)

	_, err = s.controller.Vote(s.ctx, lobbyName, "bob", "carol")
	s.Require().NoError(err)
	res, err := s.controller.Vote(s.ctx, lobbyName, "carol", "bob")
	s.Require().NoError(err)

	s.Equal(model.PhaseGameOver, s.getLobby().Round.Phase)
	s.True(res.GameOver)
	s.True(res.CancelTimer)

	// 1-1 tie falls to the earliest submission, which was bob's
	over, ok := findEvent[model.GameOverEvent](res)
	s.Require().True(ok)
	s.Equal("bob", over.Winner.ID)
}

func (s *ControllerSuite) TestSoleSubmissionWinsWithoutVoting() {
	// Two players: the sole responder cannot vote for themselves, so
	// the round resolves as soon as their submission is revealed
	s.collectingLobby("alice", "bob")

	res, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "and it is stale")
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Equal(model.PhaseRoundResolved, lobby.Round.Phase)
	s.Equal(1, lobby.GetPlayer("bob").Score)

	end, ok := findEvent[model.RoundEndEvent](res)
	s.Require().True(ok)
	s.Equal("bob", end.Winner.ID)

	s.Require().NotNil(res.ArmTimer)
	s.Equal(model.PhaseRoundResolved, res.ArmTimer.Phase)
}

// Timer expiry tests

func (s *ControllerSuite) TestWishDeadlineRotatesWisher() {
	s.startedLobby("alice", "bob", "carol")

	res, err := s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseWishPending, 0)
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Equal(1, lobby.Round.Index)
	s.Equal(model.PlayerID("bob"), lobby.Round.WisherID)
	s.Equal(model.PhaseWishPending, lobby.Round.Phase)

	started, ok := findEvent[model.RoundStartedEvent](res)
	s.Require().True(ok)
	s.Equal(1, started.Round.Index)
}

func (s *ControllerSuite) TestStaleTimerDoesNothing() {
	s.collectingLobby("alice", "bob")

	res, err := s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseWishPending, 0)
	s.Require().NoError(err)
	s.Empty(res.Effects)
	s.Equal(model.PhaseCollecting, s.getLobby().Round.Phase)
}

func (s *ControllerSuite) TestCollectingDeadlineWithSubmissionsReveals() {
	s.collectingLobby("alice", "bob", "carol")
	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "only one")
	s.Require().NoError(err)

	res, err := s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseCollecting, 0)
	s.Require().NoError(err)

	s.Equal(model.PhaseVoting, s.getLobby().Round.Phase)
	_, ok := findEvent[model.SubmissionsRevealedEvent](res)
	s.True(ok)
}

func (s *ControllerSuite) TestCollectingDeadlineWithoutSubmissionsRotates() {
	s.collectingLobby("alice", "bob")

	res, err := s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseCollecting, 0)
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Equal(1, lobby.Round.Index)
	s.Equal(model.PhaseWishPending, lobby.Round.Phase)
	_, ok := findEvent[model.RoundStartedEvent](res)
	s.True(ok)
}

func (s *ControllerSuite) TestVotingDeadlineResolvesWithPartialVotes() {
	s.votingLobby("alice", "bob", "carol")
	_, err := s.controller.Vote(s.ctx, lobbyName, "bob", "carol")
	s.Require().NoError(err)

	res, err := s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseVoting, 0)
	s.Require().NoError(err)

	end, ok := findEvent[model.RoundEndEvent](res)
	s.Require().True(ok)
	s.Equal("carol", end.Winner.ID)
}

func (s *ControllerSuite) TestVotingDeadlineWithoutVotesPicksFirstSubmission() {
	s.collectingLobby("alice", "bob", "carol")
	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "carol", "first in")
	s.Require().NoError(err)
	_, err = s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "second in")
	s.Require().NoError(err)

	res, err := s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseVoting, 0)
	s.Require().NoError(err)

	end, ok := findEvent[model.RoundEndEvent](res)
	s.Require().True(ok)
	s.Equal("carol", end.Winner.ID)
}

func (s *ControllerSuite) TestResolvedDeadlineStartsNextRound() {
	s.votingLobby("alice", "bob", "carol")
	_, err := s.controller.Vote(s.ctx, lobbyName, "bob", "carol")
	s.Require().NoError(err)
	_, err = s.controller.Vote(s.ctx, lobbyName, "carol", "bob")
	s.Require().NoError(err)
	s.Require().Equal(model.PhaseRoundResolved, s.getLobby().Round.Phase)

	_, err = s.controller.HandleExpiredTimer(s.ctx, lobbyName, model.PhaseRoundResolved, 0)
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Equal(1, lobby.Round.Index)
	s.Equal(model.PlayerID("bob"), lobby.Round.WisherID)
}

// Presence tests

func (s *ControllerSuite) TestPlayerConnectedSendsStateSync() {
	s.collectingLobby("alice", "bob", "carol")

	res, err := s.controller.PlayerConnected(s.ctx, lobbyName, "carol")
	s.Require().NoError(err)

	var sync *model.StateSyncEvent
	for _, e := range res.Effects {
		if ev, ok := e.Event.(model.StateSyncEvent); ok {
			s.Equal(model.PlayerID("carol"), e.To)
			sync = &ev
		}
	}
	s.Require().NotNil(sync)
	s.Equal("carol", sync.PlayerID)
	s.Require().NotNil(sync.Round)
	s.Equal(string(model.PhaseCollecting), sync.Round.Phase)
	// Submissions stay hidden until voting
	s.Empty(sync.Submissions)
}

func (s *ControllerSuite) TestWisherDisconnectDuringWishPendingRotates() {
	s.startedLobby("alice", "bob", "carol")

	res, err := s.controller.PlayerDisconnected(s.ctx, lobbyName, "alice")
	s.Require().NoError(err)

	lobby := s.getLobby()
	s.Equal(1, lobby.Round.Index)
	s.Equal(model.PlayerID("bob"), lobby.Round.WisherID)
	_, ok := findEvent[model.RoundStartedEvent](res)
	s.True(ok)
}

func (s *ControllerSuite) TestResponderDisconnectCompletesCollecting() {
	s.collectingLobby("alice", "bob", "carol")
	_, err := s.controller.SubmitConsequence(s.ctx, lobbyName, "bob", "done")
	s.Require().NoError(err)

	res, err := s.controller.PlayerDisconnected(s.ctx, lobbyName, "carol")
	s.Require().NoError(err)

	// bob's is the only submission, so nobody is left who can vote and
	// the round resolves in his favour on reveal
	s.Equal(model.PhaseRoundResolved, s.getLobby().Round.Phase)
	_, ok := findEvent[model.SubmissionsRevealedEvent](res)
	s.True(ok)
	end, ok := findEvent[model.RoundEndEvent](res)
	s.Require().True(ok)
	s.Equal("bob", end.Winner.ID)
}

func (s *ControllerSuite) TestPlayerLeftBelowTwoAbandonsRound() {
	s.collectingLobby("alice", "bob")
	lobby := s.getLobby()
	// registry removes the member before the engine reacts
	lobby.Players = lobby.Players[:1]
	s.Require().NoError(s.storage.SaveLobby(s.ctx, lobby))

	res, err := s.controller.PlayerLeft(s.ctx, lobbyName, "bob")
	s.Require().NoError(err)

	s.Nil(s.getLobby().Round)
	s.True(res.CancelTimer)
	_, ok := findEvent[model.RoundAbandonedEvent](res)
	s.True(ok)
}
