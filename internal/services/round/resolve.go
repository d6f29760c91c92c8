package round

import (
	"log/slog"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

// maybeFinishCollecting advances to voting once every connected
// eligible responder has submitted. An empty responder set is left to
// the phase timer rather than advanced on the spot.
func (c *Controller) maybeFinishCollecting(lobby *model.Lobby) Result {
	eligible := lobby.EligibleResponders(lobby.Round.WisherID)
	if len(eligible) == 0 {
		return Result{}
	}
	for _, p := range eligible {
		if _, ok := lobby.Round.Submissions[p.ID]; !ok {
			return Result{}
		}
	}
	return c.revealSubmissions(lobby)
}

// revealSubmissions publishes the anonymized submission set and opens
// the voting phase. A round nobody can vote on resolves on the spot.
func (c *Controller) revealSubmissions(lobby *model.Lobby) Result {
	lobby.Round.Phase = model.PhaseVoting

	var res Result
	res.broadcast(model.SubmissionsRevealedEvent{
		Type:        model.EventSubmissionsRevealed,
		Submissions: c.shuffledSubmissionInfos(lobby.Round),
	})
	res.ArmTimer = &TimerReq{
		Phase:      model.PhaseVoting,
		RoundIndex: lobby.Round.Index,
		Duration:   phaseDuration(lobby),
	}
	res.merge(c.maybeFinishVoting(lobby))
	return res
}

// eligibleVoters returns the connected responders with something to
// vote for. A voter whose own submission is the only one has no valid
// target and is not waited on.
func eligibleVoters(lobby *model.Lobby) []*model.Player {
	subs := lobby.Round.Submissions
	var voters []*model.Player
	for _, p := range lobby.EligibleResponders(lobby.Round.WisherID) {
		if _, own := subs[p.ID]; own && len(subs) == 1 {
			continue
		}
		voters = append(voters, p)
	}
	return voters
}

// maybeFinishVoting resolves the round once every voter who can act
// has voted. When nobody can vote at all, the round resolves with the
// votes on hand (so a sole submission wins by default).
func (c *Controller) maybeFinishVoting(lobby *model.Lobby) Result {
	voters := eligibleVoters(lobby)
	if len(voters) == 0 {
		return c.resolve(lobby)
	}
	for _, p := range voters {
		if _, ok := lobby.Round.Votes[p.ID]; !ok {
			return Result{}
		}
	}
	return c.resolve(lobby)
}

// resolve picks the round winner, applies the point, and either ends
// the game or schedules the next round. Ties, and a voteless round,
// both fall to the earliest submission among the leaders.
func (c *Controller) resolve(lobby *model.Lobby) Result {
	round := lobby.Round
	subs := round.SubmissionsInOrder()
	if len(subs) == 0 {
		return c.startNextRound(lobby)
	}

	tally := round.Tally()
	var winning *model.Submission
	best := -1
	for _, s := range subs {
		if lobby.GetPlayer(s.PlayerID) == nil {
			continue // author has since left
		}
		if tally[s.PlayerID] > best {
			best = tally[s.PlayerID]
			winning = s
		}
	}
	if winning == nil {
		return c.startNextRound(lobby)
	}

	winner := lobby.GetPlayer(winning.PlayerID)
	winner.Score++
	round.Phase = model.PhaseRoundResolved

	scores := make(map[string]int, len(lobby.Players))
	for _, p := range lobby.Players {
		if !p.IsSpectator {
			scores[string(p.ID)] = p.Score
		}
	}

	c.logger.Info("round resolved",
		slog.String("lobby", string(lobby.Name)),
		slog.Int("round", round.Index),
		slog.String("winner", string(winner.ID)),
		slog.Int("votes", best),
	)

	var res Result
	res.broadcast(model.RoundEndEvent{
		Type:        model.EventRoundEnd,
		Winner:      model.PlayerInfoFromModel(winner),
		Scores:      scores,
		Submissions: submissionInfos(round),
	})

	if winner.Score >= lobby.Settings.ScoreGoal {
		round.Phase = model.PhaseGameOver
		res.broadcast(model.GameOverEvent{
			Type:   model.EventGameOver,
			Winner: model.PlayerInfoFromModel(winner),
		})
		res.CancelTimer = true
		res.GameOver = true
		return res
	}

	res.ArmTimer = &TimerReq{
		Phase:      model.PhaseRoundResolved,
		RoundIndex: round.Index,
		Duration:   resolveDelay,
	}
	return res
}

// startNextRound rotates the wisher role in join order and opens the
// next round. With fewer than two connected players the lobby drops
// back to waiting instead.
func (c *Controller) startNextRound(lobby *model.Lobby) Result {
	var res Result
	if len(connectedActive(lobby)) < 2 {
		lobby.Round = nil
		res.broadcast(model.RoundAbandonedEvent{Type: model.EventRoundAbandoned})
		res.CancelTimer = true
		return res
	}

	next := c.nextWisher(lobby, lobby.Round.WisherID)
	lobby.Round = model.NewRound(lobby.Round.Index+1, next)

	res.broadcast(model.RoundStartedEvent{
		Type:  model.EventRoundStarted,
		Round: model.RoundInfoFromModel(lobby.Round),
	})
	res.ArmTimer = &TimerReq{
		Phase:      model.PhaseWishPending,
		RoundIndex: lobby.Round.Index,
		Duration:   phaseDuration(lobby),
	}
	return res
}

// nextWisher walks the member list in join order from the current
// wisher, wrapping, and returns the first connected non-spectator.
// Players who have left, spectators and the disconnected are skipped
// at selection time.
func (c *Controller) nextWisher(lobby *model.Lobby, current model.PlayerID) model.PlayerID {
	start := 0
	for i, p := range lobby.Players {
		if p.ID == current {
			start = i + 1
			break
		}
	}
	n := len(lobby.Players)
	for i := 0; i < n; i++ {
		p := lobby.Players[(start+i)%n]
		if p.Eligible() && p.Connected && p.ID != current {
			return p.ID
		}
	}
	return current
}

func submissionInfos(round *model.Round) []model.SubmissionInfo {
	subs := round.SubmissionsInOrder()
	infos := make([]model.SubmissionInfo, 0, len(subs))
	for _, s := range subs {
		infos = append(infos, model.SubmissionInfo{
			PlayerID: string(s.PlayerID),
			Text:     s.Text,
		})
	}
	return infos
}

// shuffledSubmissionInfos randomizes the broadcast order at reveal so
// arrival order does not give the authors away. Resolution still ties
// break on the stored arrival order, not the broadcast order.
func (c *Controller) shuffledSubmissionInfos(round *model.Round) []model.SubmissionInfo {
	infos := submissionInfos(round)
	for i := len(infos) - 1; i > 0; i-- {
		j := c.random.Intn(i + 1)
		infos[i], infos[j] = infos[j], infos[i]
	}
	return infos
}
