package round

import (
	"context"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

// PlayerConnected marks a member online and hands them a full state
// snapshot alongside the lobby-wide roster update
func (c *Controller) PlayerConnected(ctx context.Context, name model.LobbyName, playerID model.PlayerID) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}
	player := lobby.GetPlayer(playerID)
	if player == nil {
		return Result{}, model.ErrPlayerNotFound
	}

	player.Connected = true
	lobby.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}

	var res Result
	res.broadcast(PlayersUpdate(lobby))
	res.sendTo(playerID, StateSync(lobby, playerID))
	return res, nil
}

// PlayerDisconnected marks a member offline. A disconnected wisher who
// has not yet wished forfeits the role; shrinking the responder set may
// complete the collecting or voting phase.
func (c *Controller) PlayerDisconnected(ctx context.Context, name model.LobbyName, playerID model.PlayerID) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}
	player := lobby.GetPlayer(playerID)
	if player == nil {
		return Result{}, model.ErrPlayerNotFound
	}

	player.Connected = false
	lobby.UpdatedAt = c.clock.Now()

	var res Result
	res.broadcast(PlayersUpdate(lobby))
	res.merge(c.reactToAbsence(lobby, playerID))

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}
	return res, nil
}

// PlayerLeft reacts to a member's removal after the registry has taken
// them out of the roster. The departed wisher's pending round rotates;
// an active round with fewer than two remaining players is abandoned.
func (c *Controller) PlayerLeft(ctx context.Context, name model.LobbyName, departed model.PlayerID) (Result, error) {
	lobby, err := c.storage.GetLobby(ctx, name)
	if err != nil {
		return Result{}, err
	}

	var res Result
	res.broadcast(PlayersUpdate(lobby))

	if lobby.Round != nil && len(lobby.ActivePlayers()) < 2 {
		lobby.Round = nil
		res.broadcast(model.RoundAbandonedEvent{Type: model.EventRoundAbandoned})
		res.CancelTimer = true
	} else {
		res.merge(c.reactToAbsence(lobby, departed))
	}

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return Result{}, err
	}
	return res, nil
}

// reactToAbsence re-evaluates an in-flight round after a member goes
// away, whether by disconnect or departure. Submissions and votes
// already recorded stay valid.
func (c *Controller) reactToAbsence(lobby *model.Lobby, absent model.PlayerID) Result {
	if lobby.Round == nil {
		return Result{}
	}
	switch lobby.Round.Phase {
	case model.PhaseWishPending:
		if lobby.Round.WisherID == absent {
			return c.startNextRound(lobby)
		}
	case model.PhaseCollecting:
		return c.maybeFinishCollecting(lobby)
	case model.PhaseVoting:
		return c.maybeFinishVoting(lobby)
	}
	return Result{}
}

// PlayersUpdate builds the roster broadcast for a lobby
func PlayersUpdate(lobby *model.Lobby) model.PlayersUpdateEvent {
	infos := make([]model.PlayerInfo, 0, len(lobby.Players))
	for _, p := range lobby.Players {
		infos = append(infos, model.PlayerInfoFromModel(p))
	}
	return model.PlayersUpdateEvent{
		Type:    model.EventPlayersUpdate,
		Players: infos,
	}
}

// StateSync builds the full-state snapshot for one member. Submissions
// are only included once they have been revealed.
func StateSync(lobby *model.Lobby, playerID model.PlayerID) model.StateSyncEvent {
	ev := model.StateSyncEvent{
		Type:     model.EventStateSync,
		PlayerID: string(playerID),
		Players:  PlayersUpdate(lobby).Players,
		Settings: model.SettingsInfoFromModel(lobby.Settings),
	}
	if lobby.Round != nil {
		info := model.RoundInfoFromModel(lobby.Round)
		ev.Round = &info
		switch lobby.Round.Phase {
		case model.PhaseVoting, model.PhaseRoundResolved, model.PhaseGameOver:
			ev.Submissions = submissionInfos(lobby.Round)
		}
	}
	return ev
}
