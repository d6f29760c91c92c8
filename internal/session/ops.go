package session

import (
	"context"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/round"
)

// SetSettings applies new lobby settings on behalf of the host
func (s *Session) SetSettings(ctx context.Context, actor model.PlayerID, settings model.Settings) error {
	return s.do(ctx, func(ctx context.Context) (round.Result, error) {
		return s.engine.SetSettings(ctx, s.name, actor, settings)
	})
}

// StartGame begins a game on behalf of the host
func (s *Session) StartGame(ctx context.Context, actor model.PlayerID) error {
	return s.do(ctx, func(ctx context.Context) (round.Result, error) {
		return s.engine.StartGame(ctx, s.name, actor)
	})
}

// SubmitWish records the wisher's prompt
func (s *Session) SubmitWish(ctx context.Context, actor model.PlayerID, wish string) error {
	return s.do(ctx, func(ctx context.Context) (round.Result, error) {
		return s.engine.SubmitWish(ctx, s.name, actor, wish)
	})
}

// SubmitConsequence records a player's anonymous consequence
func (s *Session) SubmitConsequence(ctx context.Context, actor model.PlayerID, text string) error {
	return s.do(ctx, func(ctx context.Context) (round.Result, error) {
		return s.engine.SubmitConsequence(ctx, s.name, actor, text)
	})
}

// Vote records a player's vote for a submission's author
func (s *Session) Vote(ctx context.Context, voter, target model.PlayerID) error {
	return s.do(ctx, func(ctx context.Context) (round.Result, error) {
		return s.engine.Vote(ctx, s.name, voter, target)
	})
}

// Connect marks a member online and cancels any pending idle teardown
func (s *Session) Connect(ctx context.Context, playerID model.PlayerID) error {
	return s.do(ctx, func(ctx context.Context) (round.Result, error) {
		s.cancelTeardown()
		return s.engine.PlayerConnected(ctx, s.name, playerID)
	})
}

// Disconnect marks a member offline. When the last connection drops,
// the lobby is torn down after the disconnect grace window unless
// someone returns first.
func (s *Session) Disconnect(ctx context.Context, playerID model.PlayerID) error {
	return s.do(ctx, func(ctx context.Context) (round.Result, error) {
		res, err := s.engine.PlayerDisconnected(ctx, s.name, playerID)
		if err != nil {
			return round.Result{}, err
		}
		if lobby, gerr := s.registry.GetLobby(ctx, s.name); gerr == nil && lobby.ConnectedCount() == 0 {
			s.armTeardown(s.cfg.DisconnectGrace)
		}
		return res, nil
	})
}

// Join adds a member through the registry and announces the new roster
func (s *Session) Join(ctx context.Context, password, username string, spectator bool, presentedToken string) (*model.Lobby, *model.Player, *model.Credential, error) {
	var (
		lobby  *model.Lobby
		player *model.Player
		cred   *model.Credential
	)
	err := s.do(ctx, func(ctx context.Context) (round.Result, error) {
		var err error
		lobby, player, cred, err = s.registry.JoinLobby(ctx, s.name, password, username, spectator, presentedToken)
		if err != nil {
			return round.Result{}, err
		}
		var res round.Result
		res.Effects = append(res.Effects, round.Effect{Event: round.PlayersUpdate(lobby)})
		return res, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return lobby, player, cred, nil
}

// Leave removes a member through the registry. It reports whether the
// lobby was destroyed because the last member left.
func (s *Session) Leave(ctx context.Context, playerID model.PlayerID) (bool, error) {
	var destroyed bool
	err := s.do(ctx, func(ctx context.Context) (round.Result, error) {
		_, gone, err := s.registry.LeaveLobby(ctx, s.name, playerID)
		if err != nil {
			return round.Result{}, err
		}
		if gone {
			destroyed = true
			return round.Result{CancelTimer: true}, nil
		}
		return s.engine.PlayerLeft(ctx, s.name, playerID)
	})
	return destroyed, err
}
