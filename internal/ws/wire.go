package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

// Client-to-server message vocabulary
const (
	msgSetSettings       = "set_settings"
	msgStartGame         = "start_game"
	msgSubmitWish        = "submit_wish"
	msgSubmitConsequence = "submit_consequence"
	msgVote              = "vote"
	msgLeaveLobby        = "leave_lobby"
)

// clientMessage is the envelope for every inbound websocket message.
// Fields beyond Type are populated per message type.
type clientMessage struct {
	Type     string              `json:"type"`
	Settings *model.SettingsInfo `json:"settings,omitempty"`
	Wish     string              `json:"wish,omitempty"`
	Text     string              `json:"text,omitempty"`
	Target   string              `json:"target,omitempty"`
}

// dispatch decodes one inbound message and applies it through the
// lobby session. Failures go back to this connection only, as error
// events; the connection stays up.
func (c *Client) dispatch(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		// Dropped rather than answered, so a misbehaving client cannot
		// turn garbage into broadcast-adjacent traffic.
		c.logger.Debug("ws message dropped - malformed JSON",
			slog.String("error", err.Error()))
		return
	}

	ctx := context.Background()
	var err error
	switch msg.Type {
	case msgSetSettings:
		if msg.Settings == nil {
			err = fmt.Errorf("%w: settings required", model.ErrValidation)
			break
		}
		err = c.sess.SetSettings(ctx, c.playerID, model.Settings{
			TimerSeconds: msg.Settings.TimerSeconds,
			ScoreGoal:    msg.Settings.ScoreGoal,
		})
	case msgStartGame:
		err = c.sess.StartGame(ctx, c.playerID)
	case msgSubmitWish:
		err = c.sess.SubmitWish(ctx, c.playerID, msg.Wish)
	case msgSubmitConsequence:
		err = c.sess.SubmitConsequence(ctx, c.playerID, msg.Text)
	case msgVote:
		err = c.sess.Vote(ctx, c.playerID, model.PlayerID(msg.Target))
	case msgLeaveLobby:
		// Departure is handled at the handler level so the connection
		// teardown does not double as a disconnect.
		c.leaveRequested = true
		c.conn.Close()
		return
	case "create_lobby", "join_lobby":
		err = fmt.Errorf("%w: %s is served over the HTTP API", model.ErrWrongPhase, msg.Type)
	default:
		err = fmt.Errorf("%w: unknown message type %q", model.ErrValidation, msg.Type)
	}

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Debug("ws message rejected",
				slog.String("type", msg.Type),
				slog.String("error", err.Error()),
			)
		}
		c.sendEvent(model.NewErrorEvent(err))
	}
}
