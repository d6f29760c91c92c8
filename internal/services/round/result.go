package round

import (
	"time"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

// Effect pairs an outbound event with its audience. A zero To value
// addresses the whole lobby; otherwise only the named player's
// connection receives it.
type Effect struct {
	To    model.PlayerID
	Event any
}

// TimerReq asks the caller to arm the deadline timer for a phase of a
// specific round. The round index is carried so a callback firing after
// the round has moved on can be recognized as stale.
type TimerReq struct {
	Phase      model.Phase
	RoundIndex int
	Duration   time.Duration
}

// Result is the outcome of one engine step: the events to deliver and
// the timer transition to apply. Exactly one timer is live per lobby;
// arming replaces it, CancelTimer clears it without a replacement.
type Result struct {
	Effects     []Effect
	ArmTimer    *TimerReq
	CancelTimer bool
	GameOver    bool
}

func (r *Result) broadcast(event any) {
	r.Effects = append(r.Effects, Effect{Event: event})
}

func (r *Result) sendTo(player model.PlayerID, event any) {
	r.Effects = append(r.Effects, Effect{To: player, Event: event})
}

func (r *Result) merge(other Result) {
	r.Effects = append(r.Effects, other.Effects...)
	if other.ArmTimer != nil {
		r.ArmTimer = other.ArmTimer
		r.CancelTimer = false
	}
	if other.CancelTimer {
		r.ArmTimer = nil
		r.CancelTimer = true
	}
	r.GameOver = r.GameOver || other.GameOver
}
