package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/clock"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/registry"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/round"
)

// Broadcaster delivers events to the connections bound to one lobby.
// Implementations must never block the caller.
type Broadcaster interface {
	Broadcast(event any)
	SendTo(player model.PlayerID, event any)
	CloseAll()
}

// Session is the single writer for one lobby. Every mutation, whether
// driven by a connection or a timer, runs as a closure on the session's
// goroutine, so no two steps over the same lobby ever interleave.
type Session struct {
	name     model.LobbyName
	registry *registry.Controller
	engine   *round.Controller
	bus      Broadcaster
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	cmds chan func()
	done chan struct{}

	// actor-goroutine state, touched only inside commands
	phaseTimer    clock.Timer
	teardownTimer clock.Timer

	// onIdle is invoked, off the actor goroutine, when the lobby should
	// be destroyed after its grace or retention window elapses
	onIdle func(model.LobbyName)
}

func newSession(
	name model.LobbyName,
	reg *registry.Controller,
	engine *round.Controller,
	bus Broadcaster,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
	onIdle func(model.LobbyName),
) *Session {
	s := &Session{
		name:     name,
		registry: reg,
		engine:   engine,
		bus:      bus,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("lobby", string(name))),
		cmds:     make(chan func(), 64),
		done:     make(chan struct{}),
		onIdle:   onIdle,
	}
	go s.run()
	return s
}

func (s *Session) run() {
	for {
		select {
		case f := <-s.cmds:
			f()
		case <-s.done:
			return
		}
	}
}

// do runs one engine step on the actor goroutine and applies its
// result before returning the step's error to the caller.
func (s *Session) do(ctx context.Context, step func(context.Context) (round.Result, error)) error {
	errc := make(chan error, 1)
	cmd := func() {
		res, err := step(ctx)
		if err == nil {
			s.apply(res)
		}
		errc <- err
	}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return model.ErrLobbyNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-s.done:
		return model.ErrLobbyNotFound
	}
}

// apply delivers a step's effects and transitions the phase timer.
// Runs on the actor goroutine.
func (s *Session) apply(res round.Result) {
	for _, e := range res.Effects {
		if e.To == "" {
			s.bus.Broadcast(e.Event)
		} else {
			s.bus.SendTo(e.To, e.Event)
		}
	}

	if res.ArmTimer != nil || res.CancelTimer {
		if s.phaseTimer != nil {
			s.phaseTimer.Stop()
			s.phaseTimer = nil
		}
	}
	if req := res.ArmTimer; req != nil {
		phase, index := req.Phase, req.RoundIndex
		s.phaseTimer = s.clock.AfterFunc(req.Duration, func() {
			s.expire(phase, index)
		})
	}
	if res.GameOver {
		s.armTeardown(s.cfg.GameOverRetention)
	}
}

// expire posts a phase deadline back onto the actor goroutine. Fired
// timers for rounds that have moved on are filtered by the engine.
func (s *Session) expire(phase model.Phase, roundIndex int) {
	cmd := func() {
		res, err := s.engine.HandleExpiredTimer(context.Background(), s.name, phase, roundIndex)
		if err != nil {
			s.logger.Error("phase deadline handling failed", slog.String("error", err.Error()))
			return
		}
		s.apply(res)
	}
	select {
	case s.cmds <- cmd:
	case <-s.done:
	}
}

// armTeardown schedules lobby destruction, replacing any pending one
func (s *Session) armTeardown(after time.Duration) {
	if s.teardownTimer != nil {
		s.teardownTimer.Stop()
	}
	s.teardownTimer = s.clock.AfterFunc(after, func() {
		s.onIdle(s.name)
	})
}

func (s *Session) cancelTeardown() {
	if s.teardownTimer != nil {
		s.teardownTimer.Stop()
		s.teardownTimer = nil
	}
}

// close stops the actor and its timers. Commands in flight after close
// report the lobby as gone.
func (s *Session) close() {
	done := make(chan struct{})
	cmd := func() {
		if s.phaseTimer != nil {
			s.phaseTimer.Stop()
		}
		s.cancelTeardown()
		close(done)
	}
	select {
	case s.cmds <- cmd:
		<-done
	case <-s.done:
		return
	}
	close(s.done)
	s.bus.CloseAll()
}
