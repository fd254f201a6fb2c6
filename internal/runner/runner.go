// Package runner drives a game session in real time. It owns the only
// goroutine that touches the session and executes the reducer's timer effects
// with a clockwork clock.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
	"github.com/VanXodus305/Reaction-Time-Game/internal/game"
	"github.com/VanXodus305/Reaction-Time-Game/internal/input"
	"github.com/VanXodus305/Reaction-Time-Game/internal/rounds"
)

// ErrStopped is returned when a command is sent after Run has returned.
var ErrStopped = errors.New("runner stopped")

const (
	inboxSize   = 16
	updatesSize = 64
)

// Planner produces the timing of the next round.
type Planner interface {
	Next(d difficulty.Difficulty) rounds.Timing
}

// message is either a reducer event or a raw key that still needs routing
// against the current session.
type message struct {
	event game.Event
	key   string
	at    time.Time
}

type Runner struct {
	id      uuid.UUID
	clock   clockwork.Clock
	planner Planner
	logger  zerolog.Logger

	inbox   chan message
	updates chan game.Session
	done    chan struct{}

	mu   sync.Mutex
	last game.Session

	// owned by the Run goroutine
	session game.Session
	timer   clockwork.Timer
}

// New creates a runner. A nil clock uses the real clock and a nil planner
// uses a randomly seeded rounds.Scheduler.
func New(clock clockwork.Clock, planner Planner) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if planner == nil {
		planner = rounds.NewScheduler(nil)
	}
	id := uuid.New()
	return &Runner{
		id:      id,
		clock:   clock,
		planner: planner,
		logger:  log.With().Str("component", "runner").Str("runner_id", id.String()[:8]).Logger(),
		inbox:   make(chan message, inboxSize),
		updates: make(chan game.Session, updatesSize),
		done:    make(chan struct{}),
		session: game.New(),
		last:    game.New(),
	}
}

// Updates delivers a snapshot after every change to the session. When the
// consumer falls behind the oldest snapshots are dropped. The channel is
// closed when Run returns.
func (r *Runner) Updates() <-chan game.Session {
	return r.updates
}

// Snapshot returns the most recently published session.
func (r *Runner) Snapshot() game.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Start begins a new session. It also serves as play again.
func (r *Runner) Start(ctx context.Context, d difficulty.Difficulty) error {
	return r.send(ctx, message{event: game.Start{Difficulty: d}})
}

// Press reports a key press. The timestamp is taken here, before the press
// waits in the inbox.
func (r *Runner) Press(ctx context.Context, key string) error {
	return r.send(ctx, message{key: key, at: r.clock.Now()})
}

func (r *Runner) Reset(ctx context.Context) error {
	return r.send(ctx, message{event: game.Reset{}})
}

func (r *Runner) send(ctx context.Context, m message) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}
	select {
	case r.inbox <- m:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands and timer firings until ctx is cancelled. It must be
// called exactly once.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Debug().Msg("runner started")
	defer func() {
		r.stopTimer()
		close(r.done)
		close(r.updates)
		r.logger.Debug().Msg("runner stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-r.inbox:
			r.handle(m)
		}
	}
}

func (r *Runner) handle(m message) {
	ev := m.event
	if ev == nil {
		pressed, ok := input.Route(r.session, m.key, m.at)
		if !ok {
			return
		}
		ev = pressed
	}

	// Randomness is drawn here so the planner is only used from this goroutine.
	switch e := ev.(type) {
	case game.Start:
		e.Timing = r.planner.Next(e.Difficulty)
		ev = e
	case game.TimerFired:
		if e.Token == r.session.Pending && e.Token.Kind == game.TimerInterRound {
			e.Next = r.planner.Next(r.session.Difficulty)
			ev = e
		}
	}

	next, effects := game.Reduce(r.session, ev)
	if len(effects) == 0 && sameState(r.session, next) {
		return
	}
	r.session = next
	r.apply(effects)
	r.publish(next)
}

func (r *Runner) apply(effects []game.Effect) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case game.CancelTimers:
			r.stopTimer()
		case game.Schedule:
			r.stopTimer()
			token := e.Token
			r.timer = r.clock.AfterFunc(e.After, func() { r.fire(token) })
			r.logger.Debug().
				Str("kind", string(token.Kind)).
				Int("round", token.Round).
				Dur("after", e.After).
				Msg("timer scheduled")
		case game.Completed:
			best, ok := r.session.BestTime()
			r.logger.Info().
				Str("difficulty", r.session.Difficulty.String()).
				Bool("has_best", ok).
				Int64("best_ms", best).
				Msg("session complete")
		}
	}
}

// fire runs on the clock's goroutine and hands the expiry to the loop.
func (r *Runner) fire(token game.TimerToken) {
	select {
	case r.inbox <- message{event: game.TimerFired{Token: token, At: r.clock.Now()}}:
	case <-r.done:
	}
}

// stopTimer cancels the outstanding timer. A firing that races the stop is
// rejected by the reducer because its token is no longer pending.
func (r *Runner) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Runner) publish(s game.Session) {
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()

	select {
	case r.updates <- s:
		return
	default:
	}
	select {
	case <-r.updates:
	default:
	}
	select {
	case r.updates <- s:
	default:
		r.logger.Warn().Msg("dropping session update")
	}
}

func sameState(a, b game.Session) bool {
	return a.Status == b.Status &&
		a.Phase == b.Phase &&
		a.RoundIndex == b.RoundIndex &&
		a.Lanes == b.Lanes &&
		a.Message == b.Message &&
		a.Epoch == b.Epoch
}
