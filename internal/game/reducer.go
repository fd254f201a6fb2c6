package game

import (
	"fmt"
	"time"

	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
	"github.com/VanXodus305/Reaction-Time-Game/internal/rounds"
)

type Event interface{ event() }

// Start begins a new session, discarding any session in progress. Timing is
// the first round's timing.
type Start struct {
	Difficulty difficulty.Difficulty
	Timing     rounds.Timing
}

// TimerFired reports that the timer identified by Token expired at At. Next
// carries the timing of the following round and is only read for
// inter-round timers.
type TimerFired struct {
	Token TimerToken
	At    time.Time
	Next  rounds.Timing
}

// LanePressed is a key press already mapped to a lane.
type LanePressed struct {
	Lane int
	At   time.Time
}

// Reset returns to the not-started state.
type Reset struct{}

func (Start) event()       {}
func (TimerFired) event()  {}
func (LanePressed) event() {}
func (Reset) event()       {}

type Effect interface{ effect() }

// Schedule asks for a timer that fires Token after the given delay. It
// replaces any outstanding timer.
type Schedule struct {
	Token TimerToken
	After time.Duration
}

// CancelTimers asks for every outstanding timer to be stopped.
type CancelTimers struct{}

// Completed is emitted once, when the last round resolves.
type Completed struct{}

func (Schedule) effect()     {}
func (CancelTimers) effect() {}
func (Completed) effect()    {}

// Reduce applies ev to s and returns the new session with the effects the
// caller must carry out.
func Reduce(s Session, ev Event) (Session, []Effect) {
	switch ev := ev.(type) {
	case Start:
		return start(s, ev)
	case TimerFired:
		return fire(s, ev)
	case LanePressed:
		return press(s, ev)
	case Reset:
		next := New()
		next.Epoch = s.Epoch + 1
		return next, []Effect{CancelTimers{}}
	}
	return s, nil
}

func start(s Session, ev Start) (Session, []Effect) {
	next := Session{
		Status:     StatusPlaying,
		Phase:      PhaseAwaitingFall,
		Difficulty: difficulty.Parse(string(ev.Difficulty)),
		Timing:     ev.Timing,
		Epoch:      s.Epoch + 1,
		Message:    roundMessage(0),
	}
	next.Pending = TimerToken{Epoch: next.Epoch, Round: 0, Kind: TimerPreFall}
	return next, []Effect{CancelTimers{}, Schedule{Token: next.Pending, After: ev.Timing.PreFallDelay}}
}

func fire(s Session, ev TimerFired) (Session, []Effect) {
	if s.Status != StatusPlaying || s.Pending.IsZero() || ev.Token != s.Pending {
		return s, nil
	}

	switch ev.Token.Kind {
	case TimerPreFall:
		s.Phase = PhaseFalling
		s.FallStartedAt = ev.At
		s.Lanes = [rounds.LaneCount]Indicator{}
		s.Message = "Catch it!"
		s.Pending = TimerToken{Epoch: s.Epoch, Round: s.RoundIndex, Kind: TimerFallTimeout}
		return s, []Effect{Schedule{Token: s.Pending, After: s.Timing.FallDuration}}

	case TimerFallTimeout:
		return resolve(s, Missed(), "Too slow!")

	case TimerInterRound:
		s.Phase = PhaseAwaitingFall
		s.Timing = ev.Next
		s.Lanes = [rounds.LaneCount]Indicator{}
		s.Message = roundMessage(s.RoundIndex)
		s.Pending = TimerToken{Epoch: s.Epoch, Round: s.RoundIndex, Kind: TimerPreFall}
		return s, []Effect{Schedule{Token: s.Pending, After: s.Timing.PreFallDelay}}
	}
	return s, nil
}

func press(s Session, ev LanePressed) (Session, []Effect) {
	if s.Status != StatusPlaying || s.Phase != PhaseFalling {
		return s, nil
	}
	if ev.Lane < 0 || ev.Lane >= rounds.LaneCount {
		return s, nil
	}

	if ev.Lane == s.Timing.Lane {
		ms := ev.At.Sub(s.FallStartedAt).Milliseconds()
		if ms < 0 {
			ms = 0
		}
		s.Lanes[ev.Lane] = Correct
		return resolve(s, Hit(ms), fmt.Sprintf("Caught it in %d ms!", ms))
	}

	s.Lanes[ev.Lane] = Wrong
	// Easy keeps the round open; only the fall timeout can end it now.
	if s.Difficulty == difficulty.Easy {
		s.Message = "Wrong key, try again!"
		return s, nil
	}
	return resolve(s, WrongKey(), "Wrong key!")
}

// resolve closes the current round. It is the only place a record is
// appended, and it does nothing unless the round is still open.
func resolve(s Session, r RoundResult, msg string) (Session, []Effect) {
	if s.Phase != PhaseFalling {
		return s, nil
	}

	records := make([]RoundResult, len(s.Records), len(s.Records)+1)
	copy(records, s.Records)
	s.Records = append(records, r)
	s.RoundIndex++
	if r.Outcome == OutcomeHit && (!s.hasBest || r.ReactionMs < s.bestMs) {
		s.bestMs = r.ReactionMs
		s.hasBest = true
	}
	s.Message = msg

	effects := []Effect{CancelTimers{}}
	if s.RoundIndex == TotalRounds {
		s.Status = StatusFinished
		s.Phase = PhaseComplete
		s.Pending = TimerToken{}
		return s, append(effects, Completed{})
	}

	s.Phase = PhaseResolved
	s.Pending = TimerToken{Epoch: s.Epoch, Round: s.RoundIndex, Kind: TimerInterRound}
	return s, append(effects, Schedule{Token: s.Pending, After: s.Timing.InterRoundDelay})
}

func roundMessage(index int) string {
	return fmt.Sprintf("Round %d of %d. Get ready...", index+1, TotalRounds)
}
