// Package game holds the round state machine of a play session.
//
// The session is a plain value advanced by Reduce. Reduce never touches a clock
// or a timer; it returns effects that the caller (see package runner) executes.
package game

import (
	"fmt"
	"time"

	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
	"github.com/VanXodus305/Reaction-Time-Game/internal/rounds"
)

// TotalRounds is the number of rounds in a session.
const TotalRounds = 5

type Status string

const (
	StatusNotStarted = Status("not_started")
	StatusPlaying    = Status("playing")
	StatusFinished   = Status("finished")
)

type Phase string

const (
	PhaseIdle         = Phase("idle")
	PhaseAwaitingFall = Phase("awaiting_fall")
	PhaseFalling      = Phase("falling")
	PhaseResolved     = Phase("resolved")
	PhaseComplete     = Phase("complete")
)

type Outcome string

const (
	OutcomeHit      = Outcome("hit")
	OutcomeWrongKey = Outcome("wrong_key")
	OutcomeMissed   = Outcome("missed")
)

// RoundResult is the resolution of one round. ReactionMs is only meaningful for
// hits.
type RoundResult struct {
	Outcome    Outcome
	ReactionMs int64
}

func Hit(ms int64) RoundResult { return RoundResult{Outcome: OutcomeHit, ReactionMs: ms} }
func WrongKey() RoundResult    { return RoundResult{Outcome: OutcomeWrongKey} }
func Missed() RoundResult      { return RoundResult{Outcome: OutcomeMissed} }

func (r RoundResult) String() string {
	switch r.Outcome {
	case OutcomeHit:
		return fmt.Sprintf("Hit%d", r.ReactionMs)
	case OutcomeWrongKey:
		return "WrongKey"
	default:
		return "Missed"
	}
}

// Indicator is the feedback state of a lane.
type Indicator int

const (
	Neutral Indicator = iota
	Correct
	Wrong
)

type TimerKind string

const (
	TimerPreFall     = TimerKind("pre_fall")
	TimerFallTimeout = TimerKind("fall_timeout")
	TimerInterRound  = TimerKind("inter_round")
)

// TimerToken identifies a scheduled timer. A firing whose token does not match
// the session's pending token is stale and ignored.
type TimerToken struct {
	Epoch uint64
	Round int
	Kind  TimerKind
}

func (t TimerToken) IsZero() bool {
	return t == TimerToken{}
}

type Session struct {
	Status        Status
	Phase         Phase
	Difficulty    difficulty.Difficulty
	RoundIndex    int
	Records       []RoundResult
	Timing        rounds.Timing
	FallStartedAt time.Time
	Lanes         [rounds.LaneCount]Indicator
	Message       string

	// Epoch changes on every start and reset so timers from an earlier
	// session can never match Pending.
	Epoch   uint64
	Pending TimerToken

	bestMs  int64
	hasBest bool
}

// New returns a session that has not started yet.
func New() Session {
	return Session{
		Status:  StatusNotStarted,
		Phase:   PhaseIdle,
		Message: "Press Enter to start",
	}
}

// BestTime is the running minimum over the session's hits.
func (s Session) BestTime() (int64, bool) {
	return s.bestMs, s.hasBest
}

// BestTime returns the fastest hit in records, if any.
func BestTime(records []RoundResult) (int64, bool) {
	var best int64
	found := false
	for _, r := range records {
		if r.Outcome != OutcomeHit {
			continue
		}
		if !found || r.ReactionMs < best {
			best = r.ReactionMs
			found = true
		}
	}
	return best, found
}
