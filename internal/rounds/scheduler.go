// Package rounds derives per-round timing from a difficulty setting.
package rounds

import (
	"math/rand/v2"
	"time"

	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
)

// Scheduler draws round timings. It is not safe for concurrent use; the runner
// calls it from its event loop only.
type Scheduler struct {
	rng *rand.Rand
}

// NewScheduler returns a Scheduler drawing from rng. A nil rng gets a randomly
// seeded PCG source.
func NewScheduler(rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Scheduler{rng: rng}
}

// Next returns a fresh timing for one round at difficulty d.
func (s *Scheduler) Next(d difficulty.Difficulty) Timing {
	p := profileFor(d)
	minMs := p.minDelay.Milliseconds()
	maxMs := p.maxDelay.Milliseconds()
	delayMs := minMs + s.rng.Int64N(maxMs-minMs+1)

	return Timing{
		PreFallDelay:    time.Duration(delayMs) * time.Millisecond,
		FallDuration:    p.fall,
		InterRoundDelay: p.interRound,
		Lane:            pickLane(p.weights, s.rng.Float64()),
	}
}

// pickLane maps r in [0,1) onto the cumulative weights.
func pickLane(weights [LaneCount]float64, r float64) int {
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	return LaneCount - 1
}
