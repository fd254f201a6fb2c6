package rounds

import (
	"time"

	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
)

// LaneCount is the number of lanes a bottle can fall in.
const LaneCount = 3

// Timing parameterises one round.
type Timing struct {
	PreFallDelay    time.Duration
	FallDuration    time.Duration
	InterRoundDelay time.Duration
	Lane            int
}

type profile struct {
	fall       time.Duration
	minDelay   time.Duration
	maxDelay   time.Duration
	interRound time.Duration
	weights    [LaneCount]float64
}

var profiles = map[difficulty.Difficulty]profile{
	difficulty.Easy: {
		fall:       3000 * time.Millisecond,
		minDelay:   1000 * time.Millisecond,
		maxDelay:   2000 * time.Millisecond,
		interRound: 2000 * time.Millisecond,
		weights:    [LaneCount]float64{0.2, 0.6, 0.2},
	},
	difficulty.Medium: {
		fall:       1500 * time.Millisecond,
		minDelay:   800 * time.Millisecond,
		maxDelay:   2000 * time.Millisecond,
		interRound: 1000 * time.Millisecond,
		weights:    [LaneCount]float64{0.3, 0.4, 0.3},
	},
	difficulty.Hard: {
		fall:       600 * time.Millisecond,
		minDelay:   200 * time.Millisecond,
		maxDelay:   1500 * time.Millisecond,
		interRound: 300 * time.Millisecond,
		weights:    [LaneCount]float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
	},
}

// unknown difficulties use the Medium profile
func profileFor(d difficulty.Difficulty) profile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[difficulty.Medium]
}

// FallDuration is how long the bottle takes to fall, which is also the window
// the player has to react.
func FallDuration(d difficulty.Difficulty) time.Duration {
	return profileFor(d).fall
}

// DelayRange returns the inclusive bounds of the random wait before a fall.
func DelayRange(d difficulty.Difficulty) (min, max time.Duration) {
	p := profileFor(d)
	return p.minDelay, p.maxDelay
}

func InterRoundDelay(d difficulty.Difficulty) time.Duration {
	return profileFor(d).interRound
}

// LaneWeights returns the probability of each lane (left, middle, right).
func LaneWeights(d difficulty.Difficulty) [LaneCount]float64 {
	return profileFor(d).weights
}
