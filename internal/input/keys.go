// Package input maps key presses onto lanes.
package input

import (
	"strings"
	"time"

	"github.com/VanXodus305/Reaction-Time-Game/internal/game"
	"github.com/VanXodus305/Reaction-Time-Game/internal/rounds"
)

// Keys holds the key bound to each lane, left to right.
var Keys = [rounds.LaneCount]string{"a", "s", "d"}

// Lane returns the lane bound to key. Matching ignores case.
func Lane(key string) (int, bool) {
	k := strings.ToLower(key)
	for i, bound := range Keys {
		if k == bound {
			return i, true
		}
	}
	return 0, false
}

// Label is the upper-case key shown under a lane.
func Label(lane int) string {
	if lane < 0 || lane >= len(Keys) {
		return ""
	}
	return strings.ToUpper(Keys[lane])
}

// Route turns a raw key press into a LanePressed event. Presses are only
// forwarded while a bottle is falling; everything else is dropped here so the
// reducer never sees them.
func Route(s game.Session, key string, at time.Time) (game.LanePressed, bool) {
	if s.Status != game.StatusPlaying || s.Phase != game.PhaseFalling {
		return game.LanePressed{}, false
	}
	lane, ok := Lane(key)
	if !ok {
		return game.LanePressed{}, false
	}
	return game.LanePressed{Lane: lane, At: at}, true
}
