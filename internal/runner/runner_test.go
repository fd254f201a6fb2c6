package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
	"github.com/VanXodus305/Reaction-Time-Game/internal/game"
	"github.com/VanXodus305/Reaction-Time-Game/internal/rounds"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// fixedPlanner hands out timings in order and repeats the last one.
type fixedPlanner struct {
	timings []rounds.Timing
	n       int
}

func (p *fixedPlanner) Next(d difficulty.Difficulty) rounds.Timing {
	tm := p.timings[min(p.n, len(p.timings)-1)]
	p.n++
	return tm
}

func hardTiming(pre time.Duration, lane int) rounds.Timing {
	return rounds.Timing{
		PreFallDelay:    pre,
		FallDuration:    rounds.FallDuration(difficulty.Hard),
		InterRoundDelay: rounds.InterRoundDelay(difficulty.Hard),
		Lane:            lane,
	}
}

func startRunner(t *testing.T, timings ...rounds.Timing) (*Runner, *clockwork.FakeClock, context.Context, context.CancelFunc) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	r := New(clock, &fixedPlanner{timings: timings})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)
	return r, clock, ctx, cancel
}

func waitFor(t *testing.T, r *Runner, desc string, pred func(game.Session) bool) game.Session {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-r.Updates():
			if !ok {
				t.Fatalf("updates closed while waiting for %s", desc)
			}
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", desc)
		}
	}
}

func phaseIs(p game.Phase) func(game.Session) bool {
	return func(s game.Session) bool { return s.Phase == p }
}

// armed waits until the loop has scheduled its timer.
func armed(t *testing.T, ctx context.Context, clock *clockwork.FakeClock) {
	t.Helper()
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(wctx, 1); err != nil {
		t.Fatalf("timer never scheduled: %v", err)
	}
}

func TestRunnerHit(t *testing.T) {
	r, clock, ctx, _ := startRunner(t, hardTiming(500*time.Millisecond, 0))

	if err := r.Start(ctx, difficulty.Hard); err != nil {
		t.Fatal(err)
	}
	waitFor(t, r, "awaiting fall", phaseIs(game.PhaseAwaitingFall))
	armed(t, ctx, clock)
	clock.Advance(500 * time.Millisecond)
	waitFor(t, r, "falling", phaseIs(game.PhaseFalling))

	clock.Advance(120 * time.Millisecond)
	if err := r.Press(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	s := waitFor(t, r, "resolved", phaseIs(game.PhaseResolved))

	if len(s.Records) != 1 || s.Records[0].String() != "Hit120" {
		t.Errorf("records = %v, want [Hit120]", s.Records)
	}
	if best, ok := s.BestTime(); !ok || best != 120 {
		t.Errorf("best = %d,%v", best, ok)
	}
}

func TestRunnerTimeout(t *testing.T) {
	r, clock, ctx, _ := startRunner(t, hardTiming(200*time.Millisecond, 2))

	r.Start(ctx, difficulty.Hard)
	waitFor(t, r, "awaiting fall", phaseIs(game.PhaseAwaitingFall))
	armed(t, ctx, clock)
	clock.Advance(200 * time.Millisecond)
	waitFor(t, r, "falling", phaseIs(game.PhaseFalling))
	armed(t, ctx, clock)
	clock.Advance(rounds.FallDuration(difficulty.Hard))

	s := waitFor(t, r, "resolved", phaseIs(game.PhaseResolved))
	if len(s.Records) != 1 || s.Records[0].Outcome != game.OutcomeMissed {
		t.Errorf("records = %v, want [Missed]", s.Records)
	}
}

func TestRunnerIgnoresKeysOutsideFall(t *testing.T) {
	r, clock, ctx, _ := startRunner(t, hardTiming(300*time.Millisecond, 1))

	r.Start(ctx, difficulty.Hard)
	waitFor(t, r, "awaiting fall", phaseIs(game.PhaseAwaitingFall))
	r.Press(ctx, "s")
	r.Press(ctx, "q")
	armed(t, ctx, clock)
	clock.Advance(300 * time.Millisecond)

	s := waitFor(t, r, "falling", phaseIs(game.PhaseFalling))
	if len(s.Records) != 0 {
		t.Errorf("early press produced records %v", s.Records)
	}
}

func TestRunnerFullSession(t *testing.T) {
	r, clock, ctx, _ := startRunner(t, hardTiming(250*time.Millisecond, 1))

	r.Start(ctx, difficulty.Hard)
	var s game.Session
	for i := 0; i < game.TotalRounds; i++ {
		waitFor(t, r, "awaiting fall", phaseIs(game.PhaseAwaitingFall))
		armed(t, ctx, clock)
		clock.Advance(250 * time.Millisecond)
		waitFor(t, r, "falling", phaseIs(game.PhaseFalling))
		clock.Advance(time.Duration(100*(i+1)) * time.Millisecond)
		r.Press(ctx, "s")
		s = waitFor(t, r, "round resolved", func(s game.Session) bool { return s.RoundIndex == i+1 })
		if s.Status != game.StatusFinished {
			armed(t, ctx, clock)
			clock.Advance(rounds.InterRoundDelay(difficulty.Hard))
		}
	}

	if s.Status != game.StatusFinished || s.Phase != game.PhaseComplete {
		t.Fatalf("got %s/%s", s.Status, s.Phase)
	}
	if best, _ := s.BestTime(); best != 100 {
		t.Errorf("best = %d, want 100", best)
	}
}

func TestRunnerRestartCancelsTimer(t *testing.T) {
	r, clock, ctx, _ := startRunner(t,
		hardTiming(500*time.Millisecond, 0),
		hardTiming(1000*time.Millisecond, 0),
	)

	r.Start(ctx, difficulty.Hard)
	first := waitFor(t, r, "first start", phaseIs(game.PhaseAwaitingFall))
	armed(t, ctx, clock)

	r.Start(ctx, difficulty.Hard)
	waitFor(t, r, "restart", func(s game.Session) bool { return s.Epoch > first.Epoch })
	armed(t, ctx, clock)

	// Only the restarted session's timer may move the game forward.
	clock.Advance(500 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if s := r.Snapshot(); s.Phase != game.PhaseAwaitingFall {
		t.Fatalf("old timer fired into new session: phase %s", s.Phase)
	}
	clock.Advance(500 * time.Millisecond)
	waitFor(t, r, "falling", phaseIs(game.PhaseFalling))
}

func TestRunnerStop(t *testing.T) {
	r, _, _, cancel := startRunner(t, hardTiming(time.Second, 0))
	cancel()

	for range r.Updates() {
	}
	if err := r.Press(context.Background(), "a"); !errors.Is(err, ErrStopped) {
		t.Errorf("Press after stop = %v, want ErrStopped", err)
	}
}
