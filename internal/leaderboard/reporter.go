package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/VanXodus305/Reaction-Time-Game/internal/apiclient"
	"github.com/VanXodus305/Reaction-Time-Game/internal/game"
)

const submitTimeout = 10 * time.Second

// Client is the part of the API the reporter needs.
type Client interface {
	SubmitTime(ctx context.Context, sub apiclient.TimeSubmission) (string, error)
	Leaderboard(ctx context.Context) ([]apiclient.Record, error)
}

// Standings is implemented by clients that can look up a player's rank. The
// reporter uses it, when available, to add the rank to the success notice.
type Standings interface {
	Standing(ctx context.Context, rollNo int64) (apiclient.Standing, error)
}

type Player struct {
	Name   string
	RollNo int64
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a dismissible message for the player. It never ends the game.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Report is the immediate result of finishing a session.
type Report struct {
	BestMs  int64
	HasBest bool
	Entry   Entry
	Notice  Notice
}

type Reporter struct {
	view   *View
	client Client
	logger zerolog.Logger
}

func NewReporter(view *View, client Client) *Reporter {
	return &Reporter{
		view:   view,
		client: client,
		logger: log.With().Str("component", "reporter").Logger(),
	}
}

func (r *Reporter) View() *View {
	return r.view
}

// Report merges a finished session into the view and starts the submission in
// the background. The returned channel yields the submission's notice and is
// then closed; it is closed straight away when there is nothing to submit.
func (r *Reporter) Report(ctx context.Context, p Player, s game.Session) (Report, <-chan Notice) {
	done := make(chan Notice, 1)

	best, ok := game.BestTime(s.Records)
	if !ok {
		close(done)
		return Report{Notice: Notice{Level: NoticeInfo, Text: "No valid time this session, nothing submitted"}}, done
	}

	entry := r.view.Merge(Entry{
		Name:       p.Name,
		RollNo:     p.RollNo,
		BestMs:     best,
		Difficulty: s.Difficulty,
	})
	rep := Report{
		BestMs:  best,
		HasBest: true,
		Entry:   entry,
		Notice:  Notice{Level: NoticeInfo, Text: fmt.Sprintf("Best time %d ms, submitting...", best)},
	}

	if r.client == nil {
		close(done)
		rep.Notice = Notice{Level: NoticeInfo, Text: fmt.Sprintf("Best time %d ms (offline)", best)}
		return rep, done
	}

	sub := apiclient.TimeSubmission{RollNo: p.RollNo, Time: best, Difficulty: s.Difficulty.String()}
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(ctx, submitTimeout)
		defer cancel()
		done <- r.submit(ctx, sub)
	}()
	return rep, done
}

func (r *Reporter) submit(ctx context.Context, sub apiclient.TimeSubmission) Notice {
	msg, err := r.client.SubmitTime(ctx, sub)
	if err != nil {
		r.logger.Warn().Err(err).Int64("roll_no", sub.RollNo).Int64("time_ms", sub.Time).Msg("submission failed")
		return failureNotice(err)
	}
	r.logger.Info().Int64("roll_no", sub.RollNo).Int64("time_ms", sub.Time).Msg("time submitted")
	if msg == "" {
		msg = fmt.Sprintf("Time received: %d", sub.Time)
	}
	if sc, ok := r.client.(Standings); ok {
		st, err := sc.Standing(ctx, sub.RollNo)
		if err != nil {
			r.logger.Debug().Err(err).Msg("standing lookup failed")
		} else if st.Rank > 0 {
			msg += fmt.Sprintf(". Rank %d of %d", st.Rank, st.Players)
			if len(st.Badges) > 0 {
				msg += " (" + strings.Join(st.Badges, ", ") + ")"
			}
		}
	}
	return Notice{Level: NoticeInfo, Text: msg}
}

func failureNotice(err error) Notice {
	var se *apiclient.StatusError
	switch {
	case errors.Is(err, apiclient.ErrNetwork):
		return Notice{Level: NoticeError, Text: "Could not reach the leaderboard server; your time is kept locally"}
	case errors.As(err, &se) && se.Message != "":
		return Notice{Level: NoticeError, Text: "Leaderboard rejected the time: " + se.Message}
	default:
		return Notice{Level: NoticeError, Text: "Submitting your time failed"}
	}
}

// Refresh pulls the server leaderboard into the view. Local entries that the
// server does not have yet are kept.
func (r *Reporter) Refresh(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	recs, err := r.client.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("fetching leaderboard: %w", err)
	}
	r.view.MergeAll(FromRecords(recs))
	return nil
}
