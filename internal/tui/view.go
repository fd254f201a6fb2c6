package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/VanXodus305/Reaction-Time-Game/internal/game"
	"github.com/VanXodus305/Reaction-Time-Game/internal/input"
	"github.com/VanXodus305/Reaction-Time-Game/internal/leaderboard"
	"github.com/VanXodus305/Reaction-Time-Game/internal/rounds"
)

const (
	fallRows     = 8
	laneWidth    = 7
	boardEntries = 5
)

func (m Model) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reaction Time  |  %s (#%d)  |  %s\n\n", m.player.Name, m.player.RollNo, m.difficulty.Label())
	b.WriteString(renderStatus(m.session))
	b.WriteString("\n\n")
	b.WriteString(renderLanes(m.session, m.now()))
	b.WriteString("\n")
	if m.session.Message != "" {
		b.WriteString(m.session.Message)
		b.WriteString("\n")
	}
	if len(m.session.Records) > 0 {
		b.WriteString(renderRecords(m.session.Records))
		b.WriteString("\n")
	}

	if m.session.Status == game.StatusFinished {
		b.WriteString("\n")
		if m.report != nil && m.report.HasBest {
			fmt.Fprintf(&b, "Session best: %d ms\n", m.report.BestMs)
		}
		if m.reporter != nil {
			b.WriteString(renderLeaderboard(m.reporter.View(), m.player.RollNo))
		}
	}

	if m.notice.Text != "" {
		prefix := "i"
		if m.notice.Level == leaderboard.NoticeError {
			prefix = "!"
		}
		fmt.Fprintf(&b, "\n[%s] %s\n", prefix, m.notice.Text)
	}
	if m.err != nil {
		fmt.Fprintf(&b, "\nerror: %v\n", m.err)
	}

	b.WriteString("\n")
	b.WriteString(helpLine(m.session))
	return b.String()
}

func renderStatus(s game.Session) string {
	switch s.Status {
	case game.StatusPlaying:
		round := s.RoundIndex + 1
		if round > game.TotalRounds {
			round = game.TotalRounds
		}
		line := fmt.Sprintf("Round %d/%d", round, game.TotalRounds)
		if best, ok := s.BestTime(); ok {
			line += fmt.Sprintf("   Best: %d ms", best)
		}
		return line
	case game.StatusFinished:
		return "Session complete"
	default:
		return "Catch the bottle with A, S or D as soon as it drops."
	}
}

// fallProgress is how far the bottle has fallen, from 0 at release to 1 at
// the timeout.
func fallProgress(s game.Session, now time.Time) float64 {
	if s.Phase != game.PhaseFalling || s.Timing.FallDuration <= 0 {
		return 0
	}
	p := float64(now.Sub(s.FallStartedAt)) / float64(s.Timing.FallDuration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func renderLanes(s game.Session, now time.Time) string {
	var b strings.Builder

	bottleRow := -1
	if s.Phase == game.PhaseFalling {
		bottleRow = int(fallProgress(s, now) * float64(fallRows-1))
	}
	for row := 0; row < fallRows; row++ {
		for lane := 0; lane < rounds.LaneCount; lane++ {
			cell := "|"
			if row == bottleRow && lane == s.Timing.Lane {
				cell = "o"
			}
			b.WriteString(center(cell, laneWidth))
		}
		b.WriteString("\n")
	}
	for lane := 0; lane < rounds.LaneCount; lane++ {
		key := input.Label(lane)
		switch s.Lanes[lane] {
		case game.Correct:
			key = "+" + key + "+"
		case game.Wrong:
			key = "x" + key + "x"
		default:
			key = "[" + key + "]"
		}
		b.WriteString(center(key, laneWidth))
	}
	b.WriteString("\n")
	return b.String()
}

func renderRecords(records []game.RoundResult) string {
	parts := make([]string, 0, len(records))
	for i, r := range records {
		var text string
		switch r.Outcome {
		case game.OutcomeHit:
			text = fmt.Sprintf("%d ms", r.ReactionMs)
		case game.OutcomeWrongKey:
			text = "wrong key"
		default:
			text = "missed"
		}
		parts = append(parts, fmt.Sprintf("%d: %s", i+1, text))
	}
	return strings.Join(parts, "  ")
}

func renderLeaderboard(v *leaderboard.View, rollNo int64) string {
	var b strings.Builder
	b.WriteString("Leaderboard\n")
	top := v.Top(boardEntries)
	if len(top) == 0 {
		b.WriteString("  no times yet\n")
		return b.String()
	}
	for i, e := range top {
		marker := " "
		if e.RollNo == rollNo {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %d. %-16s %6d ms  %s\n", marker, i+1, e.Name, e.BestMs, entryDifficulty(e))
	}
	if rank := v.Rank(rollNo); rank > boardEntries {
		e, _ := v.Get(rollNo)
		fmt.Fprintf(&b, "> %d. %-16s %6d ms  %s\n", rank, e.Name, e.BestMs, entryDifficulty(e))
	}
	return b.String()
}

func entryDifficulty(e leaderboard.Entry) string {
	if e.Difficulty == "" {
		return ""
	}
	return e.Difficulty.Label()
}

func helpLine(s game.Session) string {
	if s.Status == game.StatusPlaying {
		return "A S D: catch   q: quit"
	}
	start := "enter: start"
	if s.Status == game.StatusFinished {
		start = "enter: play again"
	}
	return start + "   1/2/3: easy/medium/hard   q: quit"
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
