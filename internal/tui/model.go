// Package tui is the terminal front end. It renders runner snapshots with
// Bubble Tea and turns key presses into runner commands.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/VanXodus305/Reaction-Time-Game/internal/apiclient"
	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
	"github.com/VanXodus305/Reaction-Time-Game/internal/game"
	"github.com/VanXodus305/Reaction-Time-Game/internal/leaderboard"
)

const frameInterval = 50 * time.Millisecond

// Engine runs sessions. *runner.Runner satisfies it.
type Engine interface {
	Start(ctx context.Context, d difficulty.Difficulty) error
	Press(ctx context.Context, key string) error
	Updates() <-chan game.Session
}

type frameMsg time.Time
type sessionMsg game.Session
type sessionClosedMsg struct{}
type errMsg struct{ err error }

// NoticeMsg shows a notice. Send it with tea.Program.Send.
type NoticeMsg leaderboard.Notice

// LiveMsg carries a time from the live leaderboard feed.
type LiveMsg apiclient.LiveMessage

type Model struct {
	ctx      context.Context
	engine   Engine
	reporter *leaderboard.Reporter
	player   leaderboard.Player

	difficulty difficulty.Difficulty
	session    game.Session

	// last completed session's report, nil until one finishes
	report        *leaderboard.Report
	reportedEpoch uint64
	notice        leaderboard.Notice

	now   func() time.Time
	width int
	err   error
}

func New(ctx context.Context, engine Engine, reporter *leaderboard.Reporter, player leaderboard.Player, d difficulty.Difficulty) Model {
	return Model{
		ctx:        ctx,
		engine:     engine,
		reporter:   reporter,
		player:     player,
		difficulty: difficulty.Parse(d.String()),
		session:    game.New(),
		now:        time.Now,
	}
}

// WithNotice returns m showing n until the next session starts.
func (m Model) WithNotice(n leaderboard.Notice) Model {
	m.notice = n
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSession(m.engine.Updates()), frameCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case frameMsg:
		return m, frameCmd()
	case sessionMsg:
		cmd := m.applySession(game.Session(msg))
		return m, tea.Batch(cmd, waitForSession(m.engine.Updates()))
	case sessionClosedMsg:
		return m, tea.Quit
	case NoticeMsg:
		m.notice = leaderboard.Notice(msg)
		return m, nil
	case LiveMsg:
		if m.reporter != nil {
			m.reporter.View().Merge(leaderboard.FromLive(apiclient.LiveMessage(msg)))
		}
		return m, nil
	case errMsg:
		m.err = msg.err
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "ctrl+c", "esc", "q":
		return tea.Quit
	}

	if m.session.Status == game.StatusPlaying {
		// Press stamps the time itself, so call it before anything else.
		if err := m.engine.Press(m.ctx, key); err != nil {
			m.err = err
		}
		return nil
	}

	switch key {
	case "enter", " ":
		m.report = nil
		m.notice = leaderboard.Notice{}
		m.err = nil
		if err := m.engine.Start(m.ctx, m.difficulty); err != nil {
			m.err = err
		}
	case "1", "2", "3":
		m.difficulty = difficulty.All[key[0]-'1']
	}
	return nil
}

// applySession stores s and reports it once when it completes.
func (m *Model) applySession(s game.Session) tea.Cmd {
	m.session = s
	if s.Status != game.StatusFinished || s.Epoch == m.reportedEpoch || m.reporter == nil {
		return nil
	}
	m.reportedEpoch = s.Epoch
	rep, notices := m.reporter.Report(m.ctx, m.player, s)
	m.report = &rep
	m.notice = rep.Notice
	return waitForNotice(notices)
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitForSession(updates <-chan game.Session) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionMsg(s)
	}
}

func waitForNotice(notices <-chan leaderboard.Notice) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-notices
		if !ok {
			return nil
		}
		return NoticeMsg(n)
	}
}
