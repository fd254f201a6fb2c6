package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/VanXodus305/Reaction-Time-Game/internal/apiclient"
	"github.com/VanXodus305/Reaction-Time-Game/internal/config"
	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
	"github.com/VanXodus305/Reaction-Time-Game/internal/leaderboard"
	"github.com/VanXodus305/Reaction-Time-Game/internal/logging"
	"github.com/VanXodus305/Reaction-Time-Game/internal/runner"
	"github.com/VanXodus305/Reaction-Time-Game/internal/tui"
)

const startupTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	flag.StringVar(&cfg.PlayerName, "name", cfg.PlayerName, "player name")
	flag.Int64Var(&cfg.RollNo, "roll", cfg.RollNo, "roll number")
	flag.StringVar(&cfg.Difficulty, "difficulty", cfg.Difficulty, "easy, medium or hard")
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "leaderboard server URL")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "write logs to this file")
	offline := flag.Bool("offline", false, "play without the leaderboard server")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return err
	}
	closer, err := logging.SetupClient(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	player := leaderboard.Player{Name: cfg.PlayerName, RollNo: cfg.RollNo}
	view := leaderboard.NewView()

	var (
		client   *apiclient.Client
		lbClient leaderboard.Client
		notice   leaderboard.Notice
	)
	if *offline {
		notice = leaderboard.Notice{Level: leaderboard.NoticeInfo, Text: "Playing offline, times stay on this machine"}
	} else {
		client = apiclient.New(cfg.ServerURL, nil)
		lbClient = client
		notice = register(ctx, client, player)
	}
	reporter := leaderboard.NewReporter(view, lbClient)
	if client != nil {
		refreshCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		if err := reporter.Refresh(refreshCtx); err != nil {
			log.Warn().Err(err).Msg("could not load leaderboard")
		}
		cancel()
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	r := runner.New(nil, nil)
	go r.Run(runCtx)

	model := tui.New(runCtx, r, reporter, player, difficulty.Parse(cfg.Difficulty)).WithNotice(notice)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if client != nil {
		go func() {
			err := client.Live(runCtx, func(m apiclient.LiveMessage) {
				p.Send(tui.LiveMsg(m))
			})
			if err != nil {
				log.Warn().Err(err).Msg("live leaderboard feed stopped")
			}
		}()
	}

	_, err = p.Run()
	return err
}

// register signs the player up. A roll number that is already registered is
// a returning player, not an error.
func register(ctx context.Context, client *apiclient.Client, p leaderboard.Player) leaderboard.Notice {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	_, err := client.Register(ctx, p.Name, p.RollNo)
	switch {
	case err == nil:
		log.Info().Int64("roll_no", p.RollNo).Msg("registered")
		return leaderboard.Notice{Level: leaderboard.NoticeInfo, Text: "Registered as " + p.Name}
	case apiclient.IsUserExists(err):
		return leaderboard.Notice{Level: leaderboard.NoticeInfo, Text: "Welcome back, " + p.Name}
	default:
		log.Warn().Err(err).Msg("registration failed")
		return leaderboard.Notice{Level: leaderboard.NoticeError, Text: "Could not register with the leaderboard server; times may not be saved"}
	}
}
