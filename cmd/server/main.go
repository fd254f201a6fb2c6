package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/VanXodus305/Reaction-Time-Game/internal/config"
	"github.com/VanXodus305/Reaction-Time-Game/internal/logging"
	"github.com/VanXodus305/Reaction-Time-Game/internal/server"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.SetupServer(cfg.LogLevel)
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("could not load .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("driver", cfg.Driver()).
		Str("port", cfg.Port).
		Bool("relay", cfg.NATSURL != "").
		Msg("starting leaderboard server")

	if err := server.Run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("shutdown complete")
}
