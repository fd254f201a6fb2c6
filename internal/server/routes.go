// Package server is the leaderboard backend: a JSON API over the users and
// times tables plus a websocket feed of newly recorded times.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/VanXodus305/Reaction-Time-Game/internal/analytics"
	"github.com/VanXodus305/Reaction-Time-Game/internal/broadcast"
	"github.com/VanXodus305/Reaction-Time-Game/internal/config"
	"github.com/VanXodus305/Reaction-Time-Game/internal/db"
	"github.com/VanXodus305/Reaction-Time-Game/internal/events"
	"github.com/VanXodus305/Reaction-Time-Game/internal/metrics"
	"github.com/VanXodus305/Reaction-Time-Game/internal/wshub"
)

const (
	batchSize     = 50
	flushInterval = 500 * time.Millisecond

	shutdownTimeout = 10 * time.Second
)

// Options are the settings New needs beyond its collaborators.
type Options struct {
	LeaderboardLimit int
	SubmissionBuffer int
	// AllowedOrigins applies to CORS and the websocket origin check. An
	// entry of "*" allows everything.
	AllowedOrigins []string
}

// New wires a server around database. The caller must start the background
// workers with Start.
func New(database *db.DB, m *metrics.Metrics, opts Options) *Server {
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = 100
	}
	if opts.SubmissionBuffer <= 0 {
		opts.SubmissionBuffer = 1000
	}
	bus := events.NewBus()
	s := &Server{
		DB:               database,
		Queries:          analytics.NewQueries(database),
		Metrics:          m,
		Bus:              bus,
		Broadcaster:      broadcast.NewBroadcaster(bus),
		Hub:              wshub.NewHub(),
		SubmissionBuffer: make(chan db.Submission, opts.SubmissionBuffer),
		LeaderboardLimit: opts.LeaderboardLimit,
		logger:           log.With().Str("component", "server").Logger(),
		now:              time.Now,
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			s.AllowAnyOrigin = true
			continue
		}
		s.OriginPatterns = append(s.OriginPatterns, o)
	}
	if len(opts.AllowedOrigins) == 0 {
		s.AllowAnyOrigin = true
	}
	return s
}

// Start runs the submission writer and the live feed pump until ctx is
// cancelled. The returned channel is closed once pending submissions have
// been flushed.
func (s *Server) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.submissionBatchWriter(ctx)
	}()
	go s.pumpLive(ctx, s.Broadcaster.Subscribe())
	return done
}

// Routes returns the API handler with CORS applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.Metrics.Middleware("root", s.handleRoot))
	mux.HandleFunc("POST /auth/login", s.Metrics.Middleware("login", s.handleLogin))
	mux.HandleFunc("POST /time", s.Metrics.Middleware("time", s.handleTime))
	mux.HandleFunc("GET /leaderboard", s.Metrics.Middleware("leaderboard", s.handleLeaderboard))
	mux.HandleFunc("GET /leaderboard/live", s.handleLive)
	mux.HandleFunc("GET /leaderboard/{rollNo}", s.Metrics.Middleware("standing", s.handleStanding))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())

	origins := s.OriginPatterns
	if s.AllowAnyOrigin {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

// Run serves the API described by cfg until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Server) error {
	logger := log.With().Str("component", "server").Logger()

	database, err := db.Connect(ctx, cfg.Driver(), cfg.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	m := metrics.New()
	srv := New(database, m, Options{
		LeaderboardLimit: cfg.LeaderboardLimit,
		SubmissionBuffer: cfg.SubmissionBuffer,
		AllowedOrigins:   cfg.AllowedOrigins(),
	})

	if cfg.NATSURL != "" {
		relay, err := broadcast.NewRelay(cfg.NATSURL, cfg.NATSSubject, srv.Broadcaster, func() {
			m.Relayed("in")
		})
		if err != nil {
			logger.Warn().Err(err).Msg("NATS unavailable, live updates stay local")
		} else {
			defer relay.Close()
			srv.Broadcaster.SetRelay(countingPublisher{next: relay, metrics: m})
		}
	}

	workCtx, stopWork := context.WithCancel(context.Background())
	flushed := srv.Start(workCtx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msgf("Server listening on http://localhost:%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	stopWork()
	select {
	case <-flushed:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("gave up waiting for submission flush")
	}

	if serveErr != nil {
		return fmt.Errorf("serving HTTP: %w", serveErr)
	}
	return nil
}

// countingPublisher counts relayed messages on their way out.
type countingPublisher struct {
	next    broadcast.Publisher
	metrics *metrics.Metrics
}

func (p countingPublisher) Publish(ev events.TimeRecorded) error {
	if err := p.next.Publish(ev); err != nil {
		return err
	}
	p.metrics.Relayed("out")
	return nil
}

// submissionBatchWriter stores submission history in batches. On shutdown it
// drains the buffer and writes what is left.
func (s *Server) submissionBatchWriter(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]db.Submission, 0, batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		err := s.DB.BatchRecordSubmissions(ctx, batch)
		s.Metrics.BatchFlush(err)
		if err != nil {
			s.logger.Error().Err(err).Int("rows", len(batch)).Msg("batch write of submissions failed")
		}
		batch = batch[:0]
	}

	for {
		select {
		case sub := <-s.SubmissionBuffer:
			batch = append(batch, sub)
			if len(batch) >= batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		drain:
			for {
				select {
				case sub := <-s.SubmissionBuffer:
					batch = append(batch, sub)
				default:
					break drain
				}
			}
			flush(final)
			cancel()
			return
		}
	}
}
