package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/VanXodus305/Reaction-Time-Game/internal/analytics"
	"github.com/VanXodus305/Reaction-Time-Game/internal/broadcast"
	"github.com/VanXodus305/Reaction-Time-Game/internal/db"
	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
	"github.com/VanXodus305/Reaction-Time-Game/internal/events"
	"github.com/VanXodus305/Reaction-Time-Game/internal/metrics"
	"github.com/VanXodus305/Reaction-Time-Game/internal/wshub"
)

type Server struct {
	DB               *db.DB
	Queries          *analytics.Queries
	Metrics          *metrics.Metrics
	Bus              *events.Bus
	Broadcaster      *broadcast.Broadcaster
	Hub              *wshub.Hub
	SubmissionBuffer chan db.Submission
	LeaderboardLimit int
	// AllowAnyOrigin skips the websocket origin check.
	AllowAnyOrigin bool
	OriginPatterns []string

	logger zerolog.Logger
	now    func() time.Time
}

type userResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RollNo int64  `json:"rollNo"`
}

type loginRequest struct {
	Name   string  `json:"name"`
	RollNo flexInt `json:"rollNo"`
}

func (req loginRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Name) == "" || !req.RollNo.Set:
		return invalid("Name and roll number are required.")
	case !req.RollNo.nonNegative():
		return invalid("Roll number must be a non-negative integer.")
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Hello!")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.Metrics.Registration(metrics.ResultInvalid)
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.Metrics.Registration(metrics.ResultInvalid)
		s.writeError(w, r, err)
		return
	}

	u, err := s.DB.CreateUser(r.Context(), strings.TrimSpace(req.Name), req.RollNo.Value)
	if errors.Is(err, db.ErrUserExists) {
		s.Metrics.Registration(metrics.ResultExists)
		s.writeError(w, r, conflict("user already exists"))
		return
	}
	if err != nil {
		s.Metrics.Registration(metrics.ResultError)
		s.writeError(w, r, fmt.Errorf("registering user: %w", err))
		return
	}

	s.Metrics.Registration(metrics.ResultOK)
	s.logger.Info().Int64("roll_no", u.RollNo).Str("name", u.Name).Msg("user registered")
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Name: u.Name, RollNo: u.RollNo})
}

type timeRequest struct {
	RollNo     flexInt `json:"rollNo"`
	Time       flexInt `json:"time"`
	Difficulty *string `json:"difficulty"`
}

// validate checks the request and returns the normalised difficulty, which
// is empty when none was sent.
func (req timeRequest) validate() (string, error) {
	switch {
	case !req.Time.Set:
		return "", invalid("Time is required.")
	case !req.Time.nonNegative():
		return "", invalid("Time must be a non-negative integer number of milliseconds.")
	case !req.RollNo.Set:
		return "", invalid("Roll number is required.")
	case !req.RollNo.nonNegative():
		return "", invalid("Roll number must be a non-negative integer.")
	}
	if req.Difficulty == nil || strings.TrimSpace(*req.Difficulty) == "" {
		return "", nil
	}
	d, ok := difficulty.Lookup(*req.Difficulty)
	if !ok {
		return "", invalid("Unknown difficulty.")
	}
	return d.String(), nil
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.Metrics.Submission(metrics.ResultInvalid)
		s.writeError(w, r, err)
		return
	}
	diff, err := req.validate()
	if err != nil {
		s.Metrics.Submission(metrics.ResultInvalid)
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	rollNo, timeMs := req.RollNo.Value, req.Time.Value
	user, err := s.DB.GetUserByRollNo(ctx, rollNo)
	if errors.Is(err, db.ErrUserNotFound) {
		s.Metrics.Submission(metrics.ResultInvalid)
		s.writeError(w, r, invalid("user not found"))
		return
	}
	if err != nil {
		s.Metrics.Submission(metrics.ResultError)
		s.writeError(w, r, err)
		return
	}

	best, improved, err := s.DB.UpsertBestTime(ctx, rollNo, timeMs, diff)
	if errors.Is(err, db.ErrUserNotFound) {
		s.Metrics.Submission(metrics.ResultInvalid)
		s.writeError(w, r, invalid("user not found"))
		return
	}
	if err != nil {
		s.Metrics.Submission(metrics.ResultError)
		s.writeError(w, r, fmt.Errorf("storing time: %w", err))
		return
	}

	result := metrics.ResultKept
	if improved {
		result = metrics.ResultImproved
	}
	s.Metrics.Submission(result)
	s.Metrics.SubmittedTime(timeMs)

	now := s.now()
	s.queueSubmission(db.Submission{RollNo: rollNo, TimeMs: timeMs, Difficulty: diff, SubmittedAt: now})
	ev := events.TimeRecorded{
		RollNo:     rollNo,
		Name:       user.Name,
		TimeMs:     best.TimeMs,
		Difficulty: best.Difficulty,
		Improved:   improved,
		At:         now,
	}
	if !s.Bus.Emit(ev) {
		s.logger.Warn().Int64("roll_no", rollNo).Msg("event bus full, live update dropped")
	}

	s.logger.Info().
		Int64("roll_no", rollNo).
		Int64("time_ms", timeMs).
		Int64("best_ms", best.TimeMs).
		Bool("improved", improved).
		Msg("time received")
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Time received: %d", timeMs)})
}

// queueSubmission hands the history row to the batch writer without
// blocking the request.
func (s *Server) queueSubmission(sub db.Submission) {
	select {
	case s.SubmissionBuffer <- sub:
	default:
		s.logger.Warn().Int64("roll_no", sub.RollNo).Msg("submission buffer full, history row dropped")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
