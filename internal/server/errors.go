package server

import (
	"errors"
	"net/http"
)

// Error kinds returned by request validation. Both map to 400.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// apiError carries a message that is safe to show to the caller.
type apiError struct {
	kind error
	msg  string
}

func (e *apiError) Error() string { return e.msg }
func (e *apiError) Unwrap() error { return e.kind }

func invalid(msg string) error  { return &apiError{kind: ErrValidation, msg: msg} }
func conflict(msg string) error { return &apiError{kind: ErrConflict, msg: msg} }

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps err to a status code and the {"error": ...} body.
// Anything that is not a known kind is logged and hidden behind a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
