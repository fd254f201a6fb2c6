package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNetwork wraps failures to reach the server at all.
var ErrNetwork = errors.New("leaderboard server unreachable")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// IsUserExists reports whether err is the server's duplicate roll number
// rejection.
func IsUserExists(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return strings.Contains(strings.ToLower(se.Message), "already exists")
}
