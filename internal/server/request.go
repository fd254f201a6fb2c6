package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// flexInt accepts a JSON number or a numeric string. Browsers often send form
// values as strings. Decoding never fails; bad input is flagged instead so
// validation can report it.
type flexInt struct {
	Value   int64
	Set     bool
	Invalid bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" {
		return nil
	}
	f.Set = true
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.Value = n
		return nil
	}
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil || fl != math.Trunc(fl) || math.Abs(fl) > math.MaxInt64 {
		f.Invalid = true
		return nil
	}
	f.Value = int64(fl)
	return nil
}

func (f flexInt) nonNegative() bool {
	return f.Set && !f.Invalid && f.Value >= 0
}

const maxBodyBytes = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalid("Invalid request body.")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
