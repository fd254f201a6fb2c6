package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/VanXodus305/Reaction-Time-Game/internal/analytics"
	"github.com/VanXodus305/Reaction-Time-Game/internal/db"
)

type leaderboardUser struct {
	Name   string `json:"name"`
	RollNo int64  `json:"rollNo"`
}

type leaderboardItem struct {
	RollNo     int64           `json:"rollNo"`
	Time       int64           `json:"time"`
	Difficulty string          `json:"difficulty,omitempty"`
	User       leaderboardUser `json:"user"`
}

func toItem(e analytics.LeaderboardEntry) leaderboardItem {
	return leaderboardItem{
		RollNo:     e.RollNo,
		Time:       e.TimeMs,
		Difficulty: e.Difficulty,
		User:       leaderboardUser{Name: e.Name, RollNo: e.RollNo},
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.LeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, invalid("limit must be a positive integer"))
			return
		}
		if n < limit {
			limit = n
		}
	}

	entries, err := s.Queries.GetLeaderboard(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]leaderboardItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, toItem(e))
	}
	writeJSON(w, http.StatusOK, items)
}

type standingResponse struct {
	Rank       int      `json:"rank"`
	Name       string   `json:"name"`
	RollNo     int64    `json:"rollNo"`
	Time       int64    `json:"time"`
	Difficulty string   `json:"difficulty,omitempty"`
	Attempts   int      `json:"attempts"`
	Players    int      `json:"players"`
	Badges     []string `json:"badges"`
}

func (s *Server) handleStanding(w http.ResponseWriter, r *http.Request) {
	rollNo, err := strconv.ParseInt(r.PathValue("rollNo"), 10, 64)
	if err != nil || rollNo < 0 {
		s.writeError(w, r, invalid("Roll number must be a non-negative integer."))
		return
	}

	st, err := s.Queries.GetStanding(r.Context(), rollNo)
	if errors.Is(err, db.ErrUserNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no time recorded for this roll number"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	badges := []string{}
	for _, b := range analytics.EvaluateBadges(*st) {
		badges = append(badges, b.Name)
	}
	writeJSON(w, http.StatusOK, standingResponse{
		Rank:       st.Rank,
		Name:       st.Name,
		RollNo:     st.RollNo,
		Time:       st.TimeMs,
		Difficulty: st.Difficulty,
		Attempts:   st.Attempts,
		Players:    st.Players,
		Badges:     badges,
	})
}
