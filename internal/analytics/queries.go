package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/VanXodus305/Reaction-Time-Game/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// GetLeaderboard returns up to limit best times, fastest first. Equal times
// are ordered by roll number.
func (q *Queries) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := q.DB.Query(ctx, `
		SELECT t.roll_no, u.name, t.time_ms, t.difficulty
		FROM times t
		JOIN users u ON u.roll_no = t.roll_no
		ORDER BY t.time_ms ASC, t.roll_no ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e LeaderboardEntry
		var diff sql.NullString
		if err := rows.Scan(&e.RollNo, &e.Name, &e.TimeMs, &diff); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		e.Difficulty = diff.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}
	return entries, nil
}

// GetStanding returns the player's rank and submission count. A player
// without a recorded time yields db.ErrUserNotFound.
func (q *Queries) GetStanding(ctx context.Context, rollNo int64) (*Standing, error) {
	st := &Standing{RollNo: rollNo}
	var diff sql.NullString
	err := q.DB.QueryRow(ctx, `
		SELECT u.name, t.time_ms, t.difficulty
		FROM times t
		JOIN users u ON u.roll_no = t.roll_no
		WHERE t.roll_no = $1
	`, rollNo).Scan(&st.Name, &st.TimeMs, &diff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting standing: %w", err)
	}
	st.Difficulty = diff.String

	err = q.DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM times WHERE time_ms < $1) + 1,
			(SELECT COUNT(*) FROM times)
	`, st.TimeMs).Scan(&st.Rank, &st.Players)
	if err != nil {
		return nil, fmt.Errorf("getting rank: %w", err)
	}

	if st.Attempts, err = q.DB.CountSubmissions(ctx, rollNo); err != nil {
		return nil, err
	}
	return st, nil
}
