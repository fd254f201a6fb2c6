package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BestTime is a player's stored best. Difficulty is empty when the
// submission did not name one.
type BestTime struct {
	RollNo     int64
	TimeMs     int64
	Difficulty string
}

// UpsertBestTime stores timeMs for rollNo unless a lower time is already on
// record. It returns the best time after the write and whether this
// submission is it.
func (d *DB) UpsertBestTime(ctx context.Context, rollNo, timeMs int64, difficulty string) (BestTime, bool, error) {
	best := BestTime{RollNo: rollNo}
	var diff sql.NullString
	err := d.QueryRow(ctx, `
		INSERT INTO times (roll_no, time_ms, difficulty)
		VALUES ($1, $2, $3)
		ON CONFLICT (roll_no) DO UPDATE SET
			difficulty = CASE WHEN excluded.time_ms < times.time_ms THEN excluded.difficulty ELSE times.difficulty END,
			updated_at = CASE WHEN excluded.time_ms < times.time_ms THEN CURRENT_TIMESTAMP ELSE times.updated_at END,
			time_ms = CASE WHEN excluded.time_ms < times.time_ms THEN excluded.time_ms ELSE times.time_ms END
		RETURNING time_ms, difficulty
	`, rollNo, timeMs, nullString(difficulty)).Scan(&best.TimeMs, &diff)
	if err != nil {
		if isForeignKeyViolation(err) {
			return BestTime{}, false, ErrUserNotFound
		}
		return BestTime{}, false, fmt.Errorf("upserting best time: %w", err)
	}
	best.Difficulty = diff.String
	return best, best.TimeMs == timeMs, nil
}

func (d *DB) GetBestTime(ctx context.Context, rollNo int64) (*BestTime, error) {
	bt := BestTime{RollNo: rollNo}
	var diff sql.NullString
	err := d.QueryRow(ctx, `
		SELECT time_ms, difficulty FROM times WHERE roll_no = $1
	`, rollNo).Scan(&bt.TimeMs, &diff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting best time: %w", err)
	}
	bt.Difficulty = diff.String
	return &bt, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
