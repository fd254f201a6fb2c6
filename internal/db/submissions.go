package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Submission is one accepted POST /time, kept as history whether or not it
// improved the player's best.
type Submission struct {
	RollNo      int64
	TimeMs      int64
	Difficulty  string
	SubmittedAt time.Time
}

func (d *DB) RecordSubmission(ctx context.Context, s Submission) error {
	_, err := d.Exec(ctx, `
		INSERT INTO submissions (id, roll_no, time_ms, difficulty, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), s.RollNo, s.TimeMs, nullString(s.Difficulty), s.SubmittedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording submission: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordSubmissions(ctx context.Context, subs []Submission) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.rebind(`
		INSERT INTO submissions (id, roll_no, time_ms, difficulty, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
	`))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range subs {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), s.RollNo, s.TimeMs, nullString(s.Difficulty), s.SubmittedAt.UTC()); err != nil {
			return fmt.Errorf("recording submission in batch: %w", err)
		}
	}

	return tx.Commit()
}

func (d *DB) CountSubmissions(ctx context.Context, rollNo int64) (int, error) {
	var n int
	err := d.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions WHERE roll_no = $1
	`, rollNo).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting submissions: %w", err)
	}
	return n, nil
}
