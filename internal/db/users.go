package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type User struct {
	ID     string
	Name   string
	RollNo int64
}

// CreateUser registers a player. A roll number that is already taken yields
// ErrUserExists.
func (d *DB) CreateUser(ctx context.Context, name string, rollNo int64) (*User, error) {
	if _, err := d.GetUserByRollNo(ctx, rollNo); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	u := &User{ID: uuid.NewString(), Name: name, RollNo: rollNo}
	_, err := d.Exec(ctx, `
		INSERT INTO users (id, name, roll_no)
		VALUES ($1, $2, $3)
	`, u.ID, u.Name, u.RollNo)
	if err != nil {
		// lost a race with a concurrent registration
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

func (d *DB) GetUserByRollNo(ctx context.Context, rollNo int64) (*User, error) {
	var u User
	err := d.QueryRow(ctx, `
		SELECT id, name, roll_no FROM users WHERE roll_no = $1
	`, rollNo).Scan(&u.ID, &u.Name, &u.RollNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

func (d *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := d.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
