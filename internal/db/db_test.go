package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// getTestDB returns a migrated database. It uses Postgres when
// TEST_DATABASE_URL is set and a throwaway SQLite file otherwise.
func getTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	driver, dsn := DriverSQLite, filepath.Join(t.TempDir(), "test.db")
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		driver, dsn = DriverPostgres, url
	}
	database, err := Connect(ctx, driver, dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.Exec(ctx, "DELETE FROM submissions")
		database.Exec(ctx, "DELETE FROM times")
		database.Exec(ctx, "DELETE FROM users")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	if err := database.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestConnectUnknownDriver(t *testing.T) {
	if _, err := Connect(context.Background(), "mysql", "x"); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	database := getTestDB(t)
	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() error: %v", err)
	}
	for _, table := range []string{"users", "times", "submissions"} {
		var n int
		if err := database.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Errorf("querying %s: %v", table, err)
		}
	}
}

func TestRebind(t *testing.T) {
	d := &DB{driver: DriverSQLite}
	got := d.rebind("SELECT * FROM t WHERE a = $1 AND b = $12")
	want := "SELECT * FROM t WHERE a = ?1 AND b = ?12"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	pg := &DB{driver: DriverPostgres}
	if got := pg.rebind("a = $1"); got != "a = $1" {
		t.Errorf("postgres rebind changed query: %q", got)
	}
}

func TestCreateUser(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()

	u, err := database.CreateUser(ctx, "Alice", 101)
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if u.ID == "" || u.Name != "Alice" || u.RollNo != 101 {
		t.Errorf("user = %+v", u)
	}

	_, err = database.CreateUser(ctx, "Someone Else", 101)
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrUserExists", err)
	}

	got, err := database.GetUserByRollNo(ctx, 101)
	if err != nil {
		t.Fatalf("GetUserByRollNo() error: %v", err)
	}
	if got.Name != "Alice" || got.ID != u.ID {
		t.Errorf("got %+v, want %+v", got, u)
	}

	if _, err := database.GetUserByRollNo(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByRollNo(999) error = %v, want ErrUserNotFound", err)
	}

	n, err := database.CountUsers(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountUsers() = %d, %v", n, err)
	}
}

func TestUpsertBestTimeKeepsMinimum(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	database.CreateUser(ctx, "Bob", 7)

	steps := []struct {
		time       int64
		difficulty string
		wantBest   int64
		wantDiff   string
		improved   bool
	}{
		{500, "easy", 500, "easy", true},
		{650, "hard", 500, "easy", false},
		{320, "medium", 320, "medium", true},
		{320, "", 320, "medium", true},
		{400, "", 320, "medium", false},
	}
	for i, s := range steps {
		best, improved, err := database.UpsertBestTime(ctx, 7, s.time, s.difficulty)
		if err != nil {
			t.Fatalf("step %d: UpsertBestTime() error: %v", i, err)
		}
		if best.TimeMs != s.wantBest || best.Difficulty != s.wantDiff || improved != s.improved {
			t.Errorf("step %d: got %+v improved=%v, want %d/%q improved=%v",
				i, best, improved, s.wantBest, s.wantDiff, s.improved)
		}
	}

	bt, err := database.GetBestTime(ctx, 7)
	if err != nil {
		t.Fatalf("GetBestTime() error: %v", err)
	}
	if bt.TimeMs != 320 {
		t.Errorf("stored best = %d, want 320", bt.TimeMs)
	}
}

func TestUpsertBestTimeUnknownUser(t *testing.T) {
	database := getTestDB(t)
	_, _, err := database.UpsertBestTime(context.Background(), 12345, 200, "")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestBatchRecordSubmissions(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	database.CreateUser(ctx, "Carol", 3)
	database.CreateUser(ctx, "Dan", 4)

	now := time.Now()
	subs := []Submission{
		{RollNo: 3, TimeMs: 300, Difficulty: "hard", SubmittedAt: now},
		{RollNo: 3, TimeMs: 280, SubmittedAt: now},
		{RollNo: 4, TimeMs: 410, Difficulty: "easy", SubmittedAt: now},
	}
	if err := database.BatchRecordSubmissions(ctx, subs); err != nil {
		t.Fatalf("BatchRecordSubmissions() error: %v", err)
	}
	if err := database.RecordSubmission(ctx, Submission{RollNo: 3, TimeMs: 500, SubmittedAt: now}); err != nil {
		t.Fatalf("RecordSubmission() error: %v", err)
	}

	n, err := database.CountSubmissions(ctx, 3)
	if err != nil || n != 3 {
		t.Errorf("CountSubmissions(3) = %d, %v; want 3", n, err)
	}
}

func TestBatchRollsBackOnError(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	database.CreateUser(ctx, "Eve", 5)

	subs := []Submission{
		{RollNo: 5, TimeMs: 300, SubmittedAt: time.Now()},
		{RollNo: 404, TimeMs: 300, SubmittedAt: time.Now()},
	}
	if err := database.BatchRecordSubmissions(ctx, subs); err == nil {
		t.Fatal("expected a foreign key error")
	}
	if n, _ := database.CountSubmissions(ctx, 5); n != 0 {
		t.Errorf("partial batch committed: %d rows", n)
	}
}
