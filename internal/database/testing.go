package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// NewTestDatabase opens a bbolt file in a per-test temp dir and closes it on cleanup.
func NewTestDatabase(tb testing.TB) *DB {
	tb.Helper()

	ctx := context.Background()
	db, err := NewFromEnv(ctx, &Config{
		FilePath:    filepath.Join(tb.TempDir(), "test.db"),
		LockTimeout: time.Second,
	})
	if err != nil {
		tb.Fatalf("new test database: %v", err)
	}

	tb.Cleanup(func() {
		if err := db.Close(ctx); err != nil {
			tb.Errorf("close test database: %v", err)
		}
	})

	return db
}
