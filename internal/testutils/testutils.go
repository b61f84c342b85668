// Package testutils builds in-memory SQLite fixtures for fast,
// parallel-safe unit tests of any store/validator/controller in the
// engine (SPEC_FULL §A.4). Mirrors the ad hoc newTestDB helpers duplicated
// across internal/eventstore, internal/dynasty, internal/standings, and
// internal/boundary's test files, centralized here for new packages.
package testutils

import (
	"context"
	"testing"

	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
)

// NewDB opens an in-memory SQLite database with migrations applied and
// seeds a single dynasties row for dynastyID. The database is closed
// automatically when t finishes.
func NewDB(t *testing.T, dynastyID string) *storage.DB {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(ctx, `INSERT INTO dynasties (dynasty_id, dynasty_name, created_at) VALUES (?, ?, 0)`,
		dynastyID, "Test Dynasty"); err != nil {
		t.Fatalf("seed dynasty %q: %v", dynastyID, err)
	}
	return db
}
