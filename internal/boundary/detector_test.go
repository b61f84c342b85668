package boundary

import (
	"context"
	"testing"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	_, err = db.ExecContext(context.Background(), `INSERT INTO dynasties (dynasty_id, dynasty_name, created_at) VALUES ('d1', 'Test', 0)`)
	if err != nil {
		t.Fatalf("seed dynasty: %v", err)
	}
	return db
}

func seedGame(t *testing.T, db *storage.DB, gameID string, season int, seasonType eventstore.SeasonType, date calendar.Date) {
	t.Helper()
	e, err := eventstore.NewGameEvent("d1", gameID, date.UnixMillis(), eventstore.GameParameters{
		Season: season, SeasonType: seasonType, Week: 1, HomeTeamID: 1, AwayTeamID: 2,
	})
	if err != nil {
		t.Fatalf("NewGameEvent: %v", err)
	}
	if err := eventstore.Insert(context.Background(), db, e); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestGetFirstAndLastGameDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedGame(t, db, "regular_001", 2024, eventstore.SeasonTypeRegular, calendar.NewDate(2024, 9, 8))
	seedGame(t, db, "regular_002", 2024, eventstore.SeasonTypeRegular, calendar.NewDate(2025, 1, 5))

	det := New(db, "d1", nil)
	season := 2024

	first, ok, err := det.GetFirstGameDate(ctx, calendar.RegularSeason, &season)
	if err != nil || !ok {
		t.Fatalf("GetFirstGameDate: ok=%v err=%v", ok, err)
	}
	if first.String() != "2024-09-08" {
		t.Errorf("expected 2024-09-08, got %s", first)
	}

	last, ok, err := det.GetLastGameDate(ctx, calendar.RegularSeason, &season)
	if err != nil || !ok {
		t.Fatalf("GetLastGameDate: ok=%v err=%v", ok, err)
	}
	if last.String() != "2025-01-05" {
		t.Errorf("expected 2025-01-05, got %s", last)
	}
}

func TestGetFirstGameDateNoneFound(t *testing.T) {
	db := newTestDB(t)
	det := New(db, "d1", nil)
	season := 2024
	_, ok, err := det.GetFirstGameDate(context.Background(), calendar.Playoffs, &season)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Error("expected ok=false when no games scheduled")
	}
}

func TestGetPhaseStartDateFallsBackForPreseason(t *testing.T) {
	db := newTestDB(t)
	det := New(db, "d1", nil)
	season := 2024

	date, err := det.GetPhaseStartDate(context.Background(), calendar.Preseason, &season)
	if err != nil {
		t.Fatalf("GetPhaseStartDate: %v", err)
	}
	if date.Weekday().String() != "Thursday" {
		t.Errorf("expected a Thursday fallback, got %s (%s)", date, date.Weekday())
	}
	if date.Month != 8 {
		t.Errorf("expected August fallback, got month %d", date.Month)
	}
}

func TestGetPlayoffStartDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedGame(t, db, "regular_017", 2024, eventstore.SeasonTypeRegular, calendar.NewDate(2025, 1, 5))

	det := New(db, "d1", nil)
	season := 2024
	start, ok, err := det.GetPlayoffStartDate(ctx, &season)
	if err != nil || !ok {
		t.Fatalf("GetPlayoffStartDate: ok=%v err=%v", ok, err)
	}
	if start.String() != "2025-01-12" {
		t.Errorf("expected 2025-01-12, got %s", start)
	}
}

func TestCacheInvalidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedGame(t, db, "regular_001", 2024, eventstore.SeasonTypeRegular, calendar.NewDate(2024, 9, 8))

	det := New(db, "d1", nil)
	season := 2024
	first, _, _ := det.GetFirstGameDate(ctx, calendar.RegularSeason, &season)
	if first.String() != "2024-09-08" {
		t.Fatalf("unexpected first date: %s", first)
	}

	seedGame(t, db, "regular_000", 2024, eventstore.SeasonTypeRegular, calendar.NewDate(2024, 9, 5))
	det.InvalidateCache()

	updated, _, _ := det.GetFirstGameDate(ctx, calendar.RegularSeason, &season)
	if updated.String() != "2024-09-05" {
		t.Errorf("expected cache refresh to pick up new earliest date, got %s", updated)
	}
}
