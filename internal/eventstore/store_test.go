package eventstore

import (
	"context"
	"testing"

	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(context.Background(), `INSERT INTO dynasties (dynasty_id, dynasty_name, created_at) VALUES ('d1', 'Test Dynasty', 0)`)
	if err != nil {
		t.Fatalf("seed dynasty: %v", err)
	}
	return db
}

func TestInsertAndGetByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e, err := NewGameEvent("d1", "preseason_001", 1000, GameParameters{
		Season: 2024, SeasonType: SeasonTypePreseason, Week: 1, HomeTeamID: 1, AwayTeamID: 2,
	})
	if err != nil {
		t.Fatalf("NewGameEvent: %v", err)
	}
	if err := Insert(ctx, db, e); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := GetByID(ctx, db, "preseason_001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected event, got nil")
	}
	if got.DynastyID != "d1" || got.EventType != EventTypeGame {
		t.Errorf("unexpected event: %+v", got)
	}

	payload, err := got.GamePayload()
	if err != nil {
		t.Fatalf("GamePayload: %v", err)
	}
	if payload.Results != nil {
		t.Error("expected nil results for scheduled game")
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	db := newTestDB(t)
	got, err := GetByID(context.Background(), db, "nonexistent")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing event, got %+v", got)
	}
}

func TestInsertBatchAllOrNone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e1, _ := NewGameEvent("d1", "preseason_001", 1000, GameParameters{Season: 2024})
	e2, _ := NewGameEvent("d1", "preseason_002", 2000, GameParameters{Season: 2024})

	if err := InsertBatch(ctx, db.DB, []Event{e1, e2}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	events, err := GetByDynasty(ctx, db, "d1", nil, 0)
	if err != nil {
		t.Fatalf("GetByDynasty: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestUpdateAppendsResults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e, _ := NewGameEvent("d1", "preseason_001", 1000, GameParameters{Season: 2024, HomeTeamID: 1, AwayTeamID: 2})
	if err := Insert(ctx, db, e); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	winner := 1
	updated, err := e.WithResults(GameResults{HomeScore: 24, AwayScore: 17, WinnerTeamID: &winner})
	if err != nil {
		t.Fatalf("WithResults: %v", err)
	}

	affected, err := Update(ctx, db, updated)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !affected {
		t.Fatal("expected a row to be affected")
	}

	got, _ := GetByID(ctx, db, "preseason_001")
	completed, err := got.IsCompleted()
	if err != nil {
		t.Fatalf("IsCompleted: %v", err)
	}
	if !completed {
		t.Error("expected event to be marked completed after update")
	}
}

func TestGetByDynastyAndTimestampRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e1, _ := NewGameEvent("d1", "preseason_001", 1000, GameParameters{})
	e2, _ := NewGameEvent("d1", "preseason_002", 5000, GameParameters{})
	e3, _ := NewGameEvent("d1", "preseason_003", 9000, GameParameters{})
	for _, e := range []Event{e1, e2, e3} {
		if err := Insert(ctx, db, e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	events, err := GetByDynastyAndTimestamp(ctx, db, "d1", 0, 6000, nil)
	if err != nil {
		t.Fatalf("GetByDynastyAndTimestamp: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events in range, got %d", len(events))
	}
	if events[0].EventID != "preseason_001" || events[1].EventID != "preseason_002" {
		t.Errorf("expected ascending order, got %v", events)
	}
}

func TestClassifyGameID(t *testing.T) {
	tests := map[string]PrefixClass{
		"preseason_001":   PrefixPreseason,
		"playoff_wc_1":    PrefixPlayoff,
		"2024_week1_game": PrefixRegular,
	}
	for id, want := range tests {
		if got := ClassifyGameID(id); got != want {
			t.Errorf("ClassifyGameID(%q) = %v, want %v", id, got, want)
		}
	}
}
