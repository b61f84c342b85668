package yearsync

import (
	"context"
	"testing"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/testutils"
)

const testDynasty = "d1"

func TestSynchronize_OrdersDBThenSettersThenPhaseState(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	ctx := context.Background()
	if _, err := dynasty.Initialize(ctx, db, testDynasty, 2026, calendar.NewDate(2026, 8, 1), 1, calendar.Offseason, nil); err != nil {
		t.Fatalf("seed dynasty state: %v", err)
	}

	phaseState := calendar.NewPhaseState(calendar.Offseason, 2026, nil)
	sync := NewSynchronizer(db, testDynasty, phaseState, nil)

	var order []string
	sync.Register(Setter{Name: "cap", Set: func(ctx context.Context, newYear int) error {
		order = append(order, "cap")
		return nil
	}})
	sync.Register(Setter{Name: "draft", Set: func(ctx context.Context, newYear int) error {
		order = append(order, "draft")
		return nil
	}})

	if err := sync.Synchronize(ctx, 2027, "test"); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}

	if len(order) != 2 || order[0] != "cap" || order[1] != "draft" {
		t.Fatalf("setter order = %v, want [cap draft]", order)
	}
	if _, year := phaseState.Snapshot(); year != 2027 {
		t.Fatalf("PhaseState season year = %d, want 2027", year)
	}
	state, err := dynasty.GetLatest(ctx, db, testDynasty)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if state.Season != 2027 {
		t.Fatalf("db season = %d, want 2027", state.Season)
	}
}

func TestSynchronize_SetterFailureStopsRegistry(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	ctx := context.Background()
	if _, err := dynasty.Initialize(ctx, db, testDynasty, 2026, calendar.NewDate(2026, 8, 1), 1, calendar.Offseason, nil); err != nil {
		t.Fatalf("seed dynasty state: %v", err)
	}

	sync := NewSynchronizer(db, testDynasty, nil, nil)
	var ran []string
	sync.Register(Setter{Name: "cap", Set: func(ctx context.Context, newYear int) error {
		ran = append(ran, "cap")
		return context.DeadlineExceeded
	}})
	sync.Register(Setter{Name: "draft", Set: func(ctx context.Context, newYear int) error {
		ran = append(ran, "draft")
		return nil
	}})

	if err := sync.Synchronize(ctx, 2027, "test"); err == nil {
		t.Fatal("expected error from failing setter")
	}
	if len(ran) != 1 || ran[0] != "cap" {
		t.Fatalf("ran = %v, want [cap] (draft never runs after cap fails)", ran)
	}
}

func TestIncrementYear(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	ctx := context.Background()
	if _, err := dynasty.Initialize(ctx, db, testDynasty, 2026, calendar.NewDate(2026, 8, 1), 1, calendar.Offseason, nil); err != nil {
		t.Fatalf("seed dynasty state: %v", err)
	}

	sync := NewSynchronizer(db, testDynasty, nil, nil)
	if err := sync.IncrementYear(ctx, "test"); err != nil {
		t.Fatalf("IncrementYear: %v", err)
	}
	state, err := dynasty.GetLatest(ctx, db, testDynasty)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if state.Season != 2027 {
		t.Fatalf("season = %d, want 2027", state.Season)
	}
}

func TestGetRegistryStatus(t *testing.T) {
	sync := NewSynchronizer(nil, testDynasty, nil, nil)
	sync.Register(Setter{Name: "cap", Set: func(ctx context.Context, newYear int) error { return nil }})
	sync.Register(Setter{Name: "draft", Set: func(ctx context.Context, newYear int) error { return nil }})

	status := sync.GetRegistryStatus()
	if len(status) != 2 || status[0] != "cap" || status[1] != "draft" {
		t.Fatalf("GetRegistryStatus = %v, want [cap draft]", status)
	}
}
