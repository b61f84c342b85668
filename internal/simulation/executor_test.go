package simulation

import (
	"context"
	"testing"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/standings"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
	"github.com/sim-dynasty/season-cycle-engine/internal/testutils"
)

const testDynasty = "d1"

func seedPendingGame(t *testing.T, db *storage.DB, gameID string, date calendar.Date, home, away int) {
	t.Helper()
	e, err := eventstore.NewGameEvent(testDynasty, gameID, date.UnixMillis(), eventstore.GameParameters{
		Season: 2026, SeasonType: eventstore.SeasonTypeRegular, Week: 1, HomeTeamID: home, AwayTeamID: away,
	})
	if err != nil {
		t.Fatalf("NewGameEvent: %v", err)
	}
	if err := eventstore.Insert(context.Background(), db, e); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestSimulateDay_NoGamesScheduled(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	ex := NewExecutor(db, testDynasty, 2026, &extsvc.FakeSimulator{}, nil)

	result, err := ex.SimulateDay(context.Background(), calendar.NewDate(2026, 9, 10), extsvc.SimulationSettings{})
	if err != nil {
		t.Fatalf("SimulateDay: %v", err)
	}
	if result.GamesPlayed != 0 || !result.Success {
		t.Fatalf("result = %+v, want 0 games played, success", result)
	}
}

func TestSimulateDay_SkipGameSimulation(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	date := calendar.NewDate(2026, 9, 10)
	seedPendingGame(t, db, "g1", date, 1, 2)
	if err := standings.Reset(context.Background(), db, testDynasty, 2026, eventstore.SeasonTypeRegular, []int{1, 2}); err != nil {
		t.Fatalf("standings.Reset: %v", err)
	}

	ex := NewExecutor(db, testDynasty, 2026, &extsvc.FakeSimulator{}, nil)
	result, err := ex.SimulateDay(context.Background(), date, extsvc.SimulationSettings{SkipGameSimulation: true})
	if err != nil {
		t.Fatalf("SimulateDay: %v", err)
	}
	if result.GamesPlayed != 1 {
		t.Fatalf("GamesPlayed = %d, want 1", result.GamesPlayed)
	}
	if len(result.Results) != 1 || result.Results[0].HomeScore != 17 || result.Results[0].AwayScore != 13 {
		t.Fatalf("Results = %+v, want placeholder 17-13", result.Results)
	}

	updated, err := eventstore.GetByID(context.Background(), db, "g1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	completed, err := updated.IsCompleted()
	if err != nil {
		t.Fatalf("IsCompleted: %v", err)
	}
	if !completed {
		t.Fatal("event not marked completed after simulation")
	}

	homeRow, err := standings.GetByTeam(context.Background(), db, testDynasty, 1, 2026, eventstore.SeasonTypeRegular)
	if err != nil {
		t.Fatalf("GetByTeam: %v", err)
	}
	if homeRow.Wins != 1 {
		t.Fatalf("home team wins = %d, want 1", homeRow.Wins)
	}
}

func TestSimulateDay_SkipsAlreadyCompletedGames(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	date := calendar.NewDate(2026, 9, 10)
	seedPendingGame(t, db, "g1", date, 1, 2)
	if err := standings.Reset(context.Background(), db, testDynasty, 2026, eventstore.SeasonTypeRegular, []int{1, 2}); err != nil {
		t.Fatalf("standings.Reset: %v", err)
	}

	ex := NewExecutor(db, testDynasty, 2026, &extsvc.FakeSimulator{}, nil)
	if _, err := ex.SimulateDay(context.Background(), date, extsvc.SimulationSettings{SkipGameSimulation: true}); err != nil {
		t.Fatalf("first SimulateDay: %v", err)
	}

	result, err := ex.SimulateDay(context.Background(), date, extsvc.SimulationSettings{SkipGameSimulation: true})
	if err != nil {
		t.Fatalf("second SimulateDay: %v", err)
	}
	if result.GamesPlayed != 0 {
		t.Fatalf("GamesPlayed on re-run = %d, want 0 (already completed)", result.GamesPlayed)
	}
}
