package cycle

import (
	"context"
	"testing"

	"github.com/sim-dynasty/season-cycle-engine/internal/boundary"
	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/completion"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/phasehandlers"
	"github.com/sim-dynasty/season-cycle-engine/internal/simulation"
	"github.com/sim-dynasty/season-cycle-engine/internal/standings"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
	"github.com/sim-dynasty/season-cycle-engine/internal/testutils"
	"github.com/sim-dynasty/season-cycle-engine/internal/transition"
)

const testDynasty = "d1"

func neverCompleteDeps() completion.Deps {
	farFuture := calendar.NewDate(2099, 1, 1)
	return completion.Deps{
		GamesPlayed:               func() int { return 0 },
		CurrentDate:               func() calendar.Date { return calendar.NewDate(2026, 1, 1) },
		LastRegularSeasonGameDate: func() calendar.Date { return farFuture },
		LastPreseasonGameDate:     func() calendar.Date { return farFuture },
		IsSuperBowlComplete:       func() bool { return false },
		PreseasonStartDate:        func() calendar.Date { return farFuture },
	}
}

func buildController(t *testing.T, db *storage.DB, deps completion.Deps, handlers PhaseHandlers, manager *transition.Manager) *Controller {
	t.Helper()
	c, err := New(context.Background(), db, testDynasty, manager, handlers, deps, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestAdvanceDay_NoTransitionSimulatesAndPersists(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	ctx := context.Background()
	startDate := calendar.NewDate(2026, 8, 1)
	if _, err := dynasty.Initialize(ctx, db, testDynasty, 2026, startDate, 1, calendar.Preseason, nil); err != nil {
		t.Fatalf("seed dynasty state: %v", err)
	}

	gameDate := startDate.AddDays(1)
	e, err := eventstore.NewGameEvent(testDynasty, "preseason_001", gameDate.UnixMillis(), eventstore.GameParameters{
		Season: 2026, SeasonType: eventstore.SeasonTypePreseason, Week: 1, HomeTeamID: 1, AwayTeamID: 2,
	})
	if err != nil {
		t.Fatalf("NewGameEvent: %v", err)
	}
	if err := eventstore.Insert(ctx, db, e); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := standings.Reset(ctx, db, testDynasty, 2026, eventstore.SeasonTypePreseason, []int{1, 2}); err != nil {
		t.Fatalf("reset standings: %v", err)
	}

	ex := simulation.NewExecutor(db, testDynasty, 2026, &extsvc.FakeSimulator{}, nil)
	handlers := PhaseHandlers{
		Preseason: phasehandlers.NewPreseasonHandler(ex, extsvc.SimulationSettings{SkipGameSimulation: true}),
	}
	manager := transition.NewManager(calendar.NewPhaseState(calendar.Preseason, 2026, nil), nil)

	c := buildController(t, db, neverCompleteDeps(), handlers, manager)

	result, err := c.AdvanceDay(ctx)
	if err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}
	if result.GamesPlayed != 1 {
		t.Fatalf("GamesPlayed = %d, want 1", result.GamesPlayed)
	}
	if result.CurrentPhase != calendar.Preseason {
		t.Fatalf("CurrentPhase = %s, want Preseason", result.CurrentPhase)
	}

	state, err := dynasty.GetLatest(ctx, db, testDynasty)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if !state.CurrentDate.Equal(gameDate) {
		t.Fatalf("persisted date = %s, want %s", state.CurrentDate, gameDate)
	}
}

func TestAdvanceDays_RunsRequestedCount(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	ctx := context.Background()
	startDate := calendar.NewDate(2026, 8, 1)
	if _, err := dynasty.Initialize(ctx, db, testDynasty, 2026, startDate, 1, calendar.Preseason, nil); err != nil {
		t.Fatalf("seed dynasty state: %v", err)
	}

	ex := simulation.NewExecutor(db, testDynasty, 2026, &extsvc.FakeSimulator{}, nil)
	handlers := PhaseHandlers{
		Preseason: phasehandlers.NewPreseasonHandler(ex, extsvc.SimulationSettings{SkipGameSimulation: true}),
	}
	manager := transition.NewManager(calendar.NewPhaseState(calendar.Preseason, 2026, nil), nil)
	c := buildController(t, db, neverCompleteDeps(), handlers, manager)

	results, err := c.AdvanceDays(ctx, 3)
	if err != nil {
		t.Fatalf("AdvanceDays: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
}

type fakeYearTransition struct{}

func (fakeYearTransition) RunYearTransition(ctx context.Context, dynastyID string, newYear int) error {
	return nil
}

// offseasonCompleteDeps reports the offseason as complete as of "today"
// and nothing else complete, driving exactly the Offseason->Preseason edge
// (spec.md §8.2 scenario 5) the first time maybeTransition checks it.
func offseasonCompleteDeps(today calendar.Date) completion.Deps {
	farFuture := calendar.NewDate(2099, 1, 1)
	return completion.Deps{
		GamesPlayed:               func() int { return 0 },
		CurrentDate:               func() calendar.Date { return today },
		LastRegularSeasonGameDate: func() calendar.Date { return farFuture },
		LastPreseasonGameDate:     func() calendar.Date { return farFuture },
		IsSuperBowlComplete:       func() bool { return false },
		PreseasonStartDate:        func() calendar.Date { return today },
	}
}

// TestAdvanceDay_OffseasonToPreseasonTransition exercises spec.md §8.2
// scenario 5: phase Offseason, date reaches next preseason start. The new
// season's row must carry the advanced current_date persistDay writes,
// and the old season's row (finalized by the transition handler) must be
// left exactly as the handler set it.
func TestAdvanceDay_OffseasonToPreseasonTransition(t *testing.T) {
	db := testutils.NewDB(t, testDynasty)
	ctx := context.Background()

	oldSeasonDate := calendar.NewDate(2027, 2, 5)
	if _, err := dynasty.Initialize(ctx, db, testDynasty, 2026, oldSeasonDate, 1, calendar.Offseason, nil); err != nil {
		t.Fatalf("seed dynasty state: %v", err)
	}

	newDate := oldSeasonDate.AddDays(1)
	deps := offseasonCompleteDeps(newDate)

	det := boundary.New(db, testDynasty, nil)
	offseasonToPreseason := &transition.OffseasonToPreseasonHandler{
		DB: db, DynastyID: testDynasty, CurrentSeason: 2026,
		Boundary:          det,
		ScheduleGenerator: extsvc.NewFakeScheduleGenerator(testDynasty),
		YearTransition:    fakeYearTransition{},
	}
	manager := transition.NewManager(calendar.NewPhaseState(calendar.Offseason, 2026, nil), nil)
	manager.RegisterHandler(transition.OffseasonToPreseason, offseasonToPreseason)

	ex := simulation.NewExecutor(db, testDynasty, 2027, &extsvc.FakeSimulator{}, nil)
	handlers := PhaseHandlers{
		Offseason: phasehandlers.NewOffseasonHandler(db, testDynasty),
		Preseason: phasehandlers.NewPreseasonHandler(ex, extsvc.SimulationSettings{SkipGameSimulation: true}),
	}

	c := buildController(t, db, deps, handlers, manager)

	result, err := c.AdvanceDay(ctx)
	if err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}
	if result.CurrentPhase != calendar.Preseason {
		t.Fatalf("CurrentPhase = %s, want Preseason", result.CurrentPhase)
	}

	newState, err := dynasty.GetCurrent(ctx, db, testDynasty, 2027)
	if err != nil {
		t.Fatalf("GetCurrent(2027): %v", err)
	}
	if newState == nil {
		t.Fatal("no dynasty_state row for season 2027")
	}
	if newState.CurrentPhase != calendar.Preseason {
		t.Fatalf("2027 phase = %s, want Preseason", newState.CurrentPhase)
	}
	if !newState.CurrentDate.Equal(newDate) {
		t.Fatalf("2027 current_date = %s, want %s (persistDay must advance the new season's row)", newState.CurrentDate, newDate)
	}

	oldState, err := dynasty.GetCurrent(ctx, db, testDynasty, 2026)
	if err != nil {
		t.Fatalf("GetCurrent(2026): %v", err)
	}
	if oldState == nil {
		t.Fatal("no dynasty_state row for season 2026")
	}
	if oldState.CurrentPhase != calendar.Offseason {
		t.Fatalf("2026 phase = %s, want Offseason (must be left untouched)", oldState.CurrentPhase)
	}
	if !oldState.CurrentDate.Equal(oldSeasonDate) {
		t.Fatalf("2026 current_date = %s, want %s (must be left untouched by persistDay)", oldState.CurrentDate, oldSeasonDate)
	}
}
