package extsvc

import (
	"context"
	"fmt"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
)

// FakeSimulator returns deterministic placeholder scores, the fast-mode
// behavior spec.md §4.10 describes for throughput testing.
type FakeSimulator struct {
	HomeScore int
	AwayScore int
}

func (f *FakeSimulator) SimulateOneGame(ctx context.Context, homeID, awayID int, cfg SimulationSettings) (GameResult, error) {
	home, away := f.HomeScore, f.AwayScore
	if home == 0 && away == 0 {
		home, away = 20, 17
	}
	winner := homeID
	if away > home {
		winner = awayID
	}
	return GameResult{HomeScore: home, AwayScore: away, WinnerTeamID: &winner}, nil
}

// FakeScheduleGenerator synthesizes the exact game counts spec.md §4.8.4
// requires (48 preseason, 272 regular season) without any real scheduling
// logic, for use in tests that exercise the transition handlers.
type FakeScheduleGenerator struct {
	dynastyID string
}

func NewFakeScheduleGenerator(dynastyID string) *FakeScheduleGenerator {
	return &FakeScheduleGenerator{dynastyID: dynastyID}
}

func (f *FakeScheduleGenerator) GeneratePreseason(ctx context.Context, season int) ([]eventstore.Event, error) {
	return f.generate(season, eventstore.SeasonTypePreseason, "preseason", 48, calendar.NewDate(season, 8, 1))
}

func (f *FakeScheduleGenerator) GenerateRegularSeason(ctx context.Context, season int, startDate calendar.Date) ([]eventstore.Event, error) {
	return f.generate(season, eventstore.SeasonTypeRegular, "regular", 272, startDate)
}

func (f *FakeScheduleGenerator) generate(season int, seasonType eventstore.SeasonType, prefix string, count int, start calendar.Date) ([]eventstore.Event, error) {
	events := make([]eventstore.Event, 0, count)
	for i := 0; i < count; i++ {
		date := start.AddDays(7 * (i / 16)) // spread games across weeks, ~16/week
		gameID := fmt.Sprintf("%s_%03d", prefix, i+1)
		e, err := eventstore.NewGameEvent(f.dynastyID, gameID, date.UnixMillis(), eventstore.GameParameters{
			Season: season, SeasonType: seasonType, Week: i/16 + 1, HomeTeamID: i%32 + 1, AwayTeamID: (i+1)%32 + 1,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// FakePlayoffController is a minimal in-memory stand-in used by tests.
type FakePlayoffController struct {
	Winner      int
	SBDate      calendar.Date
	SeedResult  Seeding
}

func (f *FakePlayoffController) Seed(ctx context.Context, standings []StandingRow) (Seeding, error) {
	return f.SeedResult, nil
}

func (f *FakePlayoffController) Build(ctx context.Context, seeding Seeding) (Bracket, error) {
	return Bracket{ID: "fake-bracket"}, nil
}

func (f *FakePlayoffController) SimulateDay(ctx context.Context, date calendar.Date) (DayResult, error) {
	return DayResult{Success: true}, nil
}

func (f *FakePlayoffController) SuperBowlWinner(ctx context.Context) (int, error) {
	return f.Winner, nil
}

func (f *FakePlayoffController) SuperBowlDate(ctx context.Context) (calendar.Date, error) {
	return f.SBDate, nil
}

// FakeTradeAIService and FakeTradeWindowValidator are no-op stand-ins.
type FakeTradeAIService struct{}

func (FakeTradeAIService) EvaluateDailyForAllTeams(ctx context.Context, phase calendar.SeasonPhase, week int) ([]Trade, error) {
	return nil, nil
}

type FakeTradeWindowValidator struct {
	Allowed bool
}

func (f FakeTradeWindowValidator) IsTradeAllowed(ctx context.Context, date calendar.Date, phase calendar.SeasonPhase, week int) (bool, string) {
	if f.Allowed {
		return true, ""
	}
	return false, "trade window closed"
}

// FakeCapService reports every one of TotalContracts as incremented and
// still active, with none expired; it changes no stored data.
type FakeCapService struct {
	TotalContracts int
}

func (f FakeCapService) IncrementAllContracts(ctx context.Context, newSeason int) (ContractIncrementResult, error) {
	return ContractIncrementResult{Total: f.TotalContracts, Active: f.TotalContracts, Expired: 0}, nil
}

// FakeDraftService synthesizes a draft class without real prospect data.
type FakeDraftService struct{}

func (FakeDraftService) PrepareClass(ctx context.Context, season int, size int) (DraftClassResult, error) {
	return DraftClassResult{ID: fmt.Sprintf("draft_%d", season), TotalPlayers: size, ElapsedMs: 1}, nil
}

// FakeOffseasonService schedules no milestones, just satisfies the
// interface for tests that don't assert on milestone content.
type FakeOffseasonService struct {
	dynastyID string
}

func NewFakeOffseasonService(dynastyID string) *FakeOffseasonService {
	return &FakeOffseasonService{dynastyID: dynastyID}
}

func (f *FakeOffseasonService) ScheduleEvents(ctx context.Context, superBowlDate calendar.Date, season int, dynastyID string) ([]eventstore.Event, error) {
	return nil, nil
}
