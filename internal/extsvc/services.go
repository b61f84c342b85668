// Package extsvc declares the external service boundaries spec.md §6.3
// names: game simulation, schedule generation, the playoff bracket,
// trades, the salary cap, and the draft. The season cycle engine core
// depends only on these interfaces; concrete implementations (or, in
// tests, the fakes in fakes.go) are injected by the caller that
// constructs a cycle.Controller. Grounded on the teacher's provider
// interfaces in internal/provider (swap-in external data sources behind a
// narrow Go interface rather than a concrete client type).
package extsvc

import (
	"context"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
)

// GameResult is the outcome of simulating a single game.
type GameResult struct {
	HomeScore    int
	AwayScore    int
	WinnerTeamID *int
}

// Simulator runs one game.
type Simulator interface {
	SimulateOneGame(ctx context.Context, homeID, awayID int, cfg SimulationSettings) (GameResult, error)
}

// SimulationSettings is the single configuration value object spec.md
// §6.4 names; it is the only runtime configuration the core accepts.
type SimulationSettings struct {
	SkipGameSimulation  bool
	SkipTransactionAI   bool
	SkipOffseasonEvents bool
}

// ScheduleGenerator produces the preseason and regular-season event
// schedules. Both operations are idempotent: calling them again when the
// expected count of events already exists returns the existing events
// rather than duplicating them (spec.md §4.8.4's idempotency note).
type ScheduleGenerator interface {
	GeneratePreseason(ctx context.Context, season int) ([]eventstore.Event, error)
	GenerateRegularSeason(ctx context.Context, season int, startDate calendar.Date) ([]eventstore.Event, error)
}

// StandingRow is one team's final regular-season standing, the input to
// playoff seeding.
type StandingRow struct {
	TeamID         int
	Wins           int
	Losses         int
	Ties           int
	DivisionWins   int
	ConferenceWins int
	PointsFor      int
	PointsAgainst  int
}

// Seeding is the result of seeding the playoff bracket.
type Seeding struct {
	SeedsByConference map[string][]int // conference name -> team IDs, 1-indexed by slice position
}

// Bracket is the constructed playoff bracket.
type Bracket struct {
	ID string
}

// PlayoffController drives the playoff phase once seeded. A fresh instance
// is obtained from Seed→Build, or reconstructed idempotently from existing
// bracket events when the controller starts mid-playoffs (spec.md §4.13
// step 8).
type PlayoffController interface {
	Seed(ctx context.Context, standings []StandingRow) (Seeding, error)
	Build(ctx context.Context, seeding Seeding) (Bracket, error)
	SimulateDay(ctx context.Context, date calendar.Date) (DayResult, error)
	SuperBowlWinner(ctx context.Context) (int, error)
	SuperBowlDate(ctx context.Context) (calendar.Date, error)
}

// PlayoffControllerFactory constructs a PlayoffController, either fresh
// (from a built Bracket) or by reconstructing from persisted bracket
// events (spec.md §4.13 step 8's idempotent reconstruction).
type PlayoffControllerFactory func(ctx context.Context, dynastyID string, season int) (PlayoffController, error)

// DayResult is the shared contract spec.md §4.9 names: what happened
// during one simulated day, regardless of which phase produced it.
type DayResult struct {
	GamesPlayed      int
	Results          []GameResult
	EventsTriggered  []string
	Success          bool
	CurrentPhase     calendar.SeasonPhase
	Message          string
}

// Trade is an executed or proposed roster trade; opaque to the core.
type Trade struct {
	ID string
}

// TradeAIService evaluates trade opportunities for every team on a given
// day.
type TradeAIService interface {
	EvaluateDailyForAllTeams(ctx context.Context, phase calendar.SeasonPhase, week int) ([]Trade, error)
}

// TradeWindowValidator decides whether trades are currently legal.
type TradeWindowValidator interface {
	IsTradeAllowed(ctx context.Context, date calendar.Date, phase calendar.SeasonPhase, week int) (bool, string)
}

// ContractIncrementResult is cap.increment_all_contracts's return shape.
type ContractIncrementResult struct {
	Total   int
	Active  int
	Expired int
}

// CapService manages contract years across a season transition.
type CapService interface {
	IncrementAllContracts(ctx context.Context, newSeason int) (ContractIncrementResult, error)
}

// DraftClassResult is draft.prepare_class's return shape.
type DraftClassResult struct {
	ID          string
	TotalPlayers int
	ElapsedMs   int64
}

// DraftService prepares the incoming draft class.
type DraftService interface {
	PrepareClass(ctx context.Context, season int, size int) (DraftClassResult, error)
}

// OffseasonService schedules the milestone events (free agency window,
// draft day, trade deadline, ...) once the Super Bowl date is known.
type OffseasonService interface {
	ScheduleEvents(ctx context.Context, superBowlDate calendar.Date, season int, dynastyID string) ([]eventstore.Event, error)
}
