// Package simulation is the Simulation Executor (spec.md §4.10): given a
// calendar date, it finds every pending game event for that day, runs each
// through the injected extsvc.Simulator, appends results, and updates
// standings — all inside one IMMEDIATE-mode transaction per day so a
// mid-day failure cannot leave partial results committed. Grounded on the
// teacher's internal/fixture/seed.go SeedFixture: fetch pending work, do
// it, accumulate a Result struct with counts and errors.
package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/standings"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
	"github.com/sim-dynasty/season-cycle-engine/internal/txn"
)

// Executor runs one day's slate of games.
type Executor struct {
	DB        *storage.DB
	DynastyID string
	Season    int
	Simulator extsvc.Simulator
	Logger    *slog.Logger
}

// NewExecutor constructs an Executor.
func NewExecutor(db *storage.DB, dynastyID string, season int, sim extsvc.Simulator, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{DB: db, DynastyID: dynastyID, Season: season, Simulator: sim, Logger: logger}
}

// SimulateDay runs every pending game event timestamped within date,
// returning the shared DayResult contract (spec.md §4.9). When
// cfg.SkipGameSimulation is set, games are resolved to a fixed placeholder
// score instead of calling the injected Simulator (fast-mode, used by
// simulate_to_phase_end-style bulk advancement).
func (ex *Executor) SimulateDay(ctx context.Context, date calendar.Date, cfg extsvc.SimulationSettings) (extsvc.DayResult, error) {
	startMs, endMs := date.StartOfDayMillis(), date.EndOfDayMillis()
	gameType := eventstore.EventTypeGame

	events, err := eventstore.GetByDynastyAndTimestamp(ctx, ex.DB, ex.DynastyID, startMs, endMs, &gameType)
	if err != nil {
		return extsvc.DayResult{}, fmt.Errorf("simulate day %s: query pending games: %w", date, err)
	}

	var pending []eventstore.Event
	for _, e := range events {
		completed, err := e.IsCompleted()
		if err != nil {
			return extsvc.DayResult{}, fmt.Errorf("simulate day %s: check completion for event %s: %w", date, e.EventID, err)
		}
		if !completed {
			pending = append(pending, e)
		}
	}

	if len(pending) == 0 {
		return extsvc.DayResult{Success: true, CurrentPhase: 0, Message: "no games scheduled"}, nil
	}

	scopeCtx, tc, err := txn.Begin(ctx, ex.DB, txn.Immediate, ex.Logger)
	if err != nil {
		return extsvc.DayResult{}, fmt.Errorf("simulate day %s: begin transaction: %w", date, err)
	}
	var txErr error
	defer tc.Finish(scopeCtx, &txErr)

	result := extsvc.DayResult{Success: true}
	for _, e := range pending {
		payload, err := e.GamePayload()
		if err != nil {
			txErr = fmt.Errorf("simulate day %s: decode payload for %s: %w", date, e.EventID, err)
			return extsvc.DayResult{}, txErr
		}

		var gameResult extsvc.GameResult
		if cfg.SkipGameSimulation {
			gameResult = extsvc.GameResult{HomeScore: 17, AwayScore: 13}
		} else {
			gameResult, err = ex.Simulator.SimulateOneGame(scopeCtx, payload.Parameters.HomeTeamID, payload.Parameters.AwayTeamID, cfg)
			if err != nil {
				txErr = fmt.Errorf("simulate day %s: simulate game %s: %w", date, e.EventID, err)
				return extsvc.DayResult{}, txErr
			}
		}

		updated, err := e.WithResults(eventstore.GameResults{
			HomeScore: gameResult.HomeScore, AwayScore: gameResult.AwayScore, WinnerTeamID: gameResult.WinnerTeamID,
		})
		if err != nil {
			txErr = fmt.Errorf("simulate day %s: attach results to %s: %w", date, e.EventID, err)
			return extsvc.DayResult{}, txErr
		}
		if ok, err := eventstore.Update(scopeCtx, tc, updated); err != nil || !ok {
			if err == nil {
				err = fmt.Errorf("no matching row")
			}
			txErr = fmt.Errorf("simulate day %s: persist results for %s: %w", date, e.EventID, err)
			return extsvc.DayResult{}, txErr
		}

		if err := standings.ApplyGameResult(scopeCtx, tc, ex.DynastyID, payload.Parameters.Season, payload.Parameters.SeasonType,
			payload.Parameters.HomeTeamID, payload.Parameters.AwayTeamID, gameResult.HomeScore, gameResult.AwayScore); err != nil {
			txErr = fmt.Errorf("simulate day %s: update standings for %s: %w", date, e.EventID, err)
			return extsvc.DayResult{}, txErr
		}

		result.GamesPlayed++
		result.Results = append(result.Results, gameResult)
		result.EventsTriggered = append(result.EventsTriggered, e.EventID)
	}

	result.Message = fmt.Sprintf("%d games simulated", result.GamesPlayed)
	return result, nil
}
