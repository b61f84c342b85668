// Package cycle is the Season Cycle Controller (spec.md §4.13): the one
// object that owns advance_day and its batch variants, wiring together the
// calendar, the transition manager, the phase handlers, trade AI, and the
// sync validator into the engine's single public entry point. Grounded on
// cmd/ingest/main.go's fixturesProcessCmd orchestration: construct the
// dependencies, call into the package functions in a fixed order, log and
// return a structured result.
package cycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim-dynasty/season-cycle-engine/internal/apperrors"
	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/completion"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/phasehandlers"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
	"github.com/sim-dynasty/season-cycle-engine/internal/syncvalidator"
	"github.com/sim-dynasty/season-cycle-engine/internal/transition"
	"github.com/sim-dynasty/season-cycle-engine/internal/txn"
)

// PhaseHandlers maps each phase to the handler that simulates its days.
type PhaseHandlers struct {
	Preseason    phasehandlers.Handler
	RegularSeason phasehandlers.Handler
	Playoffs     phasehandlers.Handler
	Offseason    phasehandlers.Handler
}

func (h PhaseHandlers) forPhase(phase calendar.SeasonPhase) (phasehandlers.Handler, error) {
	switch phase {
	case calendar.Preseason:
		return h.Preseason, nil
	case calendar.RegularSeason:
		return h.RegularSeason, nil
	case calendar.Playoffs:
		return h.Playoffs, nil
	case calendar.Offseason:
		return h.Offseason, nil
	default:
		return nil, fmt.Errorf("no phase handler for %s", phase)
	}
}

// Controller is the Season Cycle Controller for a single dynasty.
type Controller struct {
	DB                *storage.DB
	DynastyID         string
	PhaseState        *calendar.PhaseState
	TransitionManager *transition.Manager
	Handlers          PhaseHandlers
	CompletionDeps    completion.Deps
	TradeAI           extsvc.TradeAIService
	TradeWindow       extsvc.TradeWindowValidator
	MaxAcceptableDrift int
	Logger            *slog.Logger
}

// New constructs a Controller for an existing dynasty, loading its latest
// persisted state and initializing PhaseState to match (spec.md §4.13
// construction contract). Returns an error if the dynasty has no state.
func New(ctx context.Context, db *storage.DB, dynastyID string, transitionManager *transition.Manager,
	handlers PhaseHandlers, completionDeps completion.Deps, tradeAI extsvc.TradeAIService,
	tradeWindow extsvc.TradeWindowValidator, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	state, err := dynasty.GetLatest(ctx, db, dynastyID)
	if err != nil {
		return nil, fmt.Errorf("construct controller for %s: load dynasty state: %w", dynastyID, err)
	}
	if state == nil {
		return nil, fmt.Errorf("construct controller for %s: no dynasty state found", dynastyID)
	}

	phaseState := calendar.NewPhaseState(state.CurrentPhase, state.Season, logger)

	return &Controller{
		DB: db, DynastyID: dynastyID, PhaseState: phaseState, TransitionManager: transitionManager,
		Handlers: handlers, CompletionDeps: completionDeps, TradeAI: tradeAI, TradeWindow: tradeWindow,
		MaxAcceptableDrift: syncvalidator.DefaultMaxAcceptableDrift, Logger: logger,
	}, nil
}

// AdvanceDay runs the full daily contract spec.md §4.13 names:
//  1. auto-recover the in-memory year from DB drift if one is detected
//  2. advance the calendar date by one day
//  3. check whether a phase transition is due at the new date and execute it
//  4. select the handler for the (possibly just-changed) phase and simulate the day
//  5. run trade AI for all teams, gated by the trade-window validator
//  6. re-check for a transition the day's events may have just completed
//  7. reload the dynasty state — a transition in step 3 or 6 may have
//     initialized a new season's row — and persist the day against
//     whichever row is now current, through the sync validator, inside an
//     IMMEDIATE transaction, with a post-write verification pass
func (c *Controller) AdvanceDay(ctx context.Context) (extsvc.DayResult, error) {
	state, err := dynasty.GetLatest(ctx, c.DB, c.DynastyID)
	if err != nil {
		return extsvc.DayResult{}, fmt.Errorf("advance day: load dynasty state: %w", err)
	}
	if state == nil {
		return extsvc.DayResult{}, fmt.Errorf("advance day: no dynasty state found for %s", c.DynastyID)
	}

	if err := c.recoverYearDrift(state); err != nil {
		c.Logger.Warn("year drift recovery failed, continuing with calendar year", "error", err)
	}

	newDate := state.CurrentDate.AddDays(1)
	phase := c.PhaseState.Phase()

	phase = c.maybeTransition(ctx, phase)

	handler, err := c.Handlers.forPhase(phase)
	if err != nil {
		return extsvc.DayResult{}, err
	}
	result, err := handler.SimulateDay(ctx, newDate)
	if err != nil {
		return extsvc.DayResult{}, fmt.Errorf("advance day %s: simulate phase %s: %w", newDate, phase, err)
	}

	if c.TradeAI != nil && c.TradeWindow != nil {
		week := 0
		if state.CurrentWeek != nil {
			week = *state.CurrentWeek
		}
		if allowed, _ := c.TradeWindow.IsTradeAllowed(ctx, newDate, phase, week); allowed {
			if _, err := c.TradeAI.EvaluateDailyForAllTeams(ctx, phase, week); err != nil {
				c.Logger.Warn("trade AI evaluation failed", "error", err)
			}
		}
	}

	phase = c.maybeTransition(ctx, phase)

	// A transition above may have created a dynasty_state row for a new
	// season (e.g. Offseason->Preseason incrementing the year), so the
	// state persistDay writes against must be reloaded rather than the
	// state captured at the top of AdvanceDay.
	persistState, err := dynasty.GetLatest(ctx, c.DB, c.DynastyID)
	if err != nil {
		return extsvc.DayResult{}, fmt.Errorf("advance day %s: reload dynasty state: %w", newDate, err)
	}
	if persistState == nil {
		return extsvc.DayResult{}, fmt.Errorf("advance day %s: no dynasty state found for %s", newDate, c.DynastyID)
	}

	if err := c.persistDay(ctx, persistState, newDate, phase); err != nil {
		return extsvc.DayResult{}, err
	}

	result.CurrentPhase = phase
	return result, nil
}

func (c *Controller) maybeTransition(ctx context.Context, phase calendar.SeasonPhase) calendar.SeasonPhase {
	t, needed := transition.CheckTransitionNeeded(phase, c.CompletionDeps)
	if !needed {
		return phase
	}
	ok, err := c.TransitionManager.ExecuteTransition(ctx, *t)
	if err != nil {
		c.Logger.Error("phase transition failed", "from", t.FromPhase, "to", t.ToPhase, "error", err)
		return phase
	}
	if ok {
		c.PhaseState.SetPhase(t.ToPhase)
		return t.ToPhase
	}
	return phase
}

func (c *Controller) recoverYearDrift(state *dynasty.State) error {
	calendarYear := calendar.DeriveSeasonYear(state.CurrentDate)
	if calendarYear != c.PhaseState.SeasonYear() {
		c.PhaseState.SetSeasonYear(calendarYear)
	}
	return nil
}

func (c *Controller) persistDay(ctx context.Context, target *dynasty.State, newDate calendar.Date, phase calendar.SeasonPhase) error {
	if err := syncvalidator.ValidatePreSync(newDate, phase, target, c.MaxAcceptableDrift); err != nil {
		if fault, ok := err.(*apperrors.Fault); ok && fault.Kind != apperrors.KindCalendarSyncDrift {
			return fmt.Errorf("persist day %s: pre-sync validation: %w", newDate, err)
		}
		c.Logger.Warn("drift detected before persisting day", "error", err)
	}

	scopeCtx, tc, err := txn.Begin(ctx, c.DB, txn.Immediate, c.Logger)
	if err != nil {
		return fmt.Errorf("persist day %s: begin transaction: %w", newDate, err)
	}
	var txErr error
	defer tc.Finish(scopeCtx, &txErr)

	if txErr = dynasty.Update(scopeCtx, tc, c.DynastyID, target.Season, dynasty.UpdateParams{
		CurrentDate: newDate, CurrentPhase: phase, CurrentWeek: target.CurrentWeek,
	}, c.Logger); txErr != nil {
		return fmt.Errorf("persist day %s: update dynasty state: %w", newDate, txErr)
	}

	updated, err := dynasty.GetCurrent(scopeCtx, tc, c.DynastyID, target.Season)
	if err != nil {
		txErr = err
		return fmt.Errorf("persist day %s: post-write verification: %w", newDate, err)
	}
	if report, err := syncvalidator.VerifyPostSync(newDate, phase, newDate, updated); err != nil {
		c.Logger.Warn("post-sync verification raised drift", "error", err)
	} else if report.HasMismatch() {
		c.Logger.Warn("post-sync mismatch detected", "mismatches", report.Mismatches)
	}

	return nil
}

// AdvanceDays calls AdvanceDay n times, stopping early on the first error.
func (c *Controller) AdvanceDays(ctx context.Context, n int) ([]extsvc.DayResult, error) {
	results := make([]extsvc.DayResult, 0, n)
	for i := 0; i < n; i++ {
		result, err := c.AdvanceDay(ctx)
		if err != nil {
			return results, fmt.Errorf("advance %d days: stopped after %d: %w", n, i, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// AdvanceWeek advances 7 days.
func (c *Controller) AdvanceWeek(ctx context.Context) ([]extsvc.DayResult, error) {
	return c.AdvanceDays(ctx, 7)
}

// SimulateToPhaseEnd advances one day at a time until the phase changes
// from the one active when it was called, or maxDays is exhausted.
func (c *Controller) SimulateToPhaseEnd(ctx context.Context, maxDays int) ([]extsvc.DayResult, error) {
	startPhase := c.PhaseState.Phase()
	var results []extsvc.DayResult
	for i := 0; i < maxDays; i++ {
		result, err := c.AdvanceDay(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if c.PhaseState.Phase() != startPhase {
			return results, nil
		}
	}
	return results, fmt.Errorf("simulate to phase end: phase %s did not end within %d days", startPhase, maxDays)
}

// SimulateToNextOffseasonMilestone advances one day at a time, while in the
// Offseason phase, until a day's result reports at least one triggered
// milestone event, or maxDays is exhausted.
func (c *Controller) SimulateToNextOffseasonMilestone(ctx context.Context, maxDays int) ([]extsvc.DayResult, error) {
	var results []extsvc.DayResult
	for i := 0; i < maxDays; i++ {
		result, err := c.AdvanceDay(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if len(result.EventsTriggered) > 0 {
			return results, nil
		}
		if c.PhaseState.Phase() != calendar.Offseason {
			return results, fmt.Errorf("simulate to next offseason milestone: left offseason before a milestone fired")
		}
	}
	return results, fmt.Errorf("simulate to next offseason milestone: none fired within %d days", maxDays)
}
