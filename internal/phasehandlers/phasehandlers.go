// Package phasehandlers implements the four per-phase daily strategies
// spec.md §4.9 names, sharing one simulate_day(current_date) -> DayResult
// contract. Grounded on the teacher's fixturesProcessCmd/fixturesSeedCmd
// split in cmd/ingest: one small dispatcher delegating to a case-specific
// worker, each worker returning the same result shape.
package phasehandlers

import (
	"context"
	"fmt"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/simulation"
)

// Handler runs one day's work for whatever phase is currently active.
type Handler interface {
	SimulateDay(ctx context.Context, date calendar.Date) (extsvc.DayResult, error)
}

// GameDayHandler is shared by Preseason, RegularSeason, and Playoffs: all
// three just delegate to the Simulation Executor with a phase-appropriate
// settings value. Playoffs additionally consults the injected
// PlayoffController, since bracket-driven matchups aren't plain schedule
// events.
type GameDayHandler struct {
	Executor           *simulation.Executor
	Settings           extsvc.SimulationSettings
	PlayoffController  extsvc.PlayoffController // non-nil only for the Playoffs handler
	Phase              calendar.SeasonPhase
}

// NewPreseasonHandler, NewRegularSeasonHandler, and NewPlayoffsHandler
// configure a GameDayHandler for the matching phase.
func NewPreseasonHandler(ex *simulation.Executor, cfg extsvc.SimulationSettings) *GameDayHandler {
	return &GameDayHandler{Executor: ex, Settings: cfg, Phase: calendar.Preseason}
}

func NewRegularSeasonHandler(ex *simulation.Executor, cfg extsvc.SimulationSettings) *GameDayHandler {
	return &GameDayHandler{Executor: ex, Settings: cfg, Phase: calendar.RegularSeason}
}

func NewPlayoffsHandler(ex *simulation.Executor, controller extsvc.PlayoffController, cfg extsvc.SimulationSettings) *GameDayHandler {
	return &GameDayHandler{Executor: ex, Settings: cfg, PlayoffController: controller, Phase: calendar.Playoffs}
}

func (h *GameDayHandler) SimulateDay(ctx context.Context, date calendar.Date) (extsvc.DayResult, error) {
	if h.Phase == calendar.Playoffs && h.PlayoffController != nil {
		result, err := h.PlayoffController.SimulateDay(ctx, date)
		if err != nil {
			return extsvc.DayResult{}, fmt.Errorf("simulate playoff day %s: %w", date, err)
		}
		result.CurrentPhase = calendar.Playoffs
		return result, nil
	}

	result, err := h.Executor.SimulateDay(ctx, date, h.Settings)
	if err != nil {
		return extsvc.DayResult{}, err
	}
	result.CurrentPhase = h.Phase
	return result, nil
}

// OffseasonHandler dispatches due milestone events (free agency, draft
// day, trade deadline, ...) instead of simulating games.
type OffseasonHandler struct {
	DB        eventstore.Exec
	DynastyID string
}

func NewOffseasonHandler(db eventstore.Exec, dynastyID string) *OffseasonHandler {
	return &OffseasonHandler{DB: db, DynastyID: dynastyID}
}

func (h *OffseasonHandler) SimulateDay(ctx context.Context, date calendar.Date) (extsvc.DayResult, error) {
	startMs, endMs := date.StartOfDayMillis(), date.EndOfDayMillis()
	events, err := eventstore.GetByDynastyAndTimestamp(ctx, h.DB, h.DynastyID, startMs, endMs, nil)
	if err != nil {
		return extsvc.DayResult{}, fmt.Errorf("dispatch offseason milestones for %s: %w", date, err)
	}

	var triggered []string
	for _, e := range events {
		if e.EventType == eventstore.EventTypeGame {
			continue
		}
		triggered = append(triggered, e.EventID)
	}

	return extsvc.DayResult{
		Success:         true,
		EventsTriggered: triggered,
		CurrentPhase:    calendar.Offseason,
		Message:         fmt.Sprintf("%d milestone(s) due", len(triggered)),
	}, nil
}
