package transition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim-dynasty/season-cycle-engine/internal/apperrors"
	"github.com/sim-dynasty/season-cycle-engine/internal/boundary"
	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/standings"
)

// rollbackStep is one completed, undoable unit of work a handler
// performed — spec.md §4.8's "each handler records its own rollback state
// (list of completed substeps) so rollback can undo exactly the substeps
// that succeeded."
type rollbackStep struct {
	name string
	undo func(ctx context.Context)
}

// PreseasonToRegularHandler implements §4.8.1: update persisted phase to
// REGULAR_SEASON. Schedules already exist, so there is no further work.
type PreseasonToRegularHandler struct {
	DB        eventstore.Exec
	DynastyID string
	Logger    *slog.Logger
}

func (h *PreseasonToRegularHandler) Execute(ctx context.Context, t Transition) error {
	state, err := dynasty.GetLatest(ctx, h.DB, h.DynastyID)
	if err != nil {
		return fmt.Errorf("preseason->regular: load dynasty state: %w", err)
	}
	if state == nil {
		return fmt.Errorf("preseason->regular: no dynasty state found for %s", h.DynastyID)
	}
	return dynasty.Update(ctx, h.DB, h.DynastyID, state.Season, dynasty.UpdateParams{
		CurrentDate:  state.CurrentDate,
		CurrentPhase: calendar.RegularSeason,
		CurrentWeek:  state.CurrentWeek,
	}, h.Logger)
}

func (h *PreseasonToRegularHandler) Rollback(ctx context.Context, t Transition) {
	state, err := dynasty.GetLatest(ctx, h.DB, h.DynastyID)
	if err != nil || state == nil {
		return
	}
	_ = dynasty.Update(ctx, h.DB, h.DynastyID, state.Season, dynasty.UpdateParams{
		CurrentDate:  state.CurrentDate,
		CurrentPhase: t.FromPhase,
		CurrentWeek:  state.CurrentWeek,
	}, h.Logger)
}

// RegularToPlayoffsHandler implements §4.8.2.
type RegularToPlayoffsHandler struct {
	DB                eventstore.Exec
	DynastyID         string
	Season            int
	PlayoffFactory    extsvc.PlayoffControllerFactory
	Logger            *slog.Logger

	controller extsvc.PlayoffController // set on successful Execute, for callers that need it
}

// Controller returns the PlayoffController built by the most recent
// successful Execute call, or nil.
func (h *RegularToPlayoffsHandler) Controller() extsvc.PlayoffController {
	return h.controller
}

func (h *RegularToPlayoffsHandler) Execute(ctx context.Context, t Transition) error {
	rows, err := standings.GetBySeason(ctx, h.DB, h.DynastyID, h.Season, eventstore.SeasonTypeRegular)
	if err != nil {
		return fmt.Errorf("regular->playoffs: fetch standings: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("regular->playoffs: no regular-season standings found for season %d", h.Season)
	}

	svcRows := make([]extsvc.StandingRow, len(rows))
	for i, r := range rows {
		svcRows[i] = extsvc.StandingRow{
			TeamID: r.TeamID, Wins: r.Wins, Losses: r.Losses, Ties: r.Ties,
			DivisionWins: r.DivisionWins, ConferenceWins: r.ConferenceWins,
			PointsFor: r.PointsFor, PointsAgainst: r.PointsAgainst,
		}
	}

	controller, err := h.PlayoffFactory(ctx, h.DynastyID, h.Season)
	if err != nil {
		return fmt.Errorf("regular->playoffs: build playoff controller: %w", err)
	}
	if controller == nil {
		return fmt.Errorf("regular->playoffs: playoff controller factory returned nil")
	}

	seeding, err := controller.Seed(ctx, svcRows)
	if err != nil {
		return fmt.Errorf("regular->playoffs: seed playoffs: %w", err)
	}
	if len(seeding.SeedsByConference) == 0 {
		return fmt.Errorf("regular->playoffs: seeding produced no conferences")
	}
	if _, err := controller.Build(ctx, seeding); err != nil {
		return fmt.Errorf("regular->playoffs: build bracket: %w", err)
	}

	state, err := dynasty.GetLatest(ctx, h.DB, h.DynastyID)
	if err != nil || state == nil {
		return fmt.Errorf("regular->playoffs: load dynasty state: %w", err)
	}
	if err := dynasty.Update(ctx, h.DB, h.DynastyID, state.Season, dynasty.UpdateParams{
		CurrentDate: state.CurrentDate, CurrentPhase: calendar.Playoffs, CurrentWeek: state.CurrentWeek,
	}, h.Logger); err != nil {
		return fmt.Errorf("regular->playoffs: persist phase: %w", err)
	}

	h.controller = controller
	return nil
}

func (h *RegularToPlayoffsHandler) Rollback(ctx context.Context, t Transition) {
	state, err := dynasty.GetLatest(ctx, h.DB, h.DynastyID)
	if err != nil || state == nil {
		return
	}
	_ = dynasty.Update(ctx, h.DB, h.DynastyID, state.Season, dynasty.UpdateParams{
		CurrentDate: state.CurrentDate, CurrentPhase: t.FromPhase, CurrentWeek: state.CurrentWeek,
	}, h.Logger)
	// Bracket state is owned by the playoff controller's own idempotent
	// reconstruction (spec.md §4.8.2): nothing further to undo here.
}

// PlayoffsToOffseasonHandler implements §4.8.3.
type PlayoffsToOffseasonHandler struct {
	DB                eventstore.Exec
	DynastyID         string
	Season            int
	PlayoffController extsvc.PlayoffController
	OffseasonService  extsvc.OffseasonService
	Logger            *slog.Logger

	Summary *SeasonSummary // populated on success

	scheduledEventIDs []string
}

// SeasonSummary is the minimal season summary spec.md §4.8.3 step 3 names:
// champion id, season year, dynasty id — no extra statistics (DESIGN.md
// Open Question decision).
type SeasonSummary struct {
	ChampionTeamID int
	SeasonYear     int
	DynastyID      string
}

func (h *PlayoffsToOffseasonHandler) Execute(ctx context.Context, t Transition) error {
	winner, err := h.PlayoffController.SuperBowlWinner(ctx)
	if err != nil {
		return fmt.Errorf("playoffs->offseason: read super bowl winner: %w", err)
	}
	sbDate, err := h.PlayoffController.SuperBowlDate(ctx)
	if err != nil {
		return fmt.Errorf("playoffs->offseason: read super bowl date: %w", err)
	}

	scheduled, err := h.OffseasonService.ScheduleEvents(ctx, sbDate, h.Season, h.DynastyID)
	if err != nil {
		return fmt.Errorf("playoffs->offseason: schedule milestones: %w", err)
	}
	for _, e := range scheduled {
		h.scheduledEventIDs = append(h.scheduledEventIDs, e.EventID)
	}

	h.Summary = &SeasonSummary{ChampionTeamID: winner, SeasonYear: h.Season, DynastyID: h.DynastyID}

	// Step 4: this handler reads the season's regular-season standings and
	// fails only if that read errors. It does not compute or persist a
	// next-season draft order, and an empty standings result is not an error.
	if _, err := standings.GetBySeason(ctx, h.DB, h.DynastyID, h.Season, eventstore.SeasonTypeRegular); err != nil {
		return fmt.Errorf("playoffs->offseason: read standings for draft order: %w", err)
	}

	state, err := dynasty.GetLatest(ctx, h.DB, h.DynastyID)
	if err != nil || state == nil {
		return fmt.Errorf("playoffs->offseason: load dynasty state: %w", err)
	}
	if err := dynasty.Update(ctx, h.DB, h.DynastyID, state.Season, dynasty.UpdateParams{
		CurrentDate: state.CurrentDate, CurrentPhase: calendar.Offseason, CurrentWeek: state.CurrentWeek,
	}, h.Logger); err != nil {
		return fmt.Errorf("playoffs->offseason: persist phase: %w", err)
	}
	return nil
}

func (h *PlayoffsToOffseasonHandler) Rollback(ctx context.Context, t Transition) {
	state, err := dynasty.GetLatest(ctx, h.DB, h.DynastyID)
	if err == nil && state != nil {
		_ = dynasty.Update(ctx, h.DB, h.DynastyID, state.Season, dynasty.UpdateParams{
			CurrentDate: state.CurrentDate, CurrentPhase: t.FromPhase, CurrentWeek: state.CurrentWeek,
		}, h.Logger)
	}
	for _, id := range h.scheduledEventIDs {
		// Best-effort: a milestone event that was never acted on is inert,
		// so failing to delete it here is not escalated.
		_, _ = h.DB.ExecContext(ctx, `DELETE FROM events WHERE event_id = ?`, id)
	}
}

// OffseasonToPreseasonHandler implements §4.8.4, the most complex edge.
type OffseasonToPreseasonHandler struct {
	DB                eventstore.Exec
	DynastyID         string
	CurrentSeason     int
	Boundary          *boundary.Detector
	ScheduleGenerator extsvc.ScheduleGenerator
	YearTransition    YearTransitionRunner
	Logger            *slog.Logger

	steps []rollbackStep
}

// YearTransitionRunner is the narrow interface the Offseason->Preseason
// handler needs from the season transition service (spec.md §4.12),
// avoiding an import cycle between internal/transition and
// internal/seasontransition.
type YearTransitionRunner interface {
	RunYearTransition(ctx context.Context, dynastyID string, newYear int) error
}

func (h *OffseasonToPreseasonHandler) Execute(ctx context.Context, t Transition) error {
	h.steps = nil
	newYear := h.CurrentSeason + 1

	priorState, err := dynasty.GetLatest(ctx, h.DB, h.DynastyID)
	if err != nil || priorState == nil {
		return fmt.Errorf("offseason->preseason: load dynasty state: %w", err)
	}
	h.record("snapshot_prior_state", func(ctx context.Context) {})

	preseasonStart, err := h.Boundary.GetPhaseStartDate(ctx, calendar.Preseason, &newYear)
	if err != nil {
		return fmt.Errorf("offseason->preseason: compute preseason start date: %w", err)
	}

	preseasonGames, err := h.ScheduleGenerator.GeneratePreseason(ctx, newYear)
	if err != nil {
		return fmt.Errorf("offseason->preseason: generate preseason schedule: %w", err)
	}
	if len(preseasonGames) != 48 {
		return fmt.Errorf("offseason->preseason: preseason schedule has %d games, want 48", len(preseasonGames))
	}
	h.record("generate_preseason_schedule", func(ctx context.Context) {
		h.deleteGeneratedGames(ctx, preseasonGames)
	})

	regularGames, err := h.ScheduleGenerator.GenerateRegularSeason(ctx, newYear, preseasonStart.AddDays(28))
	if err != nil {
		return fmt.Errorf("offseason->preseason: generate regular-season schedule: %w", err)
	}
	if len(regularGames) != 272 {
		return fmt.Errorf("offseason->preseason: regular-season schedule has %d games, want 272", len(regularGames))
	}
	h.record("generate_regular_season_schedule", func(ctx context.Context) {
		h.deleteGeneratedGames(ctx, regularGames)
	})

	teamIDs := make([]int, standings.NumTeams)
	for i := range teamIDs {
		teamIDs[i] = i + 1
	}
	if err := standings.Reset(ctx, h.DB, h.DynastyID, newYear, eventstore.SeasonTypeRegular, teamIDs); err != nil {
		return fmt.Errorf("offseason->preseason: reset standings: %w", err)
	}
	// Standings reset has no inverse (spec.md §4.8.4 rollback note):
	// prior-year standings live in their own rows and are untouched, so no
	// rollback step is recorded for this one.

	if _, err := dynasty.Initialize(ctx, h.DB, h.DynastyID, newYear, preseasonStart, 1, calendar.Preseason, h.Logger); err != nil {
		return fmt.Errorf("offseason->preseason: persist new phase/year: %w", err)
	}
	h.record("persist_new_phase_and_year", func(ctx context.Context) {
		_, _ = dynasty.Delete(ctx, h.DB, h.DynastyID, newYear)
		_, _ = dynasty.Initialize(ctx, h.DB, h.DynastyID, h.CurrentSeason, priorState.CurrentDate, 0, t.FromPhase, h.Logger)
	})

	if err := h.YearTransition.RunYearTransition(ctx, h.DynastyID, newYear); err != nil {
		return apperrors.Wrap(apperrors.KindTransitionFailed, "offseason->preseason: year transition service", err)
	}

	h.Boundary.InvalidateCache()
	return nil
}

func (h *OffseasonToPreseasonHandler) Rollback(ctx context.Context, t Transition) {
	for i := len(h.steps) - 1; i >= 0; i-- {
		func() {
			defer func() { recover() }() // rollback must never raise past the caller
			h.steps[i].undo(ctx)
		}()
	}
}

func (h *OffseasonToPreseasonHandler) record(name string, undo func(ctx context.Context)) {
	h.steps = append(h.steps, rollbackStep{name: name, undo: undo})
}

func (h *OffseasonToPreseasonHandler) deleteGeneratedGames(ctx context.Context, events []eventstore.Event) {
	for _, e := range events {
		_, _ = h.DB.ExecContext(ctx, `DELETE FROM events WHERE event_id = ?`, e.EventID)
	}
}
