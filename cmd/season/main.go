// Command season is the season cycle engine's operational CLI (SPEC_FULL
// §A.5): it exercises the engine (new dynasty, day/week advancement,
// status inspection) without providing a UI layer — this is tooling, not
// presentation. Grounded on the teacher's cmd/ingest/main.go cobra command
// tree and .env bootstrap.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sim-dynasty/season-cycle-engine/internal/boundary"
	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/completion"
	"github.com/sim-dynasty/season-cycle-engine/internal/config"
	"github.com/sim-dynasty/season-cycle-engine/internal/cycle"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/phasehandlers"
	"github.com/sim-dynasty/season-cycle-engine/internal/seasontransition"
	"github.com/sim-dynasty/season-cycle-engine/internal/simulation"
	"github.com/sim-dynasty/season-cycle-engine/internal/standings"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
	"github.com/sim-dynasty/season-cycle-engine/internal/transition"
	"github.com/sim-dynasty/season-cycle-engine/internal/yearsync"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	root := &cobra.Command{
		Use:   "season",
		Short: "Season cycle engine operational CLI",
	}

	root.AddCommand(newCmd(cfg))
	root.AddCommand(advanceDayCmd(cfg))
	root.AddCommand(advanceWeekCmd(cfg))
	root.AddCommand(advanceDaysCmd(cfg))
	root.AddCommand(statusCmd(cfg))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd(cfg *config.Config) *cobra.Command {
	var dynastyID string
	var season int
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new dynasty starting in the preseason",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			db, err := storage.Open(ctx, cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer db.Close()

			if season == 0 {
				season = cfg.DefaultStartSeason
			}
			if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO dynasties (dynasty_id, dynasty_name, created_at)
				VALUES (?, ?, CAST(strftime('%s', 'now') AS INTEGER) * 1000)`, dynastyID, cfg.DefaultDynastyName); err != nil {
				return fmt.Errorf("create dynasty record: %w", err)
			}
			startDate := calendar.NewDate(season, 8, 1)
			state, err := dynasty.Initialize(ctx, db, dynastyID, season, startDate, 1, calendar.Preseason, logger)
			if err != nil {
				return fmt.Errorf("initialize dynasty: %w", err)
			}
			if err := standings.Reset(ctx, db, dynastyID, season, eventstore.SeasonTypeRegular, defaultTeamIDs()); err != nil {
				return fmt.Errorf("reset standings: %w", err)
			}
			logger.Info("dynasty created", "dynasty_id", state.DynastyID, "season", state.Season, "start_date", state.CurrentDate)
			return nil
		},
	}
	cmd.Flags().StringVar(&dynastyID, "dynasty-id", "", "Dynasty ID (required)")
	cmd.Flags().IntVar(&season, "season", 0, "Starting season year (defaults to DEFAULT_START_SEASON)")
	cmd.MarkFlagRequired("dynasty-id")
	return cmd
}

func advanceDayCmd(cfg *config.Config) *cobra.Command {
	var dynastyID string
	cmd := &cobra.Command{
		Use:   "advance-day",
		Short: "Advance the dynasty by one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cfg, dynastyID, func(ctx context.Context, c *cycle.Controller) error {
				result, err := c.AdvanceDay(ctx)
				if err != nil {
					return err
				}
				logger.Info("day advanced", "games_played", result.GamesPlayed, "phase", result.CurrentPhase, "message", result.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dynastyID, "dynasty-id", "", "Dynasty ID (required)")
	cmd.MarkFlagRequired("dynasty-id")
	return cmd
}

func advanceWeekCmd(cfg *config.Config) *cobra.Command {
	var dynastyID string
	cmd := &cobra.Command{
		Use:   "advance-week",
		Short: "Advance the dynasty by seven days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cfg, dynastyID, func(ctx context.Context, c *cycle.Controller) error {
				results, err := c.AdvanceWeek(ctx)
				if err != nil {
					return err
				}
				logger.Info("week advanced", "days", len(results))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dynastyID, "dynasty-id", "", "Dynasty ID (required)")
	cmd.MarkFlagRequired("dynasty-id")
	return cmd
}

func advanceDaysCmd(cfg *config.Config) *cobra.Command {
	var dynastyID string
	var n int
	cmd := &cobra.Command{
		Use:   "advance-days",
		Short: "Advance the dynasty by N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cfg, dynastyID, func(ctx context.Context, c *cycle.Controller) error {
				results, err := c.AdvanceDays(ctx, n)
				if err != nil {
					return err
				}
				logger.Info("days advanced", "days", len(results))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dynastyID, "dynasty-id", "", "Dynasty ID (required)")
	cmd.Flags().IntVar(&n, "days", 1, "Number of days to advance")
	cmd.MarkFlagRequired("dynasty-id")
	return cmd
}

func statusCmd(cfg *config.Config) *cobra.Command {
	var dynastyID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current dynasty state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			db, err := storage.Open(ctx, cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer db.Close()

			state, err := dynasty.GetLatest(ctx, db, dynastyID)
			if err != nil {
				return fmt.Errorf("load dynasty state: %w", err)
			}
			if state == nil {
				return fmt.Errorf("no dynasty state found for %s", dynastyID)
			}
			fmt.Printf("dynasty=%s season=%d date=%s phase=%s week=%v draft_pick=%d\n",
				state.DynastyID, state.Season, state.CurrentDate, state.CurrentPhase, state.CurrentWeek, state.CurrentDraftPick)
			return nil
		},
	}
	cmd.Flags().StringVar(&dynastyID, "dynasty-id", "", "Dynasty ID (required)")
	cmd.MarkFlagRequired("dynasty-id")
	return cmd
}

func defaultTeamIDs() []int {
	teams := make([]int, standings.NumTeams)
	for i := range teams {
		teams[i] = i + 1
	}
	return teams
}

// withController wires every engine dependency for dynastyID and runs fn
// against the resulting cycle.Controller. The external service
// dependencies (simulation, scheduling, playoffs, cap, draft) are the
// extsvc fakes — wiring a real simulation/cap/draft engine is outside the
// CLI's job, the same way cmd/ingest only wires providers it has
// credentials for.
func withController(cfg *config.Config, dynastyID string, fn func(ctx context.Context, c *cycle.Controller) error) error {
	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	state, err := dynasty.GetLatest(ctx, db, dynastyID)
	if err != nil {
		return fmt.Errorf("load dynasty state: %w", err)
	}
	if state == nil {
		return fmt.Errorf("no dynasty state found for %s; run `season new` first", dynastyID)
	}

	phaseState := calendar.NewPhaseState(state.CurrentPhase, state.Season, logger)
	det := boundary.New(db, dynastyID, logger)

	settings := extsvc.SimulationSettings{
		SkipGameSimulation:  cfg.SkipGameSimulation,
		SkipTransactionAI:   cfg.SkipTransactionAI,
		SkipOffseasonEvents: cfg.SkipOffseasonEvents,
	}

	sim := &extsvc.FakeSimulator{}
	executor := simulation.NewExecutor(db, dynastyID, state.Season, sim, logger)

	handlers := cycle.PhaseHandlers{
		Preseason:     phasehandlers.NewPreseasonHandler(executor, settings),
		RegularSeason: phasehandlers.NewRegularSeasonHandler(executor, settings),
		Playoffs:      phasehandlers.NewPlayoffsHandler(executor, &extsvc.FakePlayoffController{}, settings),
		Offseason:     phasehandlers.NewOffseasonHandler(db, dynastyID),
	}

	manager := transition.NewManager(phaseState, logger)
	wireTransitionHandlers(db, dynastyID, state.Season, det, phaseState, manager)

	completionDeps := completion.Deps{
		GamesPlayed:               func() int { return 0 },
		CurrentDate:               func() calendar.Date { return state.CurrentDate },
		LastRegularSeasonGameDate: lastDateOrZero(det.GetLastGameDate, calendar.RegularSeason, &state.Season),
		LastPreseasonGameDate:     lastDateOrZero(det.GetLastGameDate, calendar.Preseason, &state.Season),
		IsSuperBowlComplete:       func() bool { return false },
		PreseasonStartDate:        func() calendar.Date { nextYear := state.Season + 1; d, _ := det.GetPhaseStartDate(ctx, calendar.Preseason, &nextYear); return d },
	}

	controller, err := cycle.New(ctx, db, dynastyID, manager, handlers, completionDeps,
		extsvc.FakeTradeAIService{}, extsvc.FakeTradeWindowValidator{Allowed: true}, logger)
	if err != nil {
		return fmt.Errorf("construct controller: %w", err)
	}

	return fn(ctx, controller)
}

func lastDateOrZero(fn func(ctx context.Context, phase calendar.SeasonPhase, season *int) (calendar.Date, bool, error), phase calendar.SeasonPhase, season *int) func() calendar.Date {
	return func() calendar.Date {
		d, ok, err := fn(context.Background(), phase, season)
		if err != nil || !ok {
			return calendar.Date{}
		}
		return d
	}
}

func wireTransitionHandlers(db *storage.DB, dynastyID string, season int, det *boundary.Detector, phaseState *calendar.PhaseState, manager *transition.Manager) {
	yearSync := yearsync.NewSynchronizer(db, dynastyID, phaseState, logger)
	seasonSvc := seasontransition.NewService(yearSync, extsvc.FakeCapService{}, extsvc.FakeDraftService{}, logger)

	manager.RegisterHandler(transition.PreseasonToRegular, &transition.PreseasonToRegularHandler{
		DB: db, DynastyID: dynastyID, Logger: logger,
	})
	manager.RegisterHandler(transition.RegularToPlayoffs, &transition.RegularToPlayoffsHandler{
		DB: db, DynastyID: dynastyID, Season: season, Logger: logger,
		PlayoffFactory: func(ctx context.Context, dynastyID string, season int) (extsvc.PlayoffController, error) {
			return &extsvc.FakePlayoffController{}, nil
		},
	})
	manager.RegisterHandler(transition.PlayoffsToOffseason, &transition.PlayoffsToOffseasonHandler{
		DB: db, DynastyID: dynastyID, Season: season, Logger: logger,
		PlayoffController: &extsvc.FakePlayoffController{},
		OffseasonService:  extsvc.NewFakeOffseasonService(dynastyID),
	})
	manager.RegisterHandler(transition.OffseasonToPreseason, &transition.OffseasonToPreseasonHandler{
		DB: db, DynastyID: dynastyID, CurrentSeason: season, Logger: logger,
		Boundary:          det,
		ScheduleGenerator: extsvc.NewFakeScheduleGenerator(dynastyID),
		YearTransition:    seasonSvc,
	})
}
