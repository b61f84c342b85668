// Package maintenance runs periodic background tasks as Go tickers,
// independent of the synchronous advance_day path. Adapted from the
// teacher's internal/maintenance/maintenance.go (ticker-per-task loop with
// a shared runLoop helper); the task bodies are replaced with drift
// early-warning sweeps (SPEC_FULL §C.1) since there is no NOTIFY-based
// pub/sub or digest delivery in this domain.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/syncvalidator"
)

// Config controls maintenance task intervals. Zero duration disables a
// task.
type Config struct {
	DriftCheckInterval time.Duration
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{DriftCheckInterval: 15 * time.Minute}
}

// Start launches the configured maintenance tickers, reporting drift for
// dynastyID against the live phaseState. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, db eventstore.Exec, dynastyID string, phaseState *calendar.PhaseState, cfg Config, logger *slog.Logger) {
	logger.Info("maintenance tickers started", "drift_check", cfg.DriftCheckInterval)

	tickers := make([]*time.Ticker, 0, 1)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.DriftCheckInterval > 0 {
		t := time.NewTicker(cfg.DriftCheckInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "drift_check", func() { driftCheck(ctx, db, dynastyID, phaseState, logger) })
	}

	<-ctx.Done()
	logger.Info("maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// driftCheck is independent, lower-frequency monitoring; it does not
// replace the mandatory post-write verification advance_day performs on
// every call (spec.md §4.13 step 7) — it exists to surface drift even
// while the engine is idle between advance_day calls.
func driftCheck(ctx context.Context, db eventstore.Exec, dynastyID string, phaseState *calendar.PhaseState, logger *slog.Logger) {
	state, err := dynasty.GetLatest(ctx, db, dynastyID)
	if err != nil {
		logger.Warn("drift check: failed to load dynasty state", "dynasty_id", dynastyID, "error", err)
		return
	}
	if state == nil {
		return
	}

	phase, _ := phaseState.Snapshot()
	if err := syncvalidator.ValidatePreSync(state.CurrentDate, phase, state, syncvalidator.DefaultMaxAcceptableDrift); err != nil {
		logger.Warn("drift check: detected drift", "dynasty_id", dynastyID, "error", err)
		return
	}
	logger.Debug("drift check: clean", "dynasty_id", dynastyID)
}
