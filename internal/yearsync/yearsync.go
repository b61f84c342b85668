// Package yearsync is the Season Year Synchronizer (spec.md §4.11): the
// one place that changes the season year everywhere it's cached, in a
// fixed order, so nothing is left pointing at the prior year. Grounded on
// the teacher's fixture.Deps "small registry of named callbacks" pattern
// (internal/fixture/fixture.go), generalized from a static struct to an
// ordered slice of registered setters since spec.md's registry is dynamic.
package yearsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
)

// Setter is one registered callback notified when the season year changes.
// Name is used only for logging and get_registry_status.
type Setter struct {
	Name string
	Set  func(ctx context.Context, newYear int) error
}

// Synchronizer updates the season year in the database first, then every
// registered Setter in registration order, then the in-memory PhaseState
// field — spec.md §4.11's "database is the source of truth, everything
// else follows" ordering.
type Synchronizer struct {
	DB          eventstore.Exec
	DynastyID   string
	PhaseState  *calendar.PhaseState
	Logger      *slog.Logger
	setters     []Setter
}

// NewSynchronizer constructs a Synchronizer bound to one dynasty.
func NewSynchronizer(db eventstore.Exec, dynastyID string, phaseState *calendar.PhaseState, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{DB: db, DynastyID: dynastyID, PhaseState: phaseState, Logger: logger}
}

// Register adds a setter to the end of the callback order.
func (s *Synchronizer) Register(setter Setter) {
	s.setters = append(s.setters, setter)
}

// GetRegistryStatus returns the names of every registered setter, in the
// order they will be invoked.
func (s *Synchronizer) GetRegistryStatus() []string {
	names := make([]string, len(s.setters))
	for i, st := range s.setters {
		names[i] = st.Name
	}
	return names
}

// Synchronize updates newYear everywhere, in order: database, registered
// setters, in-memory PhaseState. If a setter fails partway, the already-run
// setters and the database write are not rolled back (spec.md §4.11 treats
// the database as already-authoritative at that point) — the error names
// which setter failed so the caller can decide whether to retry or
// escalate.
func (s *Synchronizer) Synchronize(ctx context.Context, newYear int, reason string) error {
	if err := dynasty.UpdateSeason(ctx, s.DB, s.DynastyID, newYear); err != nil {
		return fmt.Errorf("synchronize year to %d (%s): update database: %w", newYear, reason, err)
	}

	for _, setter := range s.setters {
		if err := setter.Set(ctx, newYear); err != nil {
			return fmt.Errorf("synchronize year to %d (%s): setter %q: %w", newYear, reason, setter.Name, err)
		}
	}

	if s.PhaseState != nil {
		s.PhaseState.SetSeasonYear(newYear)
	}

	s.Logger.Info("season year synchronized", "dynasty_id", s.DynastyID, "new_year", newYear, "reason", reason, "setters", len(s.setters))
	return nil
}

// IncrementYear synchronizes to the current year + 1.
func (s *Synchronizer) IncrementYear(ctx context.Context, reason string) error {
	state, err := dynasty.GetLatest(ctx, s.DB, s.DynastyID)
	if err != nil {
		return fmt.Errorf("increment year (%s): load current state: %w", reason, err)
	}
	if state == nil {
		return fmt.Errorf("increment year (%s): no dynasty state for %s", reason, s.DynastyID)
	}
	return s.Synchronize(ctx, state.Season+1, reason)
}
