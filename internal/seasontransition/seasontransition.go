// Package seasontransition is the Season Transition Service (spec.md
// §4.12): it drives the year synchronizer, then the salary-cap contract
// increment, then draft class preparation, stopping at the first step that
// fails. Each failure is returned wrapped with a message naming its stage;
// the errors carry no distinct type per stage.
// Grounded on internal/fixture/seed.go's optional percentile-recalculation
// post-step — a secondary step after the main operation that can fail
// independently without invalidating the primary result.
package seasontransition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim-dynasty/season-cycle-engine/internal/extsvc"
	"github.com/sim-dynasty/season-cycle-engine/internal/yearsync"
)

// DraftClassSize is the number of incoming prospects prepared each season,
// matching dynasty.MaxDraftPick's 262-pick draft (7 rounds x ~32 teams +
// compensatory picks, rounded up for the prospect pool).
const DraftClassSize = 300

// Service orchestrates the three steps of an offseason-to-preseason year
// transition once the phase/schedule machinery has already run.
type Service struct {
	YearSync *yearsync.Synchronizer
	Cap      extsvc.CapService
	Draft    extsvc.DraftService
	Logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(yearSync *yearsync.Synchronizer, cap extsvc.CapService, draft extsvc.DraftService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{YearSync: yearSync, Cap: cap, Draft: draft, Logger: logger}
}

// RunYearTransition implements transition.YearTransitionRunner: it is the
// function the Offseason->Preseason handler calls as its final step.
func (s *Service) RunYearTransition(ctx context.Context, dynastyID string, newYear int) error {
	if err := s.YearSync.Synchronize(ctx, newYear, "season_transition"); err != nil {
		return fmt.Errorf("season transition to %d: year sync: %w", newYear, err)
	}

	capResult, err := s.Cap.IncrementAllContracts(ctx, newYear)
	if err != nil {
		return fmt.Errorf("season transition to %d: increment contracts: %w", newYear, err)
	}
	s.Logger.Info("contracts incremented", "season", newYear, "total", capResult.Total, "active", capResult.Active, "expired", capResult.Expired)

	draftResult, err := s.Draft.PrepareClass(ctx, newYear, DraftClassSize)
	if err != nil {
		return fmt.Errorf("season transition to %d: prepare draft class: %w", newYear, err)
	}
	s.Logger.Info("draft class prepared", "season", newYear, "class_id", draftResult.ID, "players", draftResult.TotalPlayers, "elapsed_ms", draftResult.ElapsedMs)

	return nil
}
