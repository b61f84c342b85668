// Package transition implements the Phase-Transition Manager and its four
// edge handlers (spec.md §4.7, §4.8). Grounded on the teacher's
// internal/fixture/seed.go SeedFixture dispatch: a switch over a closed
// set of cases, each branch owning its own rollback-by-marking failure,
// translated here into an edge-keyed handler registry.
package transition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim-dynasty/season-cycle-engine/internal/apperrors"
	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/completion"
)

// EdgeKey identifies one of the four legal phase transitions.
type EdgeKey string

const (
	PreseasonToRegular  EdgeKey = "PRESEASON->REGULAR_SEASON"
	RegularToPlayoffs   EdgeKey = "REGULAR_SEASON->PLAYOFFS"
	PlayoffsToOffseason EdgeKey = "PLAYOFFS->OFFSEASON"
	OffseasonToPreseason EdgeKey = "OFFSEASON->PRESEASON"
)

func edgeFor(from, to calendar.SeasonPhase) (EdgeKey, bool) {
	switch {
	case from == calendar.Preseason && to == calendar.RegularSeason:
		return PreseasonToRegular, true
	case from == calendar.RegularSeason && to == calendar.Playoffs:
		return RegularToPlayoffs, true
	case from == calendar.Playoffs && to == calendar.Offseason:
		return PlayoffsToOffseason, true
	case from == calendar.Offseason && to == calendar.Preseason:
		return OffseasonToPreseason, true
	default:
		return "", false
	}
}

// Transition describes one attempted edge crossing.
type Transition struct {
	Key       EdgeKey
	FromPhase calendar.SeasonPhase
	ToPhase   calendar.SeasonPhase
	Reason    string
}

// Handler executes one edge's side effects. Rollback is invoked
// best-effort when the manager decides to unwind and must never itself
// raise past the caller (spec.md §4.8).
type Handler interface {
	Execute(ctx context.Context, t Transition) error
	Rollback(ctx context.Context, t Transition)
}

// Manager is the small state machine driving the four legal edges.
type Manager struct {
	phaseState *calendar.PhaseState
	handlers   map[EdgeKey]Handler
	logger     *slog.Logger
}

// NewManager constructs a Manager bound to phaseState.
func NewManager(phaseState *calendar.PhaseState, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{phaseState: phaseState, handlers: make(map[EdgeKey]Handler), logger: logger}
}

// RegisterHandler binds a Handler to an edge key.
func (m *Manager) RegisterHandler(key EdgeKey, h Handler) {
	m.handlers[key] = h
}

// HasHandler reports whether key has a registered handler.
func (m *Manager) HasHandler(key EdgeKey) bool {
	_, ok := m.handlers[key]
	return ok
}

// GetRegisteredHandlers returns the set of bound edge keys.
func (m *Manager) GetRegisteredHandlers() []EdgeKey {
	keys := make([]EdgeKey, 0, len(m.handlers))
	for k := range m.handlers {
		keys = append(keys, k)
	}
	return keys
}

// CheckTransitionNeeded is pure: it inspects the current phase and queries
// the completion checker, returning a Transition descriptor if an edge
// should fire, or (nil, false) otherwise.
func CheckTransitionNeeded(currentPhase calendar.SeasonPhase, checker completion.Deps) (*Transition, bool) {
	var to calendar.SeasonPhase
	var reason string

	switch currentPhase {
	case calendar.Preseason:
		if !checker.IsPreseasonComplete() {
			return nil, false
		}
		to, reason = calendar.RegularSeason, "preseason_complete"
	case calendar.RegularSeason:
		if !checker.IsRegularSeasonComplete() {
			return nil, false
		}
		to, reason = calendar.Playoffs, "regular_season_complete"
	case calendar.Playoffs:
		if !checker.IsPlayoffsComplete() {
			return nil, false
		}
		to, reason = calendar.Offseason, "super_bowl_complete"
	case calendar.Offseason:
		if !checker.IsOffseasonComplete() {
			return nil, false
		}
		to, reason = calendar.Preseason, "next_preseason_start_reached"
	default:
		return nil, false
	}

	key, ok := edgeFor(currentPhase, to)
	if !ok {
		return nil, false
	}
	return &Transition{Key: key, FromPhase: currentPhase, ToPhase: to, Reason: reason}, true
}

// ExecuteTransition is side-effectful: it validates from_phase against the
// current phase, looks up the handler by edge key, calls it, and commits
// the phase change on success. On handler failure, the phase is left
// unchanged (the PhaseState lock this runs under ensures that), the
// handler's own rollback is invoked best-effort, and a KindTransitionFailed
// fault wrapping the original cause is returned.
func (m *Manager) ExecuteTransition(ctx context.Context, t Transition) (bool, error) {
	handler, ok := m.handlers[t.Key]
	if !ok {
		return false, fmt.Errorf("execute transition %s: no handler registered", t.Key)
	}

	var txErr error
	lockErr := m.phaseState.ExecuteTransition(func(current calendar.SeasonPhase) (calendar.SeasonPhase, error) {
		if current != t.FromPhase {
			return current, fmt.Errorf("execute transition %s: from_phase mismatch: expected %s, current %s", t.Key, t.FromPhase, current)
		}
		if err := handler.Execute(ctx, t); err != nil {
			txErr = err
			handler.Rollback(ctx, t)
			return current, err
		}
		return t.ToPhase, nil
	})
	if lockErr != nil {
		if txErr != nil {
			return false, apperrors.Wrap(apperrors.KindTransitionFailed, fmt.Sprintf("transition %s handler failed", t.Key), txErr)
		}
		return false, lockErr
	}
	m.logger.Info("phase transition executed", "edge", t.Key, "reason", t.Reason)
	return true, nil
}
