package calendar

import (
	"log/slog"
	"sync"
)

// Listener is notified whenever PhaseState's phase changes. Listener
// failures must never abort the transition that triggered them (spec.md
// §3.1, §9) — PhaseState recovers from a panicking listener and logs it,
// the same "never let one broken consumer stop the producer" contract the
// teacher's milestone listener applies to reconnect handling.
type Listener func(from, to SeasonPhase, seasonYear int)

// PhaseState is the single in-memory source of truth for the current
// phase and season year (spec.md §3.1). It carries its own internal lock —
// every mutation is serialized and every phase change fans out to
// listeners outside the lock.
type PhaseState struct {
	mu         sync.Mutex
	phase      SeasonPhase
	seasonYear int
	listeners  []Listener
	logger     *slog.Logger
}

// NewPhaseState constructs a PhaseState at the given initial phase/year.
func NewPhaseState(phase SeasonPhase, seasonYear int, logger *slog.Logger) *PhaseState {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhaseState{phase: phase, seasonYear: seasonYear, logger: logger}
}

// Phase returns the current phase.
func (ps *PhaseState) Phase() SeasonPhase {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.phase
}

// SeasonYear returns the current season year.
func (ps *PhaseState) SeasonYear() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.seasonYear
}

// Snapshot returns phase and season year together, consistent with each
// other (taken under a single lock acquisition).
func (ps *PhaseState) Snapshot() (SeasonPhase, int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.phase, ps.seasonYear
}

// AddListener registers a listener. Safe to call from any goroutine.
func (ps *PhaseState) AddListener(l Listener) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.listeners = append(ps.listeners, l)
}

// SetPhase changes the current phase and notifies listeners outside the
// lock. SetPhase and ExecuteTransition are the two mutators of phase;
// SetSeasonYear is separate since
// the year synchronizer (internal/yearsync) changes it independently of
// a phase transition.
func (ps *PhaseState) SetPhase(newPhase SeasonPhase) {
	ps.mu.Lock()
	from := ps.phase
	ps.phase = newPhase
	year := ps.seasonYear
	listeners := make([]Listener, len(ps.listeners))
	copy(listeners, ps.listeners)
	ps.mu.Unlock()

	if from == newPhase {
		return
	}
	ps.notify(listeners, from, newPhase, year)
}

// ExecuteTransition serializes a single phase transition attempt against
// the current phase, using PhaseState's own lock so no two transitions can
// run concurrently (spec.md §4.7's "no concurrent transitions" constraint
// lives here, not in the transition manager). fn receives the current
// phase and returns the phase to commit to plus any error; on error the
// phase is left untouched. Listener notification happens after the lock
// is released, same as SetPhase.
func (ps *PhaseState) ExecuteTransition(fn func(current SeasonPhase) (SeasonPhase, error)) error {
	ps.mu.Lock()
	from := ps.phase
	to, err := fn(from)
	if err != nil {
		ps.mu.Unlock()
		return err
	}
	ps.phase = to
	year := ps.seasonYear
	listeners := make([]Listener, len(ps.listeners))
	copy(listeners, ps.listeners)
	ps.mu.Unlock()

	if from != to {
		ps.notify(listeners, from, to, year)
	}
	return nil
}

// SetSeasonYear changes the current season year without touching phase.
func (ps *PhaseState) SetSeasonYear(year int) {
	ps.mu.Lock()
	ps.seasonYear = year
	ps.mu.Unlock()
}

func (ps *PhaseState) notify(listeners []Listener, from, to SeasonPhase, year int) {
	for _, l := range listeners {
		ps.invoke(l, from, to, year)
	}
}

// invoke calls a single listener, recovering from a panic so one broken
// observer can never break a correct transition.
func (ps *PhaseState) invoke(l Listener, from, to SeasonPhase, year int) {
	defer func() {
		if r := recover(); r != nil {
			ps.logger.Error("phase listener panicked", "from", from, "to", to, "recovered", r)
		}
	}()
	l(from, to, year)
}
