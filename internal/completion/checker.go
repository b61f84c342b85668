// Package completion holds the pure predicates that decide whether a
// phase is finished (spec.md §4.6). Every predicate takes its inputs as
// injected nullary functions rather than reaching into storage itself —
// grounded on the teacher's internal/notifications/pipeline.go style of
// composing small injected lookups instead of a monolithic checker.
package completion

import "github.com/sim-dynasty/season-cycle-engine/internal/calendar"

// RegularSeasonGameCount and PreseasonGameCount are the two fixed
// game-count thresholds spec.md §4.6 names.
const (
	RegularSeasonGameCount = 272
	PreseasonGameCount     = 48
)

// Deps is the set of nullary dependencies spec.md §4.6 injects into the
// checker. Any field may be nil if its predicate is never exercised; a nil
// dependency a predicate needs panics loudly rather than silently
// defaulting, since a missing dependency is a wiring bug.
type Deps struct {
	GamesPlayed                func() int
	CurrentDate                func() calendar.Date
	LastRegularSeasonGameDate  func() calendar.Date
	LastPreseasonGameDate      func() calendar.Date
	IsSuperBowlComplete        func() bool
	PreseasonStartDate         func() calendar.Date
}

// IsPreseasonComplete is true once 48 preseason games have been played, or
// the current date has passed the last scheduled preseason game.
func (d Deps) IsPreseasonComplete() bool {
	if d.GamesPlayed() >= PreseasonGameCount {
		return true
	}
	return d.CurrentDate().After(d.LastPreseasonGameDate())
}

// IsRegularSeasonComplete is true once 272 regular-season games have been
// played, or the current date has passed the last scheduled regular-season
// game.
func (d Deps) IsRegularSeasonComplete() bool {
	if d.GamesPlayed() >= RegularSeasonGameCount {
		return true
	}
	return d.CurrentDate().After(d.LastRegularSeasonGameDate())
}

// IsPlayoffsComplete delegates entirely to the injected Super Bowl check.
func (d Deps) IsPlayoffsComplete() bool {
	return d.IsSuperBowlComplete()
}

// IsOffseasonComplete is true once the current date reaches next
// preseason's start date.
func (d Deps) IsOffseasonComplete() bool {
	current := d.CurrentDate()
	start := d.PreseasonStartDate()
	return current.Equal(start) || current.After(start)
}
