// Package boundary derives season phase boundaries from the scheduled
// event timeline instead of hard-coded dates (spec.md §4.5), so the phase
// state machine stays event-driven. Grounded on the teacher's
// internal/fixture scheduling queries: group rows in SQL and let the
// database return the extremal timestamp rather than scanning in Go.
package boundary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
)

// Detector answers boundary questions for one dynasty, memoizing results
// until InvalidateCache is called (spec.md §4.5: invalidated on any
// schedule-generation event).
type Detector struct {
	db        eventstore.Exec
	dynastyID string
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[cacheKey]calendar.Date
}

type cacheKey struct {
	op     string
	phase  calendar.SeasonPhase
	season int
}

// New constructs a Detector over db for one dynasty.
func New(db eventstore.Exec, dynastyID string, logger *slog.Logger) *Detector {
	return &Detector{db: db, dynastyID: dynastyID, logger: logger, cache: make(map[cacheKey]calendar.Date)}
}

// InvalidateCache drops every memoized result. Call this whenever the
// schedule is (re)generated.
func (d *Detector) InvalidateCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = make(map[cacheKey]calendar.Date)
}

func seasonTypeFor(phase calendar.SeasonPhase) (eventstore.SeasonType, bool) {
	switch phase {
	case calendar.Preseason:
		return eventstore.SeasonTypePreseason, true
	case calendar.RegularSeason:
		return eventstore.SeasonTypeRegular, true
	case calendar.Playoffs:
		return eventstore.SeasonTypePlayoffs, true
	default:
		return "", false
	}
}

// GetFirstGameDate returns the earliest GameEvent's date in phase for
// season (all seasons if season is nil). ok is false when no such game
// exists.
func (d *Detector) GetFirstGameDate(ctx context.Context, phase calendar.SeasonPhase, season *int) (date calendar.Date, ok bool, err error) {
	return d.extremalGameDate(ctx, "first", phase, season, "ASC")
}

// GetLastGameDate returns the latest GameEvent's date in phase for season.
func (d *Detector) GetLastGameDate(ctx context.Context, phase calendar.SeasonPhase, season *int) (date calendar.Date, ok bool, err error) {
	return d.extremalGameDate(ctx, "last", phase, season, "DESC")
}

func (d *Detector) extremalGameDate(ctx context.Context, op string, phase calendar.SeasonPhase, season *int, order string) (calendar.Date, bool, error) {
	seasonType, known := seasonTypeFor(phase)
	if !known {
		return calendar.Date{}, false, nil
	}

	key := cacheKey{op: op, phase: phase, season: seasonVal(season)}
	d.mu.Lock()
	if cached, found := d.cache[key]; found {
		d.mu.Unlock()
		return cached, true, nil
	}
	d.mu.Unlock()

	query := `
		SELECT timestamp_ms FROM events
		WHERE dynasty_id = ? AND event_type = ?
		  AND json_extract(data_json, '$.parameters.season_type') = ?`
	args := []any{d.dynastyID, string(eventstore.EventTypeGame), string(seasonType)}
	if season != nil {
		query += ` AND json_extract(data_json, '$.parameters.season') = ?`
		args = append(args, *season)
	}
	query += fmt.Sprintf(` ORDER BY timestamp_ms %s LIMIT 1`, order)

	var ms int64
	row := d.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&ms); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Date{}, false, nil
		}
		return calendar.Date{}, false, fmt.Errorf("%s game date for phase %s: %w", op, phase, err)
	}

	date := calendar.FromUnixMillis(ms)
	d.mu.Lock()
	d.cache[key] = date
	d.mu.Unlock()
	return date, true, nil
}

// GetPhaseStartDate aliases GetFirstGameDate; for PRESEASON, when no game
// is yet scheduled, it falls back to the first Thursday of August of
// season (spec.md §4.5).
func (d *Detector) GetPhaseStartDate(ctx context.Context, phase calendar.SeasonPhase, season *int) (calendar.Date, error) {
	date, ok, err := d.GetFirstGameDate(ctx, phase, season)
	if err != nil {
		return calendar.Date{}, err
	}
	if ok {
		return date, nil
	}
	if phase == calendar.Preseason && season != nil {
		return firstThursdayOfAugust(*season), nil
	}
	return calendar.Date{}, fmt.Errorf("phase start date for %s: no scheduled games and no fallback available", phase)
}

// GetPlayoffStartDate returns one week after the last regular-season game
// date (spec.md §4.5).
func (d *Detector) GetPlayoffStartDate(ctx context.Context, season *int) (calendar.Date, bool, error) {
	last, ok, err := d.GetLastGameDate(ctx, calendar.RegularSeason, season)
	if err != nil || !ok {
		return calendar.Date{}, ok, err
	}
	return last.AddDays(7), true, nil
}

// DeriveSeasonYear re-exports calendar.DeriveSeasonYear, spec.md §4.5's
// derive_season_year delegating to the §4.2 rule.
func (d *Detector) DeriveSeasonYear(date calendar.Date) int {
	return calendar.DeriveSeasonYear(date)
}

func firstThursdayOfAugust(year int) calendar.Date {
	d := calendar.NewDate(year, 8, 1)
	for d.Weekday() != time.Thursday {
		d = d.AddDays(1)
	}
	return d
}

func seasonVal(season *int) int {
	if season == nil {
		return 0
	}
	return *season
}
