// Package dynasty implements the DynastyState store (spec.md §4.2) — the
// durable counterpart to calendar.PhaseState. Grounded on the teacher's
// internal/notifications/store.go direct-SQL style: free functions over an
// eventstore.Exec handle, typed row structs, fmt.Errorf-wrapped errors.
package dynasty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
)

// MaxDraftPick is the highest legal current_pick value (spec.md §4.2):
// the 224 picks of 32 teams * 7 rounds plus up to 38 compensatory picks.
const MaxDraftPick = 262

// ErrNoRowsAffected is returned by Update, UpdateSeason, and
// UpdateDraftProgress when the WHERE clause matches nothing — spec.md
// §4.2's "fails loud" requirement.
var ErrNoRowsAffected = errors.New("dynasty state: no matching row")

// State is a single dynasty_state row.
type State struct {
	DynastyID           string
	Season              int
	CurrentDate         calendar.Date
	CurrentPhase        calendar.SeasonPhase
	CurrentWeek         *int
	LastSimulatedGameID string
	CurrentDraftPick    int
	DraftInProgress     bool
	UpdatedAtMs         int64
}

// GetCurrent returns the row for (dynasty, season), or nil if absent.
func GetCurrent(ctx context.Context, db eventstore.Exec, dynastyID string, season int) (*State, error) {
	row := db.QueryRowContext(ctx, `
		SELECT dynasty_id, season, current_date, current_phase, current_week,
		       COALESCE(last_simulated_game_id, ''), current_draft_pick, draft_in_progress, updated_at
		FROM dynasty_state WHERE dynasty_id = ? AND season = ?`, dynastyID, season)
	return scanState(row)
}

// GetLatest returns the row with the maximum season_year for a dynasty,
// used on controller construction to discover the current season.
func GetLatest(ctx context.Context, db eventstore.Exec, dynastyID string) (*State, error) {
	row := db.QueryRowContext(ctx, `
		SELECT dynasty_id, season, current_date, current_phase, current_week,
		       COALESCE(last_simulated_game_id, ''), current_draft_pick, draft_in_progress, updated_at
		FROM dynasty_state WHERE dynasty_id = ?
		ORDER BY season DESC LIMIT 1`, dynastyID)
	return scanState(row)
}

// Initialize deletes any existing row for (dynasty, season), inserts a
// fresh one, then re-reads it to verify current_date stuck. spec.md §4.2's
// defensive auto-correction: when the date's derived season year disagrees
// with the season argument, the derived year wins.
func Initialize(ctx context.Context, db eventstore.Exec, dynastyID string, season int, startDate calendar.Date, startWeek int, startPhase calendar.SeasonPhase, logger *slog.Logger) (*State, error) {
	season = reconcileSeason(dynastyID, season, startDate, logger)

	if _, err := db.ExecContext(ctx, `DELETE FROM dynasty_state WHERE dynasty_id = ? AND season = ?`, dynastyID, season); err != nil {
		return nil, fmt.Errorf("initialize dynasty_state %s/%d: delete existing row: %w", dynastyID, season, err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO dynasty_state (dynasty_id, season, current_date, current_phase, current_week,
		                            last_simulated_game_id, current_draft_pick, draft_in_progress, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, 0, 0, ?)`,
		dynastyID, season, startDate.String(), startPhase.String(), startWeek, nowMillis(),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize dynasty_state %s/%d: insert: %w", dynastyID, season, err)
	}

	got, err := GetCurrent(ctx, db, dynastyID, season)
	if err != nil {
		return nil, fmt.Errorf("initialize dynasty_state %s/%d: post-write read: %w", dynastyID, season, err)
	}
	if got == nil {
		return nil, fmt.Errorf("initialize dynasty_state %s/%d: post-write read found no row", dynastyID, season)
	}
	if got.CurrentDate.String() != startDate.String() {
		return nil, fmt.Errorf("initialize dynasty_state %s/%d: post-write verification mismatch: wrote %s, read %s",
			dynastyID, season, startDate.String(), got.CurrentDate.String())
	}
	return got, nil
}

// UpdateParams describes the mutable fields of a dynasty_state row: spec.md
// §4.2 names current_date, current_phase, current_week, and last_game_id
// as what update() may change.
type UpdateParams struct {
	CurrentDate  calendar.Date
	CurrentPhase calendar.SeasonPhase
	CurrentWeek  *int
	LastGameID   *string
}

// Update rewrites the row for (dynasty, season) and fails loud when zero
// rows are affected; it never inserts a missing row.
// db may be a *sql.Tx, letting the caller fold this into a larger
// transaction (spec.md §4.2, §5).
func Update(ctx context.Context, db eventstore.Exec, dynastyID string, season int, params UpdateParams, logger *slog.Logger) error {
	season = reconcileSeason(dynastyID, season, params.CurrentDate, logger)

	lastGameID := ""
	if params.LastGameID != nil {
		lastGameID = *params.LastGameID
	}

	res, err := db.ExecContext(ctx, `
		UPDATE dynasty_state
		SET current_date = ?, current_phase = ?, current_week = ?,
		    last_simulated_game_id = COALESCE(NULLIF(?, ''), last_simulated_game_id),
		    updated_at = ?
		WHERE dynasty_id = ? AND season = ?`,
		params.CurrentDate.String(), params.CurrentPhase.String(), params.CurrentWeek,
		lastGameID, nowMillis(), dynastyID, season,
	)
	if err != nil {
		return fmt.Errorf("update dynasty_state %s/%d: %w", dynastyID, season, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update dynasty_state %s/%d: rows affected: %w", dynastyID, season, err)
	}
	if n == 0 {
		return fmt.Errorf("update dynasty_state %s/%d: %w", dynastyID, season, ErrNoRowsAffected)
	}
	return nil
}

// UpdateSeason updates the most recent row's season_year field. Used only
// by the season year synchronizer (spec.md §4.2, §4.11).
func UpdateSeason(ctx context.Context, db eventstore.Exec, dynastyID string, newSeason int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE dynasty_state SET season = ?, updated_at = ?
		WHERE dynasty_id = ? AND season = (SELECT MAX(season) FROM dynasty_state WHERE dynasty_id = ?)`,
		newSeason, nowMillis(), dynastyID, dynastyID,
	)
	if err != nil {
		return fmt.Errorf("update season for %s: %w", dynastyID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update season for %s: rows affected: %w", dynastyID, err)
	}
	if n == 0 {
		return fmt.Errorf("update season for %s: %w", dynastyID, ErrNoRowsAffected)
	}
	return nil
}

// UpdateDraftProgress sets current_draft_pick (bounded [0, MaxDraftPick])
// and draft_in_progress.
func UpdateDraftProgress(ctx context.Context, db eventstore.Exec, dynastyID string, season, currentPick int, inProgress bool) error {
	if currentPick < 0 || currentPick > MaxDraftPick {
		return fmt.Errorf("update draft progress %s/%d: pick %d out of bounds [0, %d]", dynastyID, season, currentPick, MaxDraftPick)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE dynasty_state SET current_draft_pick = ?, draft_in_progress = ?, updated_at = ?
		WHERE dynasty_id = ? AND season = ?`,
		currentPick, boolToInt(inProgress), nowMillis(), dynastyID, season,
	)
	if err != nil {
		return fmt.Errorf("update draft progress %s/%d: %w", dynastyID, season, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update draft progress %s/%d: rows affected: %w", dynastyID, season, err)
	}
	if n == 0 {
		return fmt.Errorf("update draft progress %s/%d: %w", dynastyID, season, ErrNoRowsAffected)
	}
	return nil
}

// Delete removes the row for (dynasty, season) and returns the row count
// removed (0 or 1, since (dynasty_id, season) is unique).
func Delete(ctx context.Context, db eventstore.Exec, dynastyID string, season int) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM dynasty_state WHERE dynasty_id = ? AND season = ?`, dynastyID, season)
	if err != nil {
		return 0, fmt.Errorf("delete dynasty_state %s/%d: %w", dynastyID, season, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete dynasty_state %s/%d: rows affected: %w", dynastyID, season, err)
	}
	return n, nil
}

// DeriveSeasonFromDate is the static rule spec.md §4.2 names: months 8-12
// map to the date's own year, months 1-7 map to year-1. It is a thin
// re-export of calendar.DeriveSeasonYear so callers of this package never
// need to import internal/calendar just for this one rule.
func DeriveSeasonFromDate(d calendar.Date) int {
	return calendar.DeriveSeasonYear(d)
}

// reconcileSeason implements the "defensive auto-correction" spec.md §4.2
// requires of initialize and update: if the season argument disagrees with
// the year derived from the date, the derived year wins and the
// disagreement is logged.
func reconcileSeason(dynastyID string, season int, date calendar.Date, logger *slog.Logger) int {
	if date.IsZero() {
		return season
	}
	derived := calendar.DeriveSeasonYear(date)
	if derived != season {
		if logger != nil {
			logger.Warn("dynasty state season mismatch, using derived year",
				"dynasty_id", dynastyID, "given_season", season, "derived_season", derived, "date", date.String())
		}
		return derived
	}
	return season
}

func scanState(row *sql.Row) (*State, error) {
	var s State
	var dateStr, phaseStr string
	var week sql.NullInt64
	var draftInProgress int
	if err := row.Scan(&s.DynastyID, &s.Season, &dateStr, &phaseStr, &week,
		&s.LastSimulatedGameID, &s.CurrentDraftPick, &draftInProgress, &s.UpdatedAtMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan dynasty_state row: %w", err)
	}

	d, err := calendar.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse dynasty_state.current_date: %w", err)
	}
	s.CurrentDate = d

	phase, ok := calendar.ParsePhase(phaseStr)
	if !ok {
		return nil, fmt.Errorf("parse dynasty_state.current_phase: unrecognized phase %q", phaseStr)
	}
	s.CurrentPhase = phase

	if week.Valid {
		w := int(week.Int64)
		s.CurrentWeek = &w
	}
	s.DraftInProgress = draftInProgress != 0
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
