// Package eventstore implements the polymorphic, append-mostly event table
// spec.md §4.1 describes: every GameEvent and MilestoneEvent for every
// dynasty lives in one "events" table, isolated by dynasty_id and indexed
// for time-range and type queries.
//
// Grounded on the teacher's internal/notifications/store.go: free
// functions over a *sql.DB handle (the teacher used *pgxpool.Pool),
// returning typed rows, each wrapping its own error with fmt.Errorf.
package eventstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Exec is satisfied by *sql.DB and *sql.Tx, letting every store function
// participate in a caller-owned transaction (spec.md §4.1, §5).
type Exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Insert inserts a single event. dynasty_id is required (spec.md §4.1
// contract).
func Insert(ctx context.Context, db Exec, e Event) error {
	if e.DynastyID == "" {
		return fmt.Errorf("insert event %s: dynasty_id is required", e.EventID)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (event_id, event_type, timestamp_ms, game_id, dynasty_id, data_json)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?)`,
		e.EventID, string(e.EventType), e.TimestampMs, e.GameID, e.DynastyID, string(e.Data),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.EventID, err)
	}
	return nil
}

// InsertBatch inserts every event in a single transaction: all or none
// (spec.md §4.1).
func InsertBatch(ctx context.Context, db *sql.DB, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	for _, e := range events {
		if err := Insert(ctx, tx, e); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

// GetByID retrieves a single event by its id.
func GetByID(ctx context.Context, db Exec, eventID string) (*Event, error) {
	row := db.QueryRowContext(ctx, `
		SELECT event_id, event_type, timestamp_ms, COALESCE(game_id, ''), dynasty_id, data_json
		FROM events WHERE event_id = ?`, eventID)
	return scanEvent(row)
}

// GetByGameID returns every event for a game_id, chronological ascending.
func GetByGameID(ctx context.Context, db Exec, gameID string) ([]Event, error) {
	return queryEvents(ctx, db, `
		SELECT event_id, event_type, timestamp_ms, COALESCE(game_id, ''), dynasty_id, data_json
		FROM events WHERE game_id = ? ORDER BY timestamp_ms ASC`, gameID)
}

// GetByGameIDAndDynasty returns events for a game_id scoped to one dynasty.
func GetByGameIDAndDynasty(ctx context.Context, db Exec, gameID, dynastyID string) ([]Event, error) {
	return queryEvents(ctx, db, `
		SELECT event_id, event_type, timestamp_ms, COALESCE(game_id, ''), dynasty_id, data_json
		FROM events WHERE game_id = ? AND dynasty_id = ? ORDER BY timestamp_ms ASC`, gameID, dynastyID)
}

// GetByDynasty returns a dynasty's events, optionally filtered by type,
// descending by timestamp, optionally limited.
func GetByDynasty(ctx context.Context, db Exec, dynastyID string, eventType *EventType, limit int) ([]Event, error) {
	query := `SELECT event_id, event_type, timestamp_ms, COALESCE(game_id, ''), dynasty_id, data_json
		FROM events WHERE dynasty_id = ?`
	args := []any{dynastyID}
	if eventType != nil {
		query += ` AND event_type = ?`
		args = append(args, string(*eventType))
	}
	query += ` ORDER BY timestamp_ms DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return queryEvents(ctx, db, query, args...)
}

// GetByDynastyAndTimestamp returns events in [startMs, endMs] for a
// dynasty, optionally filtered by type, ascending — the per-day query
// the simulation executor uses (spec.md §4.1, §4.10 step 1).
func GetByDynastyAndTimestamp(ctx context.Context, db Exec, dynastyID string, startMs, endMs int64, eventType *EventType) ([]Event, error) {
	query := `SELECT event_id, event_type, timestamp_ms, COALESCE(game_id, ''), dynasty_id, data_json
		FROM events WHERE dynasty_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?`
	args := []any{dynastyID, startMs, endMs}
	if eventType != nil {
		query += ` AND event_type = ?`
		args = append(args, string(*eventType))
	}
	query += ` ORDER BY timestamp_ms ASC`
	return queryEvents(ctx, db, query, args...)
}

// Update mutates a single event — used to append results after simulation.
// Returns whether a row was affected.
func Update(ctx context.Context, db Exec, e Event) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE events SET event_type = ?, timestamp_ms = ?, game_id = NULLIF(?, ''), data_json = ?
		WHERE event_id = ?`,
		string(e.EventType), e.TimestampMs, e.GameID, string(e.Data), e.EventID,
	)
	if err != nil {
		return false, fmt.Errorf("update event %s: %w", e.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update event %s: rows affected: %w", e.EventID, err)
	}
	return n > 0, nil
}

// DeletePlayoffEvents removes every playoff-prefixed event for a dynasty's
// season — used by playoff reset (spec.md §4.1).
func DeletePlayoffEvents(ctx context.Context, db Exec, dynastyID string, season int) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM events
		WHERE dynasty_id = ? AND game_id LIKE 'playoff\_%' ESCAPE '\'
		  AND json_extract(data_json, '$.parameters.season') = ?`,
		dynastyID, season,
	)
	if err != nil {
		return 0, fmt.Errorf("delete playoff events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete playoff events: rows affected: %w", err)
	}
	return n, nil
}

func queryEvents(ctx context.Context, db Exec, query string, args ...any) ([]Event, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row *sql.Row) (*Event, error) {
	e, err := scanInto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return e, nil
}

func scanEventRow(rows *sql.Rows) (*Event, error) {
	e, err := scanInto(rows)
	if err != nil {
		return nil, fmt.Errorf("scan event row: %w", err)
	}
	return e, nil
}

func scanInto(s rowScanner) (*Event, error) {
	var e Event
	var eventType, data string
	if err := s.Scan(&e.EventID, &eventType, &e.TimestampMs, &e.GameID, &e.DynastyID, &data); err != nil {
		return nil, err
	}
	e.EventType = EventType(eventType)
	e.Data = []byte(data)
	return &e, nil
}
