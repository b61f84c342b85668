// Package txn implements scoped, nestable SQLite transactions (spec.md
// §4.3). Grounded on the teacher's internal/db.go migration-transaction
// pattern (BeginTx, rollback-on-error, commit-at-the-end), generalized
// from a single flat *sql.Tx to the mode-aware, savepoint-nesting contract
// the season cycle engine needs: a transaction opened while another is
// already active on the same logical scope becomes a SAVEPOINT instead of
// a second BEGIN, since SQLite has no native nested transactions.
package txn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
)

// Mode is one of the three SQLite BEGIN modes spec.md §4.3 names.
type Mode string

const (
	Deferred  Mode = "DEFERRED"
	Immediate Mode = "IMMEDIATE"
	Exclusive Mode = "EXCLUSIVE"
)

func (m Mode) valid() bool {
	switch m {
	case Deferred, Immediate, Exclusive:
		return true
	default:
		return false
	}
}

// State is the scope's lifecycle state (spec.md §4.3): INACTIVE is never
// observed by callers (a Context always starts ACTIVE), but is named here
// for parity with the spec's state machine.
type State string

const (
	StateInactive   State = "INACTIVE"
	StateActive     State = "ACTIVE"
	StateCommitted  State = "COMMITTED"
	StateRolledBack State = "ROLLED_BACK"
)

type ctxKey struct{}

// active tracks the pinned connection and nesting depth for the outermost
// transaction in a context chain, so a nested Begin can tell it already
// has one open and must use a savepoint instead.
type active struct {
	conn  *sql.Conn
	depth int
}

// Context is a single scope: either the top-level BEGIN or a nested
// SAVEPOINT. It implements the narrow Exec interface the storage packages
// (eventstore, dynasty) already accept, so callers pass it straight
// through as the database handle inside the scope.
type Context struct {
	conn       *sql.Conn
	ownsConn   bool
	savepoint  string // empty at the top level
	state      State
	mode       Mode
	logger     *slog.Logger
}

// Begin opens a new scope. If ctx already carries an active transaction,
// a uniquely named savepoint is created on its connection instead of a
// fresh BEGIN. The returned context must be threaded into any nested
// Begin call; the returned *Context is the handle this scope's caller
// uses for Exec/Query/Commit/Rollback.
func Begin(ctx context.Context, db *storage.DB, mode Mode, logger *slog.Logger) (context.Context, *Context, error) {
	if db == nil {
		return ctx, nil, fmt.Errorf("begin transaction: nil connection")
	}
	if !mode.valid() {
		return ctx, nil, fmt.Errorf("begin transaction: invalid mode %q", mode)
	}

	if parent, ok := ctx.Value(ctxKey{}).(*active); ok && parent != nil {
		parent.depth++
		name := fmt.Sprintf("sp_%d", parent.depth)
		if _, err := parent.conn.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
			parent.depth--
			return ctx, nil, fmt.Errorf("begin savepoint %s: %w", name, err)
		}
		tc := &Context{conn: parent.conn, ownsConn: false, savepoint: name, state: StateActive, mode: mode, logger: logger}
		return ctx, tc, nil
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN "+string(mode)); err != nil {
		conn.Close()
		return ctx, nil, fmt.Errorf("begin %s transaction: %w", mode, err)
	}

	tc := &Context{conn: conn, ownsConn: true, state: StateActive, mode: mode, logger: logger}
	newCtx := context.WithValue(ctx, ctxKey{}, &active{conn: conn})
	return newCtx, tc, nil
}

// State reports the scope's current lifecycle state.
func (tc *Context) State() State {
	return tc.state
}

// Commit is idempotent: once the scope has left ACTIVE, it is a no-op.
func (tc *Context) Commit(ctx context.Context) error {
	if tc.state != StateActive {
		return nil
	}
	if tc.savepoint != "" {
		_, err := tc.conn.ExecContext(ctx, "RELEASE "+tc.savepoint)
		tc.state = StateCommitted
		if err != nil {
			return fmt.Errorf("release savepoint %s: %w", tc.savepoint, err)
		}
		return nil
	}

	_, err := tc.conn.ExecContext(ctx, "COMMIT")
	tc.state = StateCommitted
	if tc.ownsConn {
		defer tc.conn.Close()
	}
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback is idempotent: once the scope has left ACTIVE, it is a no-op.
func (tc *Context) Rollback(ctx context.Context) error {
	if tc.state != StateActive {
		return nil
	}
	err := tc.doRollback(ctx)
	tc.state = StateRolledBack
	if tc.ownsConn {
		defer tc.conn.Close()
	}
	return err
}

func (tc *Context) doRollback(ctx context.Context) error {
	if tc.savepoint != "" {
		if _, err := tc.conn.ExecContext(ctx, "ROLLBACK TO "+tc.savepoint); err != nil {
			return fmt.Errorf("rollback to savepoint %s: %w", tc.savepoint, err)
		}
		if _, err := tc.conn.ExecContext(ctx, "RELEASE "+tc.savepoint); err != nil {
			return fmt.Errorf("release savepoint %s after rollback: %w", tc.savepoint, err)
		}
		return nil
	}
	if _, err := tc.conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// Finish is the scope-exit contract spec.md §4.3 describes: called from a
// defer with the address of the named error return. No in-flight error and
// still ACTIVE commits; an in-flight error rolls back and the original
// error is left untouched. If commit itself fails, Finish attempts a
// best-effort rollback to leave the connection usable — a rollback
// failure at that point is logged, not raised, so the commit error is
// what the caller sees.
func (tc *Context) Finish(ctx context.Context, errp *error) {
	if tc.state != StateActive {
		return
	}
	if *errp != nil {
		if rerr := tc.Rollback(ctx); rerr != nil && tc.logger != nil {
			tc.logger.Error("rollback failed while unwinding an error", "error", rerr)
		}
		return
	}

	if cerr := tc.Commit(ctx); cerr != nil {
		if rerr := tc.doRollback(ctx); rerr != nil && tc.logger != nil {
			tc.logger.Error("rollback after commit failure also failed", "commit_error", cerr, "rollback_error", rerr)
		}
		tc.state = StateRolledBack
		if tc.ownsConn {
			tc.conn.Close()
		}
		*errp = cerr
	}
}

// ExecContext, QueryContext, and QueryRowContext let Context satisfy the
// Exec interface that internal/eventstore and internal/dynasty accept, so
// store calls made inside a scope participate in it transparently.
func (tc *Context) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tc.conn.ExecContext(ctx, query, args...)
}

func (tc *Context) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tc.conn.QueryContext(ctx, query, args...)
}

func (tc *Context) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tc.conn.QueryRowContext(ctx, query, args...)
}
