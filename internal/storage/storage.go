// Package storage opens the SQLite database the season cycle engine
// persists to and applies its embedded migrations. Adapted from the
// teacher's internal/db/db.go (Postgres connect + embedded-migration
// pattern) to SQLite per spec.md §6.1 (WAL mode, synchronous=NORMAL,
// foreign_keys on).
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is a single named SQL migration file.
type Migration struct {
	Name    string
	Content string
}

// DB wraps a *sql.DB opened against a SQLite file (or ":memory:").
type DB struct {
	*sql.DB
	path string
}

// Open connects to the SQLite database at path, applies pragmas (WAL,
// synchronous=NORMAL, foreign_keys=ON) and runs any pending migrations.
// An empty path defaults to "season.db".
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		path = "season.db"
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite only tolerates a single writer; serialize to one connection so
	// "IMMEDIATE transaction" semantics (spec.md §4.3) aren't defeated by
	// concurrent pool connections interleaving.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}

// Path returns the filesystem path (or ":memory:") this DB was opened
// against.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) ensureMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			applied_at INTEGER NOT NULL
		)`)
	return err
}

func (db *DB) isApplied(ctx context.Context, name string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func markApplied(ctx context.Context, exec interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, name string) error {
	_, err := exec.ExecContext(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
		name, time.Now().UnixMilli())
	return err
}

func (db *DB) loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		content, err := migrationFiles.ReadFile("sql/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Name: name, Content: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Name < migrations[j].Name })
	return migrations, nil
}

// migrate applies every pending migration in name order, each inside its
// own transaction, recording it in schema_migrations.
func (db *DB) migrate(ctx context.Context) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	migrations, err := db.loadMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		applied, err := db.isApplied(ctx, m.Name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Name, err)
		}

		for _, stmt := range splitStatements(m.Content) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("apply migration %s: %w", m.Name, err)
			}
		}

		if err := markApplied(ctx, tx, m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("mark migration %s applied: %w", m.Name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
	}
	return nil
}

// splitStatements splits a migration file on statement-terminating
// semicolons. SQLite's driver does not support multi-statement Exec, so
// migrations must be applied one statement at a time.
func splitStatements(sqlText string) []string {
	parts := strings.Split(sqlText, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		var lines []string
		for _, line := range strings.Split(p, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		trimmed := strings.TrimSpace(strings.Join(lines, "\n"))
		if trimmed == "" {
			continue
		}
		stmts = append(stmts, trimmed)
	}
	return stmts
}
