package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// DB wraps the shared SQLite handle used by every repository in this package.
// A single connection keeps all writes serialized; the original storage layer
// relied on single-threaded access for the same guarantee.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at dbPath and runs migrations.
func Open(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	d := &DB{sql: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// OpenMemory creates an in-memory database for testing.
func OpenMemory() (*DB, error) {
	return Open(":memory:")
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	var version int
	err := d.sql.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := d.migrateV1(); err != nil {
			return err
		}
	}

	_, err = d.sql.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (d *DB) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS programs (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL DEFAULT 'guest',
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon        TEXT NOT NULL DEFAULT '',
		color       TEXT NOT NULL DEFAULT '',
		version     INTEGER NOT NULL DEFAULT 1,
		is_public   INTEGER NOT NULL DEFAULT 0,
		days        TEXT NOT NULL DEFAULT '[]',
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS workout_logs (
		id                  TEXT PRIMARY KEY,
		session_id          TEXT NOT NULL UNIQUE,
		user_id             TEXT NOT NULL DEFAULT 'guest',
		program_id          TEXT NOT NULL,
		day_id              TEXT NOT NULL,
		date                TEXT NOT NULL,
		completed_at        TEXT,
		total_seconds       INTEGER NOT NULL DEFAULT 0,
		completed_ids       TEXT NOT NULL DEFAULT '[]',
		completed_names     TEXT NOT NULL DEFAULT '[]',
		last_exercise_index INTEGER,
		is_paused           INTEGER NOT NULL DEFAULT 0,
		events              TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_logs_user ON workout_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_logs_date ON workout_logs(date);

	CREATE TABLE IF NOT EXISTS progress (
		key  TEXT PRIMARY KEY,
		done INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS preferences (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO preferences (key, value) VALUES
		('sound_enabled',   'true'),
		('auto_advance',    'true'),
		('theme',           'dark'),
		('rest_timer_sec',  '60'),
		('haptics_enabled', 'true'),
		('reduced_motion',  'false'),
		('voice_nav',       'false');
	`
	_, err := d.sql.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/planr/planr.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "planr", "planr.db"), nil
}
