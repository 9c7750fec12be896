package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/casdy/PlanR-sub000/internal/repository"
)

// sqlitePreferenceRepository implements repository.PreferenceRepository.
// Defaults are seeded by the schema migration, so every known key resolves
// from the moment the database is opened.
type sqlitePreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository creates a new user-preference repository.
func NewPreferenceRepository(db *DB) repository.PreferenceRepository {
	return &sqlitePreferenceRepository{db: db.sql}
}

func (r *sqlitePreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, nil
}

func (r *sqlitePreferenceRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

func (r *sqlitePreferenceRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

func (r *sqlitePreferenceRepository) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}
