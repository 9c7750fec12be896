package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/casdy/PlanR-sub000/internal/repository"
)

// sqliteProgressRepository implements repository.ProgressRepository.
type sqliteProgressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new exercise-progress repository.
func NewProgressRepository(db *DB) repository.ProgressRepository {
	return &sqliteProgressRepository{db: db.sql}
}

func progressKey(programID, dayID string, exerciseIndex int) string {
	return fmt.Sprintf("%s-%s-%d", programID, dayID, exerciseIndex)
}

func (r *sqliteProgressRepository) Toggle(ctx context.Context, programID, dayID string, exerciseIndex int) (bool, error) {
	key := progressKey(programID, dayID, exerciseIndex)

	var done int
	err := r.db.QueryRowContext(ctx, `SELECT done FROM progress WHERE key = ?`, key).Scan(&done)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read progress %s: %w", key, err)
	}

	next := done == 0
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO progress (key, done) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET done = excluded.done`,
		key, boolToInt(next),
	)
	if err != nil {
		return false, fmt.Errorf("toggle progress %s: %w", key, err)
	}
	return next, nil
}

func (r *sqliteProgressRepository) GetAll(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, done FROM progress`)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var (
			key  string
			done int
		)
		if err := rows.Scan(&key, &done); err != nil {
			return nil, err
		}
		flags[key] = done != 0
	}
	return flags, rows.Err()
}
