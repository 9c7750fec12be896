package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository"
)

// sqliteProgramRepository implements repository.ProgramRepository.
type sqliteProgramRepository struct {
	db *sql.DB
}

// NewProgramRepository creates a new Program repository backed by the shared DB.
func NewProgramRepository(db *DB) repository.ProgramRepository {
	return &sqliteProgramRepository{db: db.sql}
}

func (r *sqliteProgramRepository) GetPrograms(ctx context.Context) ([]domain.Program, error) {
	programs, err := r.queryAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(programs) > 0 {
		return programs, nil
	}
	// First access on an empty collection: seed the built-in templates.
	if err := r.seedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seed default programs: %w", err)
	}
	return r.queryAll(ctx)
}

func (r *sqliteProgramRepository) queryAll(ctx context.Context) ([]domain.Program, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, icon, color, version, is_public, days, updated_at
		FROM programs ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var programs []domain.Program
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, err
		}
		programs = append(programs, *p)
	}
	return programs, rows.Err()
}

func (r *sqliteProgramRepository) GetProgram(ctx context.Context, id string) (*domain.Program, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, icon, color, version, is_public, days, updated_at
		FROM programs WHERE id = ?`, id)
	p, err := scanProgram(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get program %s: %w", id, err)
	}
	return p, nil
}

func (r *sqliteProgramRepository) SaveProgram(ctx context.Context, program *domain.Program) error {
	if program.UserID == "" {
		program.UserID = domain.GuestUserID
	}
	program.UpdatedAt = time.Now().UTC()

	days, err := json.Marshal(program.Days)
	if err != nil {
		return fmt.Errorf("encode days: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO programs (id, user_id, title, description, icon, color, version, is_public, days, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id     = excluded.user_id,
			title       = excluded.title,
			description = excluded.description,
			icon        = excluded.icon,
			color       = excluded.color,
			version     = excluded.version,
			is_public   = excluded.is_public,
			days        = excluded.days,
			updated_at  = excluded.updated_at`,
		program.ID, program.UserID, program.Title, program.Description,
		program.Icon, program.Color, program.Version, boolToInt(program.IsPublic),
		string(days), program.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save program %s: %w", program.ID, err)
	}
	return nil
}

func (r *sqliteProgramRepository) DeleteProgram(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete program %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sqliteProgramRepository) seedDefaults(ctx context.Context) error {
	for _, p := range defaultPrograms() {
		days, err := json.Marshal(p.Days)
		if err != nil {
			return err
		}
		// INSERT OR IGNORE keeps seeding idempotent under concurrent first reads.
		_, err = r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO programs (id, user_id, title, description, icon, color, version, is_public, days, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Title, p.Description, p.Icon, p.Color,
			p.Version, boolToInt(p.IsPublic), string(days),
			p.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanProgram(scan func(dest ...any) error) (*domain.Program, error) {
	var (
		p         domain.Program
		isPublic  int
		days      string
		updatedAt string
	)
	err := scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Icon, &p.Color,
		&p.Version, &isPublic, &days, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.IsPublic = isPublic != 0
	if err := json.Unmarshal([]byte(days), &p.Days); err != nil {
		return nil, fmt.Errorf("decode days for program %s: %w", p.ID, err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func seconds(v int) *int { return &v }

// defaultPrograms returns the built-in templates seeded on first access.
// IDs are fixed so reseeding can never duplicate them.
func defaultPrograms() []domain.Program {
	now := time.Now().UTC()
	return []domain.Program{
		{
			ID:          "default-ppl",
			UserID:      domain.GuestUserID,
			Title:       "Push Pull Legs",
			Description: "Classic 3-way split for intermediate lifters.",
			Icon:        "barbell",
			Color:       "indigo",
			Version:     1,
			UpdatedAt:   now,
			Days: []domain.Day{
				{
					ID: "ppl-push", Title: "Push", Weekday: "Monday",
					Type: domain.DayTypeStrength, DurationMin: 60,
					Exercises: []domain.Exercise{
						{ID: "bench-press", Name: "Bench Press", Sets: 4, Reps: "8-10", RestSec: seconds(90)},
						{ID: "overhead-press", Name: "Overhead Press", Sets: 3, Reps: "8-12", RestSec: seconds(90)},
						{ID: "incline-db-press", Name: "Incline Dumbbell Press", Sets: 3, Reps: "10-12", RestSec: seconds(60)},
						{ID: "tricep-pushdown", Name: "Tricep Pushdown", Sets: 3, Reps: "12-15", RestSec: seconds(60)},
					},
				},
				{
					ID: "ppl-pull", Title: "Pull", Weekday: "Tuesday",
					Type: domain.DayTypeStrength, DurationMin: 60,
					Exercises: []domain.Exercise{
						{ID: "deadlift", Name: "Deadlift", Sets: 3, Reps: "5", RestSec: seconds(180)},
						{ID: "barbell-row", Name: "Barbell Row", Sets: 4, Reps: "8-10", RestSec: seconds(90)},
						{ID: "lat-pulldown", Name: "Lat Pulldown", Sets: 3, Reps: "10-12", RestSec: seconds(60)},
						{ID: "bicep-curl", Name: "Bicep Curl", Sets: 3, Reps: "12", RestSec: seconds(45)},
					},
				},
				{ID: "ppl-rest", Title: "Rest", Weekday: "Wednesday", Type: domain.DayTypeRest},
				{
					ID: "ppl-legs", Title: "Legs", Weekday: "Thursday",
					Type: domain.DayTypeStrength, DurationMin: 60,
					Exercises: []domain.Exercise{
						{ID: "squat", Name: "Back Squat", Sets: 4, Reps: "6-8", RestSec: seconds(120)},
						{ID: "romanian-deadlift", Name: "Romanian Deadlift", Sets: 3, Reps: "8-10", RestSec: seconds(90)},
						{ID: "leg-press", Name: "Leg Press", Sets: 3, Reps: "10-12", RestSec: seconds(90)},
						{ID: "calf-raise", Name: "Standing Calf Raise", Sets: 4, Reps: "15", RestSec: seconds(45)},
					},
				},
				{ID: "ppl-recovery", Title: "Mobility", Weekday: "Friday", Type: domain.DayTypeActiveRecovery, DurationMin: 30},
			},
		},
		{
			ID:          "default-full-body",
			UserID:      domain.GuestUserID,
			Title:       "Beginner Full Body",
			Description: "Three full-body sessions a week with a cardio day.",
			Icon:        "heart-pulse",
			Color:       "emerald",
			Version:     1,
			UpdatedAt:   now,
			Days: []domain.Day{
				{
					ID: "fb-a", Title: "Full Body A", Weekday: "Monday",
					Type: domain.DayTypeStrength, DurationMin: 45,
					Exercises: []domain.Exercise{
						{ID: "goblet-squat", Name: "Goblet Squat", Sets: 3, Reps: "8-10", RestSec: seconds(90)},
						{ID: "push-up", Name: "Push-Up", Sets: 3, Reps: "10-15", RestSec: seconds(60)},
						{ID: "db-row", Name: "Dumbbell Row", Sets: 3, Reps: "10-12", RestSec: seconds(60)},
					},
				},
				{
					ID: "fb-cardio", Title: "Cardio", Weekday: "Wednesday",
					Type: domain.DayTypeCardio, DurationMin: 30,
					Exercises: []domain.Exercise{
						{ID: "steady-run", Name: "Steady-State Run", Sets: 1, Reps: "25 min", DurationSec: seconds(1500)},
					},
				},
				{
					ID: "fb-b", Title: "Full Body B", Weekday: "Friday",
					Type: domain.DayTypeStrength, DurationMin: 45,
					Exercises: []domain.Exercise{
						{ID: "rdl", Name: "Romanian Deadlift", Sets: 3, Reps: "6-8", RestSec: seconds(120)},
						{ID: "db-ohp", Name: "Dumbbell Shoulder Press", Sets: 3, Reps: "8-10", RestSec: seconds(90)},
						{ID: "plank", Name: "Plank", Sets: 3, Reps: "30-60 sec", RestSec: seconds(45)},
					},
				},
				{ID: "fb-rest", Title: "Rest", Weekday: "Sunday", Type: domain.DayTypeRest},
			},
		},
	}
}
