package repository

import (
	"context"
	"time"

	"github.com/casdy/PlanR-sub000/internal/domain"
)

// Error constants for the durable store layer.
var (
	ErrNotFound     = StoreError("not found")
	ErrUpdateFailed = StoreError("update failed")
	ErrDeleteFailed = StoreError("delete failed")
)

// StoreError helps distinguish durable-store errors from other failures.
type StoreError string

func (e StoreError) Error() string {
	return string(e)
}

// SessionPatch carries the fields merged into an in-progress log row at a
// checkpoint boundary. Nil fields are left untouched; nil and empty slices
// are therefore distinct (nil = keep, empty = overwrite with empty).
type SessionPatch struct {
	TotalSeconds      *int
	CompletedIDs      []string
	CompletedNames    []string
	LastExerciseIndex *int
	IsPaused          *bool
}

// ProgramRepository defines the interface for interacting with workout programs.
// The local store is the source of truth; implementations never touch the network.
type ProgramRepository interface {
	// GetPrograms returns every stored program (the store models one device,
	// so programs are never filtered by owner). Seeds the built-in default
	// programs on first access when the collection is empty.
	GetPrograms(ctx context.Context) ([]domain.Program, error)
	GetProgram(ctx context.Context, id string) (*domain.Program, error)
	// SaveProgram upserts by program id.
	SaveProgram(ctx context.Context, program *domain.Program) error
	DeleteProgram(ctx context.Context, id string) error
}

// LogRepository defines the interface for interacting with workout session logs.
type LogRepository interface {
	// CreateSession allocates a new session id and log row with a start event,
	// returning the session id.
	CreateSession(ctx context.Context, programID, dayID, userID string) (string, error)
	// UpdateSession merges patch fields into the row matched by session id.
	// A missing session is a no-op, not an error.
	UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) error
	// AppendEvent appends one lifecycle event to the row's event list.
	AppendEvent(ctx context.Context, sessionID string, event domain.EventType) error
	// FinalizeLog upserts by session id: merges into an in-progress row when
	// one exists, otherwise inserts the log as a new completed row.
	FinalizeLog(ctx context.Context, log *domain.WorkoutLog) error
	// GetLogs returns logs owned by userID, most recent first. Guest (or
	// empty) id returns everything in the shared guest bucket.
	GetLogs(ctx context.Context, userID string) ([]domain.WorkoutLog, error)
	GetLogBySession(ctx context.Context, sessionID string) (*domain.WorkoutLog, error)
	// DeleteLog removes the log matched by either its row id or its session id.
	DeleteLog(ctx context.Context, key string) error
	// WeeklyVolume sums TotalSeconds over completed logs in the ISO week
	// containing now.
	WeeklyVolume(ctx context.Context, userID string, now time.Time) (int, error)
	// CurrentStreak counts consecutive calendar days ending today or
	// yesterday (relative to now) with at least one completed log.
	CurrentStreak(ctx context.Context, userID string, now time.Time) (int, error)
}

// ProgressRepository tracks per-exercise completion flags keyed by the
// composite "programId-dayId-exerciseIndex" string.
type ProgressRepository interface {
	// Toggle flips the flag and returns its new value.
	Toggle(ctx context.Context, programID, dayID string, exerciseIndex int) (bool, error)
	GetAll(ctx context.Context) (map[string]bool, error)
}

// PreferenceRepository stores user preference flags as independent scalar
// entries, seeded with defaults on first open.
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (string, error)
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	// GetBool interprets the stored value ("true"/"false") for toggle keys.
	GetBool(ctx context.Context, key string) (bool, error)
}
