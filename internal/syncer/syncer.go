// Package syncer mirrors the local store to an optional remote replica.
// The local store is always the source of truth: the mirror is never read
// on the hot path and never blocks a local operation.
package syncer

import (
	"context"

	"github.com/casdy/PlanR-sub000/internal/domain"
)

// Mirror is the remote replica contract. Implementations are best-effort;
// callers treat every method as fallible and never depend on it for reads.
type Mirror interface {
	PullPrograms(ctx context.Context, userID string) ([]domain.Program, error)
	// PullLogs returns at most limit logs, most recent first.
	PullLogs(ctx context.Context, userID string, limit int) ([]domain.WorkoutLog, error)
	PushProgram(ctx context.Context, userID string, program *domain.Program) error
	DeleteProgram(ctx context.Context, id string) error
	PushLog(ctx context.Context, userID string, log *domain.WorkoutLog) error
	DeleteLog(ctx context.Context, id string) error
}

// Noop is the Mirror used when remote sync is disabled. Pulls are empty,
// pushes vanish.
type Noop struct{}

func (Noop) PullPrograms(context.Context, string) ([]domain.Program, error) { return nil, nil }
func (Noop) PullLogs(context.Context, string, int) ([]domain.WorkoutLog, error) {
	return nil, nil
}
func (Noop) PushProgram(context.Context, string, *domain.Program) error { return nil }
func (Noop) DeleteProgram(context.Context, string) error                { return nil }
func (Noop) PushLog(context.Context, string, *domain.WorkoutLog) error  { return nil }
func (Noop) DeleteLog(context.Context, string) error                    { return nil }
