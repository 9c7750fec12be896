package syncer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository"
)

const (
	// DefaultPullLimit bounds how many logs a login pull brings down.
	DefaultPullLimit = 200

	pushTimeout = 10 * time.Second
)

// Coordinator orchestrates pull-on-login merges and push-after-write
// replication. Pushes are fire-and-forget: they run on their own goroutine
// with their own timeout, failures are logged and never surface to the
// caller of the local write. Guest data never leaves the device.
//
// There is no retry queue; a failed push leaves the remote stale until the
// next successful push of the same record.
type Coordinator struct {
	mirror    Mirror
	programs  repository.ProgramRepository
	logs      repository.LogRepository
	logger    *log.Logger
	pullLimit int

	wg sync.WaitGroup
}

// NewCoordinator wires the mirror to the local repositories. pullLimit <= 0
// falls back to DefaultPullLimit.
func NewCoordinator(mirror Mirror, programs repository.ProgramRepository, logs repository.LogRepository, logger *log.Logger, pullLimit int) *Coordinator {
	if pullLimit <= 0 {
		pullLimit = DefaultPullLimit
	}
	return &Coordinator{
		mirror:    mirror,
		programs:  programs,
		logs:      logs,
		logger:    logger,
		pullLimit: pullLimit,
	}
}

// PullOnLogin fetches the user's remote programs and a bounded window of
// remote logs and merges them into the local store. Remote wins on id
// conflicts (program id, session id); local-only records survive untouched.
// Guests have nothing remote and short-circuit to a no-op.
func (c *Coordinator) PullOnLogin(ctx context.Context, userID string) error {
	if domain.IsGuest(userID) {
		return nil
	}

	remotePrograms, err := c.mirror.PullPrograms(ctx, userID)
	if err != nil {
		return fmt.Errorf("pull programs: %w", err)
	}
	for i := range remotePrograms {
		if err := c.programs.SaveProgram(ctx, &remotePrograms[i]); err != nil {
			return fmt.Errorf("merge program %s: %w", remotePrograms[i].ID, err)
		}
	}

	remoteLogs, err := c.mirror.PullLogs(ctx, userID, c.pullLimit)
	if err != nil {
		return fmt.Errorf("pull logs: %w", err)
	}
	for i := range remoteLogs {
		if err := c.logs.FinalizeLog(ctx, &remoteLogs[i]); err != nil {
			return fmt.Errorf("merge log %s: %w", remoteLogs[i].SessionID, err)
		}
	}
	return nil
}

// PushProgramAsync replicates one program in the background.
func (c *Coordinator) PushProgramAsync(userID string, program domain.Program) {
	if domain.IsGuest(userID) {
		return
	}
	c.background(func(ctx context.Context) {
		if err := c.mirror.PushProgram(ctx, userID, &program); err != nil {
			c.logger.Printf("WARN: sync push program %s failed: %v", program.ID, err)
		}
	})
}

// DeleteProgramAsync removes one program from the mirror in the background.
func (c *Coordinator) DeleteProgramAsync(userID, programID string) {
	if domain.IsGuest(userID) {
		return
	}
	c.background(func(ctx context.Context) {
		if err := c.mirror.DeleteProgram(ctx, programID); err != nil {
			c.logger.Printf("WARN: sync delete program %s failed: %v", programID, err)
		}
	})
}

// PushLogAsync replicates one workout log in the background.
func (c *Coordinator) PushLogAsync(userID string, log domain.WorkoutLog) {
	if domain.IsGuest(userID) {
		return
	}
	c.background(func(ctx context.Context) {
		if err := c.mirror.PushLog(ctx, userID, &log); err != nil {
			c.logger.Printf("WARN: sync push log %s failed: %v", log.SessionID, err)
		}
	})
}

// DeleteLogAsync removes one workout log from the mirror in the background.
func (c *Coordinator) DeleteLogAsync(userID, logID string) {
	if domain.IsGuest(userID) {
		return
	}
	c.background(func(ctx context.Context) {
		if err := c.mirror.DeleteLog(ctx, logID); err != nil {
			c.logger.Printf("WARN: sync delete log %s failed: %v", logID, err)
		}
	})
}

// Wait blocks until every in-flight background push has settled. Used on
// shutdown and in tests; callers on the write path never wait.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) background(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		fn(ctx)
	}()
}
