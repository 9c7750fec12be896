// internal/session/engine.go
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

// --- Error Definitions ---
var (
	ErrNoActiveSession = errors.New("no active workout session")
	ErrSessionFinished = errors.New("workout session already finished")
	ErrProgramNotFound = errors.New("program not found")
	ErrDayNotFound     = errors.New("day not found in program")
	ErrRestDay         = errors.New("rest days cannot be started as sessions")
	ErrSessionNotFound = errors.New("workout session not found")
	ErrNotResumable    = errors.New("workout session is not resumable")
)

// volumeClubThreshold is the session volume (reps x weight) that earns the
// volume achievement.
const volumeClubThreshold = 10000

// FinishSummary is the outcome of finalizing a session: the aggregates and
// the derived achievement. BadgePrompt is consumed by the image collaborator;
// the engine itself never generates media.
type FinishSummary struct {
	SessionID     string  `json:"sessionId"`
	TotalSeconds  int     `json:"totalSeconds"`
	TotalVolume   float64 `json:"totalVolume"`
	ExerciseCount int     `json:"exerciseCount"`
	Streak        int     `json:"streak"`
	Title         string  `json:"title"`
	Subtitle      string  `json:"subtitle"`
	BadgePrompt   string  `json:"badgePrompt"`
}

// Engine owns the single live workout session. One instance is created at
// startup and injected wherever session state is needed; there is no
// package-level session state.
//
// All fields are guarded by mu, so every transition is atomic from the
// caller's point of view. Durable writes happen at transition boundaries
// (start, pause, cancel, resume, finish, preemption), never on a tick.
type Engine struct {
	mu sync.Mutex

	programs repository.ProgramRepository
	logs     repository.LogRepository
	prefs    repository.PreferenceRepository
	coord    *syncer.Coordinator
	logger   *log.Logger

	tickInterval time.Duration

	active      domain.ActiveSession
	day         *domain.Day // snapshot of the day being run; nil when it vanished
	setLog      map[string][]domain.SetEntry
	autoAdvance bool

	ticker   *time.Ticker
	stopTick chan struct{}
}

// NewEngine wires the session engine. A tickInterval of zero disables the
// internal tick source; Tick can then be driven externally, which is how
// tests keep time deterministic.
func NewEngine(programs repository.ProgramRepository, logs repository.LogRepository, prefs repository.PreferenceRepository, coordinator *syncer.Coordinator, logger *log.Logger, tickInterval time.Duration) *Engine {
	return &Engine{
		programs:     programs,
		logs:         logs,
		prefs:        prefs,
		coord:        coordinator,
		logger:       logger,
		tickInterval: tickInterval,
		active:       idleSession(),
		setLog:       make(map[string][]domain.SetEntry),
	}
}

func idleSession() domain.ActiveSession {
	return domain.ActiveSession{
		Status:    domain.StatusIdle,
		Intensity: domain.IntensityStandard,
	}
}

// Start begins a fresh session for the given program day. A session that is
// still running is implicitly checkpointed as paused first, so it stays
// resumable; a finished-but-unacknowledged session is simply abandoned.
func (e *Engine) Start(ctx context.Context, programID, dayID, userID string) (domain.ActiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if userID == "" {
		userID = domain.GuestUserID
	}

	program, err := e.programs.GetProgram(ctx, programID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ActiveSession{}, ErrProgramNotFound
	}
	if err != nil {
		return domain.ActiveSession{}, err
	}
	day := program.DayByID(dayID)
	if day == nil {
		return domain.ActiveSession{}, ErrDayNotFound
	}
	if day.Type.IsRestful() {
		return domain.ActiveSession{}, ErrRestDay
	}

	// Preemption: checkpoint the live session before touching the new one.
	switch e.active.Status {
	case domain.StatusRunning:
		if err := e.checkpointLocked(ctx, true, domain.EventPause); err != nil {
			return domain.ActiveSession{}, err
		}
		e.stopTickerLocked()
		e.active = idleSession()
		e.day = nil
	case domain.StatusFinished:
		e.active = idleSession()
		e.day = nil
	}

	sessionID, err := e.logs.CreateSession(ctx, programID, dayID, userID)
	if err != nil {
		return domain.ActiveSession{}, err
	}

	daySnapshot := *day
	e.day = &daySnapshot
	e.active = domain.ActiveSession{
		SessionID:      sessionID,
		ProgramID:      programID,
		DayID:          dayID,
		UserID:         userID,
		Status:         domain.StatusRunning,
		ExerciseIndex:  0,
		ElapsedSeconds: 0,
		TotalSeconds:   0,
		CompletedIDs:   []string{},
		CompletedNames: []string{},
		Intensity:      domain.IntensityStandard,
	}
	e.autoAdvance = e.readAutoAdvance(ctx)
	e.pushRowLocked(ctx, sessionID)
	e.startTickerLocked()
	return e.snapshotLocked(), nil
}

// Resume rehydrates a paused session from its durable record: cursor and
// session total carry over, the per-exercise timer starts fresh. This is the
// only resume path; there is no in-memory shortcut.
func (e *Engine) Resume(ctx context.Context, sessionID string) (domain.ActiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logRow, err := e.logs.GetLogBySession(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ActiveSession{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.ActiveSession{}, err
	}
	if !logRow.IsResumable() {
		return domain.ActiveSession{}, ErrNotResumable
	}

	if e.active.Status == domain.StatusRunning {
		if err := e.checkpointLocked(ctx, true, domain.EventPause); err != nil {
			return domain.ActiveSession{}, err
		}
		e.stopTickerLocked()
	}
	e.active = idleSession()
	e.day = nil

	// The program may have been deleted since the pause; the session still
	// resumes from its own snapshot, it just has no exercise targets.
	if program, err := e.programs.GetProgram(ctx, logRow.ProgramID); err == nil {
		if day := program.DayByID(logRow.DayID); day != nil {
			daySnapshot := *day
			e.day = &daySnapshot
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.ActiveSession{}, err
	}

	paused := false
	if err := e.logs.UpdateSession(ctx, sessionID, repository.SessionPatch{IsPaused: &paused}); err != nil {
		return domain.ActiveSession{}, err
	}
	if err := e.logs.AppendEvent(ctx, sessionID, domain.EventResume); err != nil {
		return domain.ActiveSession{}, err
	}

	e.active = domain.ActiveSession{
		SessionID:      logRow.SessionID,
		ProgramID:      logRow.ProgramID,
		DayID:          logRow.DayID,
		UserID:         logRow.UserID,
		Status:         domain.StatusRunning,
		ExerciseIndex:  logRow.ResumeIndex(),
		ElapsedSeconds: 0,
		TotalSeconds:   logRow.TotalSeconds,
		CompletedIDs:   append([]string{}, logRow.CompletedIDs...),
		CompletedNames: append([]string{}, logRow.CompletedNames...),
		Intensity:      domain.IntensityStandard,
	}
	e.autoAdvance = e.readAutoAdvance(ctx)
	e.pushRowLocked(ctx, sessionID)
	e.startTickerLocked()
	return e.snapshotLocked(), nil
}

// Pause checkpoints the running session and tears the live view down. The
// paused session becomes an ordinary resumable history row; logged sets are
// kept in memory for the eventual finish.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireRunningLocked(); err != nil {
		return err
	}
	if err := e.checkpointLocked(ctx, true, domain.EventPause); err != nil {
		return err
	}
	e.stopTickerLocked()
	e.active = idleSession()
	e.day = nil
	return nil
}

// Cancel abandons the session. The row keeps its accumulated time and lists
// but is marked not-paused, which is what distinguishes an abandoned session
// from a resumable one.
func (e *Engine) Cancel(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active.Status == domain.StatusIdle {
		return ErrNoActiveSession
	}
	if err := e.checkpointLocked(ctx, false, domain.EventCancel); err != nil {
		return err
	}
	e.stopTickerLocked()
	e.active = idleSession()
	e.day = nil
	e.setLog = make(map[string][]domain.SetEntry)
	return nil
}

// Advance moves the cursor to the next exercise, or transitions to finished
// when the cursor is already on the last one. No durable write happens here;
// finalization is a separate explicit step.
func (e *Engine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireRunningLocked(); err != nil {
		return err
	}
	e.advanceLocked()
	return nil
}

// Retreat moves the cursor back one exercise and restarts its timer.
func (e *Engine) Retreat() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireRunningLocked(); err != nil {
		return err
	}
	if e.active.ExerciseIndex > 0 {
		e.active.ExerciseIndex--
		e.active.ElapsedSeconds = 0
	}
	return nil
}

// CompleteExercise records an exercise as done. Repeat calls with the same
// id are no-ops; the name list only grows in lockstep with the id list, so
// the two stay index-aligned.
func (e *Engine) CompleteExercise(exerciseID, exerciseName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireRunningLocked(); err != nil {
		return err
	}
	for _, id := range e.active.CompletedIDs {
		if id == exerciseID {
			return nil
		}
	}
	e.active.CompletedIDs = append(e.active.CompletedIDs, exerciseID)
	e.active.CompletedNames = append(e.active.CompletedNames, exerciseName)
	return nil
}

// Tick advances both timers by one second. It only counts while the session
// is running; in any other state it is a no-op. When the current exercise
// has a timed target and auto-advance is on, reaching the target moves the
// cursor forward (or finishes the session on the last exercise).
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active.Status != domain.StatusRunning {
		return
	}
	e.active.ElapsedSeconds++
	e.active.TotalSeconds++

	if !e.autoAdvance {
		return
	}
	if target := e.currentTargetLocked(); target > 0 && e.active.ElapsedSeconds >= target {
		e.advanceLocked()
	}
}

// LogSet records one performed set for later aggregation. Negative reps or
// weight are clamped to zero rather than rejected. The set survives pauses
// and is only discarded by finish or cancel.
func (e *Engine) LogSet(programID, dayID string, exerciseIndex, reps int, weight float64) domain.SetEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	if reps < 0 {
		reps = 0
	}
	if weight < 0 {
		weight = 0
	}
	entry := domain.SetEntry{Reps: reps, Weight: weight}
	key := fmt.Sprintf("%s-%s-%d", programID, dayID, exerciseIndex)
	e.setLog[key] = append(e.setLog[key], entry)
	return entry
}

// Finish finalizes the session: aggregates the logged sets, appends the
// finish event, stamps CompletedAt on the durable row and derives the
// achievement. The set log is cleared; the engine returns to idle.
func (e *Engine) Finish(ctx context.Context) (FinishSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active.Status == domain.StatusIdle {
		return FinishSummary{}, ErrNoActiveSession
	}

	var volume float64
	exerciseCount := 0
	for _, sets := range e.setLog {
		if len(sets) == 0 {
			continue
		}
		exerciseCount++
		for _, s := range sets {
			volume += s.Volume()
		}
	}

	sessionID := e.active.SessionID
	userID := e.active.UserID
	now := time.Now().UTC()
	cursor := e.active.ExerciseIndex

	if err := e.logs.AppendEvent(ctx, sessionID, domain.EventFinish); err != nil {
		return FinishSummary{}, err
	}
	err := e.logs.FinalizeLog(ctx, &domain.WorkoutLog{
		SessionID:         sessionID,
		UserID:            userID,
		ProgramID:         e.active.ProgramID,
		DayID:             e.active.DayID,
		CompletedAt:       &now,
		TotalSeconds:      e.active.TotalSeconds,
		CompletedIDs:      append([]string{}, e.active.CompletedIDs...),
		CompletedNames:    append([]string{}, e.active.CompletedNames...),
		LastExerciseIndex: &cursor,
		IsPaused:          false,
	})
	if err != nil {
		return FinishSummary{}, err
	}

	streak, err := e.logs.CurrentStreak(ctx, userID, now)
	if err != nil {
		e.logger.Printf("WARN: streak lookup failed: %v", err)
		streak = 0
	}

	summary := FinishSummary{
		SessionID:     sessionID,
		TotalSeconds:  e.active.TotalSeconds,
		TotalVolume:   volume,
		ExerciseCount: exerciseCount,
		Streak:        streak,
	}
	summary.Title, summary.Subtitle, summary.BadgePrompt = achievementFor(streak, volume, exerciseCount, e.active.TotalSeconds)

	e.pushRowLocked(ctx, sessionID)
	e.stopTickerLocked()
	e.active = idleSession()
	e.day = nil
	e.setLog = make(map[string][]domain.SetEntry)
	return summary, nil
}

// ScaleIntensity records the rep-scaling tag for the live session. Only the
// tag is stored; scaled numbers are derived at display time.
func (e *Engine) ScaleIntensity(level domain.IntensityLevel) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active.Status == domain.StatusIdle {
		return ErrNoActiveSession
	}
	e.active.Intensity = level
	return nil
}

// SwapToRecovery substitutes the displayed exercise list with the fixed
// recovery set and restarts the cursor. The underlying program day is never
// mutated.
func (e *Engine) SwapToRecovery() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireRunningLocked(); err != nil {
		return err
	}
	e.active.RecoveryMode = true
	e.active.ExerciseIndex = 0
	e.active.ElapsedSeconds = 0
	return nil
}

// Snapshot returns a copy of the observable session state.
func (e *Engine) Snapshot() domain.ActiveSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// CurrentExercises returns the list the session is actually running:
// recovery substitution and intensity scaling applied.
func (e *Engine) CurrentExercises() []domain.Exercise {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EffectiveExercises(e.day, e.active.RecoveryMode, e.active.Intensity)
}

// Close stops the tick source. Called on shutdown.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickerLocked()
}

// --- internals (callers hold e.mu) ---

func (e *Engine) requireRunningLocked() error {
	switch e.active.Status {
	case domain.StatusRunning:
		return nil
	case domain.StatusFinished:
		return ErrSessionFinished
	default:
		return ErrNoActiveSession
	}
}

func (e *Engine) advanceLocked() {
	if e.active.ExerciseIndex < e.maxIndexLocked() {
		e.active.ExerciseIndex++
		e.active.ElapsedSeconds = 0
		return
	}
	e.active.Status = domain.StatusFinished
	e.stopTickerLocked()
}

func (e *Engine) maxIndexLocked() int {
	return len(EffectiveExercises(e.day, e.active.RecoveryMode, e.active.Intensity)) - 1
}

func (e *Engine) currentTargetLocked() int {
	exercises := EffectiveExercises(e.day, e.active.RecoveryMode, e.active.Intensity)
	if e.active.ExerciseIndex < 0 || e.active.ExerciseIndex >= len(exercises) {
		return 0
	}
	if exercises[e.active.ExerciseIndex].DurationSec == nil {
		return 0
	}
	return *exercises[e.active.ExerciseIndex].DurationSec
}

// checkpointLocked flushes the live counters and lists to the durable row,
// marks it paused or not, appends the lifecycle event and replicates the row.
func (e *Engine) checkpointLocked(ctx context.Context, paused bool, event domain.EventType) error {
	total := e.active.TotalSeconds
	cursor := e.active.ExerciseIndex
	patch := repository.SessionPatch{
		TotalSeconds:      &total,
		CompletedIDs:      append([]string{}, e.active.CompletedIDs...),
		CompletedNames:    append([]string{}, e.active.CompletedNames...),
		LastExerciseIndex: &cursor,
		IsPaused:          &paused,
	}
	if err := e.logs.UpdateSession(ctx, e.active.SessionID, patch); err != nil {
		return err
	}
	if err := e.logs.AppendEvent(ctx, e.active.SessionID, event); err != nil {
		return err
	}
	e.pushRowLocked(ctx, e.active.SessionID)
	return nil
}

// pushRowLocked hands the current durable row to the sync coordinator. Sync
// is best-effort; a failed read only costs the replica an update.
func (e *Engine) pushRowLocked(ctx context.Context, sessionID string) {
	row, err := e.logs.GetLogBySession(ctx, sessionID)
	if err != nil {
		e.logger.Printf("WARN: sync read-back for session %s failed: %v", sessionID, err)
		return
	}
	e.coord.PushLogAsync(row.UserID, *row)
}

func (e *Engine) readAutoAdvance(ctx context.Context) bool {
	on, err := e.prefs.GetBool(ctx, domain.PrefAutoAdvance)
	if err != nil {
		return false
	}
	return on
}

func (e *Engine) startTickerLocked() {
	if e.tickInterval <= 0 {
		return
	}
	ticker := time.NewTicker(e.tickInterval)
	stop := make(chan struct{})
	e.ticker, e.stopTick = ticker, stop
	go func() {
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-stop:
				return
			}
		}
	}()
}

func (e *Engine) stopTickerLocked() {
	if e.stopTick == nil {
		return
	}
	e.ticker.Stop()
	close(e.stopTick)
	e.ticker, e.stopTick = nil, nil
}

func (e *Engine) snapshotLocked() domain.ActiveSession {
	snapshot := e.active
	snapshot.CompletedIDs = append([]string{}, e.active.CompletedIDs...)
	snapshot.CompletedNames = append([]string{}, e.active.CompletedNames...)
	return snapshot
}

func achievementFor(streak int, volume float64, exerciseCount, totalSeconds int) (title, subtitle, prompt string) {
	switch {
	case streak > 0 && streak%5 == 0:
		title = fmt.Sprintf("%d-Day Streak", streak)
		subtitle = "Consistency pays off. Keep the chain alive."
		prompt = fmt.Sprintf("A glowing golden badge celebrating a %d day workout streak, bold flat vector style", streak)
	case volume >= volumeClubThreshold:
		title = "Volume Club"
		subtitle = fmt.Sprintf("You moved %.0f kg of total volume this session.", volume)
		prompt = "A heavy barbell badge with a metallic shine celebrating a massive training volume, bold flat vector style"
	default:
		title = "Workout Complete"
		subtitle = fmt.Sprintf("%d exercises logged in %s. See you next time.", exerciseCount, formatDuration(totalSeconds))
		prompt = "A clean minimal fitness badge with a bold checkmark, flat vector style"
	}
	return title, subtitle, prompt
}

func formatDuration(totalSeconds int) string {
	minutes := totalSeconds / 60
	secs := totalSeconds % 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %02ds", minutes, secs)
}
