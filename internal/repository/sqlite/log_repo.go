package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository"
)

const selectLog = `SELECT id, session_id, user_id, program_id, day_id, date,
	completed_at, total_seconds, completed_ids, completed_names,
	last_exercise_index, is_paused, events FROM workout_logs`

// sqliteLogRepository implements repository.LogRepository.
type sqliteLogRepository struct {
	db *sql.DB
}

// NewLogRepository creates a new workout log repository backed by the shared DB.
func NewLogRepository(db *DB) repository.LogRepository {
	return &sqliteLogRepository{db: db.sql}
}

func (r *sqliteLogRepository) CreateSession(ctx context.Context, programID, dayID, userID string) (string, error) {
	if userID == "" {
		userID = domain.GuestUserID
	}
	now := time.Now().UTC()
	sessionID := uuid.NewString()
	events, _ := json.Marshal([]domain.SessionEvent{{Type: domain.EventStart, Timestamp: now}})

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workout_logs (id, session_id, user_id, program_id, day_id, date,
			total_seconds, completed_ids, completed_names, is_paused, events)
		VALUES (?, ?, ?, ?, ?, ?, 0, '[]', '[]', 0, ?)`,
		uuid.NewString(), sessionID, userID, programID, dayID,
		now.Format(time.RFC3339), string(events),
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sessionID, nil
}

func (r *sqliteLogRepository) UpdateSession(ctx context.Context, sessionID string, patch repository.SessionPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.TotalSeconds != nil {
		sets = append(sets, "total_seconds = ?")
		args = append(args, *patch.TotalSeconds)
	}
	if patch.CompletedIDs != nil {
		ids, _ := json.Marshal(patch.CompletedIDs)
		sets = append(sets, "completed_ids = ?")
		args = append(args, string(ids))
	}
	if patch.CompletedNames != nil {
		names, _ := json.Marshal(patch.CompletedNames)
		sets = append(sets, "completed_names = ?")
		args = append(args, string(names))
	}
	if patch.LastExerciseIndex != nil {
		sets = append(sets, "last_exercise_index = ?")
		args = append(args, *patch.LastExerciseIndex)
	}
	if patch.IsPaused != nil {
		sets = append(sets, "is_paused = ?")
		args = append(args, boolToInt(*patch.IsPaused))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, sessionID)

	// Finalized rows are immutable; a vanished session id is a no-op.
	query := `UPDATE workout_logs SET ` + strings.Join(sets, ", ") +
		` WHERE session_id = ? AND completed_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}
	return nil
}

func (r *sqliteLogRepository) AppendEvent(ctx context.Context, sessionID string, event domain.EventType) error {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT events FROM workout_logs WHERE session_id = ?`, sessionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read events for session %s: %w", sessionID, err)
	}

	var events []domain.SessionEvent
	_ = json.Unmarshal([]byte(raw), &events)
	events = append(events, domain.SessionEvent{Type: event, Timestamp: time.Now().UTC()})

	updated, _ := json.Marshal(events)
	_, err = r.db.ExecContext(ctx,
		`UPDATE workout_logs SET events = ? WHERE session_id = ? AND completed_at IS NULL`,
		string(updated), sessionID,
	)
	if err != nil {
		return fmt.Errorf("append event for session %s: %w", sessionID, err)
	}
	return nil
}

func (r *sqliteLogRepository) FinalizeLog(ctx context.Context, log *domain.WorkoutLog) error {
	if log.UserID == "" {
		log.UserID = domain.GuestUserID
	}
	if log.SessionID == "" {
		log.SessionID = uuid.NewString()
	}

	existing, err := r.GetLogBySession(ctx, log.SessionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil {
		// Merge into the in-progress row: row identity, start date and the
		// accumulated event trail survive unless the caller supplies its own.
		log.ID = existing.ID
		if log.Date.IsZero() {
			log.Date = existing.Date
		}
		if len(log.Events) == 0 {
			log.Events = existing.Events
		}
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Date.IsZero() {
		log.Date = time.Now().UTC()
	}

	ids, _ := json.Marshal(log.CompletedIDs)
	names, _ := json.Marshal(log.CompletedNames)
	events, _ := json.Marshal(log.Events)

	var completedAt any
	if log.CompletedAt != nil {
		completedAt = log.CompletedAt.UTC().Format(time.RFC3339)
	}
	var lastIndex any
	if log.LastExerciseIndex != nil {
		lastIndex = *log.LastExerciseIndex
	}

	if existing != nil {
		// No immutability guard here: finalize owns completed_at, and a
		// remote merge may overwrite an already finalized row.
		_, err = r.db.ExecContext(ctx, `
			UPDATE workout_logs SET
				user_id             = ?,
				program_id          = ?,
				day_id              = ?,
				date                = ?,
				completed_at        = ?,
				total_seconds       = ?,
				completed_ids       = ?,
				completed_names     = ?,
				last_exercise_index = ?,
				is_paused           = ?,
				events              = ?
			WHERE session_id = ?`,
			log.UserID, log.ProgramID, log.DayID,
			log.Date.UTC().Format(time.RFC3339), completedAt, log.TotalSeconds,
			string(ids), string(names), lastIndex, boolToInt(log.IsPaused),
			string(events), log.SessionID,
		)
	} else {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO workout_logs (id, session_id, user_id, program_id, day_id, date,
				completed_at, total_seconds, completed_ids, completed_names,
				last_exercise_index, is_paused, events)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			log.ID, log.SessionID, log.UserID, log.ProgramID, log.DayID,
			log.Date.UTC().Format(time.RFC3339), completedAt, log.TotalSeconds,
			string(ids), string(names), lastIndex, boolToInt(log.IsPaused), string(events),
		)
	}
	if err != nil {
		return fmt.Errorf("finalize log for session %s: %w", log.SessionID, err)
	}
	return nil
}

func (r *sqliteLogRepository) GetLogs(ctx context.Context, userID string) ([]domain.WorkoutLog, error) {
	query := selectLog
	var args []any
	if !domain.IsGuest(userID) {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WorkoutLog
	for rows.Next() {
		l, err := scanLog(rows.Scan)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func (r *sqliteLogRepository) GetLogBySession(ctx context.Context, sessionID string) (*domain.WorkoutLog, error) {
	row := r.db.QueryRowContext(ctx, selectLog+` WHERE session_id = ?`, sessionID)
	l, err := scanLog(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get log for session %s: %w", sessionID, err)
	}
	return l, nil
}

func (r *sqliteLogRepository) DeleteLog(ctx context.Context, key string) error {
	// Callers may only know one of the two identifiers.
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM workout_logs WHERE id = ? OR session_id = ?`, key, key)
	if err != nil {
		return fmt.Errorf("delete log %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sqliteLogRepository) WeeklyVolume(ctx context.Context, userID string, now time.Time) (int, error) {
	logs, err := r.GetLogs(ctx, userID)
	if err != nil {
		return 0, err
	}
	nowYear, nowWeek := now.UTC().ISOWeek()
	total := 0
	for _, l := range logs {
		if !l.IsFinished() {
			continue
		}
		year, week := l.Date.UTC().ISOWeek()
		if year == nowYear && week == nowWeek {
			total += l.TotalSeconds
		}
	}
	return total, nil
}

func (r *sqliteLogRepository) CurrentStreak(ctx context.Context, userID string, now time.Time) (int, error) {
	logs, err := r.GetLogs(ctx, userID)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{})
	var dates []string
	for _, l := range logs {
		if !l.IsFinished() {
			continue
		}
		day := l.Date.UTC().Format("2006-01-02")
		if _, dup := seen[day]; !dup {
			seen[day] = struct{}{}
			dates = append(dates, day)
		}
	}
	if len(dates) == 0 {
		return 0, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	today := now.UTC()
	yesterday := today.AddDate(0, 0, -1)
	cursor := today
	switch dates[0] {
	case today.Format("2006-01-02"):
	case yesterday.Format("2006-01-02"):
		cursor = yesterday
	default:
		// The chain is already broken.
		return 0, nil
	}

	streak := 0
	for _, day := range dates {
		if day != cursor.Format("2006-01-02") {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, nil
}

func scanLog(scan func(dest ...any) error) (*domain.WorkoutLog, error) {
	var (
		l              domain.WorkoutLog
		date           string
		completedAt    sql.NullString
		completedIDs   string
		completedNames string
		lastIndex      sql.NullInt64
		isPaused       int
		events         string
	)
	err := scan(&l.ID, &l.SessionID, &l.UserID, &l.ProgramID, &l.DayID, &date,
		&completedAt, &l.TotalSeconds, &completedIDs, &completedNames,
		&lastIndex, &isPaused, &events)
	if err != nil {
		return nil, err
	}
	l.Date, _ = time.Parse(time.RFC3339, date)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		l.CompletedAt = &t
	}
	_ = json.Unmarshal([]byte(completedIDs), &l.CompletedIDs)
	_ = json.Unmarshal([]byte(completedNames), &l.CompletedNames)
	if lastIndex.Valid {
		v := int(lastIndex.Int64)
		l.LastExerciseIndex = &v
	}
	l.IsPaused = isPaused != 0
	_ = json.Unmarshal([]byte(events), &l.Events)
	return &l, nil
}
