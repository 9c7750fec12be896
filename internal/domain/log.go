package domain

import (
	"time"
)

// EventType labels one lifecycle event on a workout session.
type EventType string

const (
	EventStart  EventType = "start"
	EventPause  EventType = "pause"
	EventResume EventType = "resume"
	EventFinish EventType = "finish"
	EventCancel EventType = "cancel"
)

// SessionEvent is one {type, timestamp} entry in a log's audit trail.
// The event list records what happened; the snapshot fields on WorkoutLog
// remain the source of truth for current state.
type SessionEvent struct {
	Type      EventType `bson:"type" json:"type"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// WorkoutLog records one workout session's lifecycle and outcome.
//
// ID is row identity; SessionID is the stable handle correlating every write
// belonging to one continuous session across pauses and resumes. A row is
// created when the session starts, updated in place on every checkpoint, and
// finalized (CompletedAt set) exactly once on finish. Never updated after
// finalization.
type WorkoutLog struct {
	ID                string         `bson:"id" json:"id"`
	SessionID         string         `bson:"sessionId" json:"sessionId"`
	UserID            string         `bson:"userId" json:"userId"`
	ProgramID         string         `bson:"programId" json:"programId"`
	DayID             string         `bson:"dayId" json:"dayId"`
	Date              time.Time      `bson:"date" json:"date"` // session start
	CompletedAt       *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	TotalSeconds      int            `bson:"totalSeconds" json:"totalSeconds"`
	CompletedIDs      []string       `bson:"completedIds" json:"completedIds"`
	CompletedNames    []string       `bson:"completedNames" json:"completedNames"`
	LastExerciseIndex *int           `bson:"lastExerciseIndex,omitempty" json:"lastExerciseIndex,omitempty"`
	IsPaused          bool           `bson:"isPaused" json:"isPaused"`
	Events            []SessionEvent `bson:"events" json:"events"`
}

// IsFinished reports whether the session was finalized.
func (l *WorkoutLog) IsFinished() bool {
	return l.CompletedAt != nil
}

// IsResumable reports whether the log can be offered the Resume affordance.
// Cancelled sessions (CompletedAt nil, IsPaused false) are history, not
// resumable; they can only be restarted from scratch.
func (l *WorkoutLog) IsResumable() bool {
	return l.CompletedAt == nil && l.IsPaused
}

// ResumeIndex returns the checkpointed exercise cursor, defaulting to 0.
func (l *WorkoutLog) ResumeIndex() int {
	if l.LastExerciseIndex == nil {
		return 0
	}
	return *l.LastExerciseIndex
}
