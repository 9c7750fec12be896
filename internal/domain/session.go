// internal/domain/session.go
package domain

// SessionStatus is the externally observable state of the session engine.
//
// A paused session has no in-memory representation: pausing checkpoints the
// durable log row (IsPaused=true) and tears the live view down to idle, so
// "paused" is a property of history rows, not of the engine.
type SessionStatus string

const (
	StatusIdle     SessionStatus = "idle"
	StatusRunning  SessionStatus = "running"
	StatusFinished SessionStatus = "finished"
)

// IntensityLevel scales displayed rep targets. The engine stores only the
// tag; presentation derives the numbers via Multiplier.
type IntensityLevel string

const (
	IntensityLight    IntensityLevel = "light"
	IntensityStandard IntensityLevel = "standard"
	IntensityIntense  IntensityLevel = "intense"
)

// Multiplier returns the rep-target scale factor for the level. Unknown
// levels scale as standard.
func (l IntensityLevel) Multiplier() float64 {
	switch l {
	case IntensityLight:
		return 0.8
	case IntensityIntense:
		return 1.2
	default:
		return 1.0
	}
}

// SetEntry is one voice- or manually-logged set. Values are clamped
// non-negative before they reach this type.
type SetEntry struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// Volume is the set's contribution to session volume.
func (e SetEntry) Volume() float64 {
	return float64(e.Reps) * e.Weight
}

// ActiveSession is the runtime working set of the currently live session:
// the subset of WorkoutLog fields mirrored into memory, flushed to the
// durable row at transition boundaries rather than on every tick.
type ActiveSession struct {
	SessionID      string         `json:"sessionId"`
	ProgramID      string         `json:"programId"`
	DayID          string         `json:"dayId"`
	UserID         string         `json:"userId"`
	Status         SessionStatus  `json:"status"`
	ExerciseIndex  int            `json:"exerciseIndex"`
	ElapsedSeconds int            `json:"elapsedSeconds"` // current exercise only
	TotalSeconds   int            `json:"totalSeconds"`   // whole session, across pauses
	CompletedIDs   []string       `json:"completedIds"`
	CompletedNames []string       `json:"completedNames"`
	Intensity      IntensityLevel `json:"intensity"`
	RecoveryMode   bool           `json:"recoveryMode"`
}
