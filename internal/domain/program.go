package domain

import (
	"time"
)

// DayType tags what kind of training day a Day represents.
type DayType string

const (
	DayTypeStrength       DayType = "strength"
	DayTypeCardio         DayType = "cardio"
	DayTypeRest           DayType = "rest"
	DayTypeActiveRecovery DayType = "active_recovery"
)

// IsRestful reports whether a day of this type is never started as a session.
func (t DayType) IsRestful() bool {
	return t == DayTypeRest || t == DayTypeActiveRecovery
}

// Exercise is one movement within a Day. Its ID is unique within the Day's
// exercise list and is the correlation key for completion tracking and swaps.
type Exercise struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Sets        int    `bson:"sets" json:"sets"`                                   // target sets, >= 1
	Reps        string `bson:"reps" json:"reps"`                                   // free-form: "8-10" or "12"
	RestSec     *int   `bson:"restSec,omitempty" json:"restSec,omitempty"`         // optional rest between sets
	DurationSec *int   `bson:"durationSec,omitempty" json:"durationSec,omitempty"` // optional timed target; drives auto-advance
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Day is one scheduled training day within a Program. Exercise order is
// significant.
type Day struct {
	ID          string     `bson:"id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Weekday     string     `bson:"weekday" json:"weekday"` // display label, e.g. "Monday"
	Type        DayType    `bson:"type" json:"type"`
	DurationMin int        `bson:"durationMin" json:"durationMin"` // target duration in minutes
	Exercises   []Exercise `bson:"exercises" json:"exercises"`
}

// MaxExerciseIndex returns the highest valid exercise cursor for the day,
// or -1 when the day has no exercises.
func (d *Day) MaxExerciseIndex() int {
	return len(d.Exercises) - 1
}

// Program is a user-owned workout template: an ordered weekly schedule of
// Days. Day order represents calendar assignment, not just display order.
type Program struct {
	ID          string    `bson:"id" json:"id"`
	UserID      string    `bson:"userId" json:"userId"` // owner, or GuestUserID
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string    `bson:"icon,omitempty" json:"icon,omitempty"`   // display icon key
	Color       string    `bson:"color,omitempty" json:"color,omitempty"` // color theme key
	Version     int       `bson:"version" json:"version"`                 // incremented on every edit
	IsPublic    bool      `bson:"isPublic" json:"isPublic"`
	Days        []Day     `bson:"days" json:"days"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DayByID returns the day with the given id, or nil when absent.
// Callers must treat the nil case as a normal absent-value condition.
func (p *Program) DayByID(dayID string) *Day {
	for i := range p.Days {
		if p.Days[i].ID == dayID {
			return &p.Days[i]
		}
	}
	return nil
}

// HasUniqueDayIDs verifies the invariant that every Day id is unique within
// the program. Enforced on save; violating programs are rejected, not fixed.
func (p *Program) HasUniqueDayIDs() bool {
	seen := make(map[string]struct{}, len(p.Days))
	for _, d := range p.Days {
		if _, dup := seen[d.ID]; dup {
			return false
		}
		seen[d.ID] = struct{}{}
	}
	return true
}

// CatalogExercise is one entry returned by the external exercise catalog.
// The catalog is a read-only collaborator; these records are never persisted.
type CatalogExercise struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	TargetMuscle string   `json:"targetMuscle"`
	Equipment    string   `json:"equipment,omitempty"`
	MediaURL     string   `json:"mediaUrl,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
}
