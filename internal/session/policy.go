package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/casdy/PlanR-sub000/internal/domain"
)

// ScaledReps rescales a rep target for the given intensity level. Plain
// counts ("12") and ranges ("8-10") are scaled and rounded; anything
// non-numeric ("AMRAP", "30-60 sec") is displayed as-is.
func ScaledReps(reps string, level domain.IntensityLevel) string {
	mult := level.Multiplier()
	if mult == 1.0 {
		return reps
	}

	trimmed := strings.TrimSpace(reps)
	if lo, hi, ok := splitRange(trimmed); ok {
		return fmt.Sprintf("%d-%d", scale(lo, mult), scale(hi, mult))
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return strconv.Itoa(scale(n, mult))
	}
	return reps
}

func splitRange(s string) (lo, hi int, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func scale(n int, mult float64) int {
	scaled := int(math.Round(float64(n) * mult))
	if scaled < 1 {
		return 1
	}
	return scaled
}

// ApplyIntensity returns a copy of the exercises with rep targets rescaled.
// The underlying program is never mutated.
func ApplyIntensity(exercises []domain.Exercise, level domain.IntensityLevel) []domain.Exercise {
	out := make([]domain.Exercise, len(exercises))
	for i, ex := range exercises {
		ex.Reps = ScaledReps(ex.Reps, level)
		out[i] = ex
	}
	return out
}

// RecoveryExercises is the fixed low-impact set shown when a session is
// swapped to recovery mode. Every entry is timed so the session can
// auto-advance through it.
func RecoveryExercises() []domain.Exercise {
	return []domain.Exercise{
		{ID: "rec-cat-cow", Name: "Cat-Cow Stretch", Sets: 1, Reps: "60 sec", DurationSec: seconds(60)},
		{ID: "rec-childs-pose", Name: "Child's Pose", Sets: 1, Reps: "90 sec", DurationSec: seconds(90)},
		{ID: "rec-hamstring", Name: "Standing Hamstring Stretch", Sets: 1, Reps: "60 sec", DurationSec: seconds(60)},
		{ID: "rec-hip-flexor", Name: "Kneeling Hip Flexor Stretch", Sets: 1, Reps: "60 sec", DurationSec: seconds(60)},
		{ID: "rec-walk", Name: "Easy Walk", Sets: 1, Reps: "5 min", DurationSec: seconds(300)},
	}
}

// EffectiveExercises resolves the list the session actually runs against:
// the recovery substitution first, then intensity scaling. A nil day (the
// program vanished underneath a resumed session) yields an empty list.
func EffectiveExercises(day *domain.Day, recoveryMode bool, level domain.IntensityLevel) []domain.Exercise {
	if recoveryMode {
		return ApplyIntensity(RecoveryExercises(), level)
	}
	if day == nil {
		return nil
	}
	return ApplyIntensity(day.Exercises, level)
}

func seconds(v int) *int { return &v }
