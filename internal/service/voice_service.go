package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/casdy/PlanR-sub000/internal/assist"
	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/session"
)

// SetCommand is the structured form of a spoken set: "ten reps at one
// hundred thirty five pounds" becomes {Reps: 10, Weight: 135}.
type SetCommand struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// VoiceSetResult reports what the voice pipeline heard and, when the
// transcript contained a set command, the entry that was logged.
type VoiceSetResult struct {
	Transcript string          `json:"transcript"`
	Parsed     bool            `json:"parsed"`
	Entry      domain.SetEntry `json:"entry"`
	Exercise   int             `json:"exerciseIndex"`
}

// --- Service Interface ---
type VoiceService interface {
	// LogSetFromAudio transcribes the audio and, when a set command is
	// recognized, logs it against the live session's current exercise.
	// An unrecognized transcript is an expected outcome (Parsed=false),
	// not an error.
	LogSetFromAudio(ctx context.Context, audio []byte, mimeType string) (*VoiceSetResult, error)
}

// --- Service Implementation ---
type voiceService struct {
	transcriber assist.Transcriber
	engine      *session.Engine
}

// NewVoiceService creates a new instance of voiceService.
func NewVoiceService(transcriber assist.Transcriber, engine *session.Engine) VoiceService {
	return &voiceService{transcriber: transcriber, engine: engine}
}

func (s *voiceService) LogSetFromAudio(ctx context.Context, audio []byte, mimeType string) (*VoiceSetResult, error) {
	snap := s.engine.Snapshot()
	if snap.Status != domain.StatusRunning {
		return nil, session.ErrNoActiveSession
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, err
	}

	cmd := ParseSetCommand(transcript)
	if cmd == nil {
		return &VoiceSetResult{Transcript: transcript}, nil
	}

	entry := s.engine.LogSet(snap.ProgramID, snap.DayID, snap.ExerciseIndex, cmd.Reps, cmd.Weight)
	return &VoiceSetResult{
		Transcript: transcript,
		Parsed:     true,
		Entry:      entry,
		Exercise:   snap.ExerciseIndex,
	}, nil
}

// === Transcript Parsing ===

var repWords = map[string]bool{
	"rep": true, "reps": true, "repetition": true, "repetitions": true,
}

var weightUnits = map[string]bool{
	"kg": true, "kilo": true, "kilos": true, "kilogram": true, "kilograms": true,
	"lb": true, "lbs": true, "pound": true, "pounds": true,
}

var unitWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]float64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// ParseSetCommand extracts {reps, weight} from a transcript, accepting both
// digits and spelled-out numbers. A transcript without a recognizable set
// command yields nil, never an error. A rep count with no weight is a
// bodyweight set (weight 0).
func ParseSetCommand(transcript string) *SetCommand {
	numbers := scanNumbers(transcript)
	if len(numbers) == 0 {
		return nil
	}

	repsAt := -1
	weightAt := -1
	for i, n := range numbers {
		if repsAt < 0 && repWords[n.follower] {
			repsAt = i
			continue
		}
		if weightAt < 0 && weightUnits[n.follower] {
			weightAt = i
		}
	}

	// "did ten at sixty kilos": no rep word, but an unambiguous
	// count-then-weight pair still reads as a set.
	if repsAt < 0 {
		if len(numbers) == 2 && weightAt == 1 {
			return &SetCommand{Reps: int(numbers[0].value), Weight: numbers[1].value}
		}
		return nil
	}

	cmd := &SetCommand{Reps: int(numbers[repsAt].value)}
	switch {
	case weightAt >= 0:
		cmd.Weight = numbers[weightAt].value
	case repsAt+1 < len(numbers):
		// "10 reps at 135" with the unit left unsaid.
		cmd.Weight = numbers[repsAt+1].value
	}
	return cmd
}

type spokenNumber struct {
	value    float64
	follower string // first non-number word after the value, lowercase
}

// scanNumbers walks the transcript and folds digit tokens and number-word
// runs ("one hundred thirty five") into values, remembering the word that
// follows each one. Punctuation is trimmed from token edges so "60 kg."
// and "62.5" both survive.
func scanNumbers(transcript string) []spokenNumber {
	cleaned := strings.ReplaceAll(strings.ToLower(transcript), "-", " ")
	raw := strings.Fields(cleaned)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if trimmed := strings.Trim(token, ",.!?;:"); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}

	var numbers []spokenNumber
	for i := 0; i < len(tokens); {
		value, next, ok := parseNumberRun(tokens, i)
		if !ok {
			i++
			continue
		}
		n := spokenNumber{value: value}
		if next < len(tokens) {
			n.follower = tokens[next]
		}
		numbers = append(numbers, n)
		i = next
	}
	return numbers
}

// parseNumberRun consumes one number starting at tokens[i]: either a digit
// token ("135", "62.5") or a run of number words. Returns the index of the
// first unconsumed token.
func parseNumberRun(tokens []string, i int) (value float64, next int, ok bool) {
	if v, err := strconv.ParseFloat(tokens[i], 64); err == nil {
		return v, i + 1, true
	}

	total := 0.0
	j := i
	for j < len(tokens) {
		word := tokens[j]
		switch {
		case unitWords[word] != 0 || word == "zero":
			total += unitWords[word]
		case tensWords[word] != 0:
			total += tensWords[word]
		case word == "hundred":
			if total == 0 {
				total = 1
			}
			total *= 100
		case word == "thousand":
			if total == 0 {
				total = 1
			}
			total *= 1000
		case word == "and" && j > i:
			// "one hundred and five"
		default:
			if j == i {
				return 0, i, false
			}
			return total, j, true
		}
		j++
	}
	if j == i {
		return 0, i, false
	}
	return total, j, true
}
