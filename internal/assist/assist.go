// Package assist defines the AI collaborator contracts the core consumes:
// routine text generation, speech-to-text and badge image generation. The
// contracts are deliberately narrow; callers own all fallback behavior.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/casdy/PlanR-sub000/internal/domain"
)

// --- Error Definitions ---
var (
	ErrQuotaExhausted = errors.New("generation quota exhausted")
	ErrEmptyResult    = errors.New("generator returned neither fragments nor a program")
)

// GeneratedRoutine is the generator's result in one of its two shapes:
// a streamed sequence of text fragments that concatenate into a JSON
// program description, or a fully-formed program object. Exactly one of
// the two is expected to be populated.
type GeneratedRoutine struct {
	Fragments []string        `json:"fragments,omitempty"`
	Program   *domain.Program `json:"program,omitempty"`
}

// Assemble normalizes either result shape into a Program. Fragment streams
// are concatenated and parsed as JSON, tolerating markdown code fences
// around the document. The caller still validates and re-keys the result.
func (r *GeneratedRoutine) Assemble() (*domain.Program, error) {
	if r.Program != nil {
		program := *r.Program
		return &program, nil
	}
	if len(r.Fragments) == 0 {
		return nil, ErrEmptyResult
	}

	raw := extractJSON(strings.Join(r.Fragments, ""))
	var program domain.Program
	if err := json.Unmarshal([]byte(raw), &program); err != nil {
		return nil, fmt.Errorf("assemble generated routine: %w", err)
	}
	return &program, nil
}

// extractJSON strips anything around the outermost JSON object, which is
// how fenced or chatty generator output is tolerated.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// RoutineGenerator authors a workout program from a natural-language goal.
// ErrQuotaExhausted is an expected condition, not a failure; callers fall
// back to deterministic assembly.
type RoutineGenerator interface {
	Generate(ctx context.Context, goal string) (*GeneratedRoutine, error)
}

// Transcriber converts an audio blob into a transcript string.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// ImageGenerator renders a descriptive prompt into image bytes. Consumed
// for display only; nothing in the session lifecycle depends on it.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}
