package service

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository/sqlite"
	"github.com/casdy/PlanR-sub000/internal/session"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

func TestParseSetCommand(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       *SetCommand
	}{
		{"spelled_out", "ten reps at one hundred thirty five pounds", &SetCommand{Reps: 10, Weight: 135}},
		{"digits", "8 reps 60 kg", &SetCommand{Reps: 8, Weight: 60}},
		{"digits_with_at", "10 reps at 135", &SetCommand{Reps: 10, Weight: 135}},
		{"decimal_weight", "5 reps at 62.5 kg", &SetCommand{Reps: 5, Weight: 62.5}},
		{"hyphenated_count", "twenty-five reps at forty kilos", &SetCommand{Reps: 25, Weight: 40}},
		{"bodyweight", "12 reps", &SetCommand{Reps: 12, Weight: 0}},
		{"count_then_weight_without_rep_word", "did ten at sixty kilos", &SetCommand{Reps: 10, Weight: 60}},
		{"sets_prefix_ignored", "3 sets of 12 reps at 50 kilos", &SetCommand{Reps: 12, Weight: 50}},
		{"trailing_punctuation", "8 reps, 100 kg.", &SetCommand{Reps: 8, Weight: 100}},
		{"hundred_shorthand", "a hundred reps", &SetCommand{Reps: 100, Weight: 0}},
		{"garbage", "that was absolutely brutal", nil},
		{"empty", "", nil},
		{"numbers_without_meaning", "song three played twice", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseSetCommand(tc.transcript)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want.Reps, got.Reps)
			assert.InDelta(t, tc.want.Weight, got.Weight, 0.001)
		})
	}
}

// fakeTranscriber returns a canned transcript.
type fakeTranscriber struct {
	transcript string
	err        error
	gotMime    string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, mimeType string) (string, error) {
	f.gotMime = mimeType
	return f.transcript, f.err
}

func newVoiceFixture(t *testing.T, transcriber *fakeTranscriber) (VoiceService, *session.Engine) {
	t.Helper()
	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	programs := sqlite.NewProgramRepository(db)
	logs := sqlite.NewLogRepository(db)
	prefs := sqlite.NewPreferenceRepository(db)
	logger := log.New(io.Discard, "", 0)
	coord := syncer.NewCoordinator(syncer.Noop{}, programs, logs, logger, 0)
	engine := session.NewEngine(programs, logs, prefs, coord, logger, 0)
	t.Cleanup(engine.Close)

	require.NoError(t, programs.SaveProgram(context.Background(), &domain.Program{
		ID:    "p1",
		Title: "Split",
		Days: []domain.Day{
			{ID: "d1", Title: "Upper", Type: domain.DayTypeStrength, Exercises: []domain.Exercise{
				{ID: "bench", Name: "Bench Press", Sets: 4, Reps: "8-10"},
			}},
		},
	}))
	return NewVoiceService(transcriber, engine), engine
}

func TestLogSetFromAudioLogsAgainstCurrentExercise(t *testing.T) {
	transcriber := &fakeTranscriber{transcript: "ten reps at one hundred thirty five pounds"}
	svc, engine := newVoiceFixture(t, transcriber)
	ctx := context.Background()

	_, err := engine.Start(ctx, "p1", "d1", "u1")
	require.NoError(t, err)

	result, err := svc.LogSetFromAudio(ctx, []byte("audio"), "audio/m4a")
	require.NoError(t, err)
	assert.True(t, result.Parsed)
	assert.Equal(t, 10, result.Entry.Reps)
	assert.Equal(t, float64(135), result.Entry.Weight)
	assert.Equal(t, 0, result.Exercise)
	assert.Equal(t, "audio/m4a", transcriber.gotMime)

	summary, err := engine.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1350), summary.TotalVolume)
	assert.Equal(t, 1, summary.ExerciseCount)
}

func TestLogSetFromAudioWithoutSession(t *testing.T) {
	svc, _ := newVoiceFixture(t, &fakeTranscriber{transcript: "8 reps 60 kg"})

	_, err := svc.LogSetFromAudio(context.Background(), []byte("audio"), "audio/m4a")
	assert.ErrorIs(t, err, session.ErrNoActiveSession)
}

func TestLogSetFromAudioUnparsedTranscript(t *testing.T) {
	svc, engine := newVoiceFixture(t, &fakeTranscriber{transcript: "that was brutal"})
	ctx := context.Background()

	_, err := engine.Start(ctx, "p1", "d1", "u1")
	require.NoError(t, err)

	result, err := svc.LogSetFromAudio(ctx, []byte("audio"), "audio/m4a")
	require.NoError(t, err)
	assert.False(t, result.Parsed)
	assert.Equal(t, "that was brutal", result.Transcript)

	summary, err := engine.Finish(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalVolume, "nothing was logged")
}

func TestLogSetFromAudioTranscriberFailure(t *testing.T) {
	svc, engine := newVoiceFixture(t, &fakeTranscriber{err: errors.New("speech service down")})
	ctx := context.Background()

	_, err := engine.Start(ctx, "p1", "d1", "u1")
	require.NoError(t, err)

	_, err = svc.LogSetFromAudio(ctx, []byte("audio"), "audio/m4a")
	assert.Error(t, err)
}
