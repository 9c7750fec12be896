package assist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casdy/PlanR-sub000/internal/domain"
)

const routineJSON = `{"title":"Hypertrophy Block","days":[{"id":"d1","title":"Upper","type":"strength","exercises":[{"id":"e1","name":"Bench Press","sets":4,"reps":"8-10"}]}]}`

func TestAssembleFromFragments(t *testing.T) {
	routine := &GeneratedRoutine{
		Fragments: []string{"```json\n", `{"title":"Hypertrophy Block",`, `"days":[]}`, "\n```"},
	}

	program, err := routine.Assemble()
	require.NoError(t, err)
	assert.Equal(t, "Hypertrophy Block", program.Title)
}

func TestAssembleFromProgram(t *testing.T) {
	routine := &GeneratedRoutine{
		Program: &domain.Program{Title: "Hypertrophy Block"},
	}

	program, err := routine.Assemble()
	require.NoError(t, err)
	assert.Equal(t, "Hypertrophy Block", program.Title)
	assert.NotSame(t, routine.Program, program, "callers get their own copy")
}

func TestAssembleEmptyResult(t *testing.T) {
	routine := &GeneratedRoutine{}
	_, err := routine.Assemble()
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestAssembleBadJSON(t *testing.T) {
	routine := &GeneratedRoutine{Fragments: []string{"not a program at all"}}
	_, err := routine.Assemble()
	assert.Error(t, err)
}

func TestGenerateDecodesFragmentShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		var in struct {
			Goal string `json:"goal"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "build muscle", in.Goal)
		_ = json.NewEncoder(w).Encode(GeneratedRoutine{Fragments: []string{routineJSON}})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "test-key", 0)
	routine, err := client.Generate(context.Background(), "build muscle")
	require.NoError(t, err)

	program, err := routine.Assemble()
	require.NoError(t, err)
	assert.Equal(t, "Hypertrophy Block", program.Title)
	require.Len(t, program.Days, 1)
	assert.Equal(t, "Bench Press", program.Days[0].Exercises[0].Name)
}

func TestGenerateMapsRemoteQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", 0)
	_, err := client.Generate(context.Background(), "build muscle")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestGenerateLocalQuotaShortCircuits(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(GeneratedRoutine{Fragments: []string{routineJSON}})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", 2)
	ctx := context.Background()

	_, err := client.Generate(ctx, "goal one")
	require.NoError(t, err)
	_, err = client.Generate(ctx, "goal two")
	require.NoError(t, err)
	_, err = client.Generate(ctx, "goal three")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "exhausted quota never reaches the proxy")
}

func TestTranscribePostsAudioVerbatim(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transcribe", r.URL.Path)
		assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, audio, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"transcript": "ten reps at sixty kilos"})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", 0)
	transcript, err := client.Transcribe(context.Background(), audio, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "ten reps at sixty kilos", transcript)
}

func TestGenerateImageReturnsBytes(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/image", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", 0)
	img, err := client.GenerateImage(context.Background(), "a golden streak badge")
	require.NoError(t, err)
	assert.Equal(t, png, img)
}
