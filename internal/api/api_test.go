package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casdy/PlanR-sub000/internal/assist"
	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository"
	"github.com/casdy/PlanR-sub000/internal/repository/sqlite"
	"github.com/casdy/PlanR-sub000/internal/service"
	"github.com/casdy/PlanR-sub000/internal/session"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

const testJWTSecret = "test-secret"

// stubTranscriber returns whatever transcript the test sets.
type stubTranscriber struct {
	transcript string
	err        error
}

func (s *stubTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return s.transcript, s.err
}

// stubCatalog flips between serving and failing.
type stubCatalog struct {
	down bool
}

func (s *stubCatalog) Search(_ context.Context, target string) ([]domain.CatalogExercise, error) {
	if s.down {
		return nil, fmt.Errorf("catalog unreachable")
	}
	return []domain.CatalogExercise{{ID: "0001", Name: "Barbell Bench Press", TargetMuscle: target}}, nil
}

// stubImages renders a fixed byte blob.
type stubImages struct{}

func (stubImages) GenerateImage(context.Context, string) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

// stubFileStorage keeps uploads in memory.
type stubFileStorage struct {
	keys []string
}

func (s *stubFileStorage) Upload(_ context.Context, objectKey, _ string, _ []byte) error {
	s.keys = append(s.keys, objectKey)
	return nil
}

func (s *stubFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://cdn.test/" + objectKey, nil
}

// stubGenerator always reports quota exhaustion so Generate exercises the
// catalog fallback in router tests.
type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (*assist.GeneratedRoutine, error) {
	return nil, assist.ErrQuotaExhausted
}

type routerFixture struct {
	router      *gin.Engine
	engine      *session.Engine
	transcriber *stubTranscriber
	catalog     *stubCatalog
	programs    repository.ProgramRepository
	logs        repository.LogRepository
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	programs := sqlite.NewProgramRepository(db)
	logs := sqlite.NewLogRepository(db)
	progress := sqlite.NewProgressRepository(db)
	prefs := sqlite.NewPreferenceRepository(db)
	logger := log.New(io.Discard, "", 0)
	coord := syncer.NewCoordinator(syncer.Noop{}, programs, logs, logger, 0)

	engine := session.NewEngine(programs, logs, prefs, coord, logger, 0)
	t.Cleanup(engine.Close)

	transcriber := &stubTranscriber{}
	cat := &stubCatalog{}
	programService := service.NewProgramService(programs, coord, stubGenerator{}, cat, logger)
	voiceService := service.NewVoiceService(transcriber, engine)
	badgeService := service.NewBadgeService(stubImages{}, &stubFileStorage{})

	router := gin.New()
	SetupRoutes(router, Deps{
		JWTSecret:   testJWTSecret,
		Engine:      engine,
		Programs:    programService,
		Voice:       voiceService,
		Badges:      badgeService,
		Catalog:     cat,
		Logs:        logs,
		Progress:    progress,
		Preferences: prefs,
		Sync:        coord,
	})

	require.NoError(t, programs.SaveProgram(context.Background(), &domain.Program{
		ID:    "p1",
		Title: "Router Split",
		Days: []domain.Day{
			{ID: "d1", Title: "Upper", Type: domain.DayTypeStrength, Exercises: []domain.Exercise{
				{ID: "bench", Name: "Bench Press", Sets: 4, Reps: "8-10"},
				{ID: "ohp", Name: "Overhead Press", Sets: 3, Reps: "10"},
			}},
			{ID: "rest", Title: "Rest", Type: domain.DayTypeRest},
		},
	}))

	return &routerFixture{
		router:      router,
		engine:      engine,
		transcriber: transcriber,
		catalog:     cat,
		programs:    programs,
		logs:        logs,
	}
}

func (f *routerFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, userID, secret string) string {
	t.Helper()
	claims := jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPing(t *testing.T) {
	fix := newRouterFixture(t)
	rec := fix.do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")
}

func TestIdentityResolution(t *testing.T) {
	start := StartSessionRequest{ProgramID: "p1", DayID: "d1"}

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		wantUser string
	}{
		{"no_token_is_guest", func(*testing.T) string { return "" }, domain.GuestUserID},
		{"valid_token_carries_user", func(t *testing.T) string { return signToken(t, "u1", testJWTSecret) }, "u1"},
		{"wrong_secret_falls_back_to_guest", func(t *testing.T) string { return signToken(t, "u1", "other-secret") }, domain.GuestUserID},
		{"garbage_token_falls_back_to_guest", func(*testing.T) string { return "not.a.jwt" }, domain.GuestUserID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fix := newRouterFixture(t)
			rec := fix.do(t, http.MethodPost, "/api/v1/sessions", start, tc.token(t))
			require.Equal(t, http.StatusCreated, rec.Code, "identity never rejects: %s", rec.Body.String())
			assert.Equal(t, tc.wantUser, decodeSession(t, rec).Session.UserID)
		})
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodPost, "/api/v1/sessions", StartSessionRequest{ProgramID: "p1", DayID: "d1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	started := decodeSession(t, rec)
	assert.Equal(t, domain.StatusRunning, started.Session.Status)
	require.Len(t, started.Exercises, 2)

	rec = fix.do(t, http.MethodGet, "/api/v1/sessions/active", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = fix.do(t, http.MethodPost, "/api/v1/sessions/active/complete",
		CompleteExerciseRequest{ExerciseID: "bench", ExerciseName: "Bench Press"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = fix.do(t, http.MethodPost, "/api/v1/sessions/active/sets", LogSetRequest{Reps: 10, Weight: 100}, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = fix.do(t, http.MethodPost, "/api/v1/sessions/active/advance", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeSession(t, rec).Session.ExerciseIndex)

	rec = fix.do(t, http.MethodPost, "/api/v1/sessions/active/finish", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary session.FinishSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, float64(1000), summary.TotalVolume)
	assert.Equal(t, started.Session.SessionID, summary.SessionID)

	rec = fix.do(t, http.MethodGet, "/api/v1/sessions/active", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPauseAndResumeOverHTTP(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodPost, "/api/v1/sessions", StartSessionRequest{ProgramID: "p1", DayID: "d1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decodeSession(t, rec).Session.SessionID

	rec = fix.do(t, http.MethodPost, "/api/v1/sessions/active/pause", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fix.do(t, http.MethodPost, "/api/v1/sessions/resume", ResumeSessionRequest{SessionID: sessionID}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusRunning, decodeSession(t, rec).Session.Status)

	rec = fix.do(t, http.MethodPost, "/api/v1/sessions/resume", ResumeSessionRequest{SessionID: "unknown-session"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartValidation(t *testing.T) {
	fix := newRouterFixture(t)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{"missing_fields", gin.H{"programId": "p1"}, http.StatusBadRequest},
		{"unknown_program", StartSessionRequest{ProgramID: "nope", DayID: "d1"}, http.StatusNotFound},
		{"unknown_day", StartSessionRequest{ProgramID: "p1", DayID: "nope"}, http.StatusNotFound},
		{"rest_day", StartSessionRequest{ProgramID: "p1", DayID: "rest"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := fix.do(t, http.MethodPost, "/api/v1/sessions", tc.body, "")
			assert.Equal(t, tc.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestVoiceSetRoute(t *testing.T) {
	fix := newRouterFixture(t)

	doVoice := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/active/sets/voice",
			bytes.NewReader([]byte("fake-audio")))
		req.Header.Set("Content-Type", "audio/m4a")
		rec := httptest.NewRecorder()
		fix.router.ServeHTTP(rec, req)
		return rec
	}

	// No session yet.
	fix.transcriber.transcript = "8 reps 60 kg"
	assert.Equal(t, http.StatusNotFound, doVoice().Code)

	rec := fix.do(t, http.MethodPost, "/api/v1/sessions", StartSessionRequest{ProgramID: "p1", DayID: "d1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doVoice()
	require.Equal(t, http.StatusCreated, rec.Code)
	var result service.VoiceSetResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Parsed)
	assert.Equal(t, 8, result.Entry.Reps)

	fix.transcriber.transcript = "that was brutal"
	rec = doVoice()
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "that was brutal")
}

func TestProgramCRUDOverHTTP(t *testing.T) {
	fix := newRouterFixture(t)
	token := signToken(t, "u1", testJWTSecret)

	rec := fix.do(t, http.MethodPost, "/api/v1/programs", gin.H{"description": "untitled"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fix.do(t, http.MethodPost, "/api/v1/programs", ProgramRequest{
		Title: "New Split",
		Days:  []domain.Day{{ID: "d1", Title: "Full Body", Type: domain.DayTypeStrength}},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, 1, created.Version)

	rec = fix.do(t, http.MethodPut, "/api/v1/programs/"+created.ID, ProgramRequest{Title: "Renamed Split"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 2, updated.Version)

	rec = fix.do(t, http.MethodGet, "/api/v1/programs/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = fix.do(t, http.MethodDelete, "/api/v1/programs/"+created.ID, nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = fix.do(t, http.MethodGet, "/api/v1/programs/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateRouteFallsBackToCatalog(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodPost, "/api/v1/programs/generate", GenerateProgramRequest{Goal: "get stronger"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var program domain.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &program))
	assert.NotEmpty(t, program.Days)

	fix.catalog.down = true
	rec = fix.do(t, http.MethodPost, "/api/v1/programs/generate", GenerateProgramRequest{Goal: "get stronger"}, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStatsRoute(t *testing.T) {
	fix := newRouterFixture(t)

	now := time.Now().UTC()
	require.NoError(t, fix.logs.FinalizeLog(context.Background(), &domain.WorkoutLog{
		SessionID:    "s-past",
		UserID:       "u1",
		ProgramID:    "p1",
		DayID:        "d1",
		Date:         now,
		CompletedAt:  &now,
		TotalSeconds: 1800,
	}))

	rec := fix.do(t, http.MethodGet, "/api/v1/stats", nil, signToken(t, "u1", testJWTSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1800, stats.WeeklyVolume)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestLogRoutes(t *testing.T) {
	fix := newRouterFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, fix.logs.FinalizeLog(ctx, &domain.WorkoutLog{
		SessionID: "s1", UserID: "u1", ProgramID: "p1", DayID: "d1",
		Date: now, CompletedAt: &now, TotalSeconds: 600,
	}))

	rec := fix.do(t, http.MethodGet, "/api/v1/logs", nil, signToken(t, "u1", testJWTSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []domain.WorkoutLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)

	rec = fix.do(t, http.MethodDelete, "/api/v1/logs/s1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "delete accepts session ids too")

	rec = fix.do(t, http.MethodDelete, "/api/v1/logs/s1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreferenceRoutes(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodGet, "/api/v1/preferences", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var prefs map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
	assert.Equal(t, "true", prefs[domain.PrefAutoAdvance])

	rec = fix.do(t, http.MethodPut, "/api/v1/preferences",
		SetPreferenceRequest{Key: domain.PrefAutoAdvance, Value: "false"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"false"`)
}

func TestProgressRoutes(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodPost, "/api/v1/progress/toggle",
		ToggleProgressRequest{ProgramID: "p1", DayID: "d1", ExerciseIndex: 0}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "true")

	rec = fix.do(t, http.MethodGet, "/api/v1/progress", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var progress map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.True(t, progress["p1-d1-0"])
}

func TestCatalogRoute(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodGet, "/api/v1/exercises?target=chest", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Barbell Bench Press")

	rec = fix.do(t, http.MethodGet, "/api/v1/exercises", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	fix.catalog.down = true
	rec = fix.do(t, http.MethodGet, "/api/v1/exercises?target=chest", nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBadgeRoute(t *testing.T) {
	fix := newRouterFixture(t)
	token := signToken(t, "u1", testJWTSecret)

	rec := fix.do(t, http.MethodPost, "/api/v1/badges", CreateBadgeRequest{Prompt: "a golden badge"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var badge service.Badge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &badge))
	assert.Contains(t, badge.ObjectKey, "badges/u1/")
	assert.NotEmpty(t, badge.URL)

	rec = fix.do(t, http.MethodPost, "/api/v1/badges", gin.H{}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncPullRoute(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodPost, "/api/v1/sync/pull", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "guest pull is a successful no-op")

	rec = fix.do(t, http.MethodPost, "/api/v1/sync/pull", nil, signToken(t, "u1", testJWTSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
}
