package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/service"
	"github.com/casdy/PlanR-sub000/internal/session"
)

// SessionHandler exposes the session engine over HTTP. Every route operates
// on the single live session; the engine itself enforces the lifecycle.
type SessionHandler struct {
	engine *session.Engine
	voice  service.VoiceService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(engine *session.Engine, voice service.VoiceService) *SessionHandler {
	return &SessionHandler{engine: engine, voice: voice}
}

// --- DTOs ---

// StartSessionRequest selects the program day to run.
type StartSessionRequest struct {
	ProgramID string `json:"programId" binding:"required"`
	DayID     string `json:"dayId" binding:"required"`
}

// ResumeSessionRequest names the checkpointed session to restore. The id
// travels in the body because /sessions/active occupies the path segment a
// wildcard would need.
type ResumeSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// CompleteExerciseRequest marks one exercise as done.
type CompleteExerciseRequest struct {
	ExerciseID   string `json:"exerciseId" binding:"required"`
	ExerciseName string `json:"exerciseName"`
}

// LogSetRequest records one performed set.
type LogSetRequest struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// IntensityRequest retunes the rep targets of the live session.
type IntensityRequest struct {
	Level domain.IntensityLevel `json:"level" binding:"required,oneof=light standard intense"`
}

// SessionResponse is the observable session state plus the exercise list
// the session is actually running (recovery swap and intensity applied).
type SessionResponse struct {
	Session   domain.ActiveSession `json:"session"`
	Exercises []domain.Exercise    `json:"exercises"`
}

func (h *SessionHandler) sessionResponse() SessionResponse {
	return SessionResponse{
		Session:   h.engine.Snapshot(),
		Exercises: h.engine.CurrentExercises(),
	}
}

// --- Handler Methods ---

// Start handles POST /sessions.
func (h *SessionHandler) Start(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID := getUserIDFromContext(c)
	if _, err := h.engine.Start(c.Request.Context(), req.ProgramID, req.DayID, userID); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.sessionResponse())
}

// Resume handles POST /sessions/resume.
func (h *SessionHandler) Resume(c *gin.Context) {
	var req ResumeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if _, err := h.engine.Resume(c.Request.Context(), req.SessionID); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// Active handles GET /sessions/active.
func (h *SessionHandler) Active(c *gin.Context) {
	snap := h.engine.Snapshot()
	if snap.Status == domain.StatusIdle {
		abortWithError(c, http.StatusNotFound, "No active session")
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// Pause handles POST /sessions/active/pause.
func (h *SessionHandler) Pause(c *gin.Context) {
	if err := h.engine.Pause(c.Request.Context()); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

// Cancel handles POST /sessions/active/cancel.
func (h *SessionHandler) Cancel(c *gin.Context) {
	if err := h.engine.Cancel(c.Request.Context()); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// Advance handles POST /sessions/active/advance.
func (h *SessionHandler) Advance(c *gin.Context) {
	if err := h.engine.Advance(); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// Retreat handles POST /sessions/active/retreat.
func (h *SessionHandler) Retreat(c *gin.Context) {
	if err := h.engine.Retreat(); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// Complete handles POST /sessions/active/complete.
func (h *SessionHandler) Complete(c *gin.Context) {
	var req CompleteExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.engine.CompleteExercise(req.ExerciseID, req.ExerciseName); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// LogSet handles POST /sessions/active/sets.
func (h *SessionHandler) LogSet(c *gin.Context) {
	var req LogSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	snap := h.engine.Snapshot()
	if snap.Status != domain.StatusRunning {
		handleSessionError(c, session.ErrNoActiveSession)
		return
	}
	entry := h.engine.LogSet(snap.ProgramID, snap.DayID, snap.ExerciseIndex, req.Reps, req.Weight)
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "exerciseIndex": snap.ExerciseIndex})
}

// VoiceSet handles POST /sessions/active/sets/voice. The request body is
// the audio blob; its Content-Type travels to the transcriber.
func (h *SessionHandler) VoiceSet(c *gin.Context) {
	audio, err := io.ReadAll(c.Request.Body)
	if err != nil || len(audio) == 0 {
		abortWithError(c, http.StatusBadRequest, "Audio body is required")
		return
	}

	result, err := h.voice.LogSetFromAudio(c.Request.Context(), audio, c.ContentType())
	if err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			handleSessionError(c, err)
			return
		}
		abortWithError(c, http.StatusBadGateway, "Transcription failed: "+err.Error())
		return
	}
	if !result.Parsed {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Finish handles POST /sessions/active/finish.
func (h *SessionHandler) Finish(c *gin.Context) {
	summary, err := h.engine.Finish(c.Request.Context())
	if err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Intensity handles POST /sessions/active/intensity.
func (h *SessionHandler) Intensity(c *gin.Context) {
	var req IntensityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.engine.ScaleIntensity(req.Level); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// Recovery handles POST /sessions/active/recovery.
func (h *SessionHandler) Recovery(c *gin.Context) {
	if err := h.engine.SwapToRecovery(); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// handleSessionError maps engine errors onto HTTP statuses.
func handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		abortWithError(c, http.StatusNotFound, "No active session")
	case errors.Is(err, session.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, "Program not found")
	case errors.Is(err, session.ErrDayNotFound):
		abortWithError(c, http.StatusNotFound, "Day not found in program")
	case errors.Is(err, session.ErrRestDay):
		abortWithError(c, http.StatusBadRequest, "Rest days cannot be started as sessions")
	case errors.Is(err, session.ErrSessionFinished):
		abortWithError(c, http.StatusConflict, "Session already finished")
	case errors.Is(err, session.ErrNotResumable):
		abortWithError(c, http.StatusConflict, "Session is not resumable")
	default:
		abortWithError(c, http.StatusInternalServerError, "Session operation failed: "+err.Error())
	}
}
