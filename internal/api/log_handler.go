package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/repository"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

// LogHandler serves workout history and its aggregates. The log surface is
// pure store passthrough; deletes additionally propagate to the replica.
type LogHandler struct {
	logs  repository.LogRepository
	coord *syncer.Coordinator
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(logs repository.LogRepository, coord *syncer.Coordinator) *LogHandler {
	return &LogHandler{logs: logs, coord: coord}
}

// StatsResponse aggregates the user's recent training.
type StatsResponse struct {
	WeeklyVolume  int `json:"weeklyVolume"` // seconds trained this ISO week
	CurrentStreak int `json:"currentStreak"`
}

// List handles GET /logs.
func (h *LogHandler) List(c *gin.Context) {
	logs, err := h.logs.GetLogs(c.Request.Context(), getUserIDFromContext(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load workout logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}

// Delete handles DELETE /logs/:id. The id may be a row id or a session id.
func (h *LogHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	// The replica keys logs by row id; resolve a session id before the local
	// row disappears.
	remoteKey := id
	if row, err := h.logs.GetLogBySession(c.Request.Context(), id); err == nil {
		remoteKey = row.ID
	}

	if err := h.logs.DeleteLog(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Workout log not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to delete workout log")
		return
	}
	h.coord.DeleteLogAsync(getUserIDFromContext(c), remoteKey)
	c.Status(http.StatusNoContent)
}

// Stats handles GET /stats.
func (h *LogHandler) Stats(c *gin.Context) {
	userID := getUserIDFromContext(c)
	now := time.Now().UTC()

	volume, err := h.logs.WeeklyVolume(c.Request.Context(), userID, now)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute weekly volume")
		return
	}
	streak, err := h.logs.CurrentStreak(c.Request.Context(), userID, now)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute streak")
		return
	}
	c.JSON(http.StatusOK, StatsResponse{WeeklyVolume: volume, CurrentStreak: streak})
}
