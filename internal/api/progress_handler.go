package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/repository"
)

// ProgressHandler serves the plan-view exercise checkmarks.
type ProgressHandler struct {
	progress repository.ProgressRepository
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progress repository.ProgressRepository) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// ToggleProgressRequest addresses one exercise slot in the plan view.
type ToggleProgressRequest struct {
	ProgramID     string `json:"programId" binding:"required"`
	DayID         string `json:"dayId" binding:"required"`
	ExerciseIndex int    `json:"exerciseIndex"`
}

// Toggle handles POST /progress/toggle.
func (h *ProgressHandler) Toggle(c *gin.Context) {
	var req ToggleProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	completed, err := h.progress.Toggle(c.Request.Context(), req.ProgramID, req.DayID, req.ExerciseIndex)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to toggle progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": completed})
}

// List handles GET /progress.
func (h *ProgressHandler) List(c *gin.Context) {
	progress, err := h.progress.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load progress")
		return
	}
	c.JSON(http.StatusOK, progress)
}
