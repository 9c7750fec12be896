package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/repository"
)

// PreferenceHandler serves the user-preference flags.
type PreferenceHandler struct {
	prefs repository.PreferenceRepository
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(prefs repository.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

// SetPreferenceRequest updates one preference key.
type SetPreferenceRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// List handles GET /preferences.
func (h *PreferenceHandler) List(c *gin.Context) {
	prefs, err := h.prefs.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// Set handles PUT /preferences.
func (h *PreferenceHandler) Set(c *gin.Context) {
	var req SetPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.prefs.Set(c.Request.Context(), req.Key, req.Value); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save preference")
		return
	}
	value, err := h.prefs.Get(c.Request.Context(), req.Key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		abortWithError(c, http.StatusInternalServerError, "Failed to read preference back")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": value})
}
