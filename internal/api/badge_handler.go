package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/service"
)

// BadgeHandler turns finish-summary prompts into stored badge images.
type BadgeHandler struct {
	badgeService service.BadgeService
}

// NewBadgeHandler creates a new BadgeHandler.
func NewBadgeHandler(badgeService service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

// CreateBadgeRequest carries the achievement prompt from a finish summary.
type CreateBadgeRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// Create handles POST /badges.
func (h *BadgeHandler) Create(c *gin.Context) {
	var req CreateBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	badge, err := h.badgeService.CreateBadge(c.Request.Context(), getUserIDFromContext(c), req.Prompt)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBadgePrompt) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusBadGateway, "Badge generation failed")
		return
	}
	c.JSON(http.StatusCreated, badge)
}
