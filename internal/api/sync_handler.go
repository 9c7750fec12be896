package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

// SyncHandler exposes the login-time pull. Pushes have no HTTP surface;
// they ride on the write paths.
type SyncHandler struct {
	coord *syncer.Coordinator
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(coord *syncer.Coordinator) *SyncHandler {
	return &SyncHandler{coord: coord}
}

// Pull handles POST /sync/pull. Guests own no remote state, so for them
// the pull is a successful no-op.
func (h *SyncHandler) Pull(c *gin.Context) {
	userID := getUserIDFromContext(c)
	if domain.IsGuest(userID) {
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.coord.PullOnLogin(c.Request.Context(), userID); err != nil {
		abortWithError(c, http.StatusBadGateway, "Sync pull failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}
