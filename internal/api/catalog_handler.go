package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/catalog"
)

// CatalogHandler proxies exercise-catalog lookups.
type CatalogHandler struct {
	catalog catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// Search handles GET /exercises?target=.
func (h *CatalogHandler) Search(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'target' is required")
		return
	}

	exercises, err := h.catalog.Search(c.Request.Context(), target)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Exercise catalog unavailable")
		return
	}
	c.JSON(http.StatusOK, exercises)
}
