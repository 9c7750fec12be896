package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/service"
)

// ProgramHandler holds the program service dependency.
type ProgramHandler struct {
	programService service.ProgramService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- DTOs ---

// ProgramRequest is the JSON body for creating or updating a program. Day
// and exercise ids may be omitted; missing ones are allocated on save.
type ProgramRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	IsPublic    bool         `json:"isPublic"`
	Days        []domain.Day `json:"days"`
}

// GenerateProgramRequest carries the natural-language training goal.
type GenerateProgramRequest struct {
	Goal string `json:"goal" binding:"required"`
}

func (r *ProgramRequest) toDomain(id string) *domain.Program {
	return &domain.Program{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Icon:        r.Icon,
		Color:       r.Color,
		IsPublic:    r.IsPublic,
		Days:        r.Days,
	}
}

// --- Handler Methods ---

// List handles GET /programs.
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.programService.GetPrograms(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load programs")
		return
	}
	c.JSON(http.StatusOK, programs)
}

// Get handles GET /programs/:id.
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.programService.GetProgram(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleProgramError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// Create handles POST /programs.
func (h *ProgramHandler) Create(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	saved, err := h.programService.SaveProgram(c.Request.Context(), getUserIDFromContext(c), req.toDomain(""))
	if err != nil {
		handleProgramError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Update handles PUT /programs/:id.
func (h *ProgramHandler) Update(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id := c.Param("id")
	if _, err := h.programService.GetProgram(c.Request.Context(), id); err != nil {
		handleProgramError(c, err)
		return
	}
	saved, err := h.programService.SaveProgram(c.Request.Context(), getUserIDFromContext(c), req.toDomain(id))
	if err != nil {
		handleProgramError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Delete handles DELETE /programs/:id.
func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.programService.DeleteProgram(c.Request.Context(), getUserIDFromContext(c), c.Param("id")); err != nil {
		handleProgramError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Generate handles POST /programs/generate.
func (h *ProgramHandler) Generate(c *gin.Context) {
	var req GenerateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	program, err := h.programService.Generate(c.Request.Context(), getUserIDFromContext(c), req.Goal)
	if err != nil {
		if errors.Is(err, service.ErrGenerationFailed) {
			abortWithError(c, http.StatusBadGateway, "Routine generation failed")
			return
		}
		abortWithError(c, http.StatusBadGateway, "Routine generation failed: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, program)
}

// handleProgramError maps service errors onto HTTP statuses.
func handleProgramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, "Program not found")
	case errors.Is(err, service.ErrProgramUntitled), errors.Is(err, service.ErrDuplicateDayIDs):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Program operation failed")
	}
}
