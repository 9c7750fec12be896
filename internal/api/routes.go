package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/catalog"
	"github.com/casdy/PlanR-sub000/internal/repository"
	"github.com/casdy/PlanR-sub000/internal/service"
	"github.com/casdy/PlanR-sub000/internal/session"
	"github.com/casdy/PlanR-sub000/internal/syncer"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	JWTSecret string

	Engine      *session.Engine
	Programs    service.ProgramService
	Voice       service.VoiceService
	Badges      service.BadgeService
	Catalog     catalog.Catalog
	Logs        repository.LogRepository
	Progress    repository.ProgressRepository
	Preferences repository.PreferenceRepository
	Sync        *syncer.Coordinator
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	sessionHandler := NewSessionHandler(deps.Engine, deps.Voice)
	programHandler := NewProgramHandler(deps.Programs)
	logHandler := NewLogHandler(deps.Logs, deps.Sync)
	progressHandler := NewProgressHandler(deps.Progress)
	preferenceHandler := NewPreferenceHandler(deps.Preferences)
	catalogHandler := NewCatalogHandler(deps.Catalog)
	badgeHandler := NewBadgeHandler(deps.Badges)
	syncHandler := NewSyncHandler(deps.Sync)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Every route resolves an identity; there is no unauthenticated tier
	// because guests are first-class.
	apiV1 := router.Group("/api/v1")
	apiV1.Use(IdentityMiddleware(deps.JWTSecret))
	{
		// --- Session Routes ---
		sessions := apiV1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Start)
			sessions.POST("/resume", sessionHandler.Resume)

			active := sessions.Group("/active")
			{
				active.GET("", sessionHandler.Active)
				active.POST("/pause", sessionHandler.Pause)
				active.POST("/cancel", sessionHandler.Cancel)
				active.POST("/advance", sessionHandler.Advance)
				active.POST("/retreat", sessionHandler.Retreat)
				active.POST("/complete", sessionHandler.Complete)
				active.POST("/sets", sessionHandler.LogSet)
				active.POST("/sets/voice", sessionHandler.VoiceSet)
				active.POST("/finish", sessionHandler.Finish)
				active.POST("/intensity", sessionHandler.Intensity)
				active.POST("/recovery", sessionHandler.Recovery)
			}
		}

		// --- Program Routes ---
		programs := apiV1.Group("/programs")
		{
			programs.GET("", programHandler.List)
			programs.POST("", programHandler.Create)
			programs.POST("/generate", programHandler.Generate)
			programs.GET("/:id", programHandler.Get)
			programs.PUT("/:id", programHandler.Update)
			programs.DELETE("/:id", programHandler.Delete)
		}

		// --- History and Aggregates ---
		apiV1.GET("/logs", logHandler.List)
		apiV1.DELETE("/logs/:id", logHandler.Delete)
		apiV1.GET("/stats", logHandler.Stats)

		// --- Plan-view Progress ---
		apiV1.POST("/progress/toggle", progressHandler.Toggle)
		apiV1.GET("/progress", progressHandler.List)

		// --- Preferences ---
		apiV1.GET("/preferences", preferenceHandler.List)
		apiV1.PUT("/preferences", preferenceHandler.Set)

		// --- Exercise Catalog ---
		apiV1.GET("/exercises", catalogHandler.Search)

		// --- Badges ---
		apiV1.POST("/badges", badgeHandler.Create)

		// --- Sync ---
		apiV1.POST("/sync/pull", syncHandler.Pull)
	}
}
