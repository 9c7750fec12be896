package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casdy/PlanR-sub000/internal/api"
	"github.com/casdy/PlanR-sub000/internal/assist"
	"github.com/casdy/PlanR-sub000/internal/catalog"
	"github.com/casdy/PlanR-sub000/internal/config"
	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository/sqlite"
	"github.com/casdy/PlanR-sub000/internal/service"
	"github.com/casdy/PlanR-sub000/internal/session"
	"github.com/casdy/PlanR-sub000/internal/storage"
	"github.com/casdy/PlanR-sub000/internal/syncer"
	"github.com/casdy/PlanR-sub000/internal/syncer/mongo"
)

func main() {
	log.Println("Starting PlanR Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Local Database ---
	// SQLite is the source of truth; every read and write lands here first.
	dbPath := cfg.Local.DBPath
	if dbPath == "" {
		dbPath, err = sqlite.DefaultDBPath()
		if err != nil {
			log.Fatalf("FATAL: Could not resolve database path: %v", err)
		}
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatalf("FATAL: Could not open local database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close local database: %v", err)
		}
	}()
	log.Printf("Local database ready at %s", dbPath)

	// --- Repositories ---
	programRepo := sqlite.NewProgramRepository(db)
	logRepo := sqlite.NewLogRepository(db)
	progressRepo := sqlite.NewProgressRepository(db)
	preferenceRepo := sqlite.NewPreferenceRepository(db)

	// --- Remote Mirror ---
	var mirror syncer.Mirror = syncer.Noop{}
	if cfg.Remote.Enabled {
		dbClient, err := mongo.ConnectDB(cfg.Remote.URI)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Println("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
			}
		}()
		remoteDB := dbClient.Database(cfg.Remote.Name)
		mirror = mongo.NewMirror(remoteDB)
		log.Println("Remote mirror connected.")

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			if err := mongo.EnsureMirrorIndexes(ctx, remoteDB); err != nil {
				log.Printf("ERROR: Failed to ensure mirror indexes: %v", err)
			}
		}()
	} else {
		log.Println("Remote sync disabled, running offline.")
	}

	// --- Sync Coordinator ---
	logger := log.Default()
	coordinator := syncer.NewCoordinator(mirror, programRepo, logRepo, logger, cfg.Sync.LogPullLimit)

	// --- Session Engine ---
	engine := session.NewEngine(programRepo, logRepo, preferenceRepo, coordinator, logger, cfg.Session.TickInterval)

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Outbound Collaborators ---
	assistClient := assist.NewClient(cfg.Assist.BaseURL, cfg.Assist.APIKey, cfg.Assist.Quota)
	exerciseCatalog := catalog.NewHTTPCatalog(cfg.Catalog.BaseURL, cfg.Catalog.CacheTTL)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	programService := service.NewProgramService(programRepo, coordinator, assistClient, exerciseCatalog, logger)
	voiceService := service.NewVoiceService(assistClient, engine)
	badgeService := service.NewBadgeService(assistClient, fileStorage)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, api.Deps{
		JWTSecret:   cfg.JWT.Secret,
		Engine:      engine,
		Programs:    programService,
		Voice:       voiceService,
		Badges:      badgeService,
		Catalog:     exerciseCatalog,
		Logs:        logRepo,
		Progress:    progressRepo,
		Preferences: preferenceRepo,
		Sync:        coordinator,
	})

	// --- Start HTTP Server ---
	// Routine generation and voice transcription proxy the assist service,
	// which can take tens of seconds per call.
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	// A session still running at shutdown is checkpointed as paused so it
	// can be resumed after restart.
	if engine.Snapshot().Status == domain.StatusRunning {
		if err := engine.Pause(ctxShutdown); err != nil {
			log.Printf("ERROR: Failed to checkpoint active session: %v", err)
		} else {
			log.Println("Active session checkpointed.")
		}
	}
	engine.Close()

	// Let in-flight replica pushes drain before the connections close.
	coordinator.Wait()

	log.Println("Server exiting.")
}
