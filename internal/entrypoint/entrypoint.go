package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/circulation"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditrepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/ledger"
	"github.com/mrlokans/librarian/internal/database/librarians"
	"github.com/mrlokans/librarian/internal/database/readers"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
	"github.com/mrlokans/librarian/internal/validation"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// In-flight requests are drained, now stop background work
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Librarian v%s", version)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	readerRepo := readers.NewRepository(db.DB)
	librarianRepo := librarians.NewRepository(db.DB)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	// Authentication
	tokens, err := auth.NewTokenService(cfg.Auth.TokenKey, cfg.Auth.TokenExpiry)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	authService := auth.NewService(librarianRepo, tokens, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, db.Driver, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	csrfSecret, err := loadCSRFSecret(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}

	authController := auth.NewAuthController(authService, sessionManager, auditService, cfg.Auth)

	if count, err := librarianRepo.Count(context.Background()); err == nil && count == 0 {
		log.Printf("No librarians found. Create one with POST /api/librarians or the create-librarian command.")
	}

	// Domain services
	v := validation.New()
	circulationService := circulation.NewService(ledger.NewStore(db), cfg.Loans.MaxOpenPerReader)
	log.Printf("Borrowing limit: %d open loans per reader", circulationService.MaxOpenLoans())

	routerCfg := http_controllers.RouterConfig{
		Database:           db,
		Circulation:        circulationService,
		Books:              catalog.NewBookService(bookRepo, v),
		Readers:            catalog.NewReaderService(readerRepo, v),
		Librarians:         catalog.NewLibrarianService(librarianRepo, authService, v),
		Auditor:            auditService,
		AuditLog:           auditService,
		AuthService:        authService,
		AuthController:     authController,
		SessionManager:     sessionManager,
		CSRFSecret:         csrfSecret,
		SecureCookies:      cfg.Auth.SecureCookies,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		Version:            version,
	}

	// Initialize task queue and the audit cleanup schedule if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasksDBPath(cfg), cfg.Tasks)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditService, taskClient.TaskTimeout()))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
		if err := cleanupScheduler.Start(taskCtx); err != nil {
			log.Printf("WARNING: audit cleanup schedule not started: %v", err)
		}

		routerCfg.TaskQueue = taskClient
	} else {
		log.Printf("Task queue disabled, audit events will not be cleaned up automatically")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		authController.Stop()
		auditService.Flush()
	}

	Serve(router, cfg, onShutdown)
}

// loadCSRFSecret decodes a hex secret, falls back to the raw bytes, or
// generates a fresh one when none is configured.
func loadCSRFSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

// tasksDBPath places the task queue next to the SQLite database, or in the
// working directory when the main store is PostgreSQL.
func tasksDBPath(cfg *config.Config) string {
	if cfg.Database.Driver == config.DatabaseDriverPostgres {
		return config.DefaultDatabasePath
	}
	return cfg.Database.Path
}
