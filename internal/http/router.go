package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(31536000))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 && cfg.SessionManager != nil {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.SessionManager.Cookie.Name, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthService != nil {
		router.Use(auth.NewMiddleware(cfg.AuthService, cfg.SessionManager).Handler())
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version, cfg.TaskQueue != nil)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	api := router.Group("/api")

	// Borrowing endpoints
	borrowings := NewBorrowingsController(cfg.Circulation, cfg.Auditor)
	api.POST("/borrowings/borrow", borrowings.Borrow)
	api.PATCH("/borrowings/return", borrowings.Return)
	api.GET("/borrowings/reader/:reader_id", borrowings.ReaderLoans)
	api.GET("/borrowings", borrowings.AllLoans)

	// Catalogue endpoints
	if cfg.Books != nil {
		books := NewBooksController(cfg.Books, cfg.Auditor)
		api.POST("/books", books.Create)
		api.PUT("/books/:id", books.Update)
		api.PATCH("/books/:id", books.Update)
		api.DELETE("/books/:id", books.Delete)
		api.GET("/books/by-id/:id", books.Get)
		api.GET("/books", books.List)
	}

	if cfg.Readers != nil {
		readers := NewReadersController(cfg.Readers, cfg.Auditor)
		api.POST("/readers", readers.Create)
		api.PUT("/readers/:id", readers.Update)
		api.PATCH("/readers/:id", readers.Update)
		api.DELETE("/readers/:id", readers.Delete)
		api.GET("/readers/by-id/:id", readers.Get)
		api.GET("/readers/by-email/:email", readers.GetByEmail)
		api.GET("/readers", readers.List)
	}

	if cfg.Librarians != nil {
		librarians := NewLibrariansController(cfg.Librarians, cfg.Auditor)
		api.POST("/librarians", librarians.Create)
		api.PUT("/librarians/:id", librarians.Update)
		api.PATCH("/librarians/:id", librarians.Update)
		api.DELETE("/librarians/:id", librarians.Delete)
		api.GET("/librarians/by-id/:id", librarians.Get)
		api.GET("/librarians/by-email/:email", librarians.GetByEmail)
		api.GET("/librarians", librarians.List)
	}

	// Audit trail endpoints
	if cfg.AuditLog != nil {
		auditController := NewAuditController(cfg.AuditLog)
		api.GET("/audit", auditController.GetAuditEvents)
		api.GET("/audit/types", auditController.GetEventTypes)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
