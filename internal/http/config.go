package http

import (
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	Circulation Circulation
	Books       BookCatalog
	Readers     ReaderCatalog
	Librarians  LibrarianCatalog

	// Audit trail (optional)
	Auditor  Auditor
	AuditLog AuditLog

	// Authentication
	AuthService    *auth.Service
	AuthController *auth.AuthController
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// Task queue (optional)
	TaskQueue          TaskQueue
	AuditRetentionDays int

	// Application info
	Version string
}
