package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/circulation"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/ledger"
	"github.com/mrlokans/librarian/internal/database/librarians"
	"github.com/mrlokans/librarian/internal/database/readers"
	"github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// =============================================================================
// Borrowing Workflow
// =============================================================================

var _ circulation.Store = (*ledger.Store)(nil)
var _ http.Circulation = (*circulation.Service)(nil)

// =============================================================================
// Catalogue
// =============================================================================

var _ catalog.BookStore = (*books.Repository)(nil)
var _ catalog.ReaderStore = (*readers.Repository)(nil)
var _ catalog.LibrarianStore = (*librarians.Repository)(nil)
var _ catalog.PasswordHasher = (*auth.Service)(nil)

var _ http.BookCatalog = (*catalog.BookService)(nil)
var _ http.ReaderCatalog = (*catalog.ReaderService)(nil)
var _ http.LibrarianCatalog = (*catalog.LibrarianService)(nil)

// =============================================================================
// Identity & Access
// =============================================================================

var _ auth.LibrarianRepository = (*librarians.Repository)(nil)

// =============================================================================
// Audit Trail & Background Work
// =============================================================================

var _ http.Auditor = (*audit.Service)(nil)
var _ http.AuditLog = (*audit.Service)(nil)
var _ auth.Auditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
