package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

// This file consolidates the service interfaces used by HTTP controllers.
// Each controller depends only on the operations it calls.

// Circulation runs the borrowing workflow.
type Circulation interface {
	Borrow(ctx context.Context, bookID, readerID, librarianID uint) (*entities.Loan, error)
	Return(ctx context.Context, bookID, readerID uint) (*entities.Loan, error)
	ActiveLoans(ctx context.Context, readerID uint) ([]entities.Loan, error)
	AllActiveLoans(ctx context.Context) ([]entities.Loan, error)
}

// BookCatalog manages books.
type BookCatalog interface {
	Create(ctx context.Context, input catalog.BookInput) (*entities.Book, error)
	Update(ctx context.Context, id uint, input catalog.BookUpdate) (*entities.Book, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*entities.Book, error)
	List(ctx context.Context) ([]entities.Book, error)
}

// ReaderCatalog manages readers.
type ReaderCatalog interface {
	Create(ctx context.Context, input catalog.ReaderInput) (*entities.Reader, error)
	Update(ctx context.Context, id uint, input catalog.ReaderUpdate) (*entities.Reader, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*entities.Reader, error)
	GetByEmail(ctx context.Context, email string) (*entities.Reader, error)
	List(ctx context.Context) ([]entities.Reader, error)
}

// LibrarianCatalog manages librarian accounts. Update and Delete are only
// allowed on the actor's own account.
type LibrarianCatalog interface {
	Create(ctx context.Context, input catalog.LibrarianInput) (*entities.Librarian, error)
	Update(ctx context.Context, actorID, id uint, input catalog.LibrarianUpdate) (*entities.Librarian, error)
	Delete(ctx context.Context, actorID, id uint) error
	Get(ctx context.Context, id uint) (*entities.Librarian, error)
	GetByEmail(ctx context.Context, email string) (*entities.Librarian, error)
	List(ctx context.Context) ([]entities.Librarian, error)
}

// Auditor records activity in the audit trail without blocking the request.
type Auditor interface {
	LogBorrow(librarianID, bookID, readerID uint, loan *entities.Loan, err error)
	LogReturn(librarianID, bookID, readerID uint, loan *entities.Loan, err error)
	LogCreate(librarianID uint, entityType string, entityID uint, entityName string)
	LogUpdate(librarianID uint, entityType string, entityID uint, entityName string)
	LogDelete(librarianID uint, entityType string, entityID uint, entityName string)
}

// AuditLog reads the audit trail.
type AuditLog interface {
	GetEvents(ctx context.Context, filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// noopAuditor is used when no audit trail is configured.
type noopAuditor struct{}

func (noopAuditor) LogBorrow(uint, uint, uint, *entities.Loan, error) {}
func (noopAuditor) LogReturn(uint, uint, uint, *entities.Loan, error) {}
func (noopAuditor) LogCreate(uint, string, uint, string)              {}
func (noopAuditor) LogUpdate(uint, string, uint, string)              {}
func (noopAuditor) LogDelete(uint, string, uint, string)              {}
