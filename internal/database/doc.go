// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup for SQLite and PostgreSQL, migrations
//	├── errors.go        # Driver error classification into domain errors
//	├── books/           # Catalogue entries and the available-copies counter
//	├── readers/         # Library members and their profiles
//	├── librarians/      # Staff accounts, credentials and lockout state
//	├── loans/           # Borrowing records
//	├── ledger/          # Transactional store for the borrowing workflow
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./librarian.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	loansRepo := loans.NewRepository(db.DB)
//
//	book, err := booksRepo.GetByID(ctx, 123)
//	open, err := loansRepo.ListOpenByReader(ctx, readerID)
//
// Repositories accept any *gorm.DB, including a transaction handle, so the
// same code serves single statements and multi-step units of work.
//
// # Errors
//
// Repositories return domain errors from internal/errors. Missing rows become
// NOT_FOUND with a reason naming the entity; constraint violations and lock
// contention go through ClassifyError.
//
// # Concurrency
//
// SQLite connections are opened with BEGIN IMMEDIATE transactions and a busy
// timeout, so write transactions queue instead of interleaving. Counter and
// loan updates are conditional and check RowsAffected, which keeps them
// correct on PostgreSQL under READ COMMITTED as well.
package database
