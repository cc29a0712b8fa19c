// Package ledger binds the book, reader and loan repositories into the
// units of work the borrowing workflow runs in.
package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/circulation"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/librarians"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/readers"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

var _ circulation.Store = (*Store)(nil)

// Store runs circulation work against the relational store.
//
// On SQLite every write transaction begins IMMEDIATE, which serialises
// writers for the whole transaction. On PostgreSQL the reader row is locked
// FOR UPDATE at the start of the transaction, which serialises work per
// reader; the conditional counter and loan updates cover the per-book side,
// and the recording librarian is held FOR SHARE while the loan is written.
// Catalogue deletes lock the same rows before counting open loans.
type Store struct {
	db       *gorm.DB
	lockRows bool
}

// NewStore creates a ledger store over an open database.
func NewStore(db *database.Database) *Store {
	return &Store{
		db:       db.DB,
		lockRows: db.Driver == config.DatabaseDriverPostgres,
	}
}

// Transaction runs fn in a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(circulation.Ledger) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newLedger(tx, s.lockRows))
	})
	return database.ClassifyError(err)
}

// View runs fn outside a transaction.
func (s *Store) View(ctx context.Context, fn func(circulation.Ledger) error) error {
	return database.ClassifyError(fn(newLedger(s.db, false)))
}

type ledger struct {
	books      *books.Repository
	readers    *readers.Repository
	librarians *librarians.Repository
	loans      *loans.Repository
	lockRows   bool
}

func newLedger(db *gorm.DB, lockRows bool) *ledger {
	return &ledger{
		books:      books.NewRepository(db),
		readers:    readers.NewRepository(db),
		librarians: librarians.NewRepository(db),
		loans:      loans.NewRepository(db),
		lockRows:   lockRows,
	}
}

func (l *ledger) ReaderExists(ctx context.Context, readerID uint) (bool, error) {
	if l.lockRows {
		return l.readers.Lock(ctx, readerID)
	}
	return l.readers.Exists(ctx, readerID)
}

func (l *ledger) GetBook(ctx context.Context, bookID uint) (*entities.Book, error) {
	return l.books.GetByID(ctx, bookID)
}

func (l *ledger) DecreaseAvailableCopies(ctx context.Context, bookID uint) error {
	return l.books.DecreaseAvailableCopies(ctx, bookID)
}

func (l *ledger) IncreaseAvailableCopies(ctx context.Context, bookID uint) error {
	return l.books.IncreaseAvailableCopies(ctx, bookID)
}

func (l *ledger) CountOpenLoans(ctx context.Context, readerID uint) (int64, error) {
	return l.loans.CountOpenByReader(ctx, readerID)
}

func (l *ledger) CreateLoan(ctx context.Context, loan *entities.Loan) error {
	if l.lockRows {
		exists, err := l.librarians.LockShared(ctx, loan.LibrarianID)
		if err != nil {
			return err
		}
		if !exists {
			return domainerrors.NotFoundf(domainerrors.ReasonLibrarianNotFound,
				"librarian with ID %d not found", loan.LibrarianID)
		}
	}
	return l.loans.Create(ctx, loan)
}

func (l *ledger) FindOpenLoan(ctx context.Context, bookID, readerID uint) (*entities.Loan, error) {
	return l.loans.FindOpen(ctx, bookID, readerID)
}

func (l *ledger) CloseLoan(ctx context.Context, loanID uint, returnedAt time.Time) error {
	return l.loans.Close(ctx, loanID, returnedAt)
}

func (l *ledger) ListOpenLoans(ctx context.Context, readerID uint) ([]entities.Loan, error) {
	return l.loans.ListOpenByReader(ctx, readerID)
}

func (l *ledger) ListAllOpenLoans(ctx context.Context) ([]entities.Loan, error) {
	return l.loans.ListOpen(ctx)
}
