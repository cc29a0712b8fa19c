package circulation

import (
	"context"
	"errors"
	"log"
	"time"

	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

// Ledger is the view of the entity store available inside one unit of work.
type Ledger interface {
	ReaderExists(ctx context.Context, readerID uint) (bool, error)
	GetBook(ctx context.Context, bookID uint) (*entities.Book, error)
	DecreaseAvailableCopies(ctx context.Context, bookID uint) error
	IncreaseAvailableCopies(ctx context.Context, bookID uint) error
	CountOpenLoans(ctx context.Context, readerID uint) (int64, error)
	CreateLoan(ctx context.Context, loan *entities.Loan) error
	FindOpenLoan(ctx context.Context, bookID, readerID uint) (*entities.Loan, error)
	CloseLoan(ctx context.Context, loanID uint, returnedAt time.Time) error
	ListOpenLoans(ctx context.Context, readerID uint) ([]entities.Loan, error)
	ListAllOpenLoans(ctx context.Context) ([]entities.Loan, error)
}

// Store runs units of work against the entity store.
// Transaction commits only when fn returns nil; a lost race is reported as
// ErrTxConflict. View runs read-only work without a transaction.
type Store interface {
	Transaction(ctx context.Context, fn func(Ledger) error) error
	View(ctx context.Context, fn func(Ledger) error) error
}

// Service implements the borrowing workflow.
type Service struct {
	store        Store
	maxOpenLoans int
	now          func() time.Time
}

// NewService creates a circulation service. A non-positive maxOpenLoans
// falls back to DefaultMaxOpenLoans.
func NewService(store Store, maxOpenLoans int) *Service {
	if maxOpenLoans <= 0 {
		maxOpenLoans = DefaultMaxOpenLoans
	}
	return &Service{
		store:        store,
		maxOpenLoans: maxOpenLoans,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// DefaultMaxOpenLoans is the number of books a reader may hold at once.
const DefaultMaxOpenLoans = 3

// SetClock replaces the time source used for loan timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// MaxOpenLoans returns the per-reader limit in effect.
func (s *Service) MaxOpenLoans() int {
	return s.maxOpenLoans
}

// Borrow lends a book to a reader on behalf of a librarian.
// Preconditions are checked in order: the reader exists, the book has a copy
// on the shelf, and the reader is below the open-loan limit. A book that does
// not exist has no copy on the shelf.
func (s *Service) Borrow(ctx context.Context, bookID, readerID, librarianID uint) (*entities.Loan, error) {
	var created *entities.Loan

	err := s.inTransaction(ctx, "borrow", func(l Ledger) error {
		exists, err := l.ReaderExists(ctx, readerID)
		if err != nil {
			return err
		}
		if !exists {
			return readerNotFound(readerID)
		}

		book, err := l.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return bookUnavailable(bookID)
			}
			return err
		}
		if book.AvailableCopies <= 0 {
			return bookUnavailable(bookID)
		}

		open, err := l.CountOpenLoans(ctx, readerID)
		if err != nil {
			return err
		}
		if open >= int64(s.maxOpenLoans) {
			return borrowLimitExceeded(readerID, s.maxOpenLoans)
		}

		if err := l.DecreaseAvailableCopies(ctx, bookID); err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return bookUnavailable(bookID)
			}
			return err
		}

		loan := &entities.Loan{
			BookID:      bookID,
			ReaderID:    readerID,
			LibrarianID: librarianID,
			BorrowedAt:  s.now(),
		}
		if err := l.CreateLoan(ctx, loan); err != nil {
			return err
		}

		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Circulation: book %d borrowed by reader %d (loan %d, librarian %d)", bookID, readerID, created.ID, librarianID)
	return created, nil
}

// Return closes the open loan of a book held by a reader and puts the copy
// back on the shelf.
func (s *Service) Return(ctx context.Context, bookID, readerID uint) (*entities.Loan, error) {
	var closed *entities.Loan

	err := s.inTransaction(ctx, "return", func(l Ledger) error {
		loan, err := l.FindOpenLoan(ctx, bookID, readerID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return noActiveLoan(bookID, readerID)
			}
			return err
		}

		returnedAt := s.now()
		if err := l.CloseLoan(ctx, loan.ID, returnedAt); err != nil {
			return err
		}
		if err := l.IncreaseAvailableCopies(ctx, bookID); err != nil {
			return err
		}

		loan.ReturnedAt = &returnedAt
		closed = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Circulation: book %d returned by reader %d (loan %d)", bookID, readerID, closed.ID)
	return closed, nil
}

// ActiveLoans lists the open loans of one reader, oldest first.
func (s *Service) ActiveLoans(ctx context.Context, readerID uint) ([]entities.Loan, error) {
	var loans []entities.Loan

	err := s.store.View(ctx, func(l Ledger) error {
		exists, err := l.ReaderExists(ctx, readerID)
		if err != nil {
			return err
		}
		if !exists {
			return readerNotFound(readerID)
		}

		loans, err = l.ListOpenLoans(ctx, readerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// AllActiveLoans lists every open loan in the library, oldest first.
func (s *Service) AllActiveLoans(ctx context.Context) ([]entities.Loan, error) {
	var loans []entities.Loan

	err := s.store.View(ctx, func(l Ledger) error {
		var err error
		loans, err = l.ListAllOpenLoans(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// inTransaction runs fn in a store transaction and retries it once when it
// loses a race with a concurrent writer.
func (s *Service) inTransaction(ctx context.Context, op string, fn func(Ledger) error) error {
	err := s.store.Transaction(ctx, fn)
	if err == nil || !errors.Is(err, ErrTxConflict) || ctx.Err() != nil {
		return err
	}

	log.Printf("Circulation: %s hit a transaction conflict, retrying once: %v", op, err)
	return s.store.Transaction(ctx, fn)
}
