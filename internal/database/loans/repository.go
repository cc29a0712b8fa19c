// Package loans provides database operations for borrowing records.
//
// A loan is open while returned_at is NULL. Closing is a conditional update,
// so a loan can move from open to closed only once.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) open(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entities.Loan{}).Where("returned_at IS NULL")
}

// Create inserts a new loan.
func (r *Repository) Create(ctx context.Context, loan *entities.Loan) error {
	if err := r.db.WithContext(ctx).Omit("Book", "Reader", "Librarian").Create(loan).Error; err != nil {
		return database.ClassifyError(err)
	}
	return nil
}

// GetByID retrieves a loan, open or closed.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.WithContext(ctx).First(&loan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.NotFoundf(domainerrors.ReasonNoActiveLoan, "loan with ID %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get loan %d: %w", id, database.ClassifyError(err))
	}
	return &loan, nil
}

// FindOpen returns the open loan of a book held by a reader.
func (r *Repository) FindOpen(ctx context.Context, bookID, readerID uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.open(ctx).Where("book_id = ? AND reader_id = ?", bookID, readerID).
		Order("borrowed_at ASC").First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.NotFoundf(domainerrors.ReasonNoActiveLoan,
			"no active loan of book %d for reader %d", bookID, readerID)
	}
	if err != nil {
		return nil, fmt.Errorf("find open loan: %w", database.ClassifyError(err))
	}
	return &loan, nil
}

// Close stamps returned_at on a loan that is still open.
func (r *Repository) Close(ctx context.Context, id uint, returnedAt time.Time) error {
	result := r.open(ctx).Where("id = ?", id).Update("returned_at", returnedAt)
	if result.Error != nil {
		return database.ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.Conflict(domainerrors.ReasonNoActiveLoan,
			fmt.Sprintf("loan with ID %d is already closed", id))
	}
	return nil
}

// CountOpenByReader returns how many books a reader currently holds.
func (r *Repository) CountOpenByReader(ctx context.Context, readerID uint) (int64, error) {
	var count int64
	if err := r.open(ctx).Where("reader_id = ?", readerID).Count(&count).Error; err != nil {
		return 0, database.ClassifyError(err)
	}
	return count, nil
}

// CountOpenByBook returns how many copies of a book are out.
func (r *Repository) CountOpenByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	if err := r.open(ctx).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		return 0, database.ClassifyError(err)
	}
	return count, nil
}

// ListOpenByReader returns a reader's open loans, oldest first.
func (r *Repository) ListOpenByReader(ctx context.Context, readerID uint) ([]entities.Loan, error) {
	loans := []entities.Loan{}
	err := r.open(ctx).Where("reader_id = ?", readerID).Order("borrowed_at ASC, id ASC").Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("list open loans for reader %d: %w", readerID, database.ClassifyError(err))
	}
	return loans, nil
}

// ListOpen returns every open loan in the system, oldest first.
func (r *Repository) ListOpen(ctx context.Context) ([]entities.Loan, error) {
	loans := []entities.Loan{}
	if err := r.open(ctx).Order("borrowed_at ASC, id ASC").Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("list open loans: %w", database.ClassifyError(err))
	}
	return loans, nil
}

// ListByReader returns a reader's full borrowing history, newest first.
func (r *Repository) ListByReader(ctx context.Context, readerID uint) ([]entities.Loan, error) {
	loans := []entities.Loan{}
	err := r.db.WithContext(ctx).Where("reader_id = ?", readerID).Order("borrowed_at DESC, id DESC").Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("list loans for reader %d: %w", readerID, database.ClassifyError(err))
	}
	return loans, nil
}
