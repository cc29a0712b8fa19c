// Package books provides database operations for the book catalog and its
// per-book availability counter.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(ctx, 42)
package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/database"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(id uint) error {
	return domainerrors.NotFoundf(domainerrors.ReasonBookNotFound, "book with ID %d not found", id)
}

// Create inserts a new book.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return database.ClassifyError(err)
	}
	return nil
}

// GetByID retrieves a live book by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, database.ClassifyError(err))
	}
	return &book, nil
}

// GetByISBN retrieves a live book by its ISBN.
func (r *Repository) GetByISBN(ctx context.Context, isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.NotFoundf(domainerrors.ReasonBookNotFound, "book with ISBN %s not found", isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("get book by isbn: %w", database.ClassifyError(err))
	}
	return &book, nil
}

// List returns all live books ordered by ID.
func (r *Repository) List(ctx context.Context) ([]entities.Book, error) {
	books := []entities.Book{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", database.ClassifyError(err))
	}
	return books, nil
}

// Update writes the given columns of a live book and returns the stored row.
// Only the listed columns are written and the row is locked while it happens,
// so a counter change made by a concurrent borrow or return is kept.
func (r *Repository) Update(ctx context.Context, id uint, changes map[string]any) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBook(tx, id, &book); err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(&book).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.First(&book, id).Error
	})
	if err != nil {
		return nil, database.ClassifyError(err)
	}
	return &book, nil
}

// Delete soft-deletes a book. It is refused while any loan of the book is open.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := lockBook(tx, id, &book); err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&entities.Loan{}).Where("book_id = ? AND returned_at IS NULL", id).Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return domainerrors.Conflict(domainerrors.ReasonHasOpenLoans,
				fmt.Sprintf("book with ID %d has %d unreturned copies", id, open))
		}

		return tx.Delete(&book).Error
	})
	return database.ClassifyError(err)
}

// lockBook loads a live book FOR UPDATE. Borrows and returns take the same
// row lock through their counter updates. SQLite ignores the clause.
func lockBook(tx *gorm.DB, id uint, book *entities.Book) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(id)
	}
	return err
}

// DecreaseAvailableCopies takes one copy off the shelf. The update is
// conditional, so the counter can never drop below zero even when two
// transactions race past an earlier availability check.
func (r *Repository) DecreaseAvailableCopies(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ? AND available_copies > 0", id).
		Update("available_copies", gorm.Expr("available_copies - 1"))
	if result.Error != nil {
		return database.ClassifyError(result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domainerrors.Conflict(domainerrors.ReasonNoCopiesAvailable,
		fmt.Sprintf("book with ID %d has no copies available", id))
}

// IncreaseAvailableCopies puts one copy back on the shelf.
func (r *Repository) IncreaseAvailableCopies(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", id).
		Update("available_copies", gorm.Expr("available_copies + 1"))
	if result.Error != nil {
		return database.ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}
