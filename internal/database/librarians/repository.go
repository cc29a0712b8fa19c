// Package librarians provides database operations for staff accounts,
// including the login bookkeeping used by the auth service.
package librarians

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/database"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all librarian database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new librarians repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(id uint) error {
	return domainerrors.NotFoundf(domainerrors.ReasonLibrarianNotFound, "librarian with ID %d not found", id)
}

// Create inserts a librarian together with its person profile. The profile is
// written first so a duplicate email surfaces as ALREADY_EXISTS.
func (r *Repository) Create(ctx context.Context, librarian *entities.Librarian) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&librarian.Person).Error; err != nil {
			return err
		}
		librarian.PersonID = librarian.Person.ID
		return tx.Omit("Person").Create(librarian).Error
	})
	return database.ClassifyError(err)
}

// GetByID retrieves a live librarian with its profile.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Librarian, error) {
	var librarian entities.Librarian
	err := r.db.WithContext(ctx).Preload("Person").First(&librarian, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get librarian %d: %w", id, database.ClassifyError(err))
	}
	return &librarian, nil
}

// GetByEmail retrieves a live librarian by profile email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.Librarian, error) {
	var librarian entities.Librarian
	persons := r.db.Model(&entities.Person{}).Select("id").Where("email = ?", email)
	err := r.db.WithContext(ctx).Preload("Person").Where("person_id IN (?)", persons).First(&librarian).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.NotFoundf(domainerrors.ReasonLibrarianNotFound, "librarian with email %s not found", email)
	}
	if err != nil {
		return nil, fmt.Errorf("get librarian by email: %w", database.ClassifyError(err))
	}
	return &librarian, nil
}

// List returns all live librarians ordered by ID.
func (r *Repository) List(ctx context.Context) ([]entities.Librarian, error) {
	librarians := []entities.Librarian{}
	if err := r.db.WithContext(ctx).Preload("Person").Order("id ASC").Find(&librarians).Error; err != nil {
		return nil, fmt.Errorf("list librarians: %w", database.ClassifyError(err))
	}
	return librarians, nil
}

// Count returns the number of live librarians.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Librarian{}).Count(&count).Error
	return count, database.ClassifyError(err)
}

// UpdateProfile writes the librarian's person profile.
func (r *Repository) UpdateProfile(ctx context.Context, librarian *entities.Librarian) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&librarian.Person).
			Select("first_name", "last_name", "surname", "email", "updated_at").
			Updates(&librarian.Person)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound(librarian.ID)
		}
		return tx.Model(librarian).Update("updated_at", time.Now()).Error
	})
	return database.ClassifyError(err)
}

// UpdatePasswordHash replaces the stored credential hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&entities.Librarian{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return database.ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

// RecordLoginSuccess clears failed attempts and stamps the login time.
func (r *Repository) RecordLoginSuccess(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&entities.Librarian{}).Where("id = ?", id).Updates(map[string]any{
		"last_login_at":      at,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
	return database.ClassifyError(err)
}

// RecordLoginFailure stores the failed attempt counter and an optional lock.
func (r *Repository) RecordLoginFailure(ctx context.Context, id uint, failedCount int, lockedUntil *time.Time) error {
	updates := map[string]any{
		"failed_login_count": failedCount,
	}
	if lockedUntil != nil {
		updates["locked_until"] = *lockedUntil
	}
	err := r.db.WithContext(ctx).Model(&entities.Librarian{}).Where("id = ?", id).Updates(updates).Error
	return database.ClassifyError(err)
}

// LockShared takes a shared row lock on a live librarian for the rest of the
// surrounding transaction and reports whether the librarian exists.
func (r *Repository) LockShared(ctx context.Context, id uint) (bool, error) {
	var librarian entities.Librarian
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"}).Select("id").First(&librarian, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, database.ClassifyError(err)
	}
	return true, nil
}

// Delete soft-deletes a librarian and its profile. It is refused while any
// loan the librarian recorded is still open. The row is locked before loans
// are counted; borrows hold a shared lock on it while recording a loan.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var librarian entities.Librarian
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&librarian, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(id)
			}
			return err
		}

		var open int64
		if err := tx.Model(&entities.Loan{}).Where("librarian_id = ? AND returned_at IS NULL", id).Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return domainerrors.Conflict(domainerrors.ReasonHasOpenLoans,
				fmt.Sprintf("librarian with ID %d recorded %d loans that are still open", id, open))
		}

		if err := tx.Delete(&librarian).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Person{}, librarian.PersonID).Error
	})
	return database.ClassifyError(err)
}
