// Package readers provides database operations for library members.
package readers

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

// Repository handles all reader database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new readers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(id uint) error {
	return domainerrors.NotFoundf(domainerrors.ReasonReaderNotFound, "reader with ID %d not found", id)
}

// Create inserts a reader together with its person profile. The profile is
// written first so a duplicate email surfaces as ALREADY_EXISTS.
func (r *Repository) Create(ctx context.Context, reader *entities.Reader) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reader.Person).Error; err != nil {
			return err
		}
		reader.PersonID = reader.Person.ID
		return tx.Omit("Person").Create(reader).Error
	})
	return database.ClassifyError(err)
}

// GetByID retrieves a live reader with its profile.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Reader, error) {
	var reader entities.Reader
	err := r.db.WithContext(ctx).Preload("Person").First(&reader, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get reader %d: %w", id, database.ClassifyError(err))
	}
	return &reader, nil
}

// GetByEmail retrieves a live reader by profile email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.Reader, error) {
	var reader entities.Reader
	persons := r.db.Model(&entities.Person{}).Select("id").Where("email = ?", email)
	err := r.db.WithContext(ctx).Preload("Person").Where("person_id IN (?)", persons).First(&reader).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.NotFoundf(domainerrors.ReasonReaderNotFound, "reader with email %s not found", email)
	}
	if err != nil {
		return nil, fmt.Errorf("get reader by email: %w", database.ClassifyError(err))
	}
	return &reader, nil
}

// List returns all live readers ordered by ID.
func (r *Repository) List(ctx context.Context) ([]entities.Reader, error) {
	readers := []entities.Reader{}
	if err := r.db.WithContext(ctx).Preload("Person").Order("id ASC").Find(&readers).Error; err != nil {
		return nil, fmt.Errorf("list readers: %w", database.ClassifyError(err))
	}
	return readers, nil
}

// Exists reports whether a live reader with the given ID exists.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Reader{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, database.ClassifyError(err)
	}
	return count > 0, nil
}

// Lock takes a row lock on the reader for the rest of the surrounding
// transaction. Only meaningful on drivers with SELECT ... FOR UPDATE.
func (r *Repository) Lock(ctx context.Context, id uint) (bool, error) {
	var reader entities.Reader
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&reader, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, database.ClassifyError(err)
	}
	return true, nil
}

// UpdateProfile writes the reader's person profile.
func (r *Repository) UpdateProfile(ctx context.Context, reader *entities.Reader) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&reader.Person).
			Select("first_name", "last_name", "surname", "email", "updated_at").
			Updates(&reader.Person)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound(reader.ID)
		}
		return tx.Model(reader).Update("updated_at", time.Now()).Error
	})
	return database.ClassifyError(err)
}

// Delete soft-deletes a reader and its profile. It is refused while the
// reader holds any unreturned book. The reader row is locked before loans
// are counted, the same lock a borrow takes.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reader entities.Reader
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reader, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(id)
			}
			return err
		}

		var open int64
		if err := tx.Model(&entities.Loan{}).Where("reader_id = ? AND returned_at IS NULL", id).Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return domainerrors.Conflict(domainerrors.ReasonHasOpenLoans,
				fmt.Sprintf("reader with ID %d has %d unreturned books", id, open))
		}

		if err := tx.Delete(&reader).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Person{}, reader.PersonID).Error
	})
	return database.ClassifyError(err)
}
