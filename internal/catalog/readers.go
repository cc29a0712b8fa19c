package catalog

import (
	"context"
	"log"
	"strings"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/validation"
)

// ReaderService manages library members.
type ReaderService struct {
	store     ReaderStore
	validator *validation.Validator
}

// NewReaderService creates a ReaderService.
func NewReaderService(store ReaderStore, validator *validation.Validator) *ReaderService {
	return &ReaderService{store: store, validator: validator}
}

// Create registers a reader.
func (s *ReaderService) Create(ctx context.Context, input ReaderInput) (*entities.Reader, error) {
	input.Person = input.Person.normalized()
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	reader := &entities.Reader{Person: input.Person.toEntity()}
	if err := s.store.Create(ctx, reader); err != nil {
		return nil, err
	}

	log.Printf("Catalog: registered reader %d", reader.ID)
	return reader, nil
}

// Update changes the profile of an existing reader.
func (s *ReaderService) Update(ctx context.Context, id uint, input ReaderUpdate) (*entities.Reader, error) {
	if input.Person != nil {
		normalized := input.Person.normalized()
		input.Person = &normalized
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	reader, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Person == nil {
		return reader, nil
	}

	input.Person.applyTo(&reader.Person)
	if err := s.store.UpdateProfile(ctx, reader); err != nil {
		return nil, err
	}
	return reader, nil
}

// Delete removes a reader who holds no books.
func (s *ReaderService) Delete(ctx context.Context, id uint) error {
	return s.store.Delete(ctx, id)
}

// Get returns a reader by ID.
func (s *ReaderService) Get(ctx context.Context, id uint) (*entities.Reader, error) {
	return s.store.GetByID(ctx, id)
}

// GetByEmail returns the reader with the given email.
func (s *ReaderService) GetByEmail(ctx context.Context, email string) (*entities.Reader, error) {
	return s.store.GetByEmail(ctx, strings.TrimSpace(email))
}

// List returns every reader.
func (s *ReaderService) List(ctx context.Context) ([]entities.Reader, error) {
	return s.store.List(ctx)
}
