package catalog

import (
	"context"
	"log"
	"strings"

	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/validation"
)

// ErrNotOwnAccount is returned when a librarian changes another's account.
var ErrNotOwnAccount = domainerrors.Forbidden("not enough permissions")

// LibrarianService manages librarian accounts.
type LibrarianService struct {
	store     LibrarianStore
	hasher    PasswordHasher
	validator *validation.Validator
}

// NewLibrarianService creates a LibrarianService.
func NewLibrarianService(store LibrarianStore, hasher PasswordHasher, validator *validation.Validator) *LibrarianService {
	return &LibrarianService{store: store, hasher: hasher, validator: validator}
}

// Create registers a librarian account with a hashed password.
func (s *LibrarianService) Create(ctx context.Context, input LibrarianInput) (*entities.Librarian, error) {
	input.Person = input.Person.normalized()
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	librarian := &entities.Librarian{
		Person:       input.Person.toEntity(),
		PasswordHash: hash,
	}
	if err := s.store.Create(ctx, librarian); err != nil {
		return nil, err
	}

	log.Printf("Catalog: created librarian account %d", librarian.ID)
	return librarian, nil
}

// Update changes the profile of the acting librarian.
func (s *LibrarianService) Update(ctx context.Context, actorID, id uint, input LibrarianUpdate) (*entities.Librarian, error) {
	if actorID != id {
		return nil, ErrNotOwnAccount
	}

	if input.Person != nil {
		normalized := input.Person.normalized()
		input.Person = &normalized
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	librarian, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Person == nil {
		return librarian, nil
	}

	input.Person.applyTo(&librarian.Person)
	if err := s.store.UpdateProfile(ctx, librarian); err != nil {
		return nil, err
	}
	return librarian, nil
}

// Delete removes the acting librarian's own account.
func (s *LibrarianService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID != id {
		return ErrNotOwnAccount
	}
	return s.store.Delete(ctx, id)
}

// Get returns a librarian by ID.
func (s *LibrarianService) Get(ctx context.Context, id uint) (*entities.Librarian, error) {
	return s.store.GetByID(ctx, id)
}

// GetByEmail returns the librarian with the given email.
func (s *LibrarianService) GetByEmail(ctx context.Context, email string) (*entities.Librarian, error) {
	return s.store.GetByEmail(ctx, strings.TrimSpace(email))
}

// List returns every librarian.
func (s *LibrarianService) List(ctx context.Context) ([]entities.Librarian, error) {
	return s.store.List(ctx)
}
