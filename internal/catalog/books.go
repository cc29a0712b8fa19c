package catalog

import (
	"context"
	"log"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/validation"
)

// BookService manages the book catalogue.
type BookService struct {
	store     BookStore
	validator *validation.Validator
}

// NewBookService creates a BookService.
func NewBookService(store BookStore, validator *validation.Validator) *BookService {
	return &BookService{store: store, validator: validator}
}

// Create adds a book. Without an explicit count one copy is on the shelf.
func (s *BookService) Create(ctx context.Context, input BookInput) (*entities.Book, error) {
	input.ISBN = emptyToNil(trimOptional(input.ISBN))
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	copies := DefaultAvailableCopies
	if input.AvailableCopies != nil {
		copies = *input.AvailableCopies
	}

	book := &entities.Book{
		Title:           input.Title,
		Author:          input.Author,
		Year:            input.Year,
		ISBN:            input.ISBN,
		AvailableCopies: copies,
	}
	if err := s.store.Create(ctx, book); err != nil {
		return nil, err
	}

	log.Printf("Catalog: added book %d %q by %s (%d copies)", book.ID, book.Title, book.Author, book.AvailableCopies)
	return book, nil
}

// Update applies the set fields of input to an existing book. The shelf
// count is written only when the request sets it.
func (s *BookService) Update(ctx context.Context, id uint, input BookUpdate) (*entities.Book, error) {
	input.ISBN = trimOptional(input.ISBN)
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, input.changes())
}

// Delete removes a book that has no open loans.
func (s *BookService) Delete(ctx context.Context, id uint) error {
	return s.store.Delete(ctx, id)
}

// Get returns a book by ID.
func (s *BookService) Get(ctx context.Context, id uint) (*entities.Book, error) {
	return s.store.GetByID(ctx, id)
}

// List returns every book.
func (s *BookService) List(ctx context.Context) ([]entities.Book, error) {
	return s.store.List(ctx)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
