package catalog

import (
	"context"

	"github.com/mrlokans/librarian/internal/entities"
)

// BookStore persists books.
type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	List(ctx context.Context) ([]entities.Book, error)
	Update(ctx context.Context, id uint, changes map[string]any) (*entities.Book, error)
	Delete(ctx context.Context, id uint) error
}

// ReaderStore persists readers with their person profile.
type ReaderStore interface {
	Create(ctx context.Context, reader *entities.Reader) error
	GetByID(ctx context.Context, id uint) (*entities.Reader, error)
	GetByEmail(ctx context.Context, email string) (*entities.Reader, error)
	List(ctx context.Context) ([]entities.Reader, error)
	UpdateProfile(ctx context.Context, reader *entities.Reader) error
	Delete(ctx context.Context, id uint) error
}

// LibrarianStore persists librarian accounts with their person profile.
type LibrarianStore interface {
	Create(ctx context.Context, librarian *entities.Librarian) error
	GetByID(ctx context.Context, id uint) (*entities.Librarian, error)
	GetByEmail(ctx context.Context, email string) (*entities.Librarian, error)
	List(ctx context.Context) ([]entities.Librarian, error)
	UpdateProfile(ctx context.Context, librarian *entities.Librarian) error
	Delete(ctx context.Context, id uint) error
}

// PasswordHasher turns a plaintext password into a stored credential.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}
