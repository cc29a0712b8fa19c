package librarians

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

func setupTestRepo(t *testing.T) (*Repository, *database.Database) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "librarians.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db
}

func newLibrarian(email string) *entities.Librarian {
	return &entities.Librarian{
		Person:       entities.Person{FirstName: "Mel", LastName: "Dewey", Email: email},
		PasswordHash: "hash",
	}
}

func TestRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupTestRepo(t)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	librarian := newLibrarian("mel@example.com")
	require.NoError(t, repo.Create(ctx, librarian))

	got, err := repo.GetByEmail(ctx, "mel@example.com")
	require.NoError(t, err)
	assert.Equal(t, librarian.ID, got.ID)
	assert.Equal(t, "mel@example.com", got.Email())

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.Equal(t, domainerrors.ReasonLibrarianNotFound, domainerrors.ReasonOf(err))

	assert.ErrorIs(t, repo.Create(ctx, newLibrarian("mel@example.com")), domainerrors.ErrAlreadyExists)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_LoginBookkeeping(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupTestRepo(t)

	librarian := newLibrarian("lock@example.com")
	require.NoError(t, repo.Create(ctx, librarian))

	until := time.Now().Add(15 * time.Minute)
	require.NoError(t, repo.RecordLoginFailure(ctx, librarian.ID, 5, &until))

	got, err := repo.GetByID(ctx, librarian.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.FailedLoginCount)
	assert.True(t, got.IsLocked(time.Now()))

	now := time.Now()
	require.NoError(t, repo.RecordLoginSuccess(ctx, librarian.ID, now))

	got, err = repo.GetByID(ctx, librarian.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedLoginCount)
	assert.Nil(t, got.LockedUntil)
	require.NotNil(t, got.LastLoginAt)

	require.NoError(t, repo.UpdatePasswordHash(ctx, librarian.ID, "new-hash"))
	got, err = repo.GetByID(ctx, librarian.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, 999, "x"), domainerrors.ErrNotFound)
}

func TestRepository_LockShared(t *testing.T) {
	ctx := context.Background()
	repo, db := setupTestRepo(t)

	librarian := newLibrarian("lock@example.com")
	require.NoError(t, repo.Create(ctx, librarian))

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		exists, err := NewRepository(tx).LockShared(ctx, librarian.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = NewRepository(tx).LockShared(ctx, 999)
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, librarian.ID))
	exists, err := repo.LockShared(ctx, librarian.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, db := setupTestRepo(t)

	librarian := newLibrarian("desk@example.com")
	require.NoError(t, repo.Create(ctx, librarian))

	book := &entities.Book{Title: "T", Author: "A", Year: 2000, AvailableCopies: 1}
	require.NoError(t, db.DB.Create(book).Error)
	member := &entities.Person{FirstName: "R", LastName: "R", Email: "member@example.com"}
	require.NoError(t, db.DB.Create(member).Error)
	reader := &entities.Reader{PersonID: member.ID}
	require.NoError(t, db.DB.Omit("Person").Create(reader).Error)
	loan := &entities.Loan{BookID: book.ID, ReaderID: reader.ID, LibrarianID: librarian.ID, BorrowedAt: time.Now()}
	require.NoError(t, db.DB.Omit("Book", "Reader", "Librarian").Create(loan).Error)

	err := repo.Delete(ctx, librarian.ID)
	assert.Equal(t, domainerrors.ReasonHasOpenLoans, domainerrors.ReasonOf(err))

	require.NoError(t, db.DB.Model(loan).Update("returned_at", time.Now()).Error)
	require.NoError(t, repo.Delete(ctx, librarian.ID))

	_, err = repo.GetByID(ctx, librarian.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
