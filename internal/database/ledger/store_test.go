package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/circulation"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/librarians"
	"github.com/mrlokans/librarian/internal/database/readers"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewStore_RowLocksByDriver(t *testing.T) {
	tests := []struct {
		driver   config.DatabaseDriver
		lockRows bool
	}{
		{config.DatabaseDriverPostgres, true},
		{config.DatabaseDriverSQLite, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.driver), func(t *testing.T) {
			store := NewStore(&database.Database{Driver: tt.driver})
			assert.Equal(t, tt.lockRows, store.lockRows)
		})
	}
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewStore(db)

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", Year: 1965, AvailableCopies: 1}
	require.NoError(t, books.NewRepository(db.DB).Create(ctx, book))

	err := store.Transaction(ctx, func(l circulation.Ledger) error {
		require.NoError(t, l.DecreaseAvailableCopies(ctx, book.ID))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	err = store.View(ctx, func(l circulation.Ledger) error {
		got, err := l.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableCopies)
		return nil
	})
	require.NoError(t, err)
}

func TestLedger_CreateLoanChecksLibrarianWhenLocking(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", Year: 1965, AvailableCopies: 1}
	require.NoError(t, books.NewRepository(db.DB).Create(ctx, book))
	reader := &entities.Reader{Person: entities.Person{FirstName: "Ann", LastName: "Lee", Email: "ann@library.test"}}
	require.NoError(t, readers.NewRepository(db.DB).Create(ctx, reader))
	librarian := &entities.Librarian{
		Person:       entities.Person{FirstName: "Mel", LastName: "Dewey", Email: "mel@library.test"},
		PasswordHash: "hash",
	}
	require.NoError(t, librarians.NewRepository(db.DB).Create(ctx, librarian))

	// SQLite drops the locking clause, so the locking branch runs here too.
	l := newLedger(db.DB, true)

	exists, err := l.ReaderExists(ctx, reader.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	loan := &entities.Loan{BookID: book.ID, ReaderID: reader.ID, LibrarianID: librarian.ID, BorrowedAt: time.Now().UTC()}
	require.NoError(t, l.CreateLoan(ctx, loan))
	assert.NotZero(t, loan.ID)

	ghost := &entities.Loan{BookID: book.ID, ReaderID: reader.ID, LibrarianID: 999, BorrowedAt: time.Now().UTC()}
	err = l.CreateLoan(ctx, ghost)
	require.Error(t, err)
	assert.Equal(t, domainerrors.ReasonLibrarianNotFound, domainerrors.ReasonOf(err))
}
