package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/librarians"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/readers"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.Database{
			Driver: config.DatabaseDriverSQLite,
			Path:   filepath.Join(t.TempDir(), "cli.db"),
		},
		Auth:  config.Auth{BcryptCost: 4},
		Loans: config.Loans{MaxOpenPerReader: 3},
	}
}

func TestCreateLibrarianCommand_ParseFlags(t *testing.T) {
	t.Run("requires every identity flag", func(t *testing.T) {
		cmd := NewCreateLibrarianCommand(testConfig(t))
		err := cmd.ParseFlags([]string{"-email", "a@library.test", "-first-name", "Ann", "-password", "secret-pass"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "-last-name")
	})

	t.Run("overrides database path", func(t *testing.T) {
		cfg := testConfig(t)
		cmd := NewCreateLibrarianCommand(cfg)
		err := cmd.ParseFlags([]string{
			"-email", "a@library.test", "-first-name", "Ann", "-last-name", "Lee",
			"-password", "secret-pass", "-db", "/tmp/other.db",
		})

		require.NoError(t, err)
		assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	})
}

func TestCreateLibrarianCommand_Run(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	cmd := NewCreateLibrarianCommand(cfg)
	require.NoError(t, cmd.ParseFlags([]string{
		"-email", "admin@library.test", "-first-name", "Ann", "-last-name", "Lee", "-password", "secret-pass",
	}))
	out := &bytes.Buffer{}
	cmd.out = out

	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), "admin@library.test")

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	defer db.Close()

	librarian, err := librarians.NewRepository(db.DB).GetByEmail(ctx, "admin@library.test")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", librarian.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		err := cmd.Run(ctx)
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	})

	t.Run("short password", func(t *testing.T) {
		short := NewCreateLibrarianCommand(cfg)
		require.NoError(t, short.ParseFlags([]string{
			"-email", "b@library.test", "-first-name", "Bo", "-last-name", "Lee", "-password", "short",
		}))
		assert.ErrorIs(t, short.Run(ctx), domainerrors.ErrValidation)
	})
}

func TestLoansCommand_Run(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)

	librarian := &entities.Librarian{
		Person:       entities.Person{FirstName: "Desk", LastName: "Clerk", Email: "clerk@library.test"},
		PasswordHash: "hash",
	}
	require.NoError(t, librarians.NewRepository(db.DB).Create(ctx, librarian))
	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", Year: 1965, AvailableCopies: 1}
	require.NoError(t, books.NewRepository(db.DB).Create(ctx, book))
	reader := &entities.Reader{Person: entities.Person{FirstName: "Ann", LastName: "Lee", Email: "ann@library.test"}}
	require.NoError(t, readers.NewRepository(db.DB).Create(ctx, reader))
	require.NoError(t, db.Close())

	t.Run("no loans", func(t *testing.T) {
		cmd := NewLoansCommand(cfg)
		require.NoError(t, cmd.ParseFlags(nil))
		out := &bytes.Buffer{}
		cmd.out = out

		require.NoError(t, cmd.Run(ctx))
		assert.Contains(t, out.String(), "No open loans")
	})

	db, err = database.Open(cfg.Database)
	require.NoError(t, err)
	loan := &entities.Loan{BookID: book.ID, ReaderID: reader.ID, LibrarianID: librarian.ID, BorrowedAt: book.CreatedAt}
	require.NoError(t, loans.NewRepository(db.DB).Create(ctx, loan))
	require.NoError(t, db.Close())

	t.Run("lists open loans", func(t *testing.T) {
		cmd := NewLoansCommand(cfg)
		require.NoError(t, cmd.ParseFlags([]string{"-reader", "1"}))
		out := &bytes.Buffer{}
		cmd.out = out

		require.NoError(t, cmd.Run(ctx))
		assert.Contains(t, out.String(), "BORROWED AT")
		assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
	})

	t.Run("unknown reader", func(t *testing.T) {
		cmd := NewLoansCommand(cfg)
		require.NoError(t, cmd.ParseFlags([]string{"-reader", "99"}))
		cmd.out = &bytes.Buffer{}

		assert.ErrorIs(t, cmd.Run(ctx), domainerrors.ErrNotFound)
	})
}
