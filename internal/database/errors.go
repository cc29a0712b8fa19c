package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	domainerrors "github.com/mrlokans/librarian/internal/errors"
)

// PostgreSQL SQLSTATE codes we react to.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
)

// ClassifyError turns driver-level failures into domain errors.
// Errors that are already domain errors, gorm.ErrRecordNotFound and
// unrecognised failures are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.AlreadyExists("record already exists").WithCause(err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked:
			return domainerrors.ErrTxConflict.WithCause(err)
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return domainerrors.AlreadyExists("record already exists").WithCause(err)
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return domainerrors.Validation("referenced record does not exist").WithCause(err)
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck:
			return domainerrors.Validation("value violates a constraint").WithCause(err)
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return domainerrors.ErrTxConflict.WithCause(err)
		case pgUniqueViolation:
			return domainerrors.AlreadyExists("record already exists").WithCause(err)
		case pgForeignKeyViolation:
			return domainerrors.Validation("referenced record does not exist").WithCause(err)
		case pgCheckViolation:
			return domainerrors.Validation("value violates a constraint").WithCause(err)
		}
	}

	return err
}

// IsTxConflict reports whether err is a retryable transaction conflict.
func IsTxConflict(err error) bool {
	return errors.Is(err, domainerrors.ErrTxConflict)
}
