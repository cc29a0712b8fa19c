package circulation

import (
	"fmt"

	domainerrors "github.com/mrlokans/librarian/internal/errors"
)

// Sentinels for errors.Is. Returned errors carry the same code and reason
// with a message naming the records involved.
var (
	ErrReaderNotFound      = domainerrors.NotFound(domainerrors.ReasonReaderNotFound, "reader not found")
	ErrBookUnavailable     = domainerrors.Conflict(domainerrors.ReasonBookUnavailable, "book is not available")
	ErrBorrowLimitExceeded = domainerrors.Conflict(domainerrors.ReasonBorrowLimitExceeded, "borrow limit exceeded")
	ErrNoActiveLoan        = domainerrors.Conflict(domainerrors.ReasonNoActiveLoan, "no active borrowing record found")
	ErrNoCopiesAvailable   = domainerrors.Conflict(domainerrors.ReasonNoCopiesAvailable, "no copies available")
	ErrTxConflict          = domainerrors.ErrTxConflict
)

func readerNotFound(readerID uint) error {
	return domainerrors.NotFoundf(domainerrors.ReasonReaderNotFound, "reader with ID %d not found", readerID)
}

func bookUnavailable(bookID uint) error {
	return domainerrors.Conflict(domainerrors.ReasonBookUnavailable,
		fmt.Sprintf("book with ID %d is not available", bookID))
}

func borrowLimitExceeded(readerID uint, limit int) error {
	return domainerrors.Conflict(domainerrors.ReasonBorrowLimitExceeded,
		fmt.Sprintf("reader with ID %d already has %d borrowed books", readerID, limit))
}

func noActiveLoan(bookID, readerID uint) error {
	return domainerrors.Conflict(domainerrors.ReasonNoActiveLoan,
		fmt.Sprintf("no active borrowing record found for book %d and reader %d", bookID, readerID))
}
