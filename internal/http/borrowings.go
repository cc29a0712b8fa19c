package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/http/response"
)

// BorrowingsController exposes the borrowing workflow.
type BorrowingsController struct {
	circulation Circulation
	auditor     Auditor
}

// NewBorrowingsController creates a new BorrowingsController.
// auditor may be nil.
func NewBorrowingsController(circulation Circulation, auditor Auditor) *BorrowingsController {
	if auditor == nil {
		auditor = noopAuditor{}
	}
	return &BorrowingsController{circulation: circulation, auditor: auditor}
}

// Borrow handles POST /api/borrowings/borrow?book_id=&reader_id=
// The loan is recorded on behalf of the authenticated librarian.
func (bc *BorrowingsController) Borrow(c *gin.Context) {
	bookID, ok := parseQueryID(c, "book_id")
	if !ok {
		return
	}
	readerID, ok := parseQueryID(c, "reader_id")
	if !ok {
		return
	}
	librarianID := auth.GetLibrarianID(c)

	loan, err := bc.circulation.Borrow(c.Request.Context(), bookID, readerID, librarianID)
	bc.auditor.LogBorrow(librarianID, bookID, readerID, loan, err)
	if err != nil {
		respondBorrowingError(c, err)
		return
	}

	response.OK(c, loan)
}

// Return handles PATCH /api/borrowings/return?book_id=&reader_id=
func (bc *BorrowingsController) Return(c *gin.Context) {
	bookID, ok := parseQueryID(c, "book_id")
	if !ok {
		return
	}
	readerID, ok := parseQueryID(c, "reader_id")
	if !ok {
		return
	}

	loan, err := bc.circulation.Return(c.Request.Context(), bookID, readerID)
	bc.auditor.LogReturn(auth.GetLibrarianID(c), bookID, readerID, loan, err)
	if err != nil {
		respondBorrowingError(c, err)
		return
	}

	response.OK(c, loan)
}

// ReaderLoans handles GET /api/borrowings/reader/:reader_id
func (bc *BorrowingsController) ReaderLoans(c *gin.Context) {
	readerID, ok := parseIDParam(c, "reader_id")
	if !ok {
		return
	}

	loans, err := bc.circulation.ActiveLoans(c.Request.Context(), readerID)
	if err != nil {
		respondBorrowingError(c, err)
		return
	}

	response.OK(c, loans)
}

// AllLoans handles GET /api/borrowings
func (bc *BorrowingsController) AllLoans(c *gin.Context) {
	loans, err := bc.circulation.AllActiveLoans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, loans)
}

// respondBorrowingError reports every business-rule failure of the workflow
// as a bad request. A lost transaction race keeps its 409 and unexpected
// failures stay 500.
func respondBorrowingError(c *gin.Context, err error) {
	if domainerrors.Is(err, domainerrors.ErrTxConflict) {
		response.Error(c, err)
		return
	}
	response.ErrorWithStatus(c, http.StatusBadRequest, err)
}
