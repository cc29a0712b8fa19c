package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/http/response"
)

type BooksController struct {
	books   BookCatalog
	auditor Auditor
}

func NewBooksController(books BookCatalog, auditor Auditor) *BooksController {
	if auditor == nil {
		auditor = noopAuditor{}
	}
	return &BooksController{books: books, auditor: auditor}
}

// Create handles POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var input catalog.BookInput
	if !bindJSON(c, &input) {
		return
	}

	book, err := bc.books.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	bc.auditor.LogCreate(auth.GetLibrarianID(c), "book", book.ID, book.Title)
	response.Created(c, book)
}

// Update handles PUT and PATCH /api/books/:id
// Only the fields present in the body are changed.
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input catalog.BookUpdate
	if !bindJSON(c, &input) {
		return
	}

	book, err := bc.books.Update(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	bc.auditor.LogUpdate(auth.GetLibrarianID(c), "book", book.ID, book.Title)
	response.OK(c, book)
}

// Delete handles DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := bc.books.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	bc.auditor.LogDelete(auth.GetLibrarianID(c), "book", id, book.Title)
	response.NoContent(c)
}

// Get handles GET /api/books/by-id/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, book)
}

// List handles GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	books, err := bc.books.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, books)
}
