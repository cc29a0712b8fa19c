package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/http/response"
)

// LibrariansController manages staff accounts. Creating an account is
// public so the first librarian can register; a librarian may only change
// or remove their own account.
type LibrariansController struct {
	librarians LibrarianCatalog
	auditor    Auditor
}

func NewLibrariansController(librarians LibrarianCatalog, auditor Auditor) *LibrariansController {
	if auditor == nil {
		auditor = noopAuditor{}
	}
	return &LibrariansController{librarians: librarians, auditor: auditor}
}

// Create handles POST /api/librarians
func (lc *LibrariansController) Create(c *gin.Context) {
	var input catalog.LibrarianInput
	if !bindJSON(c, &input) {
		return
	}

	librarian, err := lc.librarians.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	lc.auditor.LogCreate(librarian.ID, "librarian", librarian.ID, librarian.Email())
	response.Created(c, librarian)
}

// Update handles PUT and PATCH /api/librarians/:id
func (lc *LibrariansController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input catalog.LibrarianUpdate
	if !bindJSON(c, &input) {
		return
	}

	actorID := auth.GetLibrarianID(c)
	librarian, err := lc.librarians.Update(c.Request.Context(), actorID, id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	lc.auditor.LogUpdate(actorID, "librarian", librarian.ID, librarian.Email())
	response.OK(c, librarian)
}

// Delete handles DELETE /api/librarians/:id
func (lc *LibrariansController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actorID := auth.GetLibrarianID(c)
	if err := lc.librarians.Delete(c.Request.Context(), actorID, id); err != nil {
		response.Error(c, err)
		return
	}

	lc.auditor.LogDelete(actorID, "librarian", id, auth.GetEmail(c))
	response.NoContent(c)
}

// Get handles GET /api/librarians/by-id/:id
func (lc *LibrariansController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	librarian, err := lc.librarians.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, librarian)
}

// GetByEmail handles GET /api/librarians/by-email/:email
func (lc *LibrariansController) GetByEmail(c *gin.Context) {
	librarian, err := lc.librarians.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, librarian)
}

// List handles GET /api/librarians
func (lc *LibrariansController) List(c *gin.Context) {
	librarians, err := lc.librarians.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, librarians)
}
