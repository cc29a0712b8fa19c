package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/http/response"
)

type ReadersController struct {
	readers ReaderCatalog
	auditor Auditor
}

func NewReadersController(readers ReaderCatalog, auditor Auditor) *ReadersController {
	if auditor == nil {
		auditor = noopAuditor{}
	}
	return &ReadersController{readers: readers, auditor: auditor}
}

// Create handles POST /api/readers
func (rc *ReadersController) Create(c *gin.Context) {
	var input catalog.ReaderInput
	if !bindJSON(c, &input) {
		return
	}

	reader, err := rc.readers.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	rc.auditor.LogCreate(auth.GetLibrarianID(c), "reader", reader.ID, reader.Person.FullName())
	response.Created(c, reader)
}

// Update handles PUT and PATCH /api/readers/:id
func (rc *ReadersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input catalog.ReaderUpdate
	if !bindJSON(c, &input) {
		return
	}

	reader, err := rc.readers.Update(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	rc.auditor.LogUpdate(auth.GetLibrarianID(c), "reader", reader.ID, reader.Person.FullName())
	response.OK(c, reader)
}

// Delete handles DELETE /api/readers/:id
// A reader holding books cannot be removed.
func (rc *ReadersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reader, err := rc.readers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := rc.readers.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	rc.auditor.LogDelete(auth.GetLibrarianID(c), "reader", id, reader.Person.FullName())
	response.NoContent(c)
}

// Get handles GET /api/readers/by-id/:id
func (rc *ReadersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reader, err := rc.readers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, reader)
}

// GetByEmail handles GET /api/readers/by-email/:email
func (rc *ReadersController) GetByEmail(c *gin.Context) {
	reader, err := rc.readers.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, reader)
}

// List handles GET /api/readers
func (rc *ReadersController) List(c *gin.Context) {
	readers, err := rc.readers.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, readers)
}
