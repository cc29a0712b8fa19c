package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/mrlokans/librarian/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	handler(c)

	var body ErrorResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestError(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		w, body := run(t, func(c *gin.Context) {
			Error(c, domainerrors.NotFound(domainerrors.ReasonBookNotFound, "book with ID 4 not found"))
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "book with ID 4 not found", body.Error)
		assert.Equal(t, "NOT_FOUND", body.Code)
		assert.Equal(t, "BOOK_NOT_FOUND", body.Reason)
	})

	t.Run("validation details are returned", func(t *testing.T) {
		w, body := run(t, func(c *gin.Context) {
			Error(c, domainerrors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"}))
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, map[string]any{"title": "is required"}, body.Details)
	})

	t.Run("wrapped domain error keeps its status", func(t *testing.T) {
		w, body := run(t, func(c *gin.Context) {
			Error(c, fmt.Errorf("outer: %w", domainerrors.ErrTxConflict))
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "TX_CONFLICT", body.Reason)
	})

	t.Run("unknown error hides its message", func(t *testing.T) {
		w, body := run(t, func(c *gin.Context) {
			Error(c, fmt.Errorf("disk I/O error"))
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", body.Error)
		assert.NotContains(t, w.Body.String(), "disk")
	})

	t.Run("internal domain error hides its cause", func(t *testing.T) {
		w, _ := run(t, func(c *gin.Context) {
			Error(c, domainerrors.Internal("store failure", assert.AnError))
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})
}

func TestErrorWithStatus(t *testing.T) {
	w, body := run(t, func(c *gin.Context) {
		ErrorWithStatus(c, http.StatusBadRequest, domainerrors.Conflict(domainerrors.ReasonBookUnavailable, "no copies"))
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFLICT", body.Code)
	assert.Equal(t, "BOOK_UNAVAILABLE", body.Reason)
}

func TestPaginated(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Paginated(c, []int{1, 2}, 5, 2, 2)

	var body PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.Total)
	assert.True(t, body.HasMore)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}
