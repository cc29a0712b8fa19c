package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/http/response"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// --- Parameter Parsing ---

// parseIDParam extracts and validates a positive ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	return parseID(c, paramName, c.Param(paramName))
}

// parseQueryID extracts and validates a positive ID from query parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseQueryID(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		response.BadRequest(c, paramName+" is required")
		return 0, false
	}
	return parseID(c, paramName, idStr)
}

func parseID(c *gin.Context, paramName, value string) (uint, bool) {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads limit and offset query parameters, clamping them
// to sane values instead of rejecting the request.
func parsePagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// bindJSON decodes the request body into dst, answering 400 on malformed JSON.
// Field-level rules are checked by the services.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "invalid request body")
		return false
	}
	return true
}
