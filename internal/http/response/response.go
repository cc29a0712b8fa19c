// Package response writes JSON responses and maps domain errors to HTTP
// statuses for every gin handler in the service.
package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/mrlokans/librarian/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}

// PaginatedResponse wraps a page of results.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// OK writes a 200 response with data as the body.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 response with data as the body.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a page of results with its position in the full set.
func Paginated(c *gin.Context, data any, total int64, limit, offset int) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	})
}

// BadRequest writes a 400 response for malformed input.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error: message,
		Code:  string(domainerrors.CodeValidation),
	})
}

// Error writes err using the status of its domain code.
// Anything that is not a domain error is logged and reported as a bare 500.
func Error(c *gin.Context, err error) {
	ErrorWithStatus(c, 0, err)
}

// ErrorWithStatus writes a domain error with an explicit status.
// A zero status falls back to the status of the error code. Internal errors
// always produce a 500 without leaking their message.
func ErrorWithStatus(c *gin.Context, status int, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code == domainerrors.CodeInternal {
		InternalError(c, err)
		return
	}

	if status == 0 {
		status = domainErr.HTTPStatus()
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   domainErr.Message,
		Code:    string(domainErr.Code),
		Reason:  string(domainErr.Reason),
		Details: domainErr.Details,
	})
}

// InternalError logs err and writes a generic 500.
func InternalError(c *gin.Context, err error) {
	log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  string(domainerrors.CodeInternal),
	})
}
