// Package response writes the JSON envelopes every endpoint returns: a
// "data" envelope on success and an "error" envelope carrying a stable code
// and the request id on failure.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindscale/src/core/domain"
)

// Error codes.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// Success is the envelope of a single resource.
type Success struct {
	Data any `json:"data"`
}

// List is the envelope of a collection.
type List struct {
	Data  any `json:"data"`
	Count int `json:"count"`
}

// Error is the failure envelope.
type Error struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure. Field names the offending input, if any.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Success{Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Success{Data: data})
}

// Items writes a collection with its size.
func Items(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, List{Data: data, Count: count})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail writes an error envelope.
func Fail(c *gin.Context, status int, detail ErrorDetail) {
	c.JSON(status, Error{Error: detail})
}

// BadRequest reports a body or header that could not be read at all.
func BadRequest(c *gin.Context, message, requestID string) {
	Fail(c, http.StatusBadRequest, ErrorDetail{Code: CodeBadRequest, Message: message, RequestID: requestID})
}

// ValidationError reports a readable input with a bad value.
func ValidationError(c *gin.Context, field, message, requestID string) {
	Fail(c, http.StatusBadRequest, ErrorDetail{Code: CodeValidation, Message: message, Field: field, RequestID: requestID})
}

// Unauthorized reports a command sent without a caller identity.
func Unauthorized(c *gin.Context, message, requestID string) {
	Fail(c, http.StatusUnauthorized, ErrorDetail{Code: CodeUnauthorized, Message: message, RequestID: requestID})
}

// errorKinds maps domain error categories to statuses, checked in order.
var errorKinds = []struct {
	is     func(error) bool
	status int
	code   string
}{
	{domain.IsNotFound, http.StatusNotFound, CodeNotFound},
	{domain.IsConflict, http.StatusConflict, CodeConflict},
	{domain.IsForbidden, http.StatusForbidden, CodeForbidden},
	{domain.IsUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
}

// FromDomainError writes the envelope for an engine or service error. A game
// rejection wraps its base category, so "no game here" becomes 404, a phase
// or roster clash 409 and a non-admin force command 403. Anything unknown is
// a 500 whose message is not exposed.
func FromDomainError(c *gin.Context, err error, requestID string) {
	if domain.IsValidationError(err) {
		var de *domain.DomainError
		if errors.As(err, &de) {
			ValidationError(c, de.Field, de.Message, requestID)
			return
		}
		Fail(c, http.StatusBadRequest, ErrorDetail{Code: CodeValidation, Message: err.Error(), RequestID: requestID})
		return
	}
	for _, k := range errorKinds {
		if k.is(err) {
			Fail(c, k.status, ErrorDetail{Code: k.code, Message: err.Error(), RequestID: requestID})
			return
		}
	}
	Fail(c, http.StatusInternalServerError, ErrorDetail{
		Code:      CodeInternal,
		Message:   "An unexpected error occurred",
		RequestID: requestID,
	})
}
