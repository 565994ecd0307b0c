package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewFormat reports a malformed, undecodable or empty upload. Always a
// client error, never a server failure.
func NewFormat(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, fmt.Sprintf(format, args...), nil)
}

// NewValidation reports a rejected request input, naming the offending
// header, value or rule.
func NewValidation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, fmt.Sprintf(format, args...), nil)
}

// NewStateConflict reports an operation invoked while the batch is in an
// ineligible lifecycle state.
func NewStateConflict(format string, args ...interface{}) *Error {
	return New(http.StatusConflict, fmt.Sprintf(format, args...), nil)
}

// NewNotFound reports a missing or foreign-owned resource.
func NewNotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, fmt.Sprintf(format, args...), nil)
}

// NewInternal wraps an unexpected failure.
func NewInternal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// IsConflict reports whether err is a state-conflict error.
func IsConflict(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == http.StatusConflict
}

// Respond writes err as a JSON response with the appropriate status code.
// Non-application errors are masked as internal server errors.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = New(http.StatusInternalServerError, "Internal server error", err)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
