package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// APIError is a request-level failure that already knows its HTTP status.
// The ErrorHandler turns it into ProblemDetails.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render sets the response status for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError names one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an APIError without details
func New(statusCode int, errorCode, message string) *APIError {
	return NewWithDetails(statusCode, errorCode, message, nil)
}

// NewWithDetails creates an APIError carrying extra detail for the client
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// EmptyBody reports a POST without a JSON body
func EmptyBody() *APIError {
	return New(http.StatusBadRequest, "EMPTY_BODY", "Request body is required")
}

// InvalidRequestWithError reports a body or query that could not be decoded
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation reports a single invalid field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors reports every invalid field of a request at once
func NewValidationErrors(fields []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", fields)
}

// UnsupportedFormat rejects an output format other than the allowed ones
func UnsupportedFormat(format string, allowed ...string) *APIError {
	return ErrValidation("format",
		fmt.Sprintf("format %q is not supported, use one of: %s", format, strings.Join(allowed, ", ")))
}
