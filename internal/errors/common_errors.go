package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInvalidRecord   ErrorType = "INVALID_RECORD"
	ErrTypeUnparsableValue ErrorType = "UNPARSABLE_VALUE"
	ErrTypeParsing         ErrorType = "PARSING"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeConfig          ErrorType = "CONFIG"
)

// Sentinels matched with errors.Is by the pipeline error types.
var (
	// ErrInvalidRecord marks a record whose key field is missing or has the
	// wrong scalar kind. It aborts the whole build.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnparsableValue marks a join source row whose value is not numeric.
	// The row is skipped; the join carries on.
	ErrUnparsableValue = errors.New("unparsable value")

	// ErrDatasetNotLoaded is returned when a dataset is queried before loading
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
// Pipeline sentinels map to their own types.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Type, true
	case errors.Is(err, ErrInvalidRecord):
		return ErrTypeInvalidRecord, true
	case errors.Is(err, ErrUnparsableValue):
		return ErrTypeUnparsableValue, true
	default:
		return "", false
	}
}
