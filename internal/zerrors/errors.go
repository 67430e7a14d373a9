package zerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types shared by every package that talks to the HTTP layer
const (
	TypeValidation = "validation_failed"
	TypeNotFound   = "not_found"
	TypeConflict   = "already_exists"
	TypeStorage    = "storage_failed"
)

// Error is an application error carrying a type used for status mapping
type Error struct {
	Type    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an error for invalid input
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Type:    TypeValidation,
		Message: message,
		Cause:   cause,
	}
}

// NewNotFoundError creates an error for a missing resource
func NewNotFoundError(resource string) *Error {
	return &Error{
		Type:    TypeNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates an error for a uniqueness violation
func NewConflictError(message string, cause error) *Error {
	return &Error{
		Type:    TypeConflict,
		Message: message,
		Cause:   cause,
	}
}

// NewStorageError creates an error for a failed storage operation
func NewStorageError(operation, resource string, cause error) *Error {
	return &Error{
		Type:    TypeStorage,
		Message: fmt.Sprintf("%s on %s failed", operation, resource),
		Cause:   cause,
	}
}

func IsValidation(err error) bool { return hasType(err, TypeValidation) }
func IsNotFound(err error) bool   { return hasType(err, TypeNotFound) }
func IsConflict(err error) bool   { return hasType(err, TypeConflict) }

func hasType(err error, typ string) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == typ {
			return true
		}
		err = e.Cause
	}
	return false
}

// HTTPStatus maps an error to the status code returned to clients
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
