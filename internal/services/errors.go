package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorInvalid            ErrorCode = "invalid"
	ErrorNotFound           ErrorCode = "not_found"
	ErrorPreconditionFailed ErrorCode = "precondition_failed"
	ErrorConflict           ErrorCode = "conflict"
	ErrorUnauthorized       ErrorCode = "unauthorized"
)

// ServiceError is the typed failure every service operation reports.
// Transport layers map Code to their own status space.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewPreconditionError(msg string) error {
	return &ServiceError{Code: ErrorPreconditionFailed, Message: msg}
}
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err is a ServiceError carrying code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func newID() string { return uuid.NewString() }
