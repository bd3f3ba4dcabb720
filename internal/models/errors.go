package models

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Error taxonomy shared by the server and the shop client. Match with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("out of stock")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrCorruptLocalState = errors.New("corrupt local state")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError carries a user-facing message for a rejected request.
type ValidationError struct {
	Message string
	query   bool
}

func (e *ValidationError) Error() string { return e.Message }

// Is matches ErrValidation, and ErrInvalidQuery for query errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || (e.query && target == ErrInvalidQuery)
}

// Invalidf returns a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidQueryf returns a ValidationError that also matches ErrInvalidQuery.
func InvalidQueryf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), query: true}
}

// NotFoundf wraps ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}
