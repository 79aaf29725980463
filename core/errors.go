package core

import "github.com/pkg/errors"

// ErrOperationInProgress is returned when an exclusive per-resource lock
// (instructor calendar, cohort allocation) could not be acquired because a
// concurrent operation holds it. Callers may retry with backoff.
var ErrOperationInProgress = errors.New("a concurrent operation is in progress, retry later")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
