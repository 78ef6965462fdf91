package core

import "github.com/pkg/errors"

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
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ErrUniqueViolation is returned by repositories when a unique constraint is violated.
var ErrUniqueViolation = errors.New("unique constraint violated")

// NotFoundError marks "object not found" sentinels of the domain packages.
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{msg: msg}
}

func (err *NotFoundError) Error() string {
	return err.msg
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
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

// ErrRegulationArchived is returned when writing to an archived regulation.
var ErrRegulationArchived = errors.New("regulation is archived")

// ConflictAsFieldError turns ErrUniqueViolation into a validation error on `field`.
func ConflictAsFieldError(err error, field, msg string) error {
	if errors.Cause(err) == ErrUniqueViolation {
		return NewValidationError(err, FieldError{Field: field, Error: msg})
	}
	return err
}

// ErrForeignKeyViolation is returned by repositories when a referenced record is missing or still in use.
var ErrForeignKeyViolation = errors.New("referenced record does not exist or is still in use")
