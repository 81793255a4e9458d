package core

import "github.com/pkg/errors"

// FieldError pins a validation failure to a single struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a business-rule violation; the HTTP layer renders its
// Fields as a field->message object.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// shutdown signals the API server to drain and exit when it reaches the
// HTTP error handler.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error { return &shutdown{message: msg} }

func (s shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
