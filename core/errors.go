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
		return ""
	}
	return err.Err.Error()
}

// shutdown marks a failure the process cannot recover from, such as a closed backend.
// The server stops gracefully when one reaches its error handler.
type shutdown struct {
	message string
	err     error
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

// ShutdownOn turns err into a shutdown error when it matches one of fatal; other errors pass through.
func ShutdownOn(err error, fatal ...error) error {
	for _, target := range fatal {
		if errors.Is(err, target) {
			return &shutdown{message: err.Error(), err: err}
		}
	}
	return err
}

func (s shutdown) Error() string {
	return s.message
}

// Unwrap exposes the backend error to errors.Is without hiding the shutdown from errors.Cause.
func (s shutdown) Unwrap() error {
	return s.err
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
