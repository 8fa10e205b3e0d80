package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that no work list is stored for the session.
	ErrNotFound = errors.New("no timeline data found, please upload a file first")
	// ErrInvalidInput reports malformed input or a reference to an unknown work.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoWorks reports a stored but empty work list where at least one item is needed.
	ErrNoWorks = errors.New("no works available")
)

// UnknownWorkError names a work ID that is not in the session's list.
type UnknownWorkError struct {
	ID string
}

func (e *UnknownWorkError) Error() string {
	return fmt.Sprintf("invalid work ID: %s", e.ID)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *UnknownWorkError) Unwrap() error {
	return ErrInvalidInput
}

type invalidInputError struct {
	msg string
}

func (e *invalidInputError) Error() string { return e.msg }
func (e *invalidInputError) Unwrap() error { return ErrInvalidInput }

// InvalidInputf returns an error wrapping ErrInvalidInput with a client-facing message.
func InvalidInputf(format string, args ...any) error {
	return &invalidInputError{msg: fmt.Sprintf(format, args...)}
}
