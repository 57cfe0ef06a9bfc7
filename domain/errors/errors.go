package errors

import (
	"errors"
	"fmt"
)

// ValidationError is a user input problem. It is reported back to the user
// and never logged as a system fault.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StoreError is a failed call to the identity store
type StoreError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("identity store %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("identity store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// PlatformError is a failed call to the chat platform
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("chat platform %s failed: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a ValidationError on field
func NewValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NewStoreError wraps err as a StoreError
func NewStoreError(op string, status int, err error) error {
	return &StoreError{Op: op, StatusCode: status, Err: err}
}

// NewPlatformError wraps err as a PlatformError
func NewPlatformError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PlatformError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}

func IsPlatform(err error) bool {
	var target *PlatformError
	return errors.As(err, &target)
}
