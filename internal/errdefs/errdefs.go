// Package errdefs defines the error taxonomy shared by all components:
// validation failures, storage failures, provider failures, and use of a
// component before its required setup.
package errdefs

import (
	"errors"
	"fmt"
)

// ValidationError reports rejected input (bad device, action, or time).
// Validation errors are never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError reports an I/O failure on the persistent store. Callers treat
// it as terminal for the current call; the next cycle tries again.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for the named operation.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ProviderError reports a failure of an external collaborator (sensor,
// camera, or inference provider).
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider wraps err as a ProviderError attributed to the named provider.
func Provider(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// IsProvider reports whether err is a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ErrNotInitialized is returned when an operation is invoked before the
// component's required setup, e.g. capturing before the camera was set up.
var ErrNotInitialized = errors.New("not initialized")

// NotInitialized builds an ErrNotInitialized wrapper naming the component.
func NotInitialized(component string) error {
	return fmt.Errorf("%s: %w", component, ErrNotInitialized)
}

// IsNotInitialized reports whether err wraps ErrNotInitialized.
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}
