package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed request parameters.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound signals a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrSourceUnavailable signals a provider that exhausted its retries.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrReasoningFailure signals a failed or unparseable reasoning call.
	ErrReasoningFailure = errors.New("reasoning service failure")
)

// ProviderError is a single failed call to a shopping provider.
// StatusCode is the HTTP status when known, 0 for transport-level failures.
type ProviderError struct {
	Source     Source
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Temporary reports whether the failure is worth retrying. Client-class
// status codes (4xx) are caller errors, not transient faults.
func (e *ProviderError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// SourceUnavailableError wraps ErrSourceUnavailable with the source name
// and the number of attempts made before giving up.
type SourceUnavailableError struct {
	Source   Source
	Attempts int
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempts: %v", e.Source, e.Attempts, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return ErrSourceUnavailable }

// NewSourceUnavailable creates a retries-exhausted error for a provider.
func NewSourceUnavailable(source Source, attempts int, err error) error {
	return &SourceUnavailableError{Source: source, Attempts: attempts, Err: err}
}
