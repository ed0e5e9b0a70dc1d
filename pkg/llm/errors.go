package llm

import (
	"errors"
	"fmt"
)

// UnavailableError reports that the external LLM collaborator could not be
// reached or refused the request (network, auth, or transport failure).
// It is not recoverable inside the core; callers decide retry policy.
type UnavailableError struct {
	// Provider names the provider family that failed, e.g. "openai".
	Provider string

	// Err is the underlying transport or API error.
	Err error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("llm: %s provider unavailable: %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
