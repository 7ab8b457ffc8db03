package gitpress

import (
	"errors"
	"fmt"
)

// Sentinel errors used for simple equality-style checks with errors.Is.
var (
	// ErrNotFound is returned when the requested path does not exist on the
	// content branch.
	ErrNotFound = errors.New("gitpress: not found")

	// ErrAuth is returned when the credential is missing or rejected by the
	// remote store. Never retried.
	ErrAuth = errors.New("gitpress: authentication rejected")

	// ErrConflict is returned when a conditional write carried a stale
	// revision marker. Retryable: the caller should reload the current state
	// and resubmit, never blindly retry the same write.
	ErrConflict = errors.New("gitpress: revision conflict")
)

// UpstreamError represents any other non-success response from the remote
// store, including transient network and service failures. This layer does not
// distinguish transient from permanent; callers apply their own bounded retry
// if they want one.
type UpstreamError struct {
	Status int    // HTTP status from the remote store, 0 for transport errors
	Body   string // bounded excerpt of the upstream error body
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream error: %s", e.Body)
	}
	return fmt.Sprintf("upstream error: status %d: %s", e.Status, e.Body)
}

// ValidationError reports caller-supplied content that fails a business rule,
// such as a non-image upload or an oversized payload. Always terminal.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// NewValidationError constructs a ValidationError.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}
