/*
errors.go - Centralized error types for the approval views

PURPOSE:
  The reconciler and synthesizer never return errors: missing signals are
  defaulted and unknown backend values fall through to NEW. Errors exist only
  at the edges (parsing client input, fetching from collaborators).

ERROR CATEGORIES:
  1. Fetch errors - A collaborator call failed; caller falls back to degraded mode
  2. Staleness - A newer fetch superseded this one
  3. Input errors - Unknown domain or status in a client filter

SEE ALSO:
  - loader.go: Produces ErrSuperseded and FetchError
  - backend/client.go: Wraps HTTP failures in FetchError
*/
package workflow

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrFetchFailed is wrapped by every collaborator failure.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrSuperseded is returned when a newer load for the same viewer started
	// before this one finished. The result must be discarded.
	ErrSuperseded = errors.New("fetch superseded by a newer request")

	// ErrRequestNotFound is returned when a source has no such request.
	ErrRequestNotFound = errors.New("request not found")

	// ErrUnknownDomain is returned for a domain name outside LEAVE/LOAN/LABOR.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrUnknownStatus is returned for a canonical status filter outside the closed set.
	ErrUnknownStatus = errors.New("unknown status")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FetchError describes a failed collaborator call.
type FetchError struct {
	Domain    Domain
	RequestID int64 // 0 for list calls
	Op        string
	Err       error
}

func (e *FetchError) Error() string {
	if e.RequestID != 0 {
		return fmt.Sprintf("%s %s #%d: %v", e.Op, e.Domain, e.RequestID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Domain, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// UnknownDomainError carries the rejected domain value.
type UnknownDomainError struct {
	Value string
}

func (e *UnknownDomainError) Error() string {
	return fmt.Sprintf("unknown domain %q", e.Value)
}

func (e *UnknownDomainError) Unwrap() error {
	return ErrUnknownDomain
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFetchFailure reports whether the caller should fall back to degraded mode.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsNotFound returns true if the error indicates a missing request.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownDomain) || errors.Is(err, ErrUnknownStatus)
}
