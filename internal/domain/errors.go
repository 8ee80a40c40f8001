package domain

import (
	"errors"
	"fmt"
)

// ErrNoSettings is returned when a run is triggered before any backup
// settings have been stored. A configured-but-empty account list is not an
// error.
var ErrNoSettings = errors.New("no backup settings configured")

// ErrArchiveSession marks a failure to establish the destination-store
// session for a run. It aborts the whole run before any account is touched.
var ErrArchiveSession = errors.New("archive session")

// ErrLedgerIO marks a failure to load or store the status ledger. It fails
// the run's status-update step but does not re-run account processing.
var ErrLedgerIO = errors.New("status ledger")

// AuthError reports a credential exchange rejected by a remote platform.
// It is recovered per account: the orchestrator records a failed outcome and
// moves on.
type AuthError struct {
	Platform Provider
	Account  string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed for %s: %v", e.Platform, e.Account, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a data-retrieval call that returned a non-success
// status or a malformed payload. Like AuthError it is recovered per account.
type FetchError struct {
	URL string

	// Status is the HTTP status code, or zero when the request never
	// produced a response (connection failure, timeout).
	Status int

	// Body holds the response body for diagnostics when Status is set.
	Body string

	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
