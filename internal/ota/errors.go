package ota

import (
	"errors"
	"fmt"
)

// UpdateErrorKind classifies a failed update check.
type UpdateErrorKind int

const (
	// UpdateTransport means the repository could not be reached or read.
	UpdateTransport UpdateErrorKind = iota
	// UpdateVerification means fetched content did not match its checksum
	// or could not be installed.
	UpdateVerification
)

// String returns a human-readable name for the kind
func (k UpdateErrorKind) String() string {
	switch k {
	case UpdateTransport:
		return "transport"
	case UpdateVerification:
		return "verification"
	default:
		return fmt.Sprintf("UpdateErrorKind(%d)", int(k))
	}
}

// UpdateError is returned by Checker.CheckAndApply and RepoSync.Sync.
type UpdateError struct {
	Kind UpdateErrorKind
	File string // file involved, if any
	Err  error
}

// Error implements the error interface
func (e *UpdateError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("ota %s failure on %s: %v", e.Kind, e.File, e.Err)
	}
	return fmt.Sprintf("ota %s failure: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *UpdateError) Unwrap() error {
	return e.Err
}

// IsVerification checks if an error is a verification failure
func IsVerification(err error) bool {
	var uErr *UpdateError
	return errors.As(err, &uErr) && uErr.Kind == UpdateVerification
}

// IsTransport checks if an error is a transport failure
func IsTransport(err error) bool {
	var uErr *UpdateError
	return errors.As(err, &uErr) && uErr.Kind == UpdateTransport
}
