package wireless

import (
	"errors"
	"fmt"
)

// JoinErrorKind distinguishes why a join failed.
type JoinErrorKind int

const (
	// JoinRejected means the station entered a non-transient state.
	JoinRejected JoinErrorKind = iota
	// JoinTimeout means the retry budget ran out while still connecting.
	JoinTimeout
)

// String returns a human-readable name for the kind
func (k JoinErrorKind) String() string {
	switch k {
	case JoinRejected:
		return "rejected"
	case JoinTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("JoinErrorKind(%d)", int(k))
	}
}

// JoinError is returned by Joiner.Join.
type JoinError struct {
	Kind  JoinErrorKind
	SSID  string
	Code  Status // last status seen
	Polls int    // status polls performed
	Err   error  // underlying error, if any
}

// Error implements the error interface
func (e *JoinError) Error() string {
	switch e.Kind {
	case JoinTimeout:
		return fmt.Sprintf("wifi join %q timed out after %d polls", e.SSID, e.Polls)
	default:
		if e.Err != nil {
			return fmt.Sprintf("wifi join %q rejected: status %s: %v", e.SSID, e.Code, e.Err)
		}
		return fmt.Sprintf("wifi join %q rejected: status %s", e.SSID, e.Code)
	}
}

// Unwrap returns the underlying error for error chain inspection
func (e *JoinError) Unwrap() error {
	return e.Err
}

// IsTimeout checks if an error is a join timeout
func IsTimeout(err error) bool {
	var jErr *JoinError
	return errors.As(err, &jErr) && jErr.Kind == JoinTimeout
}

// IsRejected checks if an error is a rejected association
func IsRejected(err error) bool {
	var jErr *JoinError
	return errors.As(err, &jErr) && jErr.Kind == JoinRejected
}
