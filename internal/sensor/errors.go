package sensor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/snowsensor/snownode/internal/sensor/aht20"
)

// SenseErrorKind classifies a failed acquisition.
type SenseErrorKind int

const (
	// BusTimeout means the sensor did not answer in time.
	BusTimeout SenseErrorKind = iota
	// ChecksumFailure means the result frame failed its CRC.
	ChecksumFailure
	// NotReady means the sensor is not calibrated or not yet converted.
	NotReady
	// BusFailure is any other bus-level error.
	BusFailure
)

// String returns a human-readable name for the kind
func (k SenseErrorKind) String() string {
	switch k {
	case BusTimeout:
		return "bus_timeout"
	case ChecksumFailure:
		return "checksum_failure"
	case NotReady:
		return "not_ready"
	case BusFailure:
		return "bus_failure"
	default:
		return fmt.Sprintf("SenseErrorKind(%d)", int(k))
	}
}

// SenseError is returned by Reader.Read.
type SenseError struct {
	Kind   SenseErrorKind
	Driver string
	Err    error
}

// Error implements the error interface
func (e *SenseError) Error() string {
	return fmt.Sprintf("sensor %s: %s: %v", e.Driver, e.Kind, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SenseError) Unwrap() error {
	return e.Err
}

// IsSenseError checks if an error is a sensor failure
func IsSenseError(err error) bool {
	var sErr *SenseError
	return errors.As(err, &sErr)
}

// classify wraps a driver error into a SenseError.
func classify(driver string, err error) *SenseError {
	kind := BusFailure
	switch {
	case errors.Is(err, aht20.ErrTimeout), errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		kind = BusTimeout
	case errors.Is(err, aht20.ErrChecksum), strings.Contains(strings.ToLower(err.Error()), "checksum"):
		kind = ChecksumFailure
	case errors.Is(err, aht20.ErrNotReady):
		kind = NotReady
	}
	return &SenseError{Kind: kind, Driver: driver, Err: err}
}
