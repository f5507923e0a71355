package report

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ReportErrorKind distinguishes a rejected report from an undeliverable one.
type ReportErrorKind int

const (
	// ReportHTTPStatus means the collector answered with status >= 400.
	ReportHTTPStatus ReportErrorKind = iota
	// ReportTransport means no response was received.
	ReportTransport
)

// String returns a human-readable name for the kind
func (k ReportErrorKind) String() string {
	switch k {
	case ReportHTTPStatus:
		return "http_status"
	case ReportTransport:
		return "transport"
	default:
		return fmt.Sprintf("ReportErrorKind(%d)", int(k))
	}
}

// TransportSubtype provides more specific transport error classification
type TransportSubtype int

const (
	TransportGeneral TransportSubtype = iota
	TransportTimeout
	TransportConnectionRefused
	TransportDNS
	TransportHostUnreachable
	TransportNetworkUnreachable
)

// String returns a human-readable name for the subtype
func (s TransportSubtype) String() string {
	switch s {
	case TransportGeneral:
		return "general"
	case TransportTimeout:
		return "timeout"
	case TransportConnectionRefused:
		return "connection_refused"
	case TransportDNS:
		return "dns"
	case TransportHostUnreachable:
		return "host_unreachable"
	case TransportNetworkUnreachable:
		return "network_unreachable"
	default:
		return fmt.Sprintf("TransportSubtype(%d)", int(s))
	}
}

// ReportError is returned by Reporter.Report.
type ReportError struct {
	Kind       ReportErrorKind
	StatusCode int              // HTTP status code (HTTPStatus only)
	Subtype    TransportSubtype // Transport only
	URL        string
	Err        error
}

// Error implements the error interface
func (e *ReportError) Error() string {
	switch e.Kind {
	case ReportHTTPStatus:
		return fmt.Sprintf("report to %s rejected: HTTP %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("report to %s failed (%s): %v", e.URL, e.Subtype, e.Err)
	}
}

// Unwrap returns the underlying error for error chain inspection
func (e *ReportError) Unwrap() error {
	return e.Err
}

// IsHTTPStatus checks if an error is a rejected report
func IsHTTPStatus(err error) bool {
	var rErr *ReportError
	return errors.As(err, &rErr) && rErr.Kind == ReportHTTPStatus
}

// IsTransport checks if an error is an undeliverable report
func IsTransport(err error) bool {
	var rErr *ReportError
	return errors.As(err, &rErr) && rErr.Kind == ReportTransport
}

// ClassifyTransportError wraps a client error into a transport ReportError
// with a specific subtype.
func ClassifyTransportError(err error, target string) *ReportError {
	if err == nil {
		return nil
	}
	return &ReportError{
		Kind:    ReportTransport,
		Subtype: transportSubtype(err),
		URL:     target,
		Err:     err,
	}
}

func transportSubtype(err error) TransportSubtype {
	if os.IsTimeout(err) {
		return TransportTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TransportDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return TransportConnectionRefused
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return TransportHostUnreachable
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return TransportNetworkUnreachable
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		// Recursively classify the underlying error
		return transportSubtype(urlErr.Err)
	}

	return TransportGeneral
}
