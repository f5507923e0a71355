// Package timesource fetches the current Unix time from an HTTP endpoint.
// The node has no battery-backed clock it trusts for timestamps, so readings
// are stamped from the network when a time source is configured.
package timesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/snowsensor/snownode/internal/version"
)

// DefaultField is the JSON field holding the epoch seconds.
const DefaultField = "unixtime"

// Error is returned when the current time could not be obtained.
type Error struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("time source %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("time source %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Client reads epoch time from a JSON endpoint.
type Client struct {
	URL        string
	Field      string
	HTTPClient *http.Client
}

// New creates a Client for url reading the default field.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		URL:        url,
		Field:      DefaultField,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Now returns the endpoint's current Unix time in seconds. Any status other
// than 200 is an error.
func (c *Client) Now(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return 0, &Error{URL: c.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, &Error{URL: c.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return 0, &Error{URL: c.URL, StatusCode: resp.StatusCode}
	}

	var doc map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return 0, &Error{URL: c.URL, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	field := c.Field
	if field == "" {
		field = DefaultField
	}
	raw, ok := doc[field]
	if !ok {
		return 0, &Error{URL: c.URL, Err: fmt.Errorf("response has no %q field", field)}
	}

	var secs int64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return 0, &Error{URL: c.URL, Err: fmt.Errorf("field %q is not an integer: %w", field, err)}
	}
	return secs, nil
}
