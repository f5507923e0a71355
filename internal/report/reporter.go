package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/identity"
	"github.com/snowsensor/snownode/internal/logging"
	"github.com/snowsensor/snownode/internal/sensor"
	"github.com/snowsensor/snownode/internal/version"
)

const (
	// DefaultDeviceHeader carries the device identity on every report.
	DefaultDeviceHeader = "snow-device-mac"

	// DefaultTimeout bounds one report round trip.
	DefaultTimeout = 10 * time.Second
)

// Reporter posts readings to the collector webhook. It never retries.
type Reporter struct {
	// URL is the webhook endpoint.
	URL string

	// DeviceHeader is the header carrying the device identity.
	DeviceHeader string

	// Shape selects the body layout.
	Shape Shape

	// HTTPClient is reused across cycles.
	HTTPClient *http.Client

	logger *zap.Logger
}

// NewReporter creates a Reporter with default header, shape and timeout.
func NewReporter(url string, logger *zap.Logger) *Reporter {
	return &Reporter{
		URL:          url,
		DeviceHeader: DefaultDeviceHeader,
		Shape:        ShapeDual,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
			// a 3xx answer is the collector's verdict; never re-send the reading
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logging.OrNop(logger),
	}
}

// SetTimeout sets the HTTP client timeout
func (r *Reporter) SetTimeout(timeout time.Duration) {
	r.HTTPClient.Timeout = timeout
}

// Report sends one reading. Any status below 400 is success whatever the
// body says; 400 and above, or no response at all, is a *ReportError.
func (r *Reporter) Report(ctx context.Context, id identity.ID, reading sensor.Reading) error {
	body, err := Encode(r.Shape, id, reading)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(r.DeviceHeader, string(id))

	r.logger.Debug("posting reading", zap.String("url", r.URL), zap.ByteString("body", body))

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return ClassifyTransportError(err, r.URL)
	}
	defer resp.Body.Close()
	// drain so the keep-alive connection can be reused next cycle
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return &ReportError{Kind: ReportHTTPStatus, StatusCode: resp.StatusCode, URL: r.URL}
	}

	r.logger.Info("reading reported", zap.Int("status", resp.StatusCode))
	return nil
}
