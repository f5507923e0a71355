package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError reports a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the configuration and returns every problem found,
// joined into one error. It returns nil for a usable configuration.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, validateWiFi(&c.WiFi)...)
	errs = append(errs, validateWebhook(&c.Webhook)...)
	errs = append(errs, validateSensor(&c.Sensor)...)
	errs = append(errs, validateIndicator(&c.Indicator)...)
	errs = append(errs, validateCycle(&c.Cycle)...)

	if c.TimeSource.Enabled {
		if err := validateURL("time_source.url", c.TimeSource.URL); err != nil {
			errs = append(errs, err)
		}
		if c.TimeSource.Field == "" {
			errs = append(errs, invalid("time_source.field", "cannot be empty"))
		}
	}

	if c.OTA.Enabled {
		errs = append(errs, validateOTA(&c.OTA)...)
	}

	return errors.Join(errs...)
}

// ValidateWiFiSSID validates a WiFi SSID.
// SSIDs must be non-empty and <= 32 characters (WiFi spec limit).
func ValidateWiFiSSID(ssid string) error {
	if ssid == "" {
		return invalid("wifi.ssid", "cannot be empty")
	}
	if len(ssid) > 32 {
		return invalid("wifi.ssid", "too long (max 32 chars): %d chars", len(ssid))
	}
	return nil
}

// ValidateWiFiPassword validates a WPA passphrase. Empty means an open network.
func ValidateWiFiPassword(password string) error {
	if password == "" {
		return nil
	}
	if len(password) < 8 {
		return invalid("wifi.password", "WPA2 password too short (min 8 chars): %d chars", len(password))
	}
	if len(password) > 63 {
		return invalid("wifi.password", "WPA2 password too long (max 63 chars): %d chars", len(password))
	}
	return nil
}

func validateWiFi(w *WiFiConfig) []error {
	var errs []error
	if err := ValidateWiFiSSID(w.SSID); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateWiFiPassword(w.Password); err != nil {
		errs = append(errs, err)
	}
	if w.ControlSocket == "" {
		errs = append(errs, invalid("wifi.control_socket", "cannot be empty"))
	}
	if w.JoinAttempts < 1 || w.JoinAttempts > 600 {
		errs = append(errs, invalid("wifi.join_attempts", "must be 1-600, got %d", w.JoinAttempts))
	}
	if w.PollInterval <= 0 {
		errs = append(errs, invalid("wifi.poll_interval", "must be positive"))
	}
	return errs
}

func validateWebhook(w *WebhookConfig) []error {
	var errs []error
	switch {
	case w.URL != "":
		if err := validateURL("webhook.url", w.URL); err != nil {
			errs = append(errs, err)
		}
	case !w.Discover:
		errs = append(errs, invalid("webhook.url", "required unless webhook.discover is enabled"))
	case w.DiscoverService == "":
		errs = append(errs, invalid("webhook.discover_service", "cannot be empty"))
	}
	if w.DeviceHeader == "" {
		errs = append(errs, invalid("webhook.device_header", "cannot be empty"))
	}
	if w.Payload != PayloadDual && w.Payload != PayloadScalar {
		errs = append(errs, invalid("webhook.payload", "must be %q or %q, got %q", PayloadDual, PayloadScalar, w.Payload))
	}
	if w.Timeout <= 0 {
		errs = append(errs, invalid("webhook.timeout", "must be positive"))
	}
	return errs
}

func validateSensor(s *SensorConfig) []error {
	var errs []error
	switch s.Model {
	case ModelAHT20, ModelSHTC3:
	default:
		errs = append(errs, invalid("sensor.model", "must be %q or %q, got %q", ModelAHT20, ModelSHTC3, s.Model))
	}
	if s.Address > 0x7F {
		errs = append(errs, invalid("sensor.address", "not a 7-bit I2C address: %#x", s.Address))
	}
	if s.WarmUp < 0 {
		errs = append(errs, invalid("sensor.warm_up", "cannot be negative"))
	}
	return errs
}

func validateIndicator(i *IndicatorConfig) []error {
	var errs []error
	if i.BlinkCount < 1 {
		errs = append(errs, invalid("indicator.blink_count", "must be at least 1, got %d", i.BlinkCount))
	}
	if i.BlinkOn <= 0 || i.BlinkOff <= 0 {
		errs = append(errs, invalid("indicator.blink_on", "blink_on and blink_off must be positive"))
	}
	return errs
}

func validateCycle(c *CycleConfig) []error {
	var errs []error
	if c.IntervalSeconds < 1 {
		errs = append(errs, invalid("cycle.interval_seconds", "must be at least 1, got %d", c.IntervalSeconds))
	}
	if c.FaultPolicy != FaultHalt && c.FaultPolicy != FaultSleepThenRetry {
		errs = append(errs, invalid("cycle.fault_policy", "must be %q or %q, got %q", FaultHalt, FaultSleepThenRetry, c.FaultPolicy))
	}
	if c.DeepSleep && c.RTCDevice == "" {
		errs = append(errs, invalid("cycle.rtc_device", "required when deep_sleep is enabled"))
	}
	return errs
}

func validateOTA(o *OTAConfig) []error {
	var errs []error
	if err := validateURL("ota.base_url", o.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if o.Owner == "" || o.Repo == "" {
		errs = append(errs, invalid("ota.repo", "owner and repo are required when OTA is enabled"))
	}
	if len(o.Files) == 0 {
		errs = append(errs, invalid("ota.files", "at least one file is required"))
	}
	for _, f := range o.Files {
		if f == "" || strings.Contains(f, "..") || strings.HasPrefix(f, "/") {
			errs = append(errs, invalid("ota.files", "unsafe file name %q", f))
		}
	}
	if o.InstallDir == "" {
		errs = append(errs, invalid("ota.install_dir", "cannot be empty"))
	}
	return errs
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return invalid(field, "invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid(field, "scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return invalid(field, "missing host")
	}
	return nil
}
