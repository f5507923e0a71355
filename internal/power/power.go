// Package power implements the end-of-cycle transitions: an in-process
// sleep, a deep sleep (RTC wake alarm followed by power-off) and a hardware
// reset. Deep sleep and reset never return on success; the next cycle starts
// from power-on.
package power

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/logging"
)

// DefaultRTCDevice is the RTC whose wake alarm is armed for deep sleep.
const DefaultRTCDevice = "/sys/class/rtc/rtc0"

// ErrUnsupported is returned where the platform cannot power off or reboot.
var ErrUnsupported = errors.New("power: not supported on this platform")

// Kind selects the reboot(2) operation.
type Kind int

const (
	PowerOff Kind = iota
	Restart
)

// Controller performs power transitions.
type Controller struct {
	// RTCDevice is the sysfs directory of the wake RTC.
	RTCDevice string

	// Sleep is the in-process wait.
	Sleep func(time.Duration)

	// Reboot flushes filesystems and performs the transition.
	Reboot func(Kind) error

	logger *zap.Logger
}

// NewController creates a Controller for the platform.
func NewController(rtcDevice string, logger *zap.Logger) *Controller {
	if rtcDevice == "" {
		rtcDevice = DefaultRTCDevice
	}
	return &Controller{
		RTCDevice: rtcDevice,
		Sleep:     time.Sleep,
		Reboot:    reboot,
		logger:    logging.OrNop(logger),
	}
}

// LightSleep blocks for d.
func (c *Controller) LightSleep(d time.Duration) {
	c.logger.Info("sleeping", zap.Duration("interval", d))
	c.Sleep(d)
}

// DeepSleep arms the RTC to wake the board after d and powers off.
func (c *Controller) DeepSleep(d time.Duration) error {
	if err := c.ArmWake(d); err != nil {
		return err
	}
	c.logger.Info("entering deep sleep", zap.Duration("interval", d))
	_ = c.logger.Sync()
	if err := c.Reboot(PowerOff); err != nil {
		return fmt.Errorf("failed to power off: %w", err)
	}
	return nil
}

// Reset restarts the board.
func (c *Controller) Reset() error {
	c.logger.Info("resetting device")
	_ = c.logger.Sync()
	if err := c.Reboot(Restart); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	return nil
}

// ArmWake programs the RTC wake alarm d from now, rounded up to whole
// seconds. Any previously armed alarm is cleared first, as the kernel
// rejects a new alarm while one is pending.
func (c *Controller) ArmWake(d time.Duration) error {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return fmt.Errorf("wake interval must be at least 1s, got %v", d)
	}

	path := filepath.Join(c.RTCDevice, "wakealarm")
	if err := os.WriteFile(path, []byte("0"), 0o644); err != nil {
		return fmt.Errorf("failed to clear wake alarm: %w", err)
	}
	if err := os.WriteFile(path, []byte("+"+strconv.FormatInt(secs, 10)), 0o644); err != nil {
		return fmt.Errorf("failed to arm wake alarm: %w", err)
	}
	return nil
}
