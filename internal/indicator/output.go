package indicator

import (
	"fmt"
	"os"
	"path/filepath"

	"periph.io/x/conn/v3/gpio"
)

// DefaultSysfsRoot is where the kernel exposes LED class devices.
const DefaultSysfsRoot = "/sys/class/leds"

// Output is one on/off indicator.
type Output interface {
	Name() string
	Set(on bool) error
}

// GPIOOutput drives an LED wired to a GPIO line.
type GPIOOutput struct {
	pin gpio.PinOut
}

// NewGPIOOutput wraps pin.
func NewGPIOOutput(pin gpio.PinOut) *GPIOOutput {
	return &GPIOOutput{pin: pin}
}

func (o *GPIOOutput) Name() string { return o.pin.Name() }

func (o *GPIOOutput) Set(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	return o.pin.Out(level)
}

// SysfsLED drives an LED class device such as the on-board "ACT" LED.
// The kernel trigger is switched to "none" on first use so the LED only
// shows what this process sets.
type SysfsLED struct {
	Root string
	LED  string

	claimed bool
}

// NewSysfsLED returns the LED named led under root.
func NewSysfsLED(root, led string) *SysfsLED {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsLED{Root: root, LED: led}
}

func (l *SysfsLED) Name() string { return "led:" + l.LED }

func (l *SysfsLED) Set(on bool) error {
	dir := filepath.Join(l.Root, l.LED)
	if !l.claimed {
		// not every LED exposes a trigger
		_ = os.WriteFile(filepath.Join(dir, "trigger"), []byte("none"), 0o644)
		l.claimed = true
	}

	value := "0"
	if on {
		value = "1"
	}
	if err := os.WriteFile(filepath.Join(dir, "brightness"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to set %s: %w", l.Name(), err)
	}
	return nil
}
