// Package board initialises the single-board computer's peripherals through
// periph.io and hands out the I²C bus and GPIO lines the node uses.
package board

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/snowsensor/snownode/internal/logging"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the host drivers. It is safe to call more than once.
func Init(logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = fmt.Errorf("failed to initialise host drivers: %w", err)
			return
		}
		for _, f := range state.Failed {
			logger.Debug("host driver failed", zap.String("driver", f.D.String()), zap.Error(f.Err))
		}
		logger.Debug("host drivers loaded", zap.Int("loaded", len(state.Loaded)))
	})
	return initErr
}

// I2C adapts a periph.io bus to the tinygo drivers.I2C shape used by the
// sensor drivers.
type I2C struct {
	name string
	bus  i2c.BusCloser
}

// NewI2C wraps an already opened bus.
func NewI2C(name string, bus i2c.BusCloser) *I2C {
	return &I2C{name: name, bus: bus}
}

// OpenI2C opens a bus by periph.io name ("1", "/dev/i2c-1", or "" for the
// first bus found). Init must have been called.
func OpenI2C(name string) (*I2C, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}
	return NewI2C(name, bus), nil
}

// Tx writes w and then reads into r in one transaction.
func (b *I2C) Tx(addr uint16, w, r []byte) error {
	if err := b.bus.Tx(addr, w, r); err != nil {
		return fmt.Errorf("i2c %s addr %#02x: %w", b.name, addr, err)
	}
	return nil
}

// Close releases the bus.
func (b *I2C) Close() error {
	return b.bus.Close()
}

// Pin looks up a GPIO line by name, e.g. "GPIO17". Init must have been called.
func Pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown GPIO pin %q", name)
	}
	return p, nil
}
