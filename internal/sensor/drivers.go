package sensor

import (
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/shtc3"

	"github.com/snowsensor/snownode/internal/sensor/aht20"
)

// Settle delays required by each part before a bus transaction.
const (
	AHT20SettleDelay = 40 * time.Millisecond
	SHTC3SettleDelay = time.Millisecond
)

// AHT20 adapts the aht20 driver to Driver.
type AHT20 struct {
	dev *aht20.Device
}

// NewAHT20 returns an AHT20 on bus. A zero addr selects the default address.
func NewAHT20(bus drivers.I2C, addr uint16) *AHT20 {
	dev := aht20.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	return &AHT20{dev: dev}
}

func (a *AHT20) Name() string               { return "aht20" }
func (a *AHT20) SettleDelay() time.Duration { return AHT20SettleDelay }

func (a *AHT20) Measure() (float64, float64, error) {
	m, err := a.dev.Read()
	if err != nil {
		return 0, 0, err
	}
	return m.Celsius, m.Humidity, nil
}

// SHTC3 adapts the tinygo shtc3 driver to Driver. The part is woken for
// each measurement and put back to sleep afterwards.
type SHTC3 struct {
	dev shtc3.Device
}

// NewSHTC3 returns an SHTC3 on bus. The part has a fixed address.
func NewSHTC3(bus drivers.I2C) *SHTC3 {
	return &SHTC3{dev: shtc3.New(bus)}
}

func (s *SHTC3) Name() string               { return "shtc3" }
func (s *SHTC3) SettleDelay() time.Duration { return SHTC3SettleDelay }

func (s *SHTC3) Measure() (float64, float64, error) {
	if err := s.dev.WakeUp(); err != nil {
		return 0, 0, err
	}
	defer func() { _ = s.dev.Sleep() }()

	milliC, rhx100, err := s.dev.ReadTemperatureHumidity()
	if err != nil {
		return 0, 0, err
	}
	return float64(milliC) / 1000, float64(rhx100) / 100, nil
}
