package sensor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/logging"
)

// DefaultWarmUpDelay is the pause appended to a warm-up read.
const DefaultWarmUpDelay = time.Second

// Driver performs one raw measurement.
type Driver interface {
	// Name identifies the part in logs and errors.
	Name() string
	// SettleDelay is the hardware-mandated wait before each bus transaction.
	SettleDelay() time.Duration
	// Measure returns temperature in °C and relative humidity in percent.
	Measure() (celsius, humidity float64, err error)
}

// Reader acquires readings from a Driver.
type Reader struct {
	driver Driver
	logger *zap.Logger

	// Fahrenheit selects the unit of Reading.Temperature.
	Fahrenheit bool

	// WarmUpDelay is slept after a warm-up read.
	WarmUpDelay time.Duration

	// Sleep is the blocking wait used for settle and warm-up delays.
	Sleep func(time.Duration)
}

// NewReader creates a Reader for driver.
func NewReader(driver Driver, fahrenheit bool, logger *zap.Logger) *Reader {
	return &Reader{
		driver:      driver,
		logger:      logging.OrNop(logger),
		Fahrenheit:  fahrenheit,
		WarmUpDelay: DefaultWarmUpDelay,
		Sleep:       time.Sleep,
	}
}

// Read performs one acquisition. The context is checked before the settle
// delay; once the delay starts the read runs to completion.
func (r *Reader) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	r.Sleep(r.driver.SettleDelay())

	c, h, err := r.driver.Measure()
	if err != nil {
		sErr := classify(r.driver.Name(), err)
		r.logger.Debug("sensor read failed",
			zap.String("driver", sErr.Driver),
			zap.Stringer("kind", sErr.Kind),
			zap.Error(err),
		)
		return Reading{}, sErr
	}

	reading := Reading{
		Celsius:     c,
		Temperature: c,
		Unit:        Celsius,
		Humidity:    h,
	}
	if r.Fahrenheit {
		reading.Temperature = ToFahrenheit(c)
		reading.Unit = Fahrenheit
	}

	r.logger.Debug("sensor reading",
		zap.Float64("temperature", reading.Temperature),
		zap.String("unit", string(reading.Unit)),
		zap.Float64("humidity", reading.Humidity),
	)
	return reading, nil
}

// WarmUp primes the sensor with a discarded read and then waits
// WarmUpDelay. It never fails.
func (r *Reader) WarmUp(ctx context.Context) {
	if err := r.warmUpRead(ctx); err != nil {
		r.logger.Debug("warm-up read discarded", zap.Error(err))
	}
	r.Sleep(r.WarmUpDelay)
}

func (r *Reader) warmUpRead(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during warm-up: %v", p)
		}
	}()
	_, err = r.Read(ctx)
	return err
}
