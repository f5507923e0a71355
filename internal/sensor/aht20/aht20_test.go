package aht20

import (
	"errors"
	"math"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*fakeBus)(nil)

// fakeBus scripts the sensor side of the protocol.
type fakeBus struct {
	status    byte
	busyPolls int // frames reported busy before the result
	frame     [frameLen]byte
	corrupt   bool
	txErr     error

	inits    int
	triggers int
	reads    int
}

func newFakeBus(hraw, traw uint32) *fakeBus {
	f := &fakeBus{status: statusCalibrated | 0x10}
	f.frame[0] = f.status
	f.frame[1] = byte(hraw >> 12)
	f.frame[2] = byte(hraw >> 4)
	f.frame[3] = byte(hraw&0x0F)<<4 | byte(traw>>16)&0x0F
	f.frame[4] = byte(traw >> 8)
	f.frame[5] = byte(traw)
	f.frame[6] = crc8(f.frame[:6])
	return f
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if f.txErr != nil {
		return f.txErr
	}
	if addr != Address {
		return errors.New("nack")
	}
	switch {
	case len(w) == 1 && w[0] == cmdStatus:
		r[0] = f.status
	case len(w) == 3 && w[0] == cmdInitialize:
		f.inits++
		f.status |= statusCalibrated
	case len(w) == 3 && w[0] == cmdTrigger:
		f.triggers++
	case len(w) == 0 && len(r) == frameLen:
		f.reads++
		copy(r, f.frame[:])
		if f.reads <= f.busyPolls {
			r[0] |= statusBusy
		}
		if f.corrupt {
			r[6] ^= 0xFF
		}
	}
	return nil
}

func newTestDevice(bus *fakeBus) (*Device, *time.Duration) {
	var slept time.Duration
	d := New(bus)
	d.Sleep = func(dur time.Duration) { slept += dur }
	return d, &slept
}

func TestCRC8(t *testing.T) {
	// worked example from the Sensirion datasheets, same polynomial and seed
	if got := crc8([]byte{0xBE, 0xEF}); got != 0x92 {
		t.Errorf("crc8(BEEF) = %#x, want 0x92", got)
	}
}

func TestRead(t *testing.T) {
	// 25.0 °C, 50.0 %RH
	bus := newFakeBus(0x80000, 0x60000)
	d, _ := newTestDevice(bus)

	m, err := d.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if math.Abs(m.Celsius-25.0) > 1e-9 {
		t.Errorf("Celsius = %v, want 25", m.Celsius)
	}
	if math.Abs(m.Humidity-50.0) > 1e-9 {
		t.Errorf("Humidity = %v, want 50", m.Humidity)
	}
	if bus.inits != 0 {
		t.Errorf("init sent to a calibrated sensor")
	}
}

func TestReadInitializesUncalibrated(t *testing.T) {
	bus := newFakeBus(0x80000, 0x60000)
	bus.status = 0x10
	d, _ := newTestDevice(bus)

	if _, err := d.Read(); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if bus.inits != 1 {
		t.Errorf("inits = %d, want 1", bus.inits)
	}
}

func TestReadPollsWhileBusy(t *testing.T) {
	bus := newFakeBus(0x80000, 0x60000)
	bus.busyPolls = 3
	d, _ := newTestDevice(bus)

	if _, err := d.Read(); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if bus.reads != 4 {
		t.Errorf("reads = %d, want 4", bus.reads)
	}
}

func TestReadTimeout(t *testing.T) {
	bus := newFakeBus(0x80000, 0x60000)
	bus.busyPolls = 1000
	d, slept := newTestDevice(bus)
	d.PollInterval = 10 * time.Millisecond
	d.CollectTimeout = 50 * time.Millisecond

	_, err := d.Read()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Read() error = %v, want ErrTimeout", err)
	}
	if bus.reads != 6 {
		t.Errorf("reads = %d, want 6", bus.reads)
	}
	want := d.ConversionTime + d.CollectTimeout
	if *slept != want {
		t.Errorf("slept = %v, want %v", *slept, want)
	}
}

func TestReadChecksum(t *testing.T) {
	bus := newFakeBus(0x80000, 0x60000)
	bus.corrupt = true
	d, _ := newTestDevice(bus)

	if _, err := d.Read(); !errors.Is(err, ErrChecksum) {
		t.Errorf("Read() error = %v, want ErrChecksum", err)
	}
}

func TestReadNotReady(t *testing.T) {
	bus := newFakeBus(0x80000, 0x60000)
	bus.frame[0] = 0x10 // calibration bit lost after the trigger
	bus.frame[6] = crc8(bus.frame[:6])
	d, _ := newTestDevice(bus)

	if _, err := d.Read(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Read() error = %v, want ErrNotReady", err)
	}
}

func TestReadBusError(t *testing.T) {
	bus := newFakeBus(0, 0)
	bus.txErr = errors.New("i2c: remote I/O error")
	d, _ := newTestDevice(bus)

	if _, err := d.Read(); !errors.Is(err, bus.txErr) {
		t.Errorf("Read() error = %v, want bus error", err)
	}
}
