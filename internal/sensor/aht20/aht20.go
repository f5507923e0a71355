// Package aht20 drives the Aosong AHT20 temperature/humidity sensor over I²C.
//
// A measurement is a trigger command followed by polling the 7-byte result
// frame until the busy bit clears. The last byte of the frame is a CRC-8
// over the first six and is always verified.
package aht20

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Address is the fixed I²C address of the part.
const Address = 0x38

const (
	cmdInitialize = 0xBE
	cmdTrigger    = 0xAC
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08

	frameLen = 7
)

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("aht20: measurement timeout")
	ErrNotReady = errors.New("aht20: sensor not calibrated")
	ErrChecksum = errors.New("aht20: checksum mismatch")
)

// Measurement is one converted sample.
type Measurement struct {
	Celsius  float64
	Humidity float64 // %RH
}

// Device is an AHT20 on a bus.
type Device struct {
	bus     drivers.I2C
	Address uint16

	// ConversionTime is waited after each trigger before the first poll.
	ConversionTime time.Duration
	// PollInterval is waited between polls of a busy sensor.
	PollInterval time.Duration
	// CollectTimeout bounds the total polling time after ConversionTime.
	CollectTimeout time.Duration

	// Sleep is the blocking wait. Tests replace it.
	Sleep func(time.Duration)

	initialized bool
	frame       [frameLen]byte
}

// New returns a Device with datasheet timings. It does not touch the bus.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:            bus,
		Address:        Address,
		ConversionTime: 80 * time.Millisecond,
		PollInterval:   15 * time.Millisecond,
		CollectTimeout: 250 * time.Millisecond,
		Sleep:          time.Sleep,
	}
}

// Configure sends the initialisation command if the sensor reports that
// it has not loaded its calibration.
func (d *Device) Configure() error {
	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&statusCalibrated == 0 {
		if err := d.bus.Tx(d.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
			return err
		}
		d.Sleep(10 * time.Millisecond)
	}
	d.initialized = true
	return nil
}

// Status reads the status byte.
func (d *Device) Status() (byte, error) {
	var b [1]byte
	if err := d.bus.Tx(d.Address, []byte{cmdStatus}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Read triggers a measurement and waits for it.
func (d *Device) Read() (Measurement, error) {
	if !d.initialized {
		if err := d.Configure(); err != nil {
			return Measurement{}, err
		}
	}

	if err := d.bus.Tx(d.Address, []byte{cmdTrigger, 0x33, 0x00}, nil); err != nil {
		return Measurement{}, err
	}
	d.Sleep(d.ConversionTime)

	polls := 1
	if d.PollInterval > 0 {
		polls += int(d.CollectTimeout / d.PollInterval)
	}

	for i := 0; i < polls; i++ {
		if i > 0 {
			d.Sleep(d.PollInterval)
		}
		if err := d.bus.Tx(d.Address, nil, d.frame[:]); err != nil {
			return Measurement{}, err
		}
		if d.frame[0]&statusBusy != 0 {
			continue
		}
		return d.decode()
	}
	return Measurement{}, ErrTimeout
}

func (d *Device) decode() (Measurement, error) {
	f := d.frame
	if f[0]&statusCalibrated == 0 {
		d.initialized = false
		return Measurement{}, ErrNotReady
	}
	if crc8(f[:6]) != f[6] {
		return Measurement{}, ErrChecksum
	}

	hraw := uint32(f[1])<<12 | uint32(f[2])<<4 | uint32(f[3])>>4
	traw := uint32(f[3]&0x0F)<<16 | uint32(f[4])<<8 | uint32(f[5])

	return Measurement{
		Celsius:  float64(traw)*200/0x100000 - 50,
		Humidity: float64(hraw) * 100 / 0x100000,
	}, nil
}

// crc8 is CRC-8 with polynomial x^8+x^5+x^4+1 (0x31), initial value 0xFF.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
