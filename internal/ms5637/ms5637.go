// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ms5637 drives the TE MS5637-02BA03 barometric pressure sensor over
// I2C and implements the datasheet compensation.
//
// The PROM calibration table is read and checksummed once in New. It is
// owned by the Dev and never modified afterwards.
package ms5637

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the fixed I2C address of the MS5637.
const DefaultAddress uint16 = 0x76

const (
	cmdReset     byte = 0x1E
	cmdConvertD1 byte = 0x40
	cmdConvertD2 byte = 0x50
	cmdReadADC   byte = 0x00
	cmdPROMRead  byte = 0xA0

	resetDelay = 20 * time.Millisecond
)

// Opts configures a Dev.
type Opts struct {
	Addr       uint16
	Resolution Resolution
}

// DefaultOpts uses the highest resolution.
var DefaultOpts = Opts{
	Addr:       DefaultAddress,
	Resolution: OSR8192,
}

// Dev is a handle to an initialized MS5637.
type Dev struct {
	d     *i2c.Dev
	res   Resolution
	coeff Coefficients

	mu sync.Mutex
}

// New resets the sensor, reads the PROM and verifies its checksum. A checksum
// failure returns a *CalibrationError wrapped in the error; no Dev is returned
// in that case.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if !opts.Resolution.Valid() {
		return nil, fmt.Errorf("ms5637: invalid resolution %d", int(opts.Resolution))
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddress
	}
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: addr}, res: opts.Resolution}

	if err := dev.Reset(); err != nil {
		return nil, err
	}
	coeff, err := dev.readPROM()
	if err != nil {
		return nil, err
	}
	if err := coeff.Validate(); err != nil {
		return nil, err
	}
	dev.coeff = coeff
	return dev, nil
}

// ReadPROM resets the sensor at addr and returns its calibration table
// without checking it. Used for diagnostics.
func ReadPROM(bus i2c.Bus, addr uint16) (Coefficients, error) {
	if addr == 0 {
		addr = DefaultAddress
	}
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: addr}}
	if err := dev.Reset(); err != nil {
		return Coefficients{}, err
	}
	return dev.readPROM()
}

// Reset reloads the PROM into the sensor's internal registers.
func (dev *Dev) Reset() error {
	if err := dev.d.Tx([]byte{cmdReset}, nil); err != nil {
		return fmt.Errorf("ms5637: reset: %w", err)
	}
	time.Sleep(resetDelay)
	return nil
}

func (dev *Dev) readPROM() (Coefficients, error) {
	var c Coefficients
	r := make([]byte, 2)
	for i := range c {
		if err := dev.d.Tx([]byte{cmdPROMRead + byte(i*2)}, r); err != nil {
			return c, fmt.Errorf("ms5637: PROM word %d: %w", i, err)
		}
		c[i] = uint16(r[0])<<8 | uint16(r[1])
	}
	return c, nil
}

// Coefficients returns a copy of the validated calibration table.
func (dev *Dev) Coefficients() Coefficients {
	return dev.coeff
}

// Resolution returns the oversampling ratio in use.
func (dev *Dev) Resolution() Resolution {
	return dev.res
}

// convert starts a conversion, waits for it and reads the 24-bit result.
func (dev *Dev) convert(cmd byte) (uint32, error) {
	if err := dev.d.Tx([]byte{cmd}, nil); err != nil {
		return 0, fmt.Errorf("ms5637: start conversion 0x%02X: %w", cmd, err)
	}
	time.Sleep(dev.res.ConversionTime())
	r := make([]byte, 3)
	if err := dev.d.Tx([]byte{cmdReadADC}, r); err != nil {
		return 0, fmt.Errorf("ms5637: read ADC: %w", err)
	}
	return uint32(r[0])<<16 | uint32(r[1])<<8 | uint32(r[2]), nil
}

// ReadRaw runs a temperature conversion followed by a pressure conversion
// and returns the raw counts D1 (pressure) and D2 (temperature).
func (dev *Dev) ReadRaw() (d1, d2 uint32, err error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if d2, err = dev.convert(dev.res.temperatureCmd()); err != nil {
		return 0, 0, err
	}
	if d1, err = dev.convert(dev.res.pressureCmd()); err != nil {
		return 0, 0, err
	}
	return d1, d2, nil
}

// Read returns a compensated temperature and pressure.
func (dev *Dev) Read() (Reading, error) {
	d1, d2, err := dev.ReadRaw()
	if err != nil {
		return Reading{}, err
	}
	return Compensate(dev.coeff, d1, d2), nil
}

// Sense reads temperature and pressure into e. Humidity is left at zero.
func (dev *Dev) Sense(e *physic.Env) error {
	d1, d2, err := dev.ReadRaw()
	if err != nil {
		return err
	}
	temp, p := compensate(dev.coeff, d1, d2)
	e.Temperature = physic.ZeroCelsius + physic.Temperature(temp)*10*physic.MilliKelvin
	e.Pressure = physic.Pressure(p) * physic.Pascal
	e.Humidity = 0
	return nil
}

// Precision returns the smallest step the compensation can produce.
func (dev *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 100
	e.Pressure = physic.Pascal
	e.Humidity = 0
}

// Halt is a no-op; the sensor idles between conversions.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return "ms5637"
}

// IsCalibrationError reports whether err carries a PROM checksum failure.
func IsCalibrationError(err error) bool {
	var ce *CalibrationError
	return errors.As(err, &ce)
}

var _ conn.Resource = &Dev{}
