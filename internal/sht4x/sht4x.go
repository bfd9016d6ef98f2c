// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sht4x drives the Sensirion SHT40/41/45 humidity sensors over I2C.
package sht4x

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the I2C address of the SHT4x-A parts.
const DefaultAddress uint16 = 0x44

const (
	cmdSoftReset        byte = 0x94
	cmdReadSerialNumber byte = 0x89

	resetDelay  = 2 * time.Millisecond
	serialDelay = 10 * time.Millisecond
)

// Dev represents a SHT4x sensor.
type Dev struct {
	d    *i2c.Dev
	mode Mode
	mu   sync.Mutex
}

// New returns a Dev that measures with mode on each Sense call. The bus is
// not touched.
func New(bus i2c.Bus, addr uint16, mode Mode) (*Dev, error) {
	if mode.name == "" {
		return nil, errors.New("sht4x: invalid mode")
	}
	if addr == 0 {
		addr = DefaultAddress
	}
	return &Dev{d: &i2c.Dev{Bus: bus, Addr: addr}, mode: mode}, nil
}

// The sensor NACKs reads issued before the measurement is done, so the
// command and the read are separate transactions with a delay in between.
func (dev *Dev) exchange(cmd byte, delay time.Duration) (Frame, error) {
	var f Frame
	if err := dev.d.Tx([]byte{cmd}, nil); err != nil {
		return f, fmt.Errorf("sht4x: error transmitting 0x%02X: %w", cmd, err)
	}
	time.Sleep(delay)
	if err := dev.d.Tx(nil, f[:]); err != nil {
		return f, fmt.Errorf("sht4x: error reading: %w", err)
	}
	return f, nil
}

// Reset issues a soft reset. It doubles as a presence check.
func (dev *Dev) Reset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.d.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return fmt.Errorf("sht4x: error resetting: %w", err)
	}
	time.Sleep(resetDelay)
	return nil
}

// Measure runs one measurement in the given mode.
func (dev *Dev) Measure(mode Mode) (Reading, error) {
	if mode.name == "" {
		return Reading{}, errors.New("sht4x: invalid mode")
	}
	dev.mu.Lock()
	f, err := dev.exchange(mode.cmd, mode.delay)
	dev.mu.Unlock()
	if err != nil {
		return Reading{}, err
	}
	return Decode(f)
}

// Mode returns the mode used by Sense.
func (dev *Dev) Mode() Mode {
	return dev.mode
}

// Sense reads temperature and humidity into e. Pressure is left at zero.
func (dev *Dev) Sense(e *physic.Env) error {
	r, err := dev.Measure(dev.mode)
	if err != nil {
		return err
	}
	e.Temperature = physic.ZeroCelsius + physic.Temperature(r.Temperature*float64(physic.Kelvin))
	e.Humidity = physic.RelativeHumidity(r.Humidity * float64(physic.PercentRH))
	e.Pressure = 0
	return nil
}

// Precision returns the smallest change in readings the device can produce.
func (dev *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 100
	e.Humidity = physic.PercentRH / 100
	e.Pressure = 0
}

// SerialNumber returns the factory serial number.
func (dev *Dev) SerialNumber() (uint32, error) {
	dev.mu.Lock()
	f, err := dev.exchange(cmdReadSerialNumber, serialDelay)
	dev.mu.Unlock()
	if err != nil {
		return 0, err
	}
	if err := f.verify(); err != nil {
		return 0, err
	}
	hi, lo := f.words()
	return uint32(hi)<<16 | uint32(lo), nil
}

// Halt is a no-op; the sensor sleeps between measurements.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return "sht4x"
}

// IsFrameChecksumError reports whether err carries a frame CRC failure.
func IsFrameChecksumError(err error) bool {
	var fe *FrameChecksumError
	return errors.As(err, &fe)
}

var _ conn.Resource = &Dev{}
