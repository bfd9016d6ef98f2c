// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package console mirrors each displayed reading as a text line, either to
// stdout or to a UART for a serial terminal.
package console

import (
	"fmt"
	"io"
	"os"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/climate_monitor/internal/env"
)

// Console writes reading lines to w.
type Console struct {
	w io.Writer
}

// New returns a Console writing to w.
func New(w io.Writer) *Console {
	return &Console{w: w}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns a Console on the named serial port, or on stdout when port is
// empty. The closer releases the port.
func Open(port string, baud uint) (*Console, io.Closer, error) {
	if port == "" {
		return New(os.Stdout), nopCloser{}, nil
	}
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("console: open %s: %w", port, err)
	}
	return New(rwc), rwc, nil
}

// Pressure prints a barometer line.
func (c *Console) Pressure(s env.PressureSample) error {
	_, err := fmt.Fprintf(c.w, "[MS5637] T: %.2f C | P: %.2f hPa | Alt: %.2f m\n",
		s.Temperature, s.Pressure, s.Altitude)
	return err
}

// Humidity prints a hygrometer line.
func (c *Console) Humidity(s env.HumiditySample) error {
	_, err := fmt.Fprintf(c.w, "[SHT4x] T: %.2f C | U: %.2f %%\n", s.Temperature, s.Humidity)
	return err
}
