// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sht4x

import (
	"fmt"
	"time"
)

// Mode pairs a measurement command with the time the sensor needs before
// the result can be read. Heater modes pulse the on-chip heater first.
type Mode struct {
	cmd   byte
	delay time.Duration
	name  string
}

const (
	heaterLong  = 1100 * time.Millisecond
	heaterShort = 110 * time.Millisecond
)

var (
	PrecisionHigh   = Mode{cmd: 0xFD, delay: 10 * time.Millisecond, name: "high"}
	PrecisionMedium = Mode{cmd: 0xF6, delay: 5 * time.Millisecond, name: "medium"}
	PrecisionLow    = Mode{cmd: 0xE0, delay: 2 * time.Millisecond, name: "low"}

	HeaterHigh1s      = Mode{cmd: 0x39, delay: heaterLong, name: "heater_high_1s"}
	HeaterHigh100ms   = Mode{cmd: 0x32, delay: heaterShort, name: "heater_high_100ms"}
	HeaterMedium1s    = Mode{cmd: 0x2F, delay: heaterLong, name: "heater_medium_1s"}
	HeaterMedium100ms = Mode{cmd: 0x24, delay: heaterShort, name: "heater_medium_100ms"}
	HeaterLow1s       = Mode{cmd: 0x1E, delay: heaterLong, name: "heater_low_1s"}
	HeaterLow100ms    = Mode{cmd: 0x15, delay: heaterShort, name: "heater_low_100ms"}
)

// Modes lists every supported mode.
var Modes = []Mode{
	PrecisionHigh, PrecisionMedium, PrecisionLow,
	HeaterHigh1s, HeaterHigh100ms,
	HeaterMedium1s, HeaterMedium100ms,
	HeaterLow1s, HeaterLow100ms,
}

// ParseMode looks a mode up by its configuration name.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes {
		if m.name == name {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("sht4x: unknown mode %q", name)
}

// Delay is the wait between command and read-out.
func (m Mode) Delay() time.Duration { return m.delay }

// Heater reports whether the mode fires the heater.
func (m Mode) Heater() bool { return m.delay >= heaterShort }

func (m Mode) String() string {
	if m.name == "" {
		return "invalid"
	}
	return m.name
}
