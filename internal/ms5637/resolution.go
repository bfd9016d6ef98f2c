// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ms5637

import (
	"fmt"
	"time"
)

// Resolution selects the ADC oversampling ratio. Higher values are slower and
// less noisy.
type Resolution int

const (
	OSR256 Resolution = iota
	OSR512
	OSR1024
	OSR2048
	OSR4096
	OSR8192
)

// Maximum conversion time per oversampling ratio, in milliseconds.
var conversionTimeMS = [...]int{1, 2, 3, 5, 9, 17}

// Valid reports whether r is one of the six supported ratios.
func (r Resolution) Valid() bool {
	return r >= OSR256 && r <= OSR8192
}

// ConversionTime is how long to wait between starting a conversion and
// reading the ADC.
func (r Resolution) ConversionTime() time.Duration {
	if !r.Valid() {
		return 0
	}
	return time.Duration(conversionTimeMS[r]) * time.Millisecond
}

// pressureCmd and temperatureCmd return the D1 and D2 conversion commands.
func (r Resolution) pressureCmd() byte {
	return cmdConvertD1 + byte(r)*2
}

func (r Resolution) temperatureCmd() byte {
	return cmdConvertD2 + byte(r)*2
}

func (r Resolution) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
	return fmt.Sprintf("OSR%d", 256<<uint(r))
}
