// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import "math"

// SeaLevelPressure is the ISA standard pressure in hPa, used as the altitude
// baseline when none could be measured.
const SeaLevelPressure = 1013.25

// Altitude returns the height in meters of pressure relative to baseline
// using the international barometric formula:
//
//	h = 44330 * (1 - (p/p0)^(1/5.255))
//
// Both arguments are in the same unit. baseline must be nonzero.
func Altitude(pressure, baseline float64) float64 {
	return 44330.0 * (1.0 - math.Pow(pressure/baseline, 1.0/5.255))
}
