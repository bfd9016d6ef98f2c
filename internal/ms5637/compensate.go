// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ms5637

import "fmt"

// CoefficientCount is the number of PROM words holding the checksum and C1..C6.
const CoefficientCount = 7

// Coefficients is the factory calibration table read from the sensor PROM.
// Word 0 carries the 4-bit checksum in its top nibble, words 1..6 are C1..C6.
type Coefficients [CoefficientCount]uint16

// CalibrationError reports a PROM checksum mismatch. Readings computed from
// such a table are meaningless.
type CalibrationError struct {
	Stored   uint8
	Computed uint8
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("ms5637: PROM checksum mismatch (stored 0x%X, computed 0x%X)", e.Stored, e.Computed)
}

// Reading is a compensated measurement.
type Reading struct {
	Temperature float64 // °C
	Pressure    float64 // hPa
}

// CRC4 computes the PROM checksum over the table as the datasheet defines it:
// the checksum nibble of word 0 is masked out and an eighth all-zero word is
// appended, giving 16 bytes processed most significant byte first.
func CRC4(c Coefficients) uint8 {
	var words [CoefficientCount + 1]uint16
	copy(words[:], c[:])
	words[0] &= 0x0FFF

	var rem uint16
	for cnt := 0; cnt < 2*len(words); cnt++ {
		if cnt%2 == 1 {
			rem ^= words[cnt>>1] & 0x00FF
		} else {
			rem ^= words[cnt>>1] >> 8
		}
		for bit := 0; bit < 8; bit++ {
			if rem&0x8000 != 0 {
				rem = (rem << 1) ^ 0x3000
			} else {
				rem <<= 1
			}
		}
	}
	return uint8(rem>>12) & 0x0F
}

// StoredCRC returns the checksum nibble programmed at the factory.
func (c Coefficients) StoredCRC() uint8 {
	return uint8(c[0] >> 12)
}

// Validate returns a *CalibrationError when the stored checksum does not
// match the table contents.
func (c Coefficients) Validate() error {
	computed := CRC4(c)
	if stored := c.StoredCRC(); stored != computed {
		return &CalibrationError{Stored: stored, Computed: computed}
	}
	return nil
}

// Valid reports whether the table passes its checksum.
func (c Coefficients) Valid() bool {
	return c.Validate() == nil
}

// Compensate converts the raw pressure count d1 and temperature count d2 into
// physical units. The coefficients must have been validated by the caller.
func Compensate(c Coefficients, d1, d2 uint32) Reading {
	temp, p := compensate(c, d1, d2)
	return Reading{
		Temperature: float64(temp) / 100.0,
		Pressure:    float64(p) / 100.0,
	}
}

// compensate returns temperature in 0.01 °C and pressure in 0.01 hPa.
func compensate(c Coefficients, d1, d2 uint32) (int32, int64) {
	dT := int32(d2) - int32(c[5])<<8
	temp := int32(2000 + int64(dT)*int64(c[6])/(1<<23))

	off := int64(c[2])<<17 + int64(c[4])*int64(dT)/(1<<6)
	sens := int64(c[1])<<16 + int64(c[3])*int64(dT)/(1<<7)

	if temp < 2000 {
		t2, off2, sens2 := lowTemperatureTerms(temp, dT)
		temp -= int32(t2)
		off -= off2
		sens -= sens2
	}

	p := ((int64(d1)*sens)>>21 - off) >> 15
	return temp, p
}

// lowTemperatureTerms returns the second order corrections T2, OFF2 and SENS2
// applied below 20 °C, with the extra terms below -15 °C.
func lowTemperatureTerms(temp, dT int32) (t2, off2, sens2 int64) {
	t2 = (int64(dT) * int64(dT)) >> 31

	d := int64(temp) - 2000
	off2 = 5 * d * d / 2
	sens2 = 5 * d * d / 4

	if temp < -1500 {
		e := int64(temp) + 1500
		off2 += 7 * e * e
		sens2 += 11 * e * e / 2
	}
	return t2, off2, sens2
}
