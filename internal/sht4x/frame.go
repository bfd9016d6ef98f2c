// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sht4x

import "fmt"

const countDivisor = float64(65535)

// Frame is the 6-byte measurement response: temperature word, CRC,
// humidity word, CRC. Words are big-endian.
type Frame [6]byte

// Reading is a decoded measurement.
type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %RH, clamped to [0, 100]
}

// FrameChecksumError reports a CRC mismatch on one of the two frame words.
// It is transient; the next measurement may be fine.
type FrameChecksumError struct {
	Word int // 0 for temperature, 1 for humidity
	Got  byte
	Want byte
}

func (e *FrameChecksumError) Error() string {
	return fmt.Sprintf("sht4x: word %d crc error (got 0x%02X, want 0x%02X)", e.Word, e.Got, e.Want)
}

// CRC8 is the Sensirion checksum: polynomial 0x31, init 0xFF, no final XOR.
func CRC8(data []byte) byte {
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

// verify checks both word checksums.
func (f Frame) verify() error {
	for word := 0; word < 2; word++ {
		off := word * 3
		if want := CRC8(f[off : off+2]); f[off+2] != want {
			return &FrameChecksumError{Word: word, Got: f[off+2], Want: want}
		}
	}
	return nil
}

func (f Frame) words() (uint16, uint16) {
	return uint16(f[0])<<8 | uint16(f[1]), uint16(f[3])<<8 | uint16(f[4])
}

// Decode verifies the frame and converts it to physical units. On error the
// returned Reading is the zero value and must not be used.
func Decode(f Frame) (Reading, error) {
	if err := f.verify(); err != nil {
		return Reading{}, err
	}
	rawTemp, rawHum := f.words()
	return Reading{
		Temperature: countToTemp(rawTemp),
		Humidity:    clampHumidity(countToHumidity(rawHum)),
	}, nil
}

// T = -45 + 175 * count / 65535
func countToTemp(count uint16) float64 {
	return -45 + 175*float64(count)/countDivisor
}

// RH = -6 + 125 * count / 65535
func countToHumidity(count uint16) float64 {
	return -6 + 125*float64(count)/countDivisor
}

func clampHumidity(rh float64) float64 {
	if rh < 0 {
		return 0
	}
	if rh > 100 {
		return 100
	}
	return rh
}
