// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sx1509 controls the Semtech SX1509B 16-bit I/O expander used for the
// board's push-buttons and RGB indicator LEDs.
//
// Pins 0-7 live in bank A and 8-15 in bank B. LEDs are wired active-low.
package sx1509

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the board strapping of the expander.
const DefaultAddress uint16 = 0x3E

const (
	regDirB  byte = 0x0E
	regDirA  byte = 0x0F
	regDataB byte = 0x10
	regDataA byte = 0x11

	regInterruptMaskA   byte = 0x13
	regSenseLowA        byte = 0x17
	regInterruptSourceA byte = 0x19
)

// ButtonMask covers the three buttons on bank A pins 0-2.
const ButtonMask uint8 = 0x07

// LED identifies an RGB LED by its red pin; green and blue follow.
type LED uint8

const (
	LED1 LED = 5
	LED2 LED = 8
	LED3 LED = 13
)

// Color is an on/off state per channel.
type Color struct {
	R, G, B bool
}

var (
	Off   = Color{}
	Red   = Color{R: true}
	Green = Color{G: true}
	Blue  = Color{B: true}
	White = Color{R: true, G: true, B: true}
)

func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case White:
		return "white"
	}
	return fmt.Sprintf("rgb(%t,%t,%t)", c.R, c.G, c.B)
}

// Dev is a handle to the expander.
type Dev struct {
	d  *i2c.Dev
	mu sync.Mutex
}

// New returns a Dev. The bus is not touched.
func New(bus i2c.Bus, addr uint16) *Dev {
	if addr == 0 {
		addr = DefaultAddress
	}
	return &Dev{d: &i2c.Dev{Bus: bus, Addr: addr}}
}

func (dev *Dev) readReg(reg byte) (byte, error) {
	r := []byte{0}
	if err := dev.d.Tx([]byte{reg}, r); err != nil {
		return 0, fmt.Errorf("sx1509: read reg 0x%02X: %w", reg, err)
	}
	return r[0], nil
}

func (dev *Dev) writeReg(reg, value byte) error {
	if err := dev.d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("sx1509: write reg 0x%02X: %w", reg, err)
	}
	return nil
}

// update applies a read-modify-write to reg.
func (dev *Dev) update(reg byte, fn func(byte) byte) error {
	v, err := dev.readReg(reg)
	if err != nil {
		return err
	}
	return dev.writeReg(reg, fn(v))
}

// InitButtons configures the masked bank A pins as inputs.
func (dev *Dev) InitButtons(mask uint8) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.update(regDirA, func(v byte) byte { return v | mask })
}

// EnableButtonInterrupts makes nINT assert on both edges of the masked
// bank A pins 0-3.
func (dev *Dev) EnableButtonInterrupts(mask uint8) error {
	if mask&^0x0F != 0 {
		return fmt.Errorf("sx1509: interrupt mask 0x%02X outside pins 0-3", mask)
	}
	var sense byte
	for pin := 0; pin < 4; pin++ {
		if mask&(1<<pin) != 0 {
			sense |= 0x3 << (2 * pin)
		}
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.update(regSenseLowA, func(v byte) byte { return v | sense }); err != nil {
		return err
	}
	if err := dev.update(regInterruptMaskA, func(v byte) byte { return v &^ mask }); err != nil {
		return err
	}
	return dev.writeReg(regInterruptSourceA, 0xFF)
}

// ClearInterrupts releases nINT after a button edge.
func (dev *Dev) ClearInterrupts() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeReg(regInterruptSourceA, 0xFF)
}

// InitLEDs configures the pins of LED1 (A5-A7), LED2 (B0-B2) and LED3
// (B5-B7) as outputs.
func (dev *Dev) InitLEDs() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dirA, err := dev.readReg(regDirA)
	if err != nil {
		return err
	}
	dirB, err := dev.readReg(regDirB)
	if err != nil {
		return err
	}
	if err := dev.writeReg(regDirA, dirA&^0xE0); err != nil {
		return err
	}
	return dev.writeReg(regDirB, dirB&^0x07&^0xE0)
}

// SetPin drives pin 0-15. Active pins are pulled low.
func (dev *Dev) SetPin(pin uint8, active bool) error {
	if pin > 15 {
		return fmt.Errorf("sx1509: invalid pin %d", pin)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.setPin(pin, active)
}

func (dev *Dev) setPin(pin uint8, active bool) error {
	reg := regDataA
	if pin >= 8 {
		reg = regDataB
	}
	mask := byte(1) << (pin % 8)
	return dev.update(reg, func(v byte) byte {
		if active {
			return v &^ mask
		}
		return v | mask
	})
}

// SetRGB sets the three channels of led.
func (dev *Dev) SetRGB(led LED, c Color) error {
	switch led {
	case LED1, LED2, LED3:
	default:
		return fmt.Errorf("sx1509: invalid LED %d", led)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	pin := uint8(led)
	for i, on := range []bool{c.R, c.G, c.B} {
		if err := dev.setPin(pin+uint8(i), on); err != nil {
			return err
		}
	}
	return nil
}

// Buttons returns the raw level of the three button pins.
func (dev *Dev) Buttons() (uint8, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	v, err := dev.readReg(regDataA)
	if err != nil {
		return 0, err
	}
	return v & ButtonMask, nil
}

// Halt switches all three LEDs off.
func (dev *Dev) Halt() error {
	for _, led := range []LED{LED1, LED2, LED3} {
		if err := dev.SetRGB(led, Off); err != nil {
			return err
		}
	}
	return nil
}

func (dev *Dev) String() string {
	return "sx1509"
}

var _ conn.Resource = &Dev{}
