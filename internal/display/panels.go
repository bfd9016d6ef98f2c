// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/climate_monitor/internal/env"
)

// Panel geometry of the 128x64 OLED.
const (
	Width  = 128
	Height = 64
)

// Baselines of the text rows; basicfont.Face7x13 has an ascent of 11.
const (
	rowTitle  = 10
	ruleTitle = 12
	row1      = 26
	row2      = 39
	row3      = 52
	ruleFoot  = 56
)

type canvas struct {
	img    *image1bit.VerticalLSB
	drawer *font.Drawer
}

func newCanvas() *canvas {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
	return &canvas{
		img: img,
		drawer: &font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{image1bit.On},
			Face: basicfont.Face7x13,
		},
	}
}

func (c *canvas) text(x, y int, s string) {
	c.drawer.Dot = fixed.P(x, y)
	c.drawer.DrawString(s)
}

// centered draws s horizontally centered on baseline y.
func (c *canvas) centered(y int, s string) {
	w := c.drawer.MeasureString(s).Round()
	x := (Width - w) / 2
	if x < 0 {
		x = 0
	}
	c.text(x, y, s)
}

func (c *canvas) hline(y int) {
	for x := 0; x < Width; x++ {
		c.img.SetBit(x, y, image1bit.On)
	}
}

func (c *canvas) header(title string) {
	c.centered(rowTitle, title)
	c.hline(ruleTitle)
}

// Splash is shown while the sensors initialize.
func Splash() *image1bit.VerticalLSB {
	c := newCanvas()
	c.centered(row1, "Climate Monitor")
	c.centered(row2, "Starting...")
	return c.img
}

// PressurePanel shows the barometer reading.
func PressurePanel(s env.PressureSample) *image1bit.VerticalLSB {
	c := newCanvas()
	c.header("MS5637 02BA03")
	c.text(0, row1, fmt.Sprintf("T:   %8.2f C", s.Temperature))
	c.text(0, row2, fmt.Sprintf("P:   %8.2f hPa", s.Pressure))
	c.text(0, row3, fmt.Sprintf("Alt: %8.2f m", s.Altitude))
	c.hline(ruleFoot)
	return c.img
}

// HumidityPanel shows the hygrometer reading.
func HumidityPanel(s env.HumiditySample) *image1bit.VerticalLSB {
	c := newCanvas()
	c.header("SHT4x")
	c.text(0, row1, fmt.Sprintf("T:   %8.2f C", s.Temperature))
	c.text(0, row2, fmt.Sprintf("RH:  %8.2f %%", s.Humidity))
	c.hline(ruleFoot)
	return c.img
}

// ErrorPanel replaces a panel whose reading failed this cycle.
func ErrorPanel(title, detail string) *image1bit.VerticalLSB {
	c := newCanvas()
	c.header(title)
	c.centered(row1, "Read error")
	if detail != "" {
		c.centered(row2, detail)
	}
	return c.img
}

// Blank is an all-off frame.
func Blank() *image1bit.VerticalLSB {
	return newCanvas().img
}

// Show pushes img to the whole display.
func Show(dev display.Drawer, img image.Image) error {
	return dev.Draw(dev.Bounds(), img, image.Point{})
}
