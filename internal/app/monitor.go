// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/climate_monitor/internal/config"
	disp "github.com/relabs-tech/climate_monitor/internal/display"
	"github.com/relabs-tech/climate_monitor/internal/env"
	"github.com/relabs-tech/climate_monitor/internal/ms5637"
	"github.com/relabs-tech/climate_monitor/internal/sensors"
	"github.com/relabs-tech/climate_monitor/internal/sht4x"
	"github.com/relabs-tech/climate_monitor/internal/sx1509"
)

// Panel selects which sensor is shown.
type Panel int

const (
	PanelPressure Panel = iota
	PanelHumidity
)

// ParsePanel maps a START_PANEL value to a Panel.
func ParsePanel(s string) (Panel, error) {
	switch s {
	case "pressure":
		return PanelPressure, nil
	case "humidity":
		return PanelHumidity, nil
	}
	return 0, fmt.Errorf("unknown panel %q", s)
}

// Next returns the other panel.
func (p Panel) Next() Panel {
	return (p + 1) % 2
}

func (p Panel) String() string {
	if p == PanelHumidity {
		return "humidity"
	}
	return "pressure"
}

// StatusLED is the RGB LED that tracks the selected panel.
const StatusLED = sx1509.LED1

// Station is the acquisition layer seen by the monitor.
type Station interface {
	ReadPressure() (env.PressureSample, error)
	ReadHumidity() (env.HumiditySample, error)
	PressureOK() bool
}

// Expander is the button and LED side of the I/O expander.
type Expander interface {
	SetRGB(led sx1509.LED, c sx1509.Color) error
	Buttons() (uint8, error)
}

// Mirror receives a copy of every reading shown on the display.
type Mirror interface {
	Pressure(s env.PressureSample) error
	Humidity(s env.HumiditySample) error
}

// Monitor polls the panel button, keeps the status LED in sync and refreshes
// the display with the selected sensor once per cycle.
type Monitor struct {
	station  Station
	screen   display.Drawer
	expander Expander
	mirror   Mirror
	log      *slog.Logger

	buttonMask   uint8
	pollInterval time.Duration
	debounce     time.Duration

	// wait blocks between cycles; sleep is used for the debounce delay.
	wait  func(ctx context.Context, d time.Duration)
	sleep func(ctx context.Context, d time.Duration)

	panel       Panel
	prevPressed bool
}

// NewMonitor builds a Monitor from its collaborators and the timing and
// button settings in cfg.
func NewMonitor(st Station, screen display.Drawer, exp Expander, mirror Mirror, cfg *config.Config, logger *slog.Logger) (*Monitor, error) {
	panel, err := ParsePanel(cfg.StartPanel)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		station:      st,
		screen:       screen,
		expander:     exp,
		mirror:       mirror,
		log:          logger.With("component", "monitor"),
		buttonMask:   1 << cfg.ButtonBit,
		pollInterval: cfg.PollInterval,
		debounce:     cfg.DebounceInterval,
		wait:         sleepCtx,
		sleep:        sleepCtx,
		panel:        panel,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// edgeWaiter returns a wait function that wakes early on an edge of the
// expander interrupt line and then acknowledges it with ack.
func edgeWaiter(pin gpio.PinIn, ack func() error, logger *slog.Logger) func(ctx context.Context, d time.Duration) {
	return func(ctx context.Context, d time.Duration) {
		if ctx.Err() != nil {
			return
		}
		if !pin.WaitForEdge(d) {
			return
		}
		if err := ack(); err != nil {
			logger.Warn("interrupt clear failed", "err", err)
		}
	}
}

// Panel returns the panel currently selected.
func (m *Monitor) Panel() Panel {
	return m.panel
}

func (m *Monitor) ledColor() sx1509.Color {
	switch {
	case m.panel == PanelHumidity:
		return sx1509.Blue
	case !m.station.PressureOK():
		return sx1509.Red
	default:
		return sx1509.Green
	}
}

func (m *Monitor) updateLED() {
	c := m.ledColor()
	if err := m.expander.SetRGB(StatusLED, c); err != nil {
		m.log.Warn("status LED update failed", "color", c.String(), "err", err)
	}
}

// pollButton toggles the panel on a released-to-pressed transition of the
// configured button and then waits out the bounce.
func (m *Monitor) pollButton(ctx context.Context) {
	buttons, err := m.expander.Buttons()
	if err != nil {
		m.log.Warn("button read failed", "err", err)
		return
	}
	pressed := buttons&m.buttonMask != 0
	if pressed && !m.prevPressed {
		m.panel = m.panel.Next()
		m.log.Info("panel switched", "panel", m.panel.String())
		m.updateLED()
		m.sleep(ctx, m.debounce)
	}
	m.prevPressed = pressed
}

func (m *Monitor) show(img image.Image) {
	if err := disp.Show(m.screen, img); err != nil {
		m.log.Warn("display update failed", "err", err)
	}
}

func errorDetail(err error) string {
	switch {
	case ms5637.IsCalibrationError(err):
		return "PROM CRC bad"
	case sht4x.IsFrameChecksumError(err):
		return "CRC mismatch"
	case errors.Is(err, sensors.ErrNoBaseline):
		return "no baseline"
	}
	return ""
}

// refresh reads the selected sensor and shows the result. A failed read
// shows the error panel and nothing is mirrored.
func (m *Monitor) refresh() {
	switch m.panel {
	case PanelPressure:
		s, err := m.station.ReadPressure()
		if err != nil {
			if errors.Is(err, sensors.ErrPressureUnavailable) {
				m.log.Debug("pressure read skipped", "err", err)
			} else {
				m.log.Warn("pressure read failed", "err", err)
			}
			m.show(disp.ErrorPanel("MS5637", errorDetail(err)))
			return
		}
		m.log.Debug("pressure", "temp_c", s.Temperature, "pressure_hpa", s.Pressure, "altitude_m", s.Altitude)
		m.show(disp.PressurePanel(s))
		if err := m.mirror.Pressure(s); err != nil {
			m.log.Warn("console write failed", "err", err)
		}
	case PanelHumidity:
		s, err := m.station.ReadHumidity()
		if err != nil {
			m.log.Warn("humidity read failed", "err", err)
			m.show(disp.ErrorPanel("SHT4x", errorDetail(err)))
			return
		}
		m.log.Debug("humidity", "temp_c", s.Temperature, "humidity_pct", s.Humidity)
		m.show(disp.HumidityPanel(s))
		if err := m.mirror.Humidity(s); err != nil {
			m.log.Warn("console write failed", "err", err)
		}
	}
}

// Step runs one cycle: button, then display.
func (m *Monitor) Step(ctx context.Context) {
	m.pollButton(ctx)
	m.refresh()
}

// Run loops until ctx is done, then blanks the display and switches the
// status LED off.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("monitor started", "panel", m.panel.String(), "poll", m.pollInterval)
	m.updateLED()
	for ctx.Err() == nil {
		m.Step(ctx)
		m.wait(ctx, m.pollInterval)
	}

	m.log.Info("monitor stopping")
	m.show(disp.Blank())
	if err := m.expander.SetRGB(StatusLED, sx1509.Off); err != nil {
		return fmt.Errorf("status LED off: %w", err)
	}
	return nil
}
