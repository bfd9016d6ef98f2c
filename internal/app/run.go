package app

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_monitor/internal/config"
	"github.com/relabs-tech/climate_monitor/internal/console"
	"github.com/relabs-tech/climate_monitor/internal/display"
	"github.com/relabs-tech/climate_monitor/internal/sensors"
	"github.com/relabs-tech/climate_monitor/internal/sx1509"
)

// RunMonitor brings up the board described by cfg and runs the monitor loop
// until ctx is cancelled.
func RunMonitor(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// Display first, so init faults can be shown
	oled, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer oled.Halt()
	if err := display.Show(oled, display.Splash()); err != nil {
		logger.Warn("splash failed", "err", err)
	}

	// Buttons and LEDs
	exp := sx1509.New(bus, cfg.ExpanderI2CAddr)
	if err := exp.InitButtons(sx1509.ButtonMask); err != nil {
		return fmt.Errorf("failed to initialize buttons: %w", err)
	}
	if err := exp.InitLEDs(); err != nil {
		return fmt.Errorf("failed to initialize LEDs: %w", err)
	}
	logger.Info("expander ready", "addr", fmt.Sprintf("0x%02X", cfg.ExpanderI2CAddr))

	// Sensors
	station, err := sensors.Open(bus, cfg, logger)
	if err != nil {
		_ = display.Show(oled, display.ErrorPanel("SHT4x", "init failed"))
		_ = exp.SetRGB(StatusLED, sx1509.Red)
		return err
	}

	con, closer, err := console.Open(cfg.ConsoleSerialPort, cfg.ConsoleBaudRate)
	if err != nil {
		return err
	}
	defer closer.Close()

	baseline, measured := station.CaptureBaseline(ctx, cfg.BaselineAttempts, cfg.BaselineRetryInterval, cfg.BaselineFallbackHPa)
	logger.Info("altitude baseline", "hpa", baseline, "measured", measured)

	m, err := NewMonitor(station, oled, exp, con, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.ExpanderIRQPin != "" {
		pin := gpioreg.ByName(cfg.ExpanderIRQPin)
		if pin == nil {
			return fmt.Errorf("unknown GPIO %q", cfg.ExpanderIRQPin)
		}
		if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return fmt.Errorf("failed to set up %s: %w", pin, err)
		}
		if err := exp.EnableButtonInterrupts(sx1509.ButtonMask); err != nil {
			return fmt.Errorf("failed to enable button interrupts: %w", err)
		}
		m.wait = edgeWaiter(pin, exp.ClearInterrupts, logger)
		logger.Info("waiting on expander interrupt", "pin", pin.Name())
	}

	return m.Run(ctx)
}
