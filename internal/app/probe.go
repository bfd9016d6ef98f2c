// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_monitor/internal/config"
	"github.com/relabs-tech/climate_monitor/internal/ms5637"
	"github.com/relabs-tech/climate_monitor/internal/sht4x"
)

// Datasheet names of the PROM words.
var promNames = [ms5637.CoefficientCount]string{
	"CRC/factory",
	"C1 SENS_T1",
	"C2 OFF_T1",
	"C3 TCS",
	"C4 TCO",
	"C5 T_REF",
	"C6 TEMPSENS",
}

// RunProbe opens the bus named in cfg and dumps what both sensors report.
func RunProbe(cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()
	logger.Info("probing", "bus", bus.String())
	return Probe(bus, cfg, w)
}

// Probe dumps the MS5637 PROM, its checksum verdict, one raw and compensated
// reading, and one SHT4x reading with the serial number. Both sensors are
// probed even if the first one fails; the first error is returned.
func Probe(bus i2c.Bus, cfg *config.Config, w io.Writer) error {
	errPressure := probePressure(bus, cfg, w)
	fmt.Fprintln(w)
	errHumidity := probeHumidity(bus, cfg, w)
	if errPressure != nil {
		return errPressure
	}
	return errHumidity
}

func probePressure(bus i2c.Bus, cfg *config.Config, w io.Writer) error {
	fmt.Fprintf(w, "MS5637 @ 0x%02X\n", cfg.MS5637I2CAddr)
	coeff, err := ms5637.ReadPROM(bus, cfg.MS5637I2CAddr)
	if err != nil {
		fmt.Fprintf(w, "  PROM read failed: %v\n", err)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, v := range coeff {
		fmt.Fprintf(tw, "  [%d]\t%s\t0x%04X\t%d\n", i, promNames[i], v, v)
	}
	tw.Flush()

	if err := coeff.Validate(); err != nil {
		fmt.Fprintf(w, "  CRC4: stored %d, computed %d: INVALID\n", coeff.StoredCRC(), ms5637.CRC4(coeff))
		return err
	}
	fmt.Fprintf(w, "  CRC4: %d OK\n", coeff.StoredCRC())

	dev, err := ms5637.New(bus, &ms5637.Opts{Addr: cfg.MS5637I2CAddr, Resolution: cfg.MS5637Resolution})
	if err != nil {
		return err
	}
	d1, d2, err := dev.ReadRaw()
	if err != nil {
		fmt.Fprintf(w, "  conversion failed: %v\n", err)
		return err
	}
	r := ms5637.Compensate(dev.Coefficients(), d1, d2)
	fmt.Fprintf(w, "  %s: D1=%d D2=%d\n", dev.Resolution(), d1, d2)
	fmt.Fprintf(w, "  T: %.2f C | P: %.2f hPa\n", r.Temperature, r.Pressure)
	return nil
}

func probeHumidity(bus i2c.Bus, cfg *config.Config, w io.Writer) error {
	fmt.Fprintf(w, "SHT4x @ 0x%02X\n", cfg.SHT4xI2CAddr)
	mode, err := sht4x.ParseMode(cfg.SHT4xMode)
	if err != nil {
		return err
	}
	dev, err := sht4x.New(bus, cfg.SHT4xI2CAddr, mode)
	if err != nil {
		return err
	}
	if err := dev.Reset(); err != nil {
		fmt.Fprintf(w, "  reset failed: %v\n", err)
		return err
	}
	serial, err := dev.SerialNumber()
	if err != nil {
		fmt.Fprintf(w, "  serial number failed: %v\n", err)
		return err
	}
	fmt.Fprintf(w, "  serial: 0x%08X\n", serial)

	r, err := dev.Measure(mode)
	if err != nil {
		fmt.Fprintf(w, "  measurement failed: %v\n", err)
		return err
	}
	fmt.Fprintf(w, "  %s: T: %.2f C | U: %.2f %%\n", mode, r.Temperature, r.Humidity)
	return nil
}
