package sensors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/climate_monitor/internal/config"
	"github.com/relabs-tech/climate_monitor/internal/env"
	"github.com/relabs-tech/climate_monitor/internal/ms5637"
	"github.com/relabs-tech/climate_monitor/internal/sht4x"
)

var (
	// ErrPressureUnavailable is returned by every pressure read once the
	// barometer failed to initialize. The fault does not clear.
	ErrPressureUnavailable = errors.New("pressure sensor unavailable")

	// ErrNoBaseline is returned when altitude is requested before a
	// non-zero baseline pressure is known.
	ErrNoBaseline = errors.New("altitude baseline not set")
)

// Sensor is the part of a periph environmental device the station uses.
type Sensor interface {
	Sense(e *physic.Env) error
	String() string
}

// Station owns the two environmental sensors and the altitude baseline.
type Station struct {
	pressure    Sensor
	pressureErr error
	humidity    Sensor
	baseline    float64
	log         *slog.Logger
}

// NewStation assembles a Station. pressureErr, when non-nil, is the reason
// the pressure sensor is missing and marks it permanently unavailable.
func NewStation(pressure Sensor, pressureErr error, humidity Sensor, logger *slog.Logger) *Station {
	if pressure == nil && pressureErr == nil {
		pressureErr = errors.New("no pressure sensor")
	}
	return &Station{
		pressure:    pressure,
		pressureErr: pressureErr,
		humidity:    humidity,
		log:         logger.With("component", "sensors"),
	}
}

// Open initializes both sensors on bus.
//
// A barometer that fails to initialize (most often a PROM checksum
// mismatch) is logged and recorded; the station still comes up so humidity
// keeps working. The hygrometer must reset cleanly or Open fails.
func Open(bus i2c.Bus, cfg *config.Config, logger *slog.Logger) (*Station, error) {
	log := logger.With("component", "sensors")
	var pressure Sensor
	baro, pressureErr := ms5637.New(bus, &ms5637.Opts{
		Addr:       cfg.MS5637I2CAddr,
		Resolution: cfg.MS5637Resolution,
	})
	switch {
	case pressureErr == nil:
		pressure = baro
		log.Info("pressure sensor ready",
			"addr", fmt.Sprintf("0x%02X", cfg.MS5637I2CAddr),
			"resolution", cfg.MS5637Resolution.String())
	case ms5637.IsCalibrationError(pressureErr):
		log.Error("pressure sensor calibration invalid", "err", pressureErr)
	default:
		log.Error("pressure sensor init failed", "err", pressureErr)
	}

	mode, err := sht4x.ParseMode(cfg.SHT4xMode)
	if err != nil {
		return nil, err
	}
	hygro, err := sht4x.New(bus, cfg.SHT4xI2CAddr, mode)
	if err != nil {
		return nil, fmt.Errorf("humidity sensor init: %w", err)
	}
	if err := hygro.Reset(); err != nil {
		return nil, fmt.Errorf("humidity sensor reset: %w", err)
	}
	log.Info("humidity sensor ready",
		"addr", fmt.Sprintf("0x%02X", cfg.SHT4xI2CAddr),
		"mode", mode.String())

	return NewStation(pressure, pressureErr, hygro, logger), nil
}

// PressureOK reports whether the barometer initialized.
func (s *Station) PressureOK() bool {
	return s.pressureErr == nil
}

// PressureErr returns the initialization fault of the barometer, if any.
func (s *Station) PressureErr() error {
	return s.pressureErr
}

// Baseline returns the reference pressure in hPa used for altitude.
func (s *Station) Baseline() float64 {
	return s.baseline
}

// SetBaseline overrides the reference pressure.
func (s *Station) SetBaseline(hPa float64) {
	s.baseline = hPa
}

func (s *Station) sensePressure() (physic.Env, error) {
	var e physic.Env
	if s.pressureErr != nil {
		return e, fmt.Errorf("%w: %w", ErrPressureUnavailable, s.pressureErr)
	}
	if err := s.pressure.Sense(&e); err != nil {
		return e, fmt.Errorf("%s sense: %w", s.pressure, err)
	}
	return e, nil
}

func pressureHPa(e physic.Env) float64 {
	return float64(e.Pressure) / float64(100*physic.Pascal) // 1 hPa = 100 Pa
}

// CaptureBaseline samples the barometer until it returns a non-zero
// pressure, up to attempts times with interval between tries. When no
// sample succeeds the fallback is used and measured is false.
func (s *Station) CaptureBaseline(ctx context.Context, attempts int, interval time.Duration, fallback float64) (baseline float64, measured bool) {
	if s.pressureErr == nil {
		for i := 0; i < attempts; i++ {
			e, err := s.sensePressure()
			switch {
			case err != nil:
				s.log.Debug("baseline sample failed", "attempt", i+1, "err", err)
			case e.Pressure == 0:
				s.log.Debug("baseline sample was zero", "attempt", i+1)
			default:
				s.baseline = pressureHPa(e)
				s.log.Info("altitude baseline captured", "hpa", s.baseline, "attempt", i+1)
				return s.baseline, true
			}
			if i == attempts-1 {
				break
			}
			select {
			case <-ctx.Done():
				s.baseline = fallback
				return fallback, false
			case <-time.After(interval):
			}
		}
	}
	s.baseline = fallback
	s.log.Warn("using fallback altitude baseline", "hpa", fallback)
	return fallback, false
}

// ReadPressure returns temperature, pressure and altitude relative to the
// baseline.
func (s *Station) ReadPressure() (env.PressureSample, error) {
	if s.pressureErr == nil && s.baseline == 0 {
		return env.PressureSample{}, ErrNoBaseline
	}
	e, err := s.sensePressure()
	if err != nil {
		return env.PressureSample{}, err
	}
	hPa := pressureHPa(e)
	return env.PressureSample{
		Temperature: e.Temperature.Celsius(),
		Pressure:    hPa,
		Altitude:    env.Altitude(hPa, s.baseline),
	}, nil
}

// ReadHumidity returns temperature and relative humidity. A frame that
// fails its checksum is reported as an error and produces no values.
func (s *Station) ReadHumidity() (env.HumiditySample, error) {
	var e physic.Env
	if err := s.humidity.Sense(&e); err != nil {
		return env.HumiditySample{}, fmt.Errorf("%s sense: %w", s.humidity, err)
	}
	return env.HumiditySample{
		Temperature: e.Temperature.Celsius(),
		Humidity:    float64(e.Humidity) / float64(physic.PercentRH),
	}, nil
}
