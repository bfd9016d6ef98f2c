package sensors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/climate_monitor/internal/config"
	"github.com/relabs-tech/climate_monitor/internal/ms5637"
	"github.com/relabs-tech/climate_monitor/internal/sht4x"
)

// fakeSensor replays envs and errs in order; the last entry repeats.
type fakeSensor struct {
	envs  []physic.Env
	errs  []error
	calls int
}

func (f *fakeSensor) Sense(e *physic.Env) error {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return f.errs[i]
	}
	if len(f.envs) == 0 {
		return nil
	}
	if i >= len(f.envs) {
		i = len(f.envs) - 1
	}
	*e = f.envs[i]
	return nil
}

func (f *fakeSensor) String() string { return "fake" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baro(celsius float64, pa int64) physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Kelvin)),
		Pressure:    physic.Pressure(pa) * physic.Pascal,
	}
}

func TestCaptureBaselineFirstNonZero(t *testing.T) {
	p := &fakeSensor{
		envs: []physic.Env{{}, {}, baro(20, 101225)},
		errs: []error{errors.New("nack")},
	}
	s := NewStation(p, nil, &fakeSensor{}, quietLogger())

	got, measured := s.CaptureBaseline(context.Background(), 5, time.Millisecond, 1013.25)
	assert.True(t, measured)
	assert.Equal(t, 1012.25, got)
	assert.Equal(t, 1012.25, s.Baseline())
	assert.Equal(t, 3, p.calls)
}

func TestCaptureBaselineFallback(t *testing.T) {
	p := &fakeSensor{envs: []physic.Env{{}}}
	s := NewStation(p, nil, &fakeSensor{}, quietLogger())

	got, measured := s.CaptureBaseline(context.Background(), 3, time.Millisecond, 1013.25)
	assert.False(t, measured)
	assert.Equal(t, 1013.25, got)
	assert.Equal(t, 3, p.calls)
}

func TestCaptureBaselineSkipsFaultedSensor(t *testing.T) {
	s := NewStation(nil, &ms5637.CalibrationError{Stored: 1, Computed: 2}, &fakeSensor{}, quietLogger())

	got, measured := s.CaptureBaseline(context.Background(), 20, time.Hour, 1000)
	assert.False(t, measured)
	assert.Equal(t, 1000.0, got)
}

func TestCaptureBaselineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeSensor{envs: []physic.Env{{}}}
	s := NewStation(p, nil, &fakeSensor{}, quietLogger())

	got, measured := s.CaptureBaseline(ctx, 20, time.Hour, 1013.25)
	assert.False(t, measured)
	assert.Equal(t, 1013.25, got)
	assert.Equal(t, 1, p.calls)
}

func TestReadPressure(t *testing.T) {
	p := &fakeSensor{envs: []physic.Env{baro(21.5, 101225)}}
	s := NewStation(p, nil, &fakeSensor{}, quietLogger())
	s.SetBaseline(1013.25)

	got, err := s.ReadPressure()
	require.NoError(t, err)
	assert.InDelta(t, 21.5, got.Temperature, 1e-9)
	assert.Equal(t, 1012.25, got.Pressure)
	assert.InDelta(t, 8.33, got.Altitude, 0.01)
}

func TestReadPressureNeedsBaseline(t *testing.T) {
	s := NewStation(&fakeSensor{}, nil, &fakeSensor{}, quietLogger())
	_, err := s.ReadPressure()
	assert.ErrorIs(t, err, ErrNoBaseline)
}

func TestReadPressureFaultIsSticky(t *testing.T) {
	calErr := &ms5637.CalibrationError{Stored: 8, Computed: 3}
	s := NewStation(nil, calErr, &fakeSensor{}, quietLogger())
	s.SetBaseline(1013.25)
	assert.False(t, s.PressureOK())

	for i := 0; i < 3; i++ {
		_, err := s.ReadPressure()
		require.ErrorIs(t, err, ErrPressureUnavailable)
		assert.True(t, ms5637.IsCalibrationError(err))
	}
}

func TestReadHumidity(t *testing.T) {
	h := &fakeSensor{envs: []physic.Env{{
		Temperature: physic.ZeroCelsius + 25*physic.Kelvin,
		Humidity:    42 * physic.PercentRH,
	}}}
	s := NewStation(nil, nil, h, quietLogger())

	got, err := s.ReadHumidity()
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.Temperature)
	assert.Equal(t, 42.0, got.Humidity)
	assert.False(t, s.PressureOK())
}

func TestReadHumidityChecksumFailure(t *testing.T) {
	frameErr := &sht4x.FrameChecksumError{Word: 1, Got: 0x00, Want: 0x51}
	h := &fakeSensor{errs: []error{frameErr}}
	s := NewStation(nil, nil, h, quietLogger())

	got, err := s.ReadHumidity()
	require.Error(t, err)
	assert.True(t, sht4x.IsFrameChecksumError(err))
	assert.Zero(t, got)
}

func TestOpenKeepsHumidityWhenCalibrationFails(t *testing.T) {
	cfg := config.Default()
	coeff := ms5637.Coefficients{0x8000, 46372, 43981, 29059, 27842, 31553, 28165}
	coeff[1] ^= 0x0001

	ops := []i2ctest.IO{{Addr: ms5637.DefaultAddress, W: []byte{0x1E}}}
	for i, w := range coeff {
		ops = append(ops, i2ctest.IO{
			Addr: ms5637.DefaultAddress,
			W:    []byte{0xA0 + byte(i*2)},
			R:    []byte{byte(w >> 8), byte(w)},
		})
	}
	ops = append(ops, i2ctest.IO{Addr: sht4x.DefaultAddress, W: []byte{0x94}})
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	s, err := Open(bus, cfg, quietLogger())
	require.NoError(t, err)
	assert.False(t, s.PressureOK())
	assert.True(t, ms5637.IsCalibrationError(s.PressureErr()))
	assert.NoError(t, bus.Close())
}

func TestOpenFailsWithoutHygrometer(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	_, err := Open(bus, config.Default(), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "humidity sensor")
}
