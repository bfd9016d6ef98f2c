package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/climate_monitor/internal/ms5637"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "climate_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, uint16(0x76), cfg.MS5637I2CAddr)
	assert.Equal(t, ms5637.OSR8192, cfg.MS5637Resolution)
	assert.Equal(t, uint16(0x44), cfg.SHT4xI2CAddr)
	assert.Equal(t, uint16(0x3E), cfg.ExpanderI2CAddr)
	assert.Equal(t, 150*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.DebounceInterval)
	assert.Equal(t, 20, cfg.BaselineAttempts)
	assert.Equal(t, 1013.25, cfg.BaselineFallbackHPa)
	assert.NoError(t, cfg.validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
# board wiring
I2C_BUS = 1
MS5637_I2C_ADDR=0x76
MS5637_RESOLUTION=2
SHT4X_I2C_ADDR=0x45
SHT4X_MODE=heater_low_100ms
EXPANDER_IRQ_PIN=GPIO17
BUTTON_BIT=1

POLL_INTERVAL=250
DEBOUNCE_INTERVAL=50
BASELINE_ATTEMPTS=5
BASELINE_RETRY_INTERVAL=100
BASELINE_FALLBACK_HPA=1000.5
START_PANEL=humidity
CONSOLE_SERIAL_PORT=/dev/ttyAMA0
CONSOLE_BAUD_RATE=9600
LOG_LEVEL=DEBUG
LOG_FORMAT=json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.I2CBus)
	assert.Equal(t, ms5637.OSR1024, cfg.MS5637Resolution)
	assert.Equal(t, uint16(0x45), cfg.SHT4xI2CAddr)
	assert.Equal(t, "heater_low_100ms", cfg.SHT4xMode)
	assert.Equal(t, "GPIO17", cfg.ExpanderIRQPin)
	assert.Equal(t, uint8(1), cfg.ButtonBit)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.DebounceInterval)
	assert.Equal(t, 5, cfg.BaselineAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.BaselineRetryInterval)
	assert.Equal(t, 1000.5, cfg.BaselineFallbackHPa)
	assert.Equal(t, "humidity", cfg.StartPanel)
	assert.Equal(t, "/dev/ttyAMA0", cfg.ConsoleSerialPort)
	assert.Equal(t, uint(9600), cfg.ConsoleBaudRate)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing equals", "MS5637_RESOLUTION 3", "invalid config line 1"},
		{"unknown key", "FOO=1", "unknown config key"},
		{"resolution range", "MS5637_RESOLUTION=6", "MS5637_RESOLUTION must be 0-5"},
		{"bad address", "SHT4X_I2C_ADDR=0x80", "7-bit address"},
		{"bad mode", "SHT4X_MODE=turbo", "invalid SHT4X_MODE"},
		{"button range", "\nBUTTON_BIT=3", "config line 2"},
		{"negative interval", "DEBOUNCE_INTERVAL=-1", "must not be negative"},
		{"zero poll", "POLL_INTERVAL=0", "POLL_INTERVAL must be positive"},
		{"no attempts", "BASELINE_ATTEMPTS=0", "BASELINE_ATTEMPTS"},
		{"bad fallback", "BASELINE_FALLBACK_HPA=0", "BASELINE_FALLBACK_HPA"},
		{"bad panel", "START_PANEL=gps", "START_PANEL"},
		{"bad level", "LOG_LEVEL=trace", "LOG_LEVEL"},
		{"bad format", "LOG_FORMAT=xml", "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestInitGlobal(t *testing.T) {
	path := writeConfig(t, "START_PANEL=humidity\n")
	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, "humidity", Get().StartPanel)

	// Later calls keep the first configuration.
	require.NoError(t, InitGlobal(writeConfig(t, "START_PANEL=pressure\n")))
	assert.Equal(t, "humidity", Get().StartPanel)
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "climate_config.txt"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
