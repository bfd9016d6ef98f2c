package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/climate_monitor/internal/env"
	"github.com/relabs-tech/climate_monitor/internal/ms5637"
	"github.com/relabs-tech/climate_monitor/internal/sht4x"
	"github.com/relabs-tech/climate_monitor/internal/sx1509"
)

// Config holds all application configuration values.
type Config struct {
	// Bus
	I2CBus string // periph bus name, "" for the first one

	// MS5637 pressure sensor
	MS5637I2CAddr    uint16
	MS5637Resolution ms5637.Resolution // 0=OSR256 ... 5=OSR8192

	// SHT4x humidity sensor
	SHT4xI2CAddr uint16
	SHT4xMode    string // "high", "medium", "low" or one of the heater_* modes

	// SX1509 expander
	ExpanderI2CAddr uint16
	ExpanderIRQPin  string // host GPIO wired to nINT; empty to poll
	ButtonBit       uint8  // which of the three buttons switches panels

	// Timing
	PollInterval     time.Duration
	DebounceInterval time.Duration

	// Altitude baseline
	BaselineAttempts      int
	BaselineRetryInterval time.Duration
	BaselineFallbackHPa   float64

	// Display
	StartPanel string // "pressure" or "humidity"

	// Console mirror
	ConsoleSerialPort string // empty for stdout
	ConsoleBaudRate   uint

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: set once by InitGlobal, read through Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration matching the reference board.
func Default() *Config {
	return &Config{
		I2CBus:                "",
		MS5637I2CAddr:         ms5637.DefaultAddress,
		MS5637Resolution:      ms5637.OSR8192,
		SHT4xI2CAddr:          sht4x.DefaultAddress,
		SHT4xMode:             "high",
		ExpanderI2CAddr:       sx1509.DefaultAddress,
		ButtonBit:             0,
		PollInterval:          150 * time.Millisecond,
		DebounceInterval:      200 * time.Millisecond,
		BaselineAttempts:      20,
		BaselineRetryInterval: 500 * time.Millisecond,
		BaselineFallbackHPa:   env.SeaLevelPressure,
		StartPanel:            "pressure",
		ConsoleBaudRate:       115200,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Load reads the configuration file on top of Default and returns it.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("%s must be a 7-bit address, got 0x%X", key, addr)
	}
	return uint16(addr), nil
}

func parseMillis(key, value string) (time.Duration, error) {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Bus
	case "I2C_BUS":
		c.I2CBus = value

	// MS5637
	case "MS5637_I2C_ADDR":
		c.MS5637I2CAddr, err = parseAddr(key, value)
	case "MS5637_RESOLUTION":
		val, convErr := strconv.Atoi(value)
		if convErr != nil {
			return fmt.Errorf("invalid MS5637_RESOLUTION %q: %w", value, convErr)
		}
		if val < 0 || val > 5 {
			return fmt.Errorf("MS5637_RESOLUTION must be 0-5 (0=OSR256 ... 5=OSR8192), got %d", val)
		}
		c.MS5637Resolution = ms5637.Resolution(val)

	// SHT4x
	case "SHT4X_I2C_ADDR":
		c.SHT4xI2CAddr, err = parseAddr(key, value)
	case "SHT4X_MODE":
		if _, modeErr := sht4x.ParseMode(value); modeErr != nil {
			return fmt.Errorf("invalid SHT4X_MODE: %w", modeErr)
		}
		c.SHT4xMode = value

	// Expander
	case "EXPANDER_I2C_ADDR":
		c.ExpanderI2CAddr, err = parseAddr(key, value)
	case "EXPANDER_IRQ_PIN":
		c.ExpanderIRQPin = value
	case "BUTTON_BIT":
		val, convErr := strconv.Atoi(value)
		if convErr != nil {
			return fmt.Errorf("invalid BUTTON_BIT %q: %w", value, convErr)
		}
		if val < 0 || val > 2 {
			return fmt.Errorf("BUTTON_BIT must be 0-2, got %d", val)
		}
		c.ButtonBit = uint8(val)

	// Timing
	case "POLL_INTERVAL":
		c.PollInterval, err = parseMillis(key, value)
	case "DEBOUNCE_INTERVAL":
		c.DebounceInterval, err = parseMillis(key, value)

	// Baseline
	case "BASELINE_ATTEMPTS":
		val, convErr := strconv.Atoi(value)
		if convErr != nil {
			return fmt.Errorf("invalid BASELINE_ATTEMPTS %q: %w", value, convErr)
		}
		c.BaselineAttempts = val
	case "BASELINE_RETRY_INTERVAL":
		c.BaselineRetryInterval, err = parseMillis(key, value)
	case "BASELINE_FALLBACK_HPA":
		val, convErr := strconv.ParseFloat(value, 64)
		if convErr != nil {
			return fmt.Errorf("invalid BASELINE_FALLBACK_HPA %q: %w", value, convErr)
		}
		c.BaselineFallbackHPa = val

	// Display
	case "START_PANEL":
		c.StartPanel = value

	// Console
	case "CONSOLE_SERIAL_PORT":
		c.ConsoleSerialPort = value
	case "CONSOLE_BAUD_RATE":
		rate, convErr := strconv.ParseUint(value, 10, 32)
		if convErr != nil {
			return fmt.Errorf("invalid CONSOLE_BAUD_RATE %q: %w", value, convErr)
		}
		c.ConsoleBaudRate = uint(rate)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "LOG_FORMAT":
		c.LogFormat = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	if c.PollInterval == 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.BaselineAttempts < 1 {
		return fmt.Errorf("BASELINE_ATTEMPTS must be at least 1, got %d", c.BaselineAttempts)
	}
	if c.BaselineFallbackHPa <= 0 {
		return fmt.Errorf("BASELINE_FALLBACK_HPA must be positive, got %g", c.BaselineFallbackHPa)
	}
	switch c.StartPanel {
	case "pressure", "humidity":
	default:
		return fmt.Errorf("START_PANEL must be pressure or humidity, got %q", c.StartPanel)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
