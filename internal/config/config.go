// Package config loads application configuration from an optional TOML file
// and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ericfisherdev/viewkeeper/internal/logging"
)

// Environment variable names. Each one overrides the matching config file key.
const (
	EnvConfigFile        = "VIEWKEEPER_CONFIG_FILE"
	EnvPort              = "PORT"
	EnvDBPath            = "VIEWKEEPER_DB_PATH"
	EnvReconnectDelay    = "VIEWKEEPER_RECONNECT_DELAY"
	EnvReconnectMaxDelay = "VIEWKEEPER_RECONNECT_MAX_DELAY"
	EnvRelayTimeout      = "VIEWKEEPER_RELAY_TIMEOUT"
	EnvHTTPStart         = "VIEWKEEPER_HTTP_START"
	EnvConsoleQR         = "VIEWKEEPER_CONSOLE_QR"
	EnvDeviceName        = "VIEWKEEPER_DEVICE_NAME"
	EnvLogLevel          = "VIEWKEEPER_LOG_LEVEL"
	EnvLogFormat         = "VIEWKEEPER_LOG_FORMAT"
)

var overridableKeys = []string{
	EnvPort, EnvDBPath, EnvReconnectDelay, EnvReconnectMaxDelay, EnvRelayTimeout,
	EnvHTTPStart, EnvConsoleQR, EnvDeviceName, EnvLogLevel, EnvLogFormat,
}

// HTTPStart selects when the HTTP server begins listening.
type HTTPStart string

const (
	// HTTPStartStartup listens as soon as the process starts.
	HTTPStartStartup HTTPStart = "startup"
	// HTTPStartConnected listens after the first successful connection.
	HTTPStartConnected HTTPStart = "connected"
)

// Config holds the application configuration.
type Config struct {
	Port              int
	DBPath            string
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
	RelayTimeout      time.Duration
	HTTPStart         HTTPStart
	ConsoleQR         bool
	DeviceName        string
	LogLevel          slog.Level
	LogFormat         string
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// fileConfig mirrors the TOML file. Absent keys stay nil.
type fileConfig struct {
	Port              *int    `toml:"port"`
	DBPath            *string `toml:"db_path"`
	ReconnectDelay    *string `toml:"reconnect_delay"`
	ReconnectMaxDelay *string `toml:"reconnect_max_delay"`
	RelayTimeout      *string `toml:"relay_timeout"`
	HTTPStart         *string `toml:"http_start"`
	ConsoleQR         *bool   `toml:"console_qr"`
	DeviceName        *string `toml:"device_name"`
	LogLevel          *string `toml:"log_level"`
	LogFormat         *string `toml:"log_format"`
}

// Load reads VIEWKEEPER_CONFIG_FILE when set, applies environment overrides
// and returns a validated Config. Defaults: PORT 10000, VIEWKEEPER_DB_PATH
// viewkeeper.db, VIEWKEEPER_RECONNECT_DELAY 3s, VIEWKEEPER_RECONNECT_MAX_DELAY
// 0 (constant delay), VIEWKEEPER_RELAY_TIMEOUT 30s, VIEWKEEPER_HTTP_START
// startup, VIEWKEEPER_CONSOLE_QR true, VIEWKEEPER_DEVICE_NAME Chrome.
func Load() (*Config, error) {
	values := make(map[string]string)

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := loadFile(path, values); err != nil {
			return nil, err
		}
	}

	for _, key := range overridableKeys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	return parse(values)
}

func loadFile(path string, values map[string]string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s has unknown key %q", path, undecoded[0].String())
	}

	setString := func(key string, v *string) {
		if v != nil {
			values[key] = *v
		}
	}
	if fc.Port != nil {
		values[EnvPort] = strconv.Itoa(*fc.Port)
	}
	if fc.ConsoleQR != nil {
		values[EnvConsoleQR] = strconv.FormatBool(*fc.ConsoleQR)
	}
	setString(EnvDBPath, fc.DBPath)
	setString(EnvReconnectDelay, fc.ReconnectDelay)
	setString(EnvReconnectMaxDelay, fc.ReconnectMaxDelay)
	setString(EnvRelayTimeout, fc.RelayTimeout)
	setString(EnvHTTPStart, fc.HTTPStart)
	setString(EnvDeviceName, fc.DeviceName)
	setString(EnvLogLevel, fc.LogLevel)
	setString(EnvLogFormat, fc.LogFormat)

	return nil
}

func parse(values map[string]string) (*Config, error) {
	cfg := &Config{
		Port:           10000,
		DBPath:         "viewkeeper.db",
		ReconnectDelay: 3 * time.Second,
		RelayTimeout:   30 * time.Second,
		HTTPStart:      HTTPStartStartup,
		ConsoleQR:      true,
		DeviceName:     "Chrome",
		LogLevel:       slog.LevelInfo,
		LogFormat:      "text",
	}

	if v, ok := values[EnvPort]; ok {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("%s has invalid port %q", EnvPort, v)
		}
		cfg.Port = port
	}

	if v, ok := values[EnvDBPath]; ok {
		if v == "" {
			return nil, fmt.Errorf("%s must not be empty", EnvDBPath)
		}
		cfg.DBPath = v
	}

	var err error
	if cfg.ReconnectDelay, err = duration(values, EnvReconnectDelay, cfg.ReconnectDelay, false); err != nil {
		return nil, err
	}
	if cfg.ReconnectMaxDelay, err = duration(values, EnvReconnectMaxDelay, 0, true); err != nil {
		return nil, err
	}
	if cfg.RelayTimeout, err = duration(values, EnvRelayTimeout, cfg.RelayTimeout, false); err != nil {
		return nil, err
	}

	if v, ok := values[EnvHTTPStart]; ok {
		switch HTTPStart(strings.ToLower(v)) {
		case HTTPStartStartup:
			cfg.HTTPStart = HTTPStartStartup
		case HTTPStartConnected:
			cfg.HTTPStart = HTTPStartConnected
		default:
			return nil, fmt.Errorf("%s must be %q or %q, got %q", EnvHTTPStart, HTTPStartStartup, HTTPStartConnected, v)
		}
	}

	if v, ok := values[EnvConsoleQR]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s has invalid boolean %q: %w", EnvConsoleQR, v, err)
		}
		cfg.ConsoleQR = b
	}

	if v, ok := values[EnvDeviceName]; ok && v != "" {
		cfg.DeviceName = v
	}

	if v, ok := values[EnvLogLevel]; ok {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if v, ok := values[EnvLogFormat]; ok {
		format := strings.ToLower(v)
		if format != "text" && format != "json" {
			return nil, fmt.Errorf("%s must be \"text\" or \"json\", got %q", EnvLogFormat, v)
		}
		cfg.LogFormat = format
	}

	return cfg, nil
}

// duration parses values[key]. Zero is accepted only when allowZero is set;
// negative durations are always rejected.
func duration(values map[string]string, key string, def time.Duration, allowZero bool) (time.Duration, error) {
	v, ok := values[key]
	if !ok {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return d, nil
}
