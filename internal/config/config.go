// Package config defines the bridge configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/droidpad/internal/adapters/device"
	"github.com/okian/droidpad/internal/domain/latch"
	"github.com/okian/droidpad/pkg/logger"
)

// Default values.
const (
	DefaultPort      = 1715
	DefaultDoubleTap = 200
)

var backends = map[string]bool{"auto": true, "uinput": true, "vjoy": true, "memory": true}

// reserved paths are served by the management API.
var reserved = map[string]bool{
	"/healthz": true, "/stats": true, "/sessions": true,
	"/openapi.yaml": true, "/api-docs": true,
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr is the HTTP listen address, e.g. ":1715".
	Addr string `koanf:"addr"`

	// WSPath is where controllers connect.
	WSPath string `koanf:"ws_path"`

	// DoubleTapMS is the double-tap threshold in milliseconds. Negative
	// disables latching.
	DoubleTapMS int `koanf:"double_tap_ms"`

	// LatchControls lists which controls may latch, as comma separated
	// name globs. "*" enrolls every button, "none" nothing.
	LatchControls string `koanf:"latch_controls"`

	// Backend selects the device implementation: auto, uinput, vjoy or memory.
	Backend          string `koanf:"backend"`
	DeviceNamePrefix string `koanf:"device_name_prefix"`
	UinputPath       string `koanf:"uinput_path"`
	VJoyDLL          string `koanf:"vjoy_dll"`

	// MaxDevices bounds concurrent sessions.
	MaxDevices int `koanf:"max_devices"`

	// QueueSize bounds each session's event queue.
	QueueSize int `koanf:"queue_size"`

	// ReadLimit caps one WebSocket frame in bytes.
	ReadLimit int `koanf:"read_limit"`

	// MaxSessionList caps GET /sessions?limit.
	MaxSessionList int `koanf:"max_session_list"`

	MetricsEnabled    bool `koanf:"metrics_enabled"`
	ShutdownTimeoutMS int  `koanf:"shutdown_timeout_ms"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              fmt.Sprintf(":%d", DefaultPort),
		WSPath:            "/",
		DoubleTapMS:       DefaultDoubleTap,
		LatchControls:     "*",
		Backend:           "auto",
		DeviceNamePrefix:  "droidpad",
		UinputPath:        "/dev/uinput",
		VJoyDLL:           "vJoyInterface.dll",
		MaxDevices:        16,
		QueueSize:         256,
		ReadLimit:         4096,
		MaxSessionList:    100,
		MetricsEnabled:    true,
		ShutdownTimeoutMS: 10_000,
	}
}

// DoubleTap returns the latch threshold. Any negative setting disables it.
func (c *Config) DoubleTap() time.Duration {
	if c.DoubleTapMS < 0 {
		return latch.Disabled
	}
	return time.Duration(c.DoubleTapMS) * time.Millisecond
}

// Rule parses LatchControls.
func (c *Config) Rule() (latch.Rule, error) {
	return latch.ParseRule(c.LatchControls)
}

// ShutdownTimeout bounds graceful shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Validate checks every field. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level: %v", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return invalid("ws_path must start with /, got %q", c.WSPath)
	}
	if reserved[c.WSPath] || strings.HasPrefix(c.WSPath, "/sessions/") {
		return invalid("ws_path %q is taken by the API", c.WSPath)
	}
	if _, err := c.Rule(); err != nil {
		return invalid("latch_controls: %v", err)
	}
	if !backends[c.Backend] {
		return invalid("unknown backend %q", c.Backend)
	}
	if strings.TrimSpace(c.DeviceNamePrefix) == "" {
		return invalid("device_name_prefix must not be empty")
	}
	if c.MaxDevices < 1 || c.MaxDevices > 256 {
		return invalid("max_devices must be in [1, 256], got %d", c.MaxDevices)
	}
	if limit := device.MaxDevices(c.Backend); limit > 0 && c.MaxDevices > limit {
		return invalid("max_devices must be at most %d for backend %s, got %d", limit, c.Backend, c.MaxDevices)
	}
	if c.QueueSize < 1 {
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.ReadLimit < 256 {
		return invalid("read_limit must be at least 256, got %d", c.ReadLimit)
	}
	if c.MaxSessionList < 1 {
		return invalid("max_session_list must be positive, got %d", c.MaxSessionList)
	}
	if c.ShutdownTimeoutMS < 0 {
		return invalid("shutdown_timeout_ms must not be negative")
	}
	return nil
}
