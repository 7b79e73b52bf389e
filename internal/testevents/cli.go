package testevents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/okian/droidpad/pkg/logger"
	"github.com/spf13/pflag"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to the console and, when logFile is
// set, to that file as well.
func SetupLogging(logFile string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	if err := logger.Init(logger.WithOutput(out), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return nil
}

// RegisterFlags binds the simulator flags to fs and returns the config
// they fill.
func RegisterFlags(fs *pflag.FlagSet) *Config {
	c := &Config{}
	fs.StringVarP(&c.URL, "url", "u", "ws://localhost:1715/", "WebSocket endpoint of the bridge")
	fs.StringVar(&c.APIURL, "api", "", "HTTP base of the bridge API (default: derived from --url)")
	fs.IntVarP(&c.Clients, "clients", "n", DefaultClients, "Number of concurrent simulated phones")
	fs.IntVar(&c.Samples, "samples", DefaultSamples, "Stick samples per sweep")
	fs.DurationVar(&c.TapGap, "tap-gap", DefaultTapGap, "Gap between tap edges; keep it under the bridge's double tap window")
	fs.BoolVar(&c.ExpectLatch, "expect-latch", true, "Expect the double tap to latch")
	fs.DurationVar(&c.Timeout, "timeout", DefaultTimeout, "HTTP and dial timeout")
	fs.DurationVar(&c.SettleTimeout, "settle", DefaultSettleTimeout, "How long to wait for the bridge to catch up")
	fs.StringVarP(&c.OutputFile, "output", "o", "", "Write the played script to this file")
	fs.StringVar(&c.LogFile, "log", "", "Also log to this file")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, `droidpad control simulator

Connects simulated phones to a running bridge, plays a tap, a double tap,
a d-pad tap and a stick sweep on each, then checks /sessions and /stats.

Usage:
  test-events [options]

Options:
%s
Examples:
  test-events -n 8
  test-events --url ws://192.168.1.20:1715/ --expect-latch=false
`, fs.FlagUsages())
	}
	return c
}
