package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Environment and flag names.
const (
	EnvPrefix  = "DROIDPAD_"
	EnvConfig  = EnvPrefix + "CONFIG"
	FlagConfig = "config"
	FlagPort   = "port"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"addr":              "addr",
	"double-tap-timing": "double_tap_ms",
	"backend":           "backend",
	"log-level":         "log_level",
	"log-format":        "log_format",
	"latch-controls":    "latch_controls",
	"max-devices":       "max_devices",
	"uinput-path":       "uinput_path",
}

// RegisterFlags defines the command-line flags Load understands on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := New()
	fs.StringP(FlagConfig, "c", "", "path to a YAML config file (env "+EnvConfig+")")
	fs.IntP(FlagPort, "p", DefaultPort, "port to listen on")
	fs.IntP("double-tap-timing", "d", def.DoubleTapMS, "time in ms between taps to hold a button (-1 to disable)")
	fs.String("addr", def.Addr, "listen address, --port overrides its port")
	fs.String("backend", def.Backend, "device backend: auto, uinput, vjoy or memory")
	fs.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", def.LogFormat, "log format: text or json")
	fs.String("latch-controls", def.LatchControls, `controls that may latch, comma separated globs or "none"`)
	fs.Int("max-devices", def.MaxDevices, "maximum concurrent controllers")
	fs.String("uinput-path", def.UinputPath, "uinput device node")
}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. YAML file from --config or DROIDPAD_CONFIG
//  3. env (prefix DROIDPAD_)
//  4. flags set on fs
//
// fs may be nil.
func Load(ctx context.Context, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(EnvConfig)
	if fs != nil {
		if f := fs.Lookup(FlagConfig); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// DROIDPAD_QUEUE_SIZE -> queue_size
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if fs != nil {
		if err := k.Load(flagProvider(fs, k), nil); err != nil {
			return nil, fmt.Errorf("%w: flags: %w", ErrLoadConfig, err)
		}
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if fs != nil {
		if f := fs.Lookup(FlagPort); f != nil && f.Changed {
			port, err := strconv.Atoi(f.Value.String())
			if err != nil || port < 0 || port > 65535 {
				return nil, fmt.Errorf("%w: port %q", ErrInvalidConfig, f.Value.String())
			}
			cfg.Addr = withPort(cfg.Addr, port)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagProvider exposes the flags set on fs under their config keys.
// Unset flags and flags without a key (--config, --port) are skipped.
func flagProvider(fs *pflag.FlagSet, k *koanf.Koanf) *posflag.Posflag {
	return posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
}

func withPort(addr string, port int) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
