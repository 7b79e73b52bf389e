// Package device opens the virtual gamepads sessions write to: uinput on
// Linux, vJoy on Windows, and an in-memory recorder everywhere.
package device

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/droidpad/internal/domain/session"
	"github.com/okian/droidpad/pkg/logger"
)

// Backend names accepted by NewOpener.
const (
	BackendAuto   = "auto"
	BackendUinput = "uinput"
	BackendVJoy   = "vjoy"
	BackendMemory = "memory"
)

// Defaults for the platform drivers.
const (
	DefaultUinputPath = "/dev/uinput"
	DefaultVJoyDLL    = "vJoyInterface.dll"
	DefaultNamePrefix = "droidpad"
)

// MaxVJoyDevices is the number of device ids vJoy exposes (1..16).
const MaxVJoyDevices = 16

// MaxDevices returns how many devices backend can open at once, or 0 when
// it has no fixed limit. An unresolvable backend reports 0.
func MaxDevices(backend string) int {
	b := strings.ToLower(strings.TrimSpace(backend))
	if b != BackendVJoy {
		b, _ = Resolve(b)
	}
	if b == BackendVJoy {
		return MaxVJoyDevices
	}
	return 0
}

// Option applies a configuration option to the Opener.
type Option func(*Opener)

// WithNamePrefix sets the prefix of the device name shown to the host.
func WithNamePrefix(prefix string) Option {
	return func(o *Opener) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithUinputPath sets the uinput character device.
func WithUinputPath(path string) Option {
	return func(o *Opener) {
		if path != "" {
			o.uinputPath = path
		}
	}
}

// WithVJoyDLL sets where vJoyInterface.dll is loaded from.
func WithVJoyDLL(path string) Option {
	return func(o *Opener) {
		if path != "" {
			o.vjoyDLL = path
		}
	}
}

// WithLogger sets the opener logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Opener) {
		if l != nil {
			o.log = l
		}
	}
}

// Opener creates devices for the selected backend.
type Opener struct {
	backend    string
	prefix     string
	uinputPath string
	vjoyDLL    string
	log        logger.Logger
	memory     *MemoryOpener
}

// Resolve maps a configured backend name to the concrete one for this
// platform. "auto" picks uinput on Linux and vJoy on Windows.
func Resolve(backend string) (string, error) {
	b := strings.ToLower(strings.TrimSpace(backend))
	switch b {
	case "", BackendAuto:
		switch {
		case uinputSupported():
			return BackendUinput, nil
		case vjoySupported():
			return BackendVJoy, nil
		default:
			return "", fmt.Errorf("%w: no native backend for %s", ErrUnsupported, runtime.GOOS)
		}
	case BackendUinput:
		if !uinputSupported() {
			return "", fmt.Errorf("%w: %s on %s", ErrUnsupported, b, runtime.GOOS)
		}
		return b, nil
	case BackendVJoy:
		if !vjoySupported() {
			return "", fmt.Errorf("%w: %s on %s", ErrUnsupported, b, runtime.GOOS)
		}
		return b, nil
	case BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknown, backend)
	}
}

// NewOpener resolves backend and returns an opener for it.
func NewOpener(backend string, opts ...Option) (*Opener, error) {
	b, err := Resolve(backend)
	if err != nil {
		return nil, err
	}
	o := &Opener{
		backend:    b,
		prefix:     DefaultNamePrefix,
		uinputPath: DefaultUinputPath,
		vjoyDLL:    DefaultVJoyDLL,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	if b == BackendMemory {
		o.memory = NewMemoryOpener(LayoutUinput)
	}
	return o, nil
}

// Backend returns the resolved backend name.
func (o *Opener) Backend() string { return o.backend }

// Memory returns the recorder behind the memory backend, or nil.
func (o *Opener) Memory() *MemoryOpener { return o.memory }

// DeviceName is the name the host sees for label.
func (o *Opener) DeviceName(label string) string {
	if label == "" {
		return o.prefix
	}
	return o.prefix + "-" + label
}

// Open creates the device for one session.
func (o *Opener) Open(ctx context.Context, slot int, label string) (session.Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := o.DeviceName(label)

	var (
		sink session.Sink
		err  error
	)
	switch o.backend {
	case BackendUinput:
		sink, err = openUinput(o.uinputPath, slot, name)
	case BackendVJoy:
		sink, err = openVJoy(o.vjoyDLL, slot, name)
	default:
		sink, err = o.memory.Open(ctx, slot, name)
	}
	if err != nil {
		o.log.Error(ctx, "open device failed",
			logger.String("backend", o.backend),
			logger.String("name", name),
			logger.Int("slot", slot),
			logger.Error(err),
		)
		return nil, err
	}

	o.log.Info(ctx, "device created",
		logger.String("backend", o.backend),
		logger.String("name", name),
		logger.Int("slot", slot),
	)
	return sink, nil
}
