//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/okian/droidpad/internal/domain/axis"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/session"
)

// uinput ioctl requests (linux/uinput.h).
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetAbsBit  = 0x40045567

	uinputMaxNameSize = 80
	absCnt            = 64
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputUserDev is the legacy setup record written before UI_DEV_CREATE.
type uinputUserDev struct {
	Name       [uinputMaxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [absCnt]int32
	Absmin     [absCnt]int32
	Absfuzz    [absCnt]int32
	Absflat    [absCnt]int32
}

type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Uinput is a virtual pad created through /dev/uinput. Applied values are
// buffered and written together with SYN_REPORT in one write.
type Uinput struct {
	mu      sync.Mutex
	fd      int
	slot    int
	name    string
	pending []inputEvent
	closed  bool
}

func openUinput(path string, slot int, name string) (*Uinput, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDriver, path, err)
	}

	if err := setupUinput(fd, name); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &Uinput{fd: fd, slot: slot, name: name}, nil
}

func setupUinput(fd int, name string) error {
	for _, ev := range []int{evSyn, evKey, evAbs} {
		if err := unix.IoctlSetInt(fd, uiSetEvBit, ev); err != nil {
			return fmt.Errorf("UI_SET_EVBIT %d: %w", ev, err)
		}
	}

	dev := uinputUserDev{
		ID: inputID{
			Bustype: busVirtual,
			Vendor:  vendorXbox,
			Product: productXbox,
			Version: productVersion,
		},
	}
	copy(dev.Name[:uinputMaxNameSize-1], name)

	for _, id := range control.All() {
		c := evdevCodes[id]
		switch c.typ {
		case evKey:
			if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(c.code)); err != nil {
				return fmt.Errorf("UI_SET_KEYBIT %s: %w", id, err)
			}
		case evAbs:
			if err := unix.IoctlSetInt(fd, uiSetAbsBit, int(c.code)); err != nil {
				return fmt.Errorf("UI_SET_ABSBIT %s: %w", id, err)
			}
			spec := uinputAxes[id]
			dev.Absmin[c.code] = spec.Min
			dev.Absmax[c.code] = spec.Max
		}
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, &dev); err != nil {
		return err
	}
	if err := writeFull(unix.Write, fd, buf.Bytes()); err != nil {
		return fmt.Errorf("write uinput_user_dev: %w", err)
	}
	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}

func (u *Uinput) Apply(id control.ID, v session.Value) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrClosed
	}
	if err := checkValue(uinputAxes, id, v); err != nil {
		return err
	}

	c := evdevCodes[id]
	ev := inputEvent{Type: c.typ, Code: c.code}
	if v.IsAxis() {
		ev.Value = v.Level()
	} else if v.Pressed() {
		ev.Value = 1
	}
	u.pending = append(u.pending, ev)
	return nil
}

func (u *Uinput) Synchronize() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrClosed
	}
	if len(u.pending) == 0 {
		return nil
	}

	tv := unix.NsecToTimeval(time.Now().UnixNano())
	var buf bytes.Buffer
	for i := range u.pending {
		u.pending[i].Time = tv
	}
	frame := append(u.pending, inputEvent{Time: tv, Type: evSyn, Code: synReport})
	if err := binary.Write(&buf, binary.NativeEndian, frame); err != nil {
		return err
	}
	u.pending = u.pending[:0]

	if err := writeFull(unix.Write, u.fd, buf.Bytes()); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	return nil
}

// writeFull writes b in one call. uinput consumes whole events per write,
// so a short count means the tail of the frame, SYN_REPORT included, was lost.
func writeFull(write func(fd int, p []byte) (int, error), fd int, b []byte) error {
	n, err := write(fd, b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(b))
	}
	return nil
}

func (u *Uinput) Axis(id control.ID) (axis.Spec, bool) {
	s, ok := uinputAxes[id]
	return s, ok
}

func (u *Uinput) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrClosed
	}
	u.closed = true
	u.pending = nil

	derr := unix.IoctlSetInt(u.fd, uiDevDestroy, 0)
	cerr := unix.Close(u.fd)
	if derr != nil {
		return fmt.Errorf("UI_DEV_DESTROY: %w", derr)
	}
	return cerr
}

func uinputSupported() bool { return true }
