//go:build windows

package device

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/okian/droidpad/internal/domain/axis"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/session"
)

// vJoy device status codes (VjdStat).
const (
	vjdStatOwn  = 0
	vjdStatFree = 1
	vjdStatBusy = 2
	vjdStatMiss = 3
)

// joystickPositionV2 mirrors JOYSTICK_POSITION_V2 from vjoyinterface.h.
type joystickPositionV2 struct {
	BDevice     byte
	WThrottle   int32
	WRudder     int32
	WAileron    int32
	WAxisX      int32
	WAxisY      int32
	WAxisZ      int32
	WAxisXRot   int32
	WAxisYRot   int32
	WAxisZRot   int32
	WSlider     int32
	WDial       int32
	WWheel      int32
	WAxisVX     int32
	WAxisVY     int32
	WAxisVZ     int32
	WAxisVBRX   int32
	WAxisVBRY   int32
	WAxisVBRZ   int32
	LButtons    int32
	BHats       uint32
	BHatsEx1    uint32
	BHatsEx2    uint32
	BHatsEx3    uint32
	LButtonsEx1 int32
	LButtonsEx2 int32
	LButtonsEx3 int32
}

type vjoyDriver struct {
	dll        *windows.LazyDLL
	enabled    *windows.LazyProc
	status     *windows.LazyProc
	acquire    *windows.LazyProc
	relinquish *windows.LazyProc
	update     *windows.LazyProc
	reset      *windows.LazyProc
}

var (
	vjoyMu  sync.Mutex
	vjoyDrv *vjoyDriver
)

func loadVJoy(path string) (*vjoyDriver, error) {
	vjoyMu.Lock()
	defer vjoyMu.Unlock()

	if vjoyDrv != nil {
		return vjoyDrv, nil
	}
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDriver, path, err)
	}
	d := &vjoyDriver{
		dll:        dll,
		enabled:    dll.NewProc("vJoyEnabled"),
		status:     dll.NewProc("GetVJDStatus"),
		acquire:    dll.NewProc("AcquireVJD"),
		relinquish: dll.NewProc("RelinquishVJD"),
		update:     dll.NewProc("UpdateVJD"),
		reset:      dll.NewProc("ResetVJD"),
	}
	if r, _, _ := d.enabled.Call(); r == 0 {
		return nil, fmt.Errorf("%w: vJoy is not enabled", ErrDriver)
	}
	vjoyDrv = d
	return d, nil
}

// VJoy is one vJoy device. Applied values land in a position report
// that UpdateVJD pushes to the driver on Synchronize.
type VJoy struct {
	mu     sync.Mutex
	drv    *vjoyDriver
	id     uint32
	name   string
	report joystickPositionV2
	dirty  bool
	closed bool
}

func openVJoy(dllPath string, slot int, name string) (*VJoy, error) {
	drv, err := loadVJoy(dllPath)
	if err != nil {
		return nil, err
	}
	if slot < 1 || slot > MaxVJoyDevices {
		return nil, fmt.Errorf("%w: vJoy has no device %d", ErrDriver, slot)
	}
	id := uint32(slot)

	vjoyMu.Lock()
	defer vjoyMu.Unlock()

	status, _, _ := drv.status.Call(uintptr(id))
	switch status {
	case vjdStatOwn, vjdStatFree:
	case vjdStatBusy:
		return nil, fmt.Errorf("%w: vJoy device %d is owned by another feeder", ErrDriver, id)
	case vjdStatMiss:
		return nil, fmt.Errorf("%w: vJoy device %d is not configured", ErrDriver, id)
	default:
		return nil, fmt.Errorf("%w: vJoy device %d status %d", ErrDriver, id, status)
	}
	if r, _, _ := drv.acquire.Call(uintptr(id)); r == 0 {
		return nil, fmt.Errorf("%w: AcquireVJD(%d) failed", ErrDriver, id)
	}
	drv.reset.Call(uintptr(id))

	v := &VJoy{drv: drv, id: id, name: name}
	v.report.BDevice = byte(id)
	for _, a := range []control.ID{control.LeftStickX, control.LeftStickY, control.RightStickX, control.RightStickY} {
		v.setAxis(a, vjoyAxes[a].Normalize(0))
	}
	v.dirty = true
	return v, nil
}

func (v *VJoy) setAxis(id control.ID, level int32) {
	switch id {
	case control.LeftStickX:
		v.report.WAxisX = level
	case control.LeftStickY:
		v.report.WAxisY = level
	case control.RightStickX:
		v.report.WAxisZ = level
	case control.RightStickY:
		v.report.WAxisXRot = level
	}
}

func (v *VJoy) Apply(id control.ID, val session.Value) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if err := checkValue(vjoyAxes, id, val); err != nil {
		return err
	}

	if val.IsAxis() {
		v.setAxis(id, val.Level())
	} else {
		bit := int32(1) << (vjoyButtons[id] - 1)
		if val.Pressed() {
			v.report.LButtons |= bit
		} else {
			v.report.LButtons &^= bit
		}
	}
	v.dirty = true
	return nil
}

func (v *VJoy) Synchronize() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if !v.dirty {
		return nil
	}
	r, _, err := v.drv.update.Call(uintptr(v.id), uintptr(unsafe.Pointer(&v.report)))
	if r == 0 {
		return fmt.Errorf("UpdateVJD(%d): %w", v.id, err)
	}
	v.dirty = false
	return nil
}

func (v *VJoy) Axis(id control.ID) (axis.Spec, bool) {
	s, ok := vjoyAxes[id]
	return s, ok
}

func (v *VJoy) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	v.closed = true

	vjoyMu.Lock()
	defer vjoyMu.Unlock()
	v.drv.reset.Call(uintptr(v.id))
	v.drv.relinquish.Call(uintptr(v.id))
	return nil
}

func vjoySupported() bool { return true }
