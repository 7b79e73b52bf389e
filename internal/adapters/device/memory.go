package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/droidpad/internal/domain/axis"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/session"
)

// Change is one applied control value.
type Change struct {
	Control control.ID
	Value   session.Value
}

// Frame is one synchronized batch of changes.
type Frame struct {
	Seq     int
	Changes []Change
}

// State is the committed device state.
type State struct {
	Buttons [control.Count]bool
	Axes    [control.Count]int32
}

// Memory is an in-process gamepad that records every frame. It backs the
// "memory" backend and the tests.
type Memory struct {
	mu      sync.Mutex
	slot    int
	label   string
	axes    map[control.ID]axis.Spec
	pending []Change
	state   State
	frames  []Frame
	closed  bool

	failApply error
	failSync  error
}

// NewMemory creates a memory device with the axis table of layout.
func NewMemory(slot int, label string, layout Layout) *Memory {
	return &Memory{slot: slot, label: label, axes: layout.axes()}
}

func (m *Memory) Apply(id control.ID, v session.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.failApply != nil {
		return m.failApply
	}
	if err := checkValue(m.axes, id, v); err != nil {
		return err
	}
	m.pending = append(m.pending, Change{Control: id, Value: v})
	return nil
}

func (m *Memory) Synchronize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.failSync != nil {
		return m.failSync
	}
	if len(m.pending) == 0 {
		return nil
	}
	for _, c := range m.pending {
		if c.Value.IsAxis() {
			m.state.Axes[c.Control] = c.Value.Level()
		} else {
			m.state.Buttons[c.Control] = c.Value.Pressed()
		}
	}
	m.frames = append(m.frames, Frame{Seq: len(m.frames) + 1, Changes: m.pending})
	m.pending = nil
	return nil
}

func (m *Memory) Axis(id control.ID) (axis.Spec, bool) {
	s, ok := m.axes[id]
	return s, ok
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.pending = nil
	return nil
}

// FailApply makes every later Apply return err. nil clears it.
func (m *Memory) FailApply(err error) {
	m.mu.Lock()
	m.failApply = err
	m.mu.Unlock()
}

// FailSync makes every later Synchronize return err. nil clears it.
func (m *Memory) FailSync(err error) {
	m.mu.Lock()
	m.failSync = err
	m.mu.Unlock()
}

// Frames returns a copy of the published frames.
func (m *Memory) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Frame(nil), m.frames...)
}

// State returns the committed state.
func (m *Memory) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending returns the number of applied but unpublished changes.
func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Memory) Slot() int     { return m.slot }
func (m *Memory) Label() string { return m.label }

// MemoryOpener opens Memory devices and keeps them for inspection.
type MemoryOpener struct {
	mu       sync.Mutex
	layout   Layout
	devices  []*Memory
	failOpen error
}

// NewMemoryOpener creates an opener for layout.
func NewMemoryOpener(layout Layout) *MemoryOpener {
	return &MemoryOpener{layout: layout}
}

func (o *MemoryOpener) Open(ctx context.Context, slot int, label string) (session.Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failOpen != nil {
		return nil, o.failOpen
	}
	m := NewMemory(slot, label, o.layout)
	o.devices = append(o.devices, m)
	return m, nil
}

// FailOpen makes every later Open return err. nil clears it.
func (o *MemoryOpener) FailOpen(err error) {
	o.mu.Lock()
	o.failOpen = err
	o.mu.Unlock()
}

// Devices returns every device opened so far, in order.
func (o *MemoryOpener) Devices() []*Memory {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Memory(nil), o.devices...)
}

// Last returns the most recently opened device, or nil.
func (o *MemoryOpener) Last() *Memory {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.devices) == 0 {
		return nil
	}
	return o.devices[len(o.devices)-1]
}

// checkValue rejects values the device could not represent.
func checkValue(axes map[control.ID]axis.Spec, id control.ID, v session.Value) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrControl, id)
	}
	if v.IsAxis() != id.IsAxis() {
		return fmt.Errorf("%w: %s got %s", ErrValue, id, v)
	}
	if v.IsAxis() {
		spec, ok := axes[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrControl, id)
		}
		if !spec.Contains(v.Level()) {
			return fmt.Errorf("%w: %s out of [%d, %d]", ErrValue, v, spec.Min, spec.Max)
		}
	}
	return nil
}
