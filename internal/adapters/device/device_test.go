package device_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/okian/droidpad/internal/adapters/device"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/session"
	"github.com/okian/droidpad/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMemory(t *testing.T) {
	Convey("Given a memory device with the uinput layout", t, func() {
		m := device.NewMemory(1, "pad", device.LayoutUinput)

		Convey("When values are applied but not synchronized", func() {
			So(m.Apply(control.A, session.ButtonValue(true)), ShouldBeNil)
			So(m.Apply(control.LeftStickX, session.AxisValue(-32768)), ShouldBeNil)

			Convey("Then nothing is visible yet", func() {
				So(m.Pending(), ShouldEqual, 2)
				So(m.Frames(), ShouldBeEmpty)
				So(m.State().Buttons[control.A], ShouldBeFalse)
			})

			Convey("Then synchronize publishes them as one frame", func() {
				So(m.Synchronize(), ShouldBeNil)
				frames := m.Frames()
				So(len(frames), ShouldEqual, 1)
				So(len(frames[0].Changes), ShouldEqual, 2)
				So(m.State().Buttons[control.A], ShouldBeTrue)
				So(m.State().Axes[control.LeftStickX], ShouldEqual, -32768)
				So(m.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When synchronize runs with nothing pending", func() {
			So(m.Apply(control.B, session.ButtonValue(true)), ShouldBeNil)
			So(m.Synchronize(), ShouldBeNil)
			before := m.State()

			So(m.Synchronize(), ShouldBeNil)
			So(m.Synchronize(), ShouldBeNil)

			Convey("Then the device is unchanged", func() {
				So(len(m.Frames()), ShouldEqual, 1)
				So(m.State(), ShouldResemble, before)
			})
		})

		Convey("When values do not fit", func() {
			Convey("Then an axis value on a button is rejected", func() {
				So(errors.Is(m.Apply(control.A, session.AxisValue(3)), device.ErrValue), ShouldBeTrue)
			})
			Convey("Then a button value on an axis is rejected", func() {
				So(errors.Is(m.Apply(control.LeftStickY, session.ButtonValue(true)), device.ErrValue), ShouldBeTrue)
			})
			Convey("Then unknown controls are rejected", func() {
				So(errors.Is(m.Apply(control.Count, session.ButtonValue(true)), device.ErrControl), ShouldBeTrue)
			})
		})

		Convey("When a failure is injected", func() {
			boom := errors.New("boom")
			m.FailSync(boom)

			Convey("Then synchronize reports it", func() {
				So(m.Synchronize(), ShouldEqual, boom)
				m.FailSync(nil)
				So(m.Synchronize(), ShouldBeNil)
			})
		})

		Convey("When closed", func() {
			So(m.Close(), ShouldBeNil)

			Convey("Then further use fails", func() {
				So(m.Closed(), ShouldBeTrue)
				So(errors.Is(m.Apply(control.A, session.ButtonValue(true)), device.ErrClosed), ShouldBeTrue)
				So(errors.Is(m.Synchronize(), device.ErrClosed), ShouldBeTrue)
				So(errors.Is(m.Close(), device.ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestLayouts(t *testing.T) {
	Convey("Given the two axis layouts", t, func() {
		u := device.NewMemory(1, "u", device.LayoutUinput)
		v := device.NewMemory(1, "v", device.LayoutVJoy)

		Convey("Then uinput sticks are signed with Y inverted", func() {
			spec, ok := u.Axis(control.LeftStickY)
			So(ok, ShouldBeTrue)
			So(spec.Min, ShouldEqual, -32768)
			So(spec.Max, ShouldEqual, 32767)
			So(spec.Invert, ShouldBeTrue)

			spec, _ = u.Axis(control.RightStickX)
			So(spec.Invert, ShouldBeFalse)
			So(spec.Normalize(1), ShouldEqual, 32767)
		})

		Convey("Then vJoy sticks are unsigned with Y inverted", func() {
			spec, ok := v.Axis(control.RightStickY)
			So(ok, ShouldBeTrue)
			So(spec.Min, ShouldEqual, 0)
			So(spec.Max, ShouldEqual, 32767)
			So(spec.Invert, ShouldBeTrue)
			So(spec.Normalize(0), ShouldEqual, 16384)
		})

		Convey("Then buttons expose no axis", func() {
			_, ok := u.Axis(control.A)
			So(ok, ShouldBeFalse)
			So(device.LayoutVJoy.String(), ShouldEqual, "vjoy")
			So(device.LayoutUinput.String(), ShouldEqual, "uinput")
		})
	})
}

func TestOpener(t *testing.T) {
	Convey("Given backend names", t, func() {
		Convey("Then memory always resolves", func() {
			b, err := device.Resolve(" Memory ")
			So(err, ShouldBeNil)
			So(b, ShouldEqual, device.BackendMemory)
		})

		Convey("Then unknown names are rejected", func() {
			_, err := device.Resolve("joystick")
			So(errors.Is(err, device.ErrUnknown), ShouldBeTrue)
		})

		Convey("Then auto follows the platform", func() {
			b, err := device.Resolve(device.BackendAuto)
			switch runtime.GOOS {
			case "linux":
				So(err, ShouldBeNil)
				So(b, ShouldEqual, device.BackendUinput)
			case "windows":
				So(err, ShouldBeNil)
				So(b, ShouldEqual, device.BackendVJoy)
			default:
				So(errors.Is(err, device.ErrUnsupported), ShouldBeTrue)
			}
		})

		Convey("Then only vjoy caps the number of devices", func() {
			So(device.MaxDevices("vJoy"), ShouldEqual, device.MaxVJoyDevices)
			So(device.MaxDevices(device.BackendMemory), ShouldEqual, 0)
			So(device.MaxDevices("joystick"), ShouldEqual, 0)
			if runtime.GOOS == "windows" {
				So(device.MaxDevices(device.BackendAuto), ShouldEqual, device.MaxVJoyDevices)
			} else {
				So(device.MaxDevices(device.BackendAuto), ShouldEqual, 0)
			}
		})

		Convey("Then the foreign native backend is unsupported", func() {
			foreign := device.BackendVJoy
			if runtime.GOOS == "windows" {
				foreign = device.BackendUinput
			}
			_, err := device.Resolve(foreign)
			So(errors.Is(err, device.ErrUnsupported), ShouldBeTrue)
		})
	})

	Convey("Given a memory opener", t, func() {
		o, err := device.NewOpener(device.BackendMemory, device.WithNamePrefix("pad"))
		So(err, ShouldBeNil)
		So(o.Backend(), ShouldEqual, device.BackendMemory)

		Convey("When a device is opened", func() {
			sink, err := o.Open(context.Background(), 2, "10.0.0.7")
			So(err, ShouldBeNil)

			Convey("Then it is named after the prefix and label", func() {
				m := o.Memory().Last()
				So(m, ShouldNotBeNil)
				So(m.Label(), ShouldEqual, "pad-10.0.0.7")
				So(m.Slot(), ShouldEqual, 2)
				So(sink, ShouldEqual, m)
				So(o.DeviceName(""), ShouldEqual, "pad")
			})
		})

		Convey("When opening fails", func() {
			o.Memory().FailOpen(device.ErrDriver)

			Convey("Then the error is returned", func() {
				_, err := o.Open(context.Background(), 1, "x")
				So(errors.Is(err, device.ErrDriver), ShouldBeTrue)
			})
		})

		Convey("When the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Convey("Then nothing is opened", func() {
				_, err := o.Open(ctx, 1, "x")
				So(err, ShouldEqual, context.Canceled)
				So(o.Memory().Devices(), ShouldBeEmpty)
			})
		})
	})
}
