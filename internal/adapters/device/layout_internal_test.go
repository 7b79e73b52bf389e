package device

import (
	"testing"

	"github.com/okian/droidpad/internal/domain/control"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCodeTables(t *testing.T) {
	Convey("Given the device code tables", t, func() {
		Convey("Then every control has a distinct evdev code", func() {
			seen := map[evdev]control.ID{}
			for _, id := range control.All() {
				c := evdevCodes[id]
				_, dup := seen[c]
				So(dup, ShouldBeFalse)
				seen[c] = id
				if id.IsAxis() {
					So(c.typ, ShouldEqual, evAbs)
				} else {
					So(c.typ, ShouldEqual, evKey)
				}
			}
		})

		Convey("Then face buttons follow the gamepad compass", func() {
			So(evdevCodes[control.A].code, ShouldEqual, btnSouth)
			So(evdevCodes[control.B].code, ShouldEqual, btnEast)
			So(evdevCodes[control.X].code, ShouldEqual, btnWest)
			So(evdevCodes[control.Y].code, ShouldEqual, btnNorth)
			So(evdevCodes[control.TriggerLeft].code, ShouldEqual, btnTL2)
			So(evdevCodes[control.BumperRight].code, ShouldEqual, btnTR)
		})

		Convey("Then vJoy buttons are numbered one to sixteen", func() {
			seen := map[uint8]bool{}
			for _, id := range control.Digitals() {
				n := vjoyButtons[id]
				So(int(n), ShouldBeBetweenOrEqual, 1, 16)
				So(seen[n], ShouldBeFalse)
				seen[n] = true
			}
			So(vjoyButtons[control.Start], ShouldEqual, 10)
			So(vjoyButtons[control.DPadRight], ShouldEqual, 16)
		})

		Convey("Then every axis is declared by both layouts", func() {
			for _, id := range control.All() {
				_, u := uinputAxes[id]
				_, v := vjoyAxes[id]
				So(u, ShouldEqual, id.IsAxis())
				So(v, ShouldEqual, id.IsAxis())
			}
		})
	})
}
