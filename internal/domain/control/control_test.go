package control_test

import (
	"testing"

	"github.com/okian/droidpad/internal/domain/control"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	Convey("Given the control catalog", t, func() {
		Convey("Then every id has a unique name that round-trips", func() {
			seen := make(map[string]bool)
			for _, id := range control.All() {
				name := id.Name()
				So(seen[name], ShouldBeFalse)
				seen[name] = true

				back, ok := control.ByName(name)
				So(ok, ShouldBeTrue)
				So(back, ShouldEqual, id)
			}
			So(len(seen), ShouldEqual, int(control.Count))
		})

		Convey("Then there are sixteen digital controls and four axes", func() {
			So(len(control.Digitals()), ShouldEqual, 16)
			axes := 0
			for _, id := range control.All() {
				if id.IsAxis() {
					axes++
				}
			}
			So(axes, ShouldEqual, 4)
		})

		Convey("Then ids outside the catalog are invalid", func() {
			unknown := control.Count + 3
			So(unknown.Valid(), ShouldBeFalse)
			So(unknown.IsDigital(), ShouldBeFalse)
			So(unknown.IsAxis(), ShouldBeFalse)
			So(unknown.Name(), ShouldEqual, "unknown")
		})

		Convey("Then sticks resolve to their axes", func() {
			So(control.LeftStick.XAxis(), ShouldEqual, control.LeftStickX)
			So(control.LeftStick.YAxis(), ShouldEqual, control.LeftStickY)
			So(control.RightStick.XAxis(), ShouldEqual, control.RightStickX)
			So(control.RightStick.YAxis(), ShouldEqual, control.RightStickY)
			So(control.Stick(7).Valid(), ShouldBeFalse)
		})
	})
}
