package ws_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/droidpad/internal/adapters/http/ws"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given client frames", t, func() {
		Convey("Then d-pad presses decode in both spellings", func() {
			for _, raw := range []string{
				`{"type":"DPAD","id":"dpad","button":"UP","state":"PRESS"}`,
				`{"type":"Dpad","id":"dpad","button":"UP","state":"Press"}`,
			} {
				d, err := ws.Decode([]byte(raw), ts)
				So(err, ShouldBeNil)
				So(d.Known, ShouldBeTrue)
				So(d.Type, ShouldEqual, ws.TypeDpad)
				So(d.Event.Kind, ShouldEqual, model.Digital)
				So(d.Event.Control, ShouldEqual, control.DPadUp)
				So(d.Event.Edge, ShouldEqual, model.Press)
				So(d.Event.TS, ShouldEqual, ts)
			}
		})

		Convey("Then every button id maps onto the catalog", func() {
			want := map[string]control.ID{
				"A": control.A, "B": control.B, "X": control.X, "Y": control.Y,
				"lb": control.BumperLeft, "lt": control.TriggerLeft,
				"rb": control.BumperRight, "rt": control.TriggerRight,
				"start": control.Start, "back": control.Select,
				"l3": control.ThumbLeft, "r3": control.ThumbRight,
			}
			for id, ctl := range want {
				d, err := ws.Decode([]byte(`{"type":"BUTTON","id":"`+id+`","state":"RELEASE"}`), ts)
				So(err, ShouldBeNil)
				So(d.Known, ShouldBeTrue)
				So(d.Event.Control, ShouldEqual, ctl)
				So(d.Event.Edge, ShouldEqual, model.Release)
			}
		})

		Convey("Then joystick samples keep their raw components", func() {
			d, err := ws.Decode([]byte(`{"type":"JOYSTICK","id":"right","x":0.5,"y":-1.25}`), ts)
			So(err, ShouldBeNil)
			So(d.Known, ShouldBeTrue)
			So(d.Event.Kind, ShouldEqual, model.Analog)
			So(d.Event.Stick, ShouldEqual, control.RightStick)
			So(d.Event.X, ShouldEqual, 0.5)
			So(d.Event.Y, ShouldEqual, -1.25)
		})

		Convey("Then unknown ids are well formed but ignored", func() {
			for _, raw := range []string{
				`{"type":"BUTTON","id":"home","state":"PRESS"}`,
				`{"type":"JOYSTICK","id":"middle","x":0,"y":0}`,
				`{"type":"DPAD","id":"dpad","button":"CENTER","state":"PRESS"}`,
			} {
				d, err := ws.Decode([]byte(raw), ts)
				So(err, ShouldBeNil)
				So(d.Known, ShouldBeFalse)
			}
		})

		Convey("Then malformed frames are rejected", func() {
			for _, raw := range []string{
				`not json`,
				`{"type":"BUTTON","id":"A"}`,
				`{"type":"BUTTON","id":"A","state":"HOLD"}`,
				`{"type":"JOYSTICK","id":"left","x":0.1}`,
				`{"type":"DPAD","id":"dpad","state":"PRESS"}`,
			} {
				_, err := ws.Decode([]byte(raw), ts)
				So(errors.Is(err, ws.ErrMalformed), ShouldBeTrue)
			}
		})

		Convey("Then unknown types are rejected", func() {
			_, err := ws.Decode([]byte(`{"type":"TOUCHPAD","id":"t"}`), ts)
			So(errors.Is(err, ws.ErrUnknownType), ShouldBeTrue)
		})
	})
}
