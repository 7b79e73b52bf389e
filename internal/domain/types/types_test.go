package types_test

import (
	"encoding/json"
	"testing"
	"time"

	types "github.com/okian/droidpad/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSessionInfo(t *testing.T) {
	Convey("Given a SessionInfo", t, func() {
		opened := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		info := types.SessionInfo{
			ID:       "abc",
			Label:    "droidpad-10.0.0.7",
			Slot:     1,
			OpenedAt: opened,
			Held:     []string{"a", "dpad_up"},
		}

		Convey("When encoding to JSON", func() {
			raw, err := json.Marshal(info)
			So(err, ShouldBeNil)

			Convey("Then it uses snake case keys", func() {
				s := string(raw)
				So(s, ShouldContainSubstring, `"opened_at":"2024-05-01T12:00:00Z"`)
				So(s, ShouldContainSubstring, `"label":"droidpad-10.0.0.7"`)
				So(s, ShouldContainSubstring, `"held":["a","dpad_up"]`)
			})
		})

		Convey("When asking for the age", func() {
			So(info.Age(opened.Add(3*time.Second)), ShouldEqual, 3*time.Second)
			So(info.Age(opened.Add(-time.Second)), ShouldEqual, 0)
			So(types.SessionInfo{}.Age(opened), ShouldEqual, 0)
		})

		Convey("When checking held controls", func() {
			So(info.Holding("a"), ShouldBeTrue)
			So(info.Holding("b"), ShouldBeFalse)
		})
	})
}
