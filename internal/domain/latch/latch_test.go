package latch_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/latch"
	"github.com/okian/droidpad/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeClock is advanced by hand between feeds.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *fakeClock                   { return &fakeClock{t: time.Unix(1700000000, 0)} }

type step struct {
	after time.Duration
	edge  model.Edge
}

// run feeds steps for id and returns the forwarded edges.
func run(l *latch.Latch, clk *fakeClock, id control.ID, steps []step) []model.Edge {
	var out []model.Edge
	for _, s := range steps {
		clk.Advance(s.after)
		if e, ok := l.Feed(id, s.edge); ok {
			out = append(out, e)
		}
	}
	return out
}

func TestLatch(t *testing.T) {
	Convey("Given a latch with a 200ms window enrolling every control", t, func() {
		clk := newClock()
		l := latch.New(latch.WithThreshold(200*time.Millisecond), latch.WithClock(clk.Now))

		Convey("When a double tap is followed by a third tap", func() {
			steps := []step{
				{0, model.Press},
				{40 * time.Millisecond, model.Release},
				{40 * time.Millisecond, model.Press},
				{40 * time.Millisecond, model.Release},
				{500 * time.Millisecond, model.Press},
				{40 * time.Millisecond, model.Release},
			}
			out := run(l, clk, control.A, steps)

			Convey("Then only the release while held is swallowed", func() {
				So(out, ShouldResemble, []model.Edge{
					model.Press, model.Release, model.Press, model.Press, model.Release,
				})
				So(l.State(control.A), ShouldEqual, latch.Released)
			})
		})

		Convey("When the second press enters the window", func() {
			l.Feed(control.B, model.Press)
			clk.Advance(50 * time.Millisecond)
			l.Feed(control.B, model.Release)
			clk.Advance(50 * time.Millisecond)
			e, ok := l.Feed(control.B, model.Press)

			Convey("Then the control is held and the release is swallowed", func() {
				So(ok, ShouldBeTrue)
				So(e, ShouldEqual, model.Press)
				So(l.State(control.B), ShouldEqual, latch.Held)
				So(l.HeldControls(), ShouldResemble, []control.ID{control.B})

				_, ok = l.Feed(control.B, model.Release)
				So(ok, ShouldBeFalse)
				So(l.State(control.B), ShouldEqual, latch.Held)
			})

			Convey("Then a further press cancels the latch", func() {
				e, ok := l.Feed(control.B, model.Press)
				So(ok, ShouldBeTrue)
				So(e, ShouldEqual, model.Press)
				So(l.State(control.B), ShouldEqual, latch.Pressed)

				e, ok = l.Feed(control.B, model.Release)
				So(ok, ShouldBeTrue)
				So(e, ShouldEqual, model.Release)
				So(l.State(control.B), ShouldEqual, latch.Released)
			})
		})

		Convey("When taps are slower than the window", func() {
			out := run(l, clk, control.X, []step{
				{0, model.Press},
				{300 * time.Millisecond, model.Release},
				{300 * time.Millisecond, model.Press},
				{300 * time.Millisecond, model.Release},
			})

			Convey("Then every edge passes through", func() {
				So(out, ShouldResemble, []model.Edge{model.Press, model.Release, model.Press, model.Release})
				So(l.State(control.X), ShouldEqual, latch.Released)
			})
		})

		Convey("When the window is measured from the opening tap", func() {
			// slow first tap, then a fast second press: the stamp is the first press
			l.Feed(control.Y, model.Press)
			clk.Advance(150 * time.Millisecond)
			l.Feed(control.Y, model.Release)
			clk.Advance(100 * time.Millisecond)
			l.Feed(control.Y, model.Press)

			Convey("Then 250ms since the opening press does not latch", func() {
				So(l.State(control.Y), ShouldEqual, latch.Pressed)
			})
		})

		Convey("When repeated presses or releases arrive", func() {
			out := run(l, clk, control.Start, []step{
				{0, model.Release},
				{0, model.Release},
				{300 * time.Millisecond, model.Press},
				{10 * time.Millisecond, model.Press},
			})

			Convey("Then duplicates are swallowed", func() {
				So(out, ShouldResemble, []model.Edge{model.Release, model.Press})
			})
		})

		Convey("When controls are interleaved", func() {
			l.Feed(control.A, model.Press)
			l.Feed(control.DPadUp, model.Press)

			Convey("Then each is tracked separately", func() {
				So(l.State(control.A), ShouldEqual, latch.Pressed)
				So(l.State(control.DPadUp), ShouldEqual, latch.Pressed)
				So(l.Tracked(control.B), ShouldBeFalse)
				So(l.State(control.B), ShouldEqual, latch.Released)
			})
		})

		Convey("When reset", func() {
			l.Feed(control.A, model.Press)
			l.Reset()

			Convey("Then nothing is tracked", func() {
				So(l.Tracked(control.A), ShouldBeFalse)
				So(l.HeldControls(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a latch with latching disabled", t, func() {
		clk := newClock()
		l := latch.New(latch.WithThreshold(latch.Disabled), latch.WithClock(clk.Now))
		So(l.Threshold(), ShouldEqual, latch.Disabled)

		Convey("When a fast tap burst arrives", func() {
			var steps []step
			for i := 0; i < 10; i++ {
				steps = append(steps, step{time.Millisecond, model.Press}, step{time.Millisecond, model.Release})
			}
			out := run(l, clk, control.A, steps)

			Convey("Then the output matches the input edge for edge", func() {
				So(len(out), ShouldEqual, len(steps))
				So(l.State(control.A), ShouldEqual, latch.Released)
			})
		})

		Convey("When the same edge repeats", func() {
			out := run(l, clk, control.A, []step{
				{0, model.Press},
				{time.Millisecond, model.Press},
				{time.Millisecond, model.Release},
				{time.Millisecond, model.Release},
			})

			Convey("Then no edge is swallowed", func() {
				So(out, ShouldResemble, []model.Edge{model.Press, model.Press, model.Release, model.Release})
				So(l.State(control.A), ShouldEqual, latch.Released)
				So(l.HeldControls(), ShouldBeEmpty)
			})
		})

		Convey("Then any negative threshold means disabled", func() {
			So(latch.New(latch.WithThreshold(-5*time.Second)).Threshold(), ShouldEqual, latch.Disabled)
		})
	})

	Convey("Given a latch that enrolls no controls", t, func() {
		clk := newClock()
		l := latch.New(latch.WithRule(latch.NoControls()), latch.WithClock(clk.Now))

		Convey("When a double tap arrives", func() {
			out := run(l, clk, control.A, []step{
				{0, model.Press}, {10 * time.Millisecond, model.Release},
				{10 * time.Millisecond, model.Press}, {10 * time.Millisecond, model.Release},
				{0, model.Release},
			})

			Convey("Then events pass through without tracking", func() {
				So(len(out), ShouldEqual, 5)
				So(l.Tracked(control.A), ShouldBeFalse)
			})
		})
	})
}

func TestRule(t *testing.T) {
	Convey("Given enrollment rules", t, func() {
		Convey("Then the wildcard enrolls every digital control but no axis", func() {
			r, err := latch.ParseRule("*")
			So(err, ShouldBeNil)
			for _, id := range control.Digitals() {
				So(r.Enrolled(id), ShouldBeTrue)
			}
			So(r.Enrolled(control.LeftStickX), ShouldBeFalse)
			So(r.Enrolled(control.Count), ShouldBeFalse)
		})

		Convey("Then suffix patterns select a family", func() {
			r, err := latch.ParseRule(" *_up , trigger_* ")
			So(err, ShouldBeNil)
			So(r.Enrolled(control.DPadUp), ShouldBeTrue)
			So(r.Enrolled(control.TriggerLeft), ShouldBeTrue)
			So(r.Enrolled(control.TriggerRight), ShouldBeTrue)
			So(r.Enrolled(control.DPadDown), ShouldBeFalse)
			So(r.Enrolled(control.A), ShouldBeFalse)
			So(r.String(), ShouldEqual, "*_up,trigger_*")
		})

		Convey("Then none and empty enroll nothing", func() {
			for _, s := range []string{"", "none", "NONE"} {
				r, err := latch.ParseRule(s)
				So(err, ShouldBeNil)
				So(r.Enrolled(control.A), ShouldBeFalse)
				So(r.String(), ShouldEqual, "none")
			}
		})

		Convey("Then a malformed glob is rejected", func() {
			_, err := latch.ParseRule("a,[b")
			So(errors.Is(err, latch.ErrBadRule), ShouldBeTrue)
		})
	})
}
