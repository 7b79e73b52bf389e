package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/droidpad/internal/config"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/latch"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":1715")
			convey.So(cfg.WSPath, convey.ShouldEqual, "/")
			convey.So(cfg.DoubleTap(), convey.ShouldEqual, 200*time.Millisecond)
			convey.So(cfg.Backend, convey.ShouldEqual, "auto")
			convey.So(cfg.DeviceNamePrefix, convey.ShouldEqual, "droidpad")
			convey.So(cfg.MaxDevices, convey.ShouldEqual, 16)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default rule enrolls every button", func() {
			rule, err := cfg.Rule()
			convey.So(err, convey.ShouldBeNil)
			convey.So(rule.Enrolled(control.A), convey.ShouldBeTrue)
			convey.So(rule.Enrolled(control.DPadLeft), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_DoubleTap(t *testing.T) {
	convey.Convey("Given double tap settings", t, func() {
		cfg := config.New()

		convey.Convey("Then any negative value disables latching", func() {
			cfg.DoubleTapMS = -1
			convey.So(cfg.DoubleTap(), convey.ShouldEqual, latch.Disabled)
			cfg.DoubleTapMS = -500
			convey.So(cfg.DoubleTap(), convey.ShouldEqual, latch.Disabled)
		})

		convey.Convey("Then zero is a zero threshold", func() {
			cfg.DoubleTapMS = 0
			convey.So(cfg.DoubleTap(), convey.ShouldEqual, 0)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":      func(c *config.Config) { c.Addr = " " },
			"bad level":       func(c *config.Config) { c.LogLevel = "loud" },
			"bad format":      func(c *config.Config) { c.LogFormat = "xml" },
			"relative path":   func(c *config.Config) { c.WSPath = "ws" },
			"taken path":      func(c *config.Config) { c.WSPath = "/stats" },
			"docs path":       func(c *config.Config) { c.WSPath = "/api-docs" },
			"bad rule":        func(c *config.Config) { c.LatchControls = "[" },
			"bad backend":     func(c *config.Config) { c.Backend = "xinput" },
			"empty prefix":    func(c *config.Config) { c.DeviceNamePrefix = "" },
			"no devices":      func(c *config.Config) { c.MaxDevices = 0 },
			"too many":        func(c *config.Config) { c.MaxDevices = 1000 },
			"vjoy overflow":   func(c *config.Config) { c.Backend = "vjoy"; c.MaxDevices = 17 },
			"no queue":        func(c *config.Config) { c.QueueSize = 0 },
			"tiny read limit": func(c *config.Config) { c.ReadLimit = 10 },
			"no list":         func(c *config.Config) { c.MaxSessionList = 0 },
			"neg shutdown":    func(c *config.Config) { c.ShutdownTimeoutMS = -1 },
		}

		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a device limit per backend", t, func() {
		cfg := config.New()

		convey.Convey("Then vjoy accepts every one of its sixteen ids", func() {
			cfg.Backend = "vjoy"
			cfg.MaxDevices = 16
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the memory backend has no such cap", func() {
			cfg.Backend = "memory"
			cfg.MaxDevices = 64
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
