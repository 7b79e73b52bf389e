package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/droidpad/internal/config"
	"github.com/okian/droidpad/internal/domain/types"
	"github.com/okian/droidpad/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
)

func init() {
	_ = logger.Init()
}

func TestRun(t *testing.T) {
	convey.Convey("Given the command line entry point", t, func() {
		convey.Convey("When asked for help", func() {
			err := run(context.Background(), []string{"--help"})
			convey.So(errors.Is(err, pflag.ErrHelp), convey.ShouldBeTrue)
		})

		convey.Convey("When a flag value is invalid", func() {
			err := run(context.Background(), []string{"--backend", "xinput"})
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When serving until the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- run(ctx, []string{"--addr", "127.0.0.1:0", "--backend", "memory", "-d", "-1"})
			}()
			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the wired mux on the memory backend", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.Backend = "memory"

		svc, err := newService(cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		h := newWSHandler(cfg, svc)
		srv := httptest.NewServer(newMux(cfg, svc, h))
		defer srv.Close()
		defer func() { _ = svc.Stop(ctx) }()
		defer func() { _ = h.Shutdown(ctx) }()

		convey.Convey("When a controller connects and presses a button", func() {
			conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/", nil)
			convey.So(err, convey.ShouldBeNil)
			defer conn.Close()
			convey.So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"BUTTON","id":"start","state":"PRESS"}`)), convey.ShouldBeNil)

			convey.Convey("Then the session is listed by the API", func() {
				var infos []types.SessionInfo
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					infos = nil
					resp, err := http.Get(srv.URL + "/sessions")
					if err == nil {
						_ = json.NewDecoder(resp.Body).Decode(&infos)
						_ = resp.Body.Close()
					}
					if len(infos) == 1 && infos[0].Received == 1 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				convey.So(len(infos), convey.ShouldEqual, 1)
				convey.So(infos[0].Label, convey.ShouldEqual, "droidpad-127.0.0.1")
				convey.So(infos[0].Forwarded, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the health endpoint is scraped", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When the API document is requested", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(resp.Header.Get("Content-Type"), convey.ShouldStartWith, "application/yaml")
		})
	})
}

func TestHelpers(t *testing.T) {
	convey.Convey("Given the system helpers", t, func() {
		convey.Convey("Then metrics and address lookups do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { _ = localIP() }, convey.ShouldNotPanic)
		})
	})
}
