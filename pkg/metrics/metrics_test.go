package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the default settings", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("pad"),
				WithSubsystem("test"),
				WithMetricPrefix("x"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(3*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.sessionsOpened.Inc()

			Convey("Then names and labels follow the options", func() {
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "pad_test_x_sessions_opened_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When the same registry is reused", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registering twice panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		m := Default()

		Convey("When a session opens and closes", func() {
			active := testutil.ToFloat64(m.sessionsActive)
			closed := testutil.ToFloat64(m.sessionsClosed.WithLabelValues("disconnect"))

			RecordSessionOpened()
			So(testutil.ToFloat64(m.sessionsActive), ShouldEqual, active+1)

			RecordSessionClosed("disconnect", 2*time.Second)

			Convey("Then the gauge returns and the reason is counted", func() {
				So(testutil.ToFloat64(m.sessionsActive), ShouldEqual, active)
				So(testutil.ToFloat64(m.sessionsClosed.WithLabelValues("disconnect")), ShouldEqual, closed+1)
			})
		})

		Convey("When events flow through the queue", func() {
			depth := testutil.ToFloat64(m.queueDepth)
			RecordQueueEnqueue()
			RecordQueueEnqueue()
			RecordQueueEnqueue()
			RecordQueueDequeue()
			So(testutil.ToFloat64(m.queueDepth), ShouldEqual, depth+2)

			RecordQueueDiscard(2)

			Convey("Then discarded events leave the depth gauge", func() {
				So(testutil.ToFloat64(m.queueDepth), ShouldEqual, depth)
			})
		})

		Convey("When control events are counted", func() {
			before := testutil.ToFloat64(m.eventsForwarded.WithLabelValues("digital"))
			RecordEventReceived("digital")
			RecordEventForwarded("digital")
			RecordEventSwallowed()
			RecordEventDropped("unknown_control")
			RecordLatchEngaged()
			RecordDeviceSync(0.2)
			RecordDeviceError("sync")

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(m.eventsForwarded.WithLabelValues("digital")), ShouldEqual, before+1)
				So(testutil.ToFloat64(m.latchEngaged), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(m.deviceErrors.WithLabelValues("sync")), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When gauges are set", func() {
			UpdateSlotsInUse(3)
			UpdateSlotsCapacity(16)
			UpdateQueueCapacity(256)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(m.slotsInUse), ShouldEqual, 3)
				So(testutil.ToFloat64(m.slotsCapacity), ShouldEqual, 16)
				So(testutil.ToFloat64(m.queueCapacity), ShouldEqual, 256)
			})
		})

		Convey("When the remaining helpers are called", func() {
			Convey("Then they do not panic", func() {
				So(func() {
					UpdateWorkerCount(1)
					UpdateWorkerCount(-1)
					RecordWorkerProcessingLatency(0.5)
					RecordWorkerError()
					RecordQueueEnqueueError()
					RecordWSMessage("BUTTON")
					RecordWSDecodeError()
					RecordHTTPRequest("/healthz", "GET", "200")
					RecordHTTPRequestDuration("/healthz", "GET", "200", 1.5)
					RecordErrorByComponent("device", "sync")
					RecordErrorByType("client_error", "warning")
					RecordErrorByEndpoint("/sessions", "GET", "not_found")
					RecordErrorLatency("http", "not_found", 1)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When the registry is scraped", func() {
			RecordSessionOpened()
			RecordSessionClosed("shutdown", time.Second)

			Convey("Then metrics carry the droidpad namespace", func() {
				n, err := testutil.GatherAndCount(GetRegistry(), "droidpad_bridge_sessions_opened_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "droidpad_bridge_"), ShouldBeTrue)
				}
			})
		})
	})
}

func TestSetEnabled(t *testing.T) {
	Convey("Given the global manager", t, func() {
		m := Default()
		Reset(func() { SetEnabled(true) })

		Convey("When helpers are disabled", func() {
			before := testutil.ToFloat64(m.latchEngaged)
			SetEnabled(false)
			RecordLatchEngaged()

			Convey("Then nothing is recorded", func() {
				So(m.Enabled(), ShouldBeFalse)
				So(testutil.ToFloat64(m.latchEngaged), ShouldEqual, before)
			})
		})

		Convey("When helpers are toggled while workers record", func() {
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 200; j++ {
						RecordEventSwallowed()
					}
				}()
			}
			for j := 0; j < 50; j++ {
				SetEnabled(j%2 == 0)
			}
			wg.Wait()
			SetEnabled(true)

			Convey("Then the last setting wins", func() {
				So(m.Enabled(), ShouldBeTrue)
			})
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given manager options", t, func() {
		m := &Manager{histogramBuckets: prometheus.DefBuckets}

		Convey("When buckets are not increasing", func() {
			WithHistogramBuckets([]float64{1, 0.5})(m)

			Convey("Then the defaults are kept", func() {
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})

		Convey("When increasing buckets are given", func() {
			in := []float64{1, 2, 4}
			WithHistogramBuckets(in)(m)
			in[0] = 100

			Convey("Then a copy is kept", func() {
				So(m.histogramBuckets, ShouldResemble, []float64{1, 2, 4})
			})
		})

		Convey("When labels are added twice", func() {
			labels := map[string]string{"env": "test"}
			WithCustomLabels(labels)(m)
			WithCustomLabels(map[string]string{"host": "pad"})(m)
			labels["env"] = "prod"

			Convey("Then both sets are merged and copied", func() {
				So(m.customLabels, ShouldResemble, map[string]string{"env": "test", "host": "pad"})
			})
		})

		Convey("When metrics are switched off by option", func() {
			WithMetricsEnabled(false)(m)
			So(m.Enabled(), ShouldBeFalse)
		})
	})
}
