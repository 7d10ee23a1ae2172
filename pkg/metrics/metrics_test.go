package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry))

			Convey("Then metrics should use the default namespace", func() {
				m.requestsSubmitted.Inc()
				So(testutil.ToFloat64(m.requestsSubmitted), ShouldEqual, 1)
				n, err := testutil.GatherAndCount(registry, "hangout_matchmaking_requests_submitted_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.pendingRequests.Set(3)

			Convey("Then names and labels should follow the options", func() {
				n, err := testutil.GatherAndCount(registry, "test_unit_pending_requests")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() != "test_unit_pending_requests" {
						continue
					}
					for _, lp := range f.GetMetric()[0].GetLabel() {
						if lp.GetName() == "env" && lp.GetValue() == "test" {
							found = true
						}
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(m.namespace, ShouldEqual, "hangout")
				So(m.subsystem, ShouldEqual, "matchmaking")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When matchmaking metrics are recorded", func() {
			before := testutil.ToFloat64(globalManager.assignments.WithLabelValues("ok"))
			RecordAssignment("ok")
			RecordResolution("accept", "ok")
			RecordEligiblePoolSize(4)
			RecordMatchPercentage(67)
			RecordPointsAwarded(1)
			RecordPointsAwarded(-3)
			RecordRequestSubmitted()
			RecordRequestDuplicate()
			UpdatePendingRequests(2)
			UpdateCatalogSize(9)

			Convey("Then the counters should move", func() {
				So(testutil.ToFloat64(globalManager.assignments.WithLabelValues("ok")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.pendingRequests), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.catalogSize), ShouldEqual, 9)
			})
		})

		Convey("When infrastructure metrics are recorded", func() {
			So(func() {
				UpdateStoreRecords("requests", 3)
				RecordStoreLatency("memory", "get_request", 0.2)
				RecordStoreConflict()
				RecordLedgerLatency("redis", "add", 1.5)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueDropped()
				RecordQueueProcessingLatency(2)
				RecordAuditDelivered("log")
				RecordAuditDeliveryError("nats")
				UpdateWorkerCount(2)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(1)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordHTTPRequest("/requests", "POST", "201")
				RecordHTTPRequestDuration("/requests", "POST", "201", 4)
				RecordErrorByComponent("service", "conflict")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})
	})
}

func TestRegistryExposition(t *testing.T) {
	Convey("Given the custom registry behind an HTTP handler", t, func() {
		RecordRequestSubmitted()
		srv := httptest.NewServer(promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{}))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		So(err, ShouldBeNil)
		defer resp.Body.Close()

		buf := new(strings.Builder)
		_, err = io.Copy(buf, resp.Body)

		Convey("Then our metrics should be exposed", func() {
			So(err, ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "hangout_matchmaking_requests_submitted_total")
		})
	})
}
