package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stepikbot", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stepikbot", Name: "handler_errors_total", Help: "Handler errors",
	})
	TestsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stepikbot", Name: "tests_submitted_total", Help: "Accepted test submissions",
	})
	TestsReviewed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stepikbot", Name: "tests_reviewed_total", Help: "Reviewed test submissions",
	})
	PendingTests = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stepikbot", Name: "pending_tests", Help: "Submissions awaiting review",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stepikbot", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, TestsSubmitted, TestsReviewed, PendingTests, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
