package adapthttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noteflow_http_requests_total",
		Help: "Total number of HTTP requests by route and status code",
	}, []string{"route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "noteflow_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	insightRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noteflow_insight_runs_total",
		Help: "Total number of insight engine runs by analysis type",
	}, []string{"analysis_type"})

	insightRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noteflow_insight_rejected_records_total",
		Help: "Total number of records excluded from analysis as invalid",
	})
)

// instrument records request count and latency under a fixed route label,
// the registered pattern rather than the raw path.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
