package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	leadsCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_collected_total",
			Help: "Total number of leads ingested from the geospatial source",
		},
	)

	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatches_total",
			Help: "Total number of dispatch attempts by result",
		},
		[]string{"result"},
	)

	outreachAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_attempts_total",
			Help: "Total number of outreach deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)

	outreachQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outreach_queue_depth",
			Help: "Current number of records waiting in the outreach queue",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordLeadsCollected(n int) {
	leadsCollected.Add(float64(n))
}

func RecordDispatch(result string) {
	dispatchesTotal.WithLabelValues(result).Inc()
}

func RecordOutreach(channel, status string) {
	outreachAttempts.WithLabelValues(channel, status).Inc()
}

func SetQueueDepth(depth int) {
	outreachQueueDepth.Set(float64(depth))
}
