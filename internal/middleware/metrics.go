package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func newHTTPMetrics() *httpMetrics {
	return &httpMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chargebook_http_requests_total",
				Help: "Total number of HTTP requests (Rate)",
			},
			[]string{"method", "path", "status"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chargebook_http_request_errors_total",
				Help: "Total number of HTTP request errors",
			},
			[]string{"method", "path", "status", "error_type"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "chargebook_http_request_duration_seconds",
				Help: "HTTP request duration in seconds (Duration)",
				// Payments hold the request for the simulated round trip.
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 1.5, 2.5, 5},
			},
			[]string{"method", "path", "status"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargebook_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		}),
	}
}

// Metrics records RED metrics for every request. The collectors are
// registered with reg once per call, so each router gets its own set.
func Metrics(reg prometheus.Registerer) gin.HandlerFunc {
	m := newHTTPMetrics()
	reg.MustRegister(m.requests, m.errors, m.duration, m.inFlight)

	return func(c *gin.Context) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		c.Next()

		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)
		path := c.FullPath()
		if path == "" {
			// Unmatched paths would blow up label cardinality.
			path = "unmatched"
		}
		method := c.Request.Method

		m.requests.WithLabelValues(method, path, statusStr).Inc()
		switch {
		case status >= 500:
			m.errors.WithLabelValues(method, path, statusStr, "server").Inc()
		case status >= 400:
			m.errors.WithLabelValues(method, path, statusStr, "client").Inc()
		}
		m.duration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())
	}
}
