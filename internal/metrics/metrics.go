package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// API
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests."},
		[]string{"path", "method", "code"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms..~10s
		},
		[]string{"path", "method"},
	)

	// Reminder engine
	ReminderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reminder_outcomes_total", Help: "Reminder processing outcomes per run."},
		[]string{"type", "outcome"}, // sent | skipped | failed | duplicate
	)
	ReminderRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reminder_run_duration_seconds",
			Help:    "Duration of one reminder sweep.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms..~40s
		},
		[]string{"type"},
	)
)

// MustRegister registers default and application collectors
func MustRegister() {
	prometheus.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests, HTTPDuration,
		ReminderOutcomes, ReminderRunDuration,
	)
}

// GinMiddleware records request counts and latencies per route
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
