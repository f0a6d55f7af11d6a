package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	dbQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Business metrics
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiry_submissions_total",
			Help: "Total number of contact form submissions by outcome",
		},
		[]string{"outcome"}, // notified, notification_failed, failed
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiry_notifications_total",
			Help: "Total number of inquiry notification attempts by result",
		},
		[]string{"result"}, // sent, not_configured, transport_rejected
	)

	notificationRecipientsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_notification_recipients_rejected_total",
			Help: "Total number of recipients refused by the mail server",
		},
	)
)

// PrometheusMiddleware creates a middleware that records Prometheus metrics.
// endpoint maps a request to a low-cardinality label.
func PrometheusMiddleware(endpoint func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		statusCode := strconv.Itoa(wrapped.statusCode)
		label := endpoint(r)
		httpRequestsTotal.WithLabelValues(r.Method, label, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, label, statusCode).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordSubmission records the outcome of one submission.
func RecordSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordNotification records one dispatcher send attempt.
func RecordNotification(result string, rejectedRecipients int) {
	notificationsTotal.WithLabelValues(result).Inc()
	if rejectedRecipients > 0 {
		notificationRecipientsRejected.Add(float64(rejectedRecipients))
	}
}

// RecordDBQuery records a database query
func RecordDBQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	dbQueriesTotal.WithLabelValues(operation, status).Inc()
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}
