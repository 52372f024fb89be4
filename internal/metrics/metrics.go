package metrics

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"net/http"
	"strconv"
	"time"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookstore_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_notifications_total",
			Help: "Pending-order notifications by publisher and outcome",
		},
		[]string{"driver", "result"},
	)

	kafkaWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_kafka_writes_total",
			Help: "Messages the kafka producer wrote to the broker, by topic and outcome",
		},
		[]string{"topic", "result"},
	)

	dashboardEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_dashboard_events_total",
			Help: "Events seen by the dashboard by outcome",
		},
		[]string{"result"},
	)

	dashboardClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookstore_dashboard_clients",
			Help: "Connected dashboard websocket clients",
		},
	)
)

// Middleware records count and latency per route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				path = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		status := strconv.Itoa(code)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

func RecordOrderOperation(operation string, success bool) {
	orderOperations.WithLabelValues(operation, result(success)).Inc()
}

// Notification outcomes. Enqueued means the publisher accepted the message
// for a background write whose result is counted elsewhere.
const (
	NotificationSent     = "success"
	NotificationEnqueued = "enqueued"
	NotificationFailed   = "error"
)

func RecordNotification(driver, outcome string) {
	notifications.WithLabelValues(driver, outcome).Inc()
}

func RecordKafkaWrite(topic string, success bool) {
	kafkaWrites.WithLabelValues(topic, result(success)).Inc()
}

// RecordDashboardEvent takes "broadcast", "duplicate", "ignored" or "error".
func RecordDashboardEvent(outcome string) {
	dashboardEvents.WithLabelValues(outcome).Inc()
}

func DashboardClientConnected()    { dashboardClients.Inc() }
func DashboardClientDisconnected() { dashboardClients.Dec() }

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
