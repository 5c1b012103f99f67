package metricsx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	eventsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_appended_total",
			Help: "Total events appended to the event store by aggregate type.",
		},
		[]string{"aggregate_type", "event_type"},
	)
	eventPublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_failures_total",
			Help: "Total event publish failures by topic.",
		},
		[]string{"topic"},
	)
	concurrencyConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concurrency_conflicts_total",
			Help: "Total optimistic concurrency conflicts by aggregate type.",
		},
		[]string{"aggregate_type"},
	)
	compensationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "compensation_failures_total",
			Help: "Total failed inventory compensation attempts.",
		},
	)
	allocationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_failures_total",
			Help: "Total failed inventory allocations during order creation.",
		},
		[]string{"reason"},
	)
	saveLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregate_save_duration_seconds",
			Help:    "Aggregate save latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"aggregate_type"},
	)
	asynqQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asynq_queue_depth",
			Help: "Asynq queue depth by queue.",
		},
		[]string{"queue"},
	)
)

func Register() {
	prometheus.MustRegister(httpRequests, httpLatency, eventsAppended, eventPublishFailures, concurrencyConflicts, compensationFailures, allocationFailures, saveLatency, asynqQueueDepth)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		status := strconv.Itoa(lrw.statusCode)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpLatency.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}

func IncEventsAppended(aggregateType string, eventType string) {
	eventsAppended.WithLabelValues(aggregateType, eventType).Inc()
}

func IncEventPublishFailure(topic string) {
	eventPublishFailures.WithLabelValues(topic).Inc()
}

func IncConcurrencyConflict(aggregateType string) {
	concurrencyConflicts.WithLabelValues(aggregateType).Inc()
}

func IncCompensationFailure() {
	compensationFailures.Inc()
}

func IncAllocationFailure(reason string) {
	allocationFailures.WithLabelValues(reason).Inc()
}

func ObserveSaveLatency(aggregateType string, d time.Duration) {
	saveLatency.WithLabelValues(aggregateType).Observe(d.Seconds())
}

func SetAsynqQueueDepth(queue string, depth int) {
	asynqQueueDepth.WithLabelValues(queue).Set(float64(depth))
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
