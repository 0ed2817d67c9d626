package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meeting_assistant"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryRouteTotal     *prometheus.CounterVec
	retrievalTotal      *prometheus.CounterVec
	noEvidenceTotal     *prometheus.CounterVec
	retrievedChunks     *prometheus.HistogramVec
	queryDuration       *prometheus.HistogramVec
	compareRunsTotal    *prometheus.CounterVec
	meetingUploadsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryRouteTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "route_total",
			Help:      "Total answered questions by route.",
		},
		[]string{"service", "route", "item_type"},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total successful retrievals by strategy.",
		},
		[]string{"service", "endpoint", "strategy"},
	)
	noEvidenceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "no_evidence_total",
			Help:      "Total retrievals that returned no chunks.",
		},
		[]string{"service", "endpoint"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Query execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	compareRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "runs_total",
			Help:      "Total strategy comparison runs by strategy and status.",
		},
		[]string{"service", "strategy", "status"},
	)
	meetingUploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "meetings",
			Name:      "uploads_total",
			Help:      "Total accepted transcript uploads by format.",
		},
		[]string{"service", "format"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryRouteTotal,
		retrievalTotal,
		noEvidenceTotal,
		retrievedChunks,
		queryDuration,
		compareRunsTotal,
		meetingUploadsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		queryRouteTotal:     queryRouteTotal,
		retrievalTotal:      retrievalTotal,
		noEvidenceTotal:     noEvidenceTotal,
		retrievedChunks:     retrievedChunks,
		queryDuration:       queryDuration,
		compareRunsTotal:    compareRunsTotal,
		meetingUploadsTotal: meetingUploadsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses meeting ids so label cardinality stays bounded.
func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, "/v1/meetings/")
	if !ok || rest == "" {
		return path
	}
	_, suffix, found := strings.Cut(rest, "/")
	if !found {
		return "/v1/meetings/{meeting_id}"
	}
	return "/v1/meetings/{meeting_id}/" + suffix
}

func (m *HTTPServerMetrics) RecordQueryRoute(service, route, itemType string) {
	if route == "" {
		route = "unknown"
	}
	if itemType == "" {
		itemType = "all"
	}
	m.queryRouteTotal.WithLabelValues(service, route, itemType).Inc()
}

func (m *HTTPServerMetrics) RecordRetrieval(service, endpoint, strategy string, resultCount int, duration time.Duration) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.retrievalTotal.WithLabelValues(service, endpoint, strategy).Inc()
	m.retrievedChunks.WithLabelValues(service, endpoint).Observe(float64(resultCount))
	m.queryDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	if resultCount == 0 {
		m.noEvidenceTotal.WithLabelValues(service, endpoint).Inc()
	}
}

func (m *HTTPServerMetrics) ObserveQueryDuration(service, endpoint string, duration time.Duration) {
	m.queryDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordCompareRun(service, strategy string, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	m.compareRunsTotal.WithLabelValues(service, strategy, status).Inc()
}

func (m *HTTPServerMetrics) RecordUpload(service, format string) {
	if format == "" {
		format = "unknown"
	}
	m.meetingUploadsTotal.WithLabelValues(service, format).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
