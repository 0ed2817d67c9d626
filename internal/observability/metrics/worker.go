package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	jobTotal    *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobInFlight prometheus.Gauge
	queueLag    *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "ingest_jobs_total",
			Help:      "Total processed ingestion jobs by chunking strategy and status.",
		},
		[]string{"service", "strategy", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "ingest_job_duration_seconds",
			Help:      "Ingestion job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	jobInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "ingest_jobs_in_flight",
			Help:      "Number of in-flight ingestion jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between job publication and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(jobTotal, jobDuration, jobInFlight, queueLag)

	return &WorkerMetrics{
		registry:    registry,
		jobTotal:    jobTotal,
		jobDuration: jobDuration,
		jobInFlight: jobInFlight,
		queueLag:    queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service, strategy string, duration time.Duration, err error) {
	m.jobInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.jobTotal.WithLabelValues(service, strategy, status).Inc()
	m.jobDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
