package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/bootstrap"
	"github.com/kirillkom/meeting-assistant/internal/config"
	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/observability/logging"
	"github.com/kirillkom/meeting-assistant/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeIngestJobs(ctx, func(handlerCtx context.Context, job domain.IngestJob) error {
		if !job.RequestedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(job.RequestedAt))
		}
		workerMetrics.StartJob()
		started := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, cfg.IngestTimeout)
		defer cancel()
		err := app.ProcessUC.Process(processCtx, job)

		workerMetrics.FinishJob(serviceName, string(job.ChunkingStrategy), time.Since(started), err)
		if err == nil {
			logger.Info("ingest_job_done",
				"meeting_id", job.MeetingID,
				"strategy", job.ChunkingStrategy,
				"duration_ms", time.Since(started).Milliseconds(),
			)
		}
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
