package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

const queueGroup = "ingest-workers"

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("meeting-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", errString(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrQueueUnavailable, "connect nats", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishIngestJob(ctx context.Context, job domain.IngestJob) error {
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}
	payload, err := encodeJob(job)
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "nats publish", err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.WrapExternal(domain.ErrQueueUnavailable, "nats publish", err)
	}
	return nil
}

// SubscribeIngestJobs blocks until ctx is done, then drains the subscription.
// Malformed messages are logged and dropped.
func (q *Queue) SubscribeIngestJobs(ctx context.Context, handler func(context.Context, domain.IngestJob) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		job, err := decodeJob(msg.Data)
		if err != nil {
			q.logger.Warn("ingest_job_malformed", "error", err.Error(), "payload_bytes", len(msg.Data))
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, job); err != nil {
			q.logger.Error(
				"ingest_job_failed",
				"meeting_id", job.MeetingID,
				"chunking_strategy", string(job.ChunkingStrategy),
				"error", err.Error(),
			)
		}
	})
	if err != nil {
		return domain.WrapError(domain.ErrQueueUnavailable, "nats subscribe", err)
	}

	if err := q.conn.Flush(); err != nil {
		return domain.WrapError(domain.ErrQueueUnavailable, "nats flush", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeJob(job domain.IngestJob) ([]byte, error) {
	if job.MeetingID == "" {
		return nil, errors.New("ingest job without meeting id")
	}
	return json.Marshal(job)
}

func decodeJob(data []byte) (domain.IngestJob, error) {
	var job domain.IngestJob
	if err := json.Unmarshal(data, &job); err != nil {
		return domain.IngestJob{}, fmt.Errorf("decode ingest job: %w", err)
	}
	if job.MeetingID == "" {
		return domain.IngestJob{}, errors.New("ingest job without meeting id")
	}
	return job, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
