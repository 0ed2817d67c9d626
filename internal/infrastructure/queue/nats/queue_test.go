package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/nats-io/nats.go"
)

func TestJobRoundTripKeepsStrategy(t *testing.T) {
	job := domain.IngestJob{
		MeetingID:        "m1",
		ChunkingStrategy: domain.ChunkingNaive,
		RequestedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	payload, err := encodeJob(job)
	if err != nil {
		t.Fatalf("encodeJob() error = %v", err)
	}
	got, err := decodeJob(payload)
	if err != nil {
		t.Fatalf("decodeJob() error = %v", err)
	}
	if got.MeetingID != "m1" || got.ChunkingStrategy != domain.ChunkingNaive || !got.RequestedAt.Equal(job.RequestedAt) {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestDecodeJobRejectsMalformedPayloads(t *testing.T) {
	for _, payload := range []string{"m1", "{}", `{"meeting_id":""}`, "[1,2]"} {
		if _, err := decodeJob([]byte(payload)); err == nil {
			t.Fatalf("expected %q to be rejected", payload)
		}
	}
}

func TestEncodeJobRequiresMeetingID(t *testing.T) {
	if _, err := encodeJob(domain.IngestJob{ChunkingStrategy: domain.ChunkingNaive}); err == nil {
		t.Fatalf("expected error for empty meeting id")
	}
}

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "canceled", err: context.Canceled},
		{name: "no servers", err: fmt.Errorf("publish: %w", nats.ErrNoServers), retryable: true, record: true},
		{name: "closed", err: nats.ErrConnectionClosed, retryable: true, record: true},
		{name: "other", err: errors.New("bad subject"), record: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyNATSError(tc.err)
			if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
				t.Fatalf("classifyNATSError(%v) = %+v", tc.err, got)
			}
		})
	}
}
