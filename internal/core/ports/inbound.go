package ports

import (
	"context"
	"io"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// UploadRequest describes a raw transcript submitted for ingestion.
type UploadRequest struct {
	Title      string
	SourceFile string
	Format     string
	Strategies []domain.ChunkingStrategy
	Body       io.Reader
}

// MeetingService is the inbound contract for meeting registration and reads.
type MeetingService interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.Meeting, error)
	// Reindex returns the chunking strategy actually queued; empty means the default.
	Reindex(ctx context.Context, meetingID string, strategy domain.ChunkingStrategy) (domain.ChunkingStrategy, error)
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	List(ctx context.Context) ([]domain.Meeting, error)
	Delete(ctx context.Context, id string) error
	ReplaceItems(ctx context.Context, meetingID string, items []domain.ExtractedItem) ([]domain.ExtractedItem, error)
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error)
}

// QueryService is the inbound contract for question answering.
type QueryService interface {
	Ask(ctx context.Context, question string, cfg domain.StrategyConfig, filter domain.SearchFilter) (*domain.Answer, error)
	Search(ctx context.Context, question string, cfg domain.StrategyConfig, filter domain.SearchFilter) ([]domain.RetrievalResult, error)
	Compare(ctx context.Context, question string, base domain.StrategyConfig, filter domain.SearchFilter) ([]domain.StrategyRun, error)
}

// IngestProcessor is the inbound contract for asynchronous ingestion jobs.
type IngestProcessor interface {
	Process(ctx context.Context, job domain.IngestJob) error
}
