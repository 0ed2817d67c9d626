package ports

import (
	"context"
	"io"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// MeetingRepository persists meeting metadata and ingestion state.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	List(ctx context.Context) ([]domain.Meeting, error)
	UpdateStatus(ctx context.Context, id string, status domain.MeetingStatus, errMessage string) error
	UpdateSpeakers(ctx context.Context, id string, numSpeakers int) error
	// Delete removes the meeting together with its chunks and extracted items.
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores raw transcripts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// IngestQueue publishes/consumes ingestion jobs.
type IngestQueue interface {
	PublishIngestJob(ctx context.Context, job domain.IngestJob) error
	SubscribeIngestJobs(ctx context.Context, handler func(context.Context, domain.IngestJob) error) error
}

// TranscriptParser decodes raw transcript bytes of a declared format.
type TranscriptParser interface {
	Parse(ctx context.Context, raw []byte, format string) ([]domain.TranscriptSegment, error)
}

// Chunker splits an ordered segment sequence into unindexed, unembedded chunks.
type Chunker interface {
	Chunk(segments []domain.TranscriptSegment, strategy domain.ChunkingStrategy) ([]domain.Chunk, error)
}

// Embedder turns texts into fixed-dimension vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkIndex is the query-facing contract of the chunk store. Both methods
// return at most limit hits sorted by descending score; an empty corpus for
// the filter is an empty slice, never an error.
type ChunkIndex interface {
	VectorSearch(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error)
	// LexicalSearch omits chunks without any term overlap with queryText.
	LexicalSearch(ctx context.Context, queryText string, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error)
}

// ChunkWriter is the single write path keeping the vector and lexical
// indexes consistent.
type ChunkWriter interface {
	// ReplaceChunks swaps all chunks of (meetingID, strategy) for chunks.
	ReplaceChunks(ctx context.Context, meetingID string, strategy domain.ChunkingStrategy, chunks []domain.Chunk) error
	CountChunks(ctx context.Context, meetingID string) (map[domain.ChunkingStrategy]int, error)
}

// ChunkStore is a Chunk Index that can also be written.
type ChunkStore interface {
	ChunkIndex
	ChunkWriter
}

// ExtractedItemStore reads and replaces previously extracted structured facts.
type ExtractedItemStore interface {
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error)
	ReplaceItems(ctx context.Context, meetingID string, items []domain.ExtractedItem) error
}

// Generator is the black-box generation model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// QueryClassifier decides STRUCTURED vs OPEN_ENDED. Implementations never
// fail: anything they cannot decide is OPEN_ENDED.
type QueryClassifier interface {
	Classify(ctx context.Context, question string) domain.RoutedQuery
}
