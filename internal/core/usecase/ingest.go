package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

type IngestOptions struct {
	BatchSize    int
	Concurrency  int
	EmbedTimeout time.Duration
	IndexTimeout time.Duration
	Logger       *slog.Logger
}

// IngestUseCase is the chunk -> embed -> store write path for one meeting
// under one chunking strategy.
type IngestUseCase struct {
	chunker  ports.Chunker
	embedder ports.Embedder
	store    ports.ChunkWriter
	opts     IngestOptions
	logger   *slog.Logger
}

func NewIngestUseCase(
	chunker ports.Chunker,
	embedder ports.Embedder,
	store ports.ChunkWriter,
	opts IngestOptions,
) *IngestUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// CountChunks reports how many chunks each strategy holds for meetingID.
func (uc *IngestUseCase) CountChunks(ctx context.Context, meetingID string) (map[domain.ChunkingStrategy]int, error) {
	callCtx, cancel := withTimeout(ctx, uc.opts.IndexTimeout)
	defer cancel()
	return uc.store.CountChunks(callCtx, meetingID)
}

// Ingest replaces the chunks of (meetingID, cfg.ChunkingStrategy()) and
// returns how many were stored. An empty transcript stores zero chunks.
func (uc *IngestUseCase) Ingest(
	ctx context.Context,
	meetingID string,
	segments []domain.TranscriptSegment,
	cfg domain.StrategyConfig,
) (int, error) {
	cfg = strategyOrDefault(cfg)
	strategy := cfg.ChunkingStrategy()

	chunks, err := uc.chunker.Chunk(segments, strategy)
	if err != nil {
		return 0, fmt.Errorf("chunk transcript: %w", err)
	}
	domain.AssignIDs(meetingID, chunks)

	if err := uc.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	if err := uc.persist(ctx, meetingID, strategy, chunks); err != nil {
		return 0, err
	}

	uc.logger.InfoContext(ctx, "ingest_completed",
		"meeting_id", meetingID,
		"strategy", string(strategy),
		"chunks", len(chunks),
	)
	return len(chunks), nil
}

// embedChunks embeds batches concurrently. Each batch writes only its own
// slice positions, so chunk order is preserved.
func (uc *IngestUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)

	for start := 0; start < len(chunks); start += uc.opts.BatchSize {
		end := min(start+uc.opts.BatchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Content
			}

			callCtx, cancel := withTimeout(gctx, uc.opts.EmbedTimeout)
			defer cancel()

			vectors, err := uc.embedder.Embed(callCtx, texts)
			if err != nil {
				return domain.WrapExternal(domain.ErrEmbeddingFailure, "embed chunks", err)
			}
			if len(vectors) != len(batch) {
				return domain.WrapError(
					domain.ErrEmbeddingFailure,
					"embed chunks",
					fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(batch)),
				)
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}
	return g.Wait()
}

func (uc *IngestUseCase) persist(ctx context.Context, meetingID string, strategy domain.ChunkingStrategy, chunks []domain.Chunk) error {
	callCtx, cancel := withTimeout(ctx, uc.opts.IndexTimeout)
	defer cancel()

	if err := uc.store.ReplaceChunks(callCtx, meetingID, strategy, chunks); err != nil {
		return domain.WrapExternal(domain.ErrIndexUnavailable, "store chunks", err)
	}
	return nil
}
