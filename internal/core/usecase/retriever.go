package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

// HybridRetriever ranks chunks of one chunking strategy by vector
// similarity alone or by a weighted fusion with lexical rank.
type HybridRetriever struct {
	index        ports.ChunkIndex
	indexTimeout time.Duration
}

func NewHybridRetriever(index ports.ChunkIndex, indexTimeout time.Duration) *HybridRetriever {
	return &HybridRetriever{
		index:        index,
		indexTimeout: indexTimeout,
	}
}

// Retrieve returns at most cfg.TopK() results sorted by descending score.
// An index failure is returned as is; a missing signal is never treated as
// an empty one.
func (r *HybridRetriever) Retrieve(
	ctx context.Context,
	queryText string,
	queryVector []float32,
	cfg domain.StrategyConfig,
	filter domain.SearchFilter,
) ([]domain.RetrievalResult, error) {
	cfg = strategyOrDefault(cfg)
	if filter.Strategy == "" {
		filter.Strategy = cfg.ChunkingStrategy()
	}

	if cfg.RetrievalStrategy() == domain.RetrievalSemantic {
		hits, err := r.vectorSearch(ctx, queryVector, cfg.TopK(), filter)
		if err != nil {
			return nil, err
		}
		return trimResults(semanticResults(hits), cfg.TopK()), nil
	}

	limit := cfg.CandidateLimit()
	var vectorHits, lexicalHits []domain.ScoredChunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.vectorSearch(gctx, queryVector, limit, filter)
		vectorHits = hits
		return err
	})
	g.Go(func() error {
		hits, err := r.lexicalSearch(gctx, queryText, limit, filter)
		lexicalHits = hits
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuseWeighted(vectorHits, lexicalHits, cfg.VectorWeight(), cfg.TextWeight())
	return trimResults(fused, cfg.TopK()), nil
}

func (r *HybridRetriever) vectorSearch(ctx context.Context, vec []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	callCtx, cancel := withTimeout(ctx, r.indexTimeout)
	defer cancel()

	hits, err := r.index.VectorSearch(callCtx, vec, limit, filter)
	if err != nil {
		return nil, domain.WrapExternal(domain.ErrIndexUnavailable, "vector search", err)
	}
	return hits, nil
}

func (r *HybridRetriever) lexicalSearch(ctx context.Context, text string, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	callCtx, cancel := withTimeout(ctx, r.indexTimeout)
	defer cancel()

	hits, err := r.index.LexicalSearch(callCtx, text, limit, filter)
	if err != nil {
		return nil, domain.WrapExternal(domain.ErrIndexUnavailable, "lexical search", err)
	}
	return hits, nil
}

// withTimeout bounds one external call. A non-positive d leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func strategyOrDefault(cfg domain.StrategyConfig) domain.StrategyConfig {
	if cfg.IsZero() {
		return domain.DefaultStrategyConfig()
	}
	return cfg
}
