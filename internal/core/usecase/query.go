package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

// StructuredAnswerMode selects how structured lookups are turned into text.
type StructuredAnswerMode string

const (
	// StructuredFormat renders items deterministically without generation.
	StructuredFormat StructuredAnswerMode = "format"
	// StructuredSynthesize passes items to the answer synthesizer.
	StructuredSynthesize StructuredAnswerMode = "synthesize"
)

type QueryOptions struct {
	StructuredMode StructuredAnswerMode
	EmbedTimeout   time.Duration
	Logger         *slog.Logger
}

type QueryUseCase struct {
	classifier  ports.QueryClassifier
	embedder    ports.Embedder
	retriever   *HybridRetriever
	lookup      *StructuredLookup
	synthesizer *AnswerSynthesizer
	opts        QueryOptions
	logger      *slog.Logger
}

func NewQueryUseCase(
	classifier ports.QueryClassifier,
	embedder ports.Embedder,
	retriever *HybridRetriever,
	lookup *StructuredLookup,
	synthesizer *AnswerSynthesizer,
	opts QueryOptions,
) *QueryUseCase {
	if opts.StructuredMode == "" {
		opts.StructuredMode = StructuredFormat
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryUseCase{
		classifier:  classifier,
		embedder:    embedder,
		retriever:   retriever,
		lookup:      lookup,
		synthesizer: synthesizer,
		opts:        opts,
		logger:      logger,
	}
}

// Ask classifies the question once and answers it either from extracted
// items or from retrieved chunks. Structured questions never reach the
// retriever.
func (uc *QueryUseCase) Ask(
	ctx context.Context,
	question string,
	cfg domain.StrategyConfig,
	filter domain.SearchFilter,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))
	}
	cfg = strategyOrDefault(cfg)

	routed := uc.classifier.Classify(ctx, question)
	if routed.Class != domain.QueryStructured {
		routed.Class = domain.QueryOpenEnded
		routed.ItemType = ""
		routed.Assignee = ""
	}
	uc.logger.InfoContext(ctx, "query_routed",
		"class", string(routed.Class),
		"item_type", string(routed.ItemType),
		"assignee", routed.Assignee,
		"meeting_id", filter.MeetingID,
	)

	if routed.Class == domain.QueryStructured {
		return uc.answerStructured(ctx, question, routed, filter)
	}

	results, err := uc.Search(ctx, question, cfg, filter)
	if err != nil {
		return nil, err
	}

	answer, err := uc.synthesizer.FromChunks(ctx, question, results)
	if err != nil {
		return nil, err
	}
	answer.Strategy = &cfg
	return answer, nil
}

func (uc *QueryUseCase) answerStructured(
	ctx context.Context,
	question string,
	routed domain.RoutedQuery,
	filter domain.SearchFilter,
) (*domain.Answer, error) {
	itemType := routed.ItemType
	items, err := uc.lookup.Lookup(ctx, domain.ItemFilter{
		MeetingID: filter.MeetingID,
		ItemType:  itemType,
		Assignee:  routed.Assignee,
	})
	if err != nil {
		return nil, err
	}

	if uc.opts.StructuredMode == StructuredSynthesize {
		return uc.synthesizer.FromItems(ctx, question, itemType, items)
	}

	return &domain.Answer{
		Text:         formatStructuredAnswer(items, itemType),
		Route:        domain.RouteStructured,
		ItemType:     itemType,
		CitedSources: []domain.RetrievalResult{},
		CitedItems:   items,
		NoEvidence:   len(items) == 0,
	}, nil
}

// Search embeds the question and returns the ranked chunks without
// generating an answer.
func (uc *QueryUseCase) Search(
	ctx context.Context,
	question string,
	cfg domain.StrategyConfig,
	filter domain.SearchFilter,
) ([]domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("question is required"))
	}
	cfg = strategyOrDefault(cfg)

	queryVector, err := uc.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	return uc.retrieve(ctx, question, queryVector, cfg, filter)
}

func (uc *QueryUseCase) retrieve(
	ctx context.Context,
	question string,
	queryVector []float32,
	cfg domain.StrategyConfig,
	filter domain.SearchFilter,
) ([]domain.RetrievalResult, error) {
	start := time.Now()
	results, err := uc.retriever.Retrieve(ctx, question, queryVector, cfg, filter)
	if err != nil {
		uc.logger.WarnContext(ctx, "retrieval_failed",
			"strategy", cfg,
			"meeting_id", filter.MeetingID,
			"error", err.Error(),
		)
		return nil, err
	}
	uc.logger.InfoContext(ctx, "retrieval_completed",
		"strategy", cfg,
		"meeting_id", filter.MeetingID,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

func (uc *QueryUseCase) embedQuery(ctx context.Context, question string) ([]float32, error) {
	callCtx, cancel := withTimeout(ctx, uc.opts.EmbedTimeout)
	defer cancel()

	vec, err := uc.embedder.EmbedQuery(callCtx, question)
	if err != nil {
		return nil, domain.WrapExternal(domain.ErrEmbeddingFailure, "embed query", err)
	}
	if len(vec) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingFailure, "embed query", errors.New("empty query vector"))
	}
	return vec, nil
}
