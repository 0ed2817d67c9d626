package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/meeting-assistant/internal/config"
	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
	"github.com/kirillkom/meeting-assistant/internal/core/usecase"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/index/memory"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/parser"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/meeting-assistant/internal/infrastructure/storage/localfs"
)

type App struct {
	Config          config.Config
	Logger          *slog.Logger
	DefaultStrategy domain.StrategyConfig

	Queue     ports.IngestQueue
	MeetingUC ports.MeetingService
	QueryUC   ports.QueryService
	ProcessUC ports.IngestProcessor

	closeFn func()
}

// New wires the Postgres-backed deployment shared by the api, worker and mcp
// binaries.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	strategy, err := cfg.DefaultStrategy()
	if err != nil {
		return nil, fmt.Errorf("default strategy: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db, cfg.EmbeddingDimensions); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	meetings := postgres.NewMeetingRepository(db)
	chunks := postgres.NewChunkStore(db)
	items := postgres.NewExtractedItemRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg))
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	client := ollama.NewWithResilience(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(client, cfg.EmbeddingDimensions)

	ingestUC := newIngestUseCase(cfg, embedder, chunks, logger)
	processUC := usecase.NewProcessMeetingUseCase(meetings, storage, parser.New(), ingestUC, strategy)
	meetingUC := usecase.NewMeetingUseCase(meetings, storage, queue, items, chunks, strategy.ChunkingStrategy(), logger)
	queryUC := newQueryUseCase(cfg, client, embedder, chunks, items, logger)

	return &App{
		Config:          cfg,
		Logger:          logger,
		DefaultStrategy: strategy,

		Queue:     queue,
		MeetingUC: meetingUC,
		QueryUC:   queryUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// LocalApp runs the whole pipeline in one process against the in-memory
// index. Nothing survives the process.
type LocalApp struct {
	Config          config.Config
	DefaultStrategy domain.StrategyConfig

	Index  *memory.Index
	Items  *memory.ItemStore
	Parser *parser.Parser

	Chunker  *chunking.Chunker
	IngestUC *usecase.IngestUseCase
	QueryUC  *usecase.QueryUseCase
}

func NewLocal(cfg config.Config, logger *slog.Logger) (*LocalApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	strategy, err := cfg.DefaultStrategy()
	if err != nil {
		return nil, fmt.Errorf("default strategy: %w", err)
	}
	index, err := memory.NewIndex()
	if err != nil {
		return nil, fmt.Errorf("init memory index: %w", err)
	}
	items := memory.NewItemStore()

	client := ollama.NewWithResilience(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, resilience.NewExecutor(resilienceConfig(cfg)))
	embedder := ollama.NewEmbedder(client, cfg.EmbeddingDimensions)

	return &LocalApp{
		Config:          cfg,
		DefaultStrategy: strategy,
		Index:           index,
		Items:           items,
		Parser:          parser.New(),
		Chunker:         chunking.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		IngestUC:        newIngestUseCase(cfg, embedder, index, logger),
		QueryUC:         newQueryUseCase(cfg, client, embedder, index, items, logger),
	}, nil
}

func (a *LocalApp) Close() {
	_ = a.Index.Close()
}

func newIngestUseCase(cfg config.Config, embedder ports.Embedder, store ports.ChunkWriter, logger *slog.Logger) *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(
		chunking.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		store,
		usecase.IngestOptions{
			BatchSize:    cfg.EmbedBatchSize,
			Concurrency:  cfg.EmbedConcurrency,
			EmbedTimeout: cfg.EmbedTimeout,
			IndexTimeout: cfg.IndexTimeout,
			Logger:       logger,
		},
	)
}

func newQueryUseCase(
	cfg config.Config,
	client *ollama.Client,
	embedder ports.Embedder,
	index ports.ChunkIndex,
	items ports.ExtractedItemStore,
	logger *slog.Logger,
) *usecase.QueryUseCase {
	var classifier ports.QueryClassifier = usecase.NewHeuristicClassifier()
	if cfg.RouterMode == config.RouterLLM {
		classifier = ollama.NewQueryClassifier(client, logger)
	}
	mode := usecase.StructuredFormat
	if usecase.StructuredAnswerMode(cfg.StructuredAnswerMode) == usecase.StructuredSynthesize {
		mode = usecase.StructuredSynthesize
	}
	return usecase.NewQueryUseCase(
		classifier,
		embedder,
		usecase.NewHybridRetriever(index, cfg.IndexTimeout),
		usecase.NewStructuredLookup(items, cfg.IndexTimeout),
		usecase.NewAnswerSynthesizer(ollama.NewGenerator(client), cfg.GenerateTimeout),
		usecase.QueryOptions{
			StructuredMode: mode,
			EmbedTimeout:   cfg.EmbedTimeout,
			Logger:         logger,
		},
	)
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	out.RetryInitialBackoff = cfg.ResilienceRetryInitialBackoff
	out.RetryMaxBackoff = cfg.ResilienceRetryMaxBackoff
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	out.BreakerFailureRatio = cfg.ResilienceBreakerFailureRatio
	out.BreakerOpenTimeout = cfg.ResilienceBreakerOpenTimeout
	return out
}
