package httpadapter

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/config"
	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

type meetingServiceFake struct {
	mu       sync.Mutex
	err      error
	uploaded []ports.UploadRequest
	body     string
	reindex  []domain.ChunkingStrategy
	deleted  []string
	items    []domain.ExtractedItem
	filter   domain.ItemFilter
}

func (f *meetingServiceFake) Upload(_ context.Context, req ports.UploadRequest) (*domain.Meeting, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploaded = append(f.uploaded, req)
	f.body = string(raw)
	f.mu.Unlock()

	now := time.Now().UTC()
	return &domain.Meeting{
		ID:               "m-1",
		Title:            req.Title,
		SourceFile:       req.SourceFile,
		TranscriptFormat: "txt",
		Status:           domain.MeetingUploaded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (f *meetingServiceFake) Reindex(_ context.Context, _ string, strategy domain.ChunkingStrategy) (domain.ChunkingStrategy, error) {
	if f.err != nil {
		return "", f.err
	}
	if strategy == "" {
		strategy = domain.ChunkingSpeakerTurn
	}
	if !strategy.Valid() {
		return "", domain.WrapError(domain.ErrMalformedStrategyConfig, "reindex", io.EOF)
	}
	f.reindex = append(f.reindex, strategy)
	return strategy, nil
}

func (f *meetingServiceFake) GetByID(_ context.Context, id string) (*domain.Meeting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Meeting{ID: id, Title: "Standup", Status: domain.MeetingReady}, nil
}

func (f *meetingServiceFake) List(context.Context) ([]domain.Meeting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func (f *meetingServiceFake) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *meetingServiceFake) ReplaceItems(_ context.Context, meetingID string, items []domain.ExtractedItem) ([]domain.ExtractedItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range items {
		items[i].MeetingID = meetingID
		items[i].ID = "item"
	}
	f.items = items
	return items, nil
}

func (f *meetingServiceFake) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.filter = filter
	return []domain.ExtractedItem{}, nil
}

type queryServiceFake struct {
	err      error
	answer   *domain.Answer
	results  []domain.RetrievalResult
	runs     []domain.StrategyRun
	question string
	cfg      domain.StrategyConfig
	filter   domain.SearchFilter
}

func (f *queryServiceFake) Ask(_ context.Context, question string, cfg domain.StrategyConfig, filter domain.SearchFilter) (*domain.Answer, error) {
	f.question, f.cfg, f.filter = question, cfg, filter
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &domain.Answer{Text: "ok", Route: domain.RouteRetrieval, CitedSources: []domain.RetrievalResult{}}, nil
}

func (f *queryServiceFake) Search(_ context.Context, question string, cfg domain.StrategyConfig, filter domain.SearchFilter) ([]domain.RetrievalResult, error) {
	f.question, f.cfg, f.filter = question, cfg, filter
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *queryServiceFake) Compare(_ context.Context, question string, cfg domain.StrategyConfig, filter domain.SearchFilter) ([]domain.StrategyRun, error) {
	f.question, f.cfg, f.filter = question, cfg, filter
	if f.err != nil {
		return nil, f.err
	}
	return f.runs, nil
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(cfg, &meetingServiceFake{}, &queryServiceFake{}, nil).Handler()
}

func testConfig() config.Config {
	return config.Config{
		ChunkingStrategy:  string(domain.ChunkingSpeakerTurn),
		RetrievalStrategy: string(domain.RetrievalHybrid),
		RAGTopK:           5,
		RAGVectorWeight:   0.7,
		RAGTextWeight:     0.3,
		RAGOverfetch:      2,
	}
}
