package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

type MeetingUseCase struct {
	repo            ports.MeetingRepository
	storage         ports.ObjectStorage
	queue           ports.IngestQueue
	items           ports.ExtractedItemStore
	chunks          ports.ChunkWriter
	defaultStrategy domain.ChunkingStrategy
	logger          *slog.Logger
}

func NewMeetingUseCase(
	repo ports.MeetingRepository,
	storage ports.ObjectStorage,
	queue ports.IngestQueue,
	items ports.ExtractedItemStore,
	chunks ports.ChunkWriter,
	defaultStrategy domain.ChunkingStrategy,
	logger *slog.Logger,
) *MeetingUseCase {
	if !defaultStrategy.Valid() {
		defaultStrategy = domain.ChunkingSpeakerTurn
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MeetingUseCase{
		repo:            repo,
		storage:         storage,
		queue:           queue,
		items:           items,
		chunks:          chunks,
		defaultStrategy: defaultStrategy,
		logger:          logger,
	}
}

// Upload stores the raw transcript, registers the meeting and enqueues one
// ingestion job per requested chunking strategy.
func (uc *MeetingUseCase) Upload(ctx context.Context, req ports.UploadRequest) (*domain.Meeting, error) {
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload meeting", errors.New("transcript body is required"))
	}
	strategies, err := uc.resolveStrategies(req.Strategies)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	sourceFile := strings.TrimSpace(req.SourceFile)
	if sourceFile == "" {
		sourceFile = "transcript.txt"
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(sourceFile)), ".")
	}
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(sourceFile))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, req.Body); err != nil {
		return nil, domain.WrapExternal(domain.ErrStorageUnavailable, "save transcript", err)
	}

	meeting := &domain.Meeting{
		ID:               id,
		Title:            title,
		SourceFile:       sourceFile,
		TranscriptFormat: format,
		StoragePath:      storageKey,
		Status:           domain.MeetingUploaded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	for _, strategy := range strategies {
		if err := uc.publish(ctx, meeting.ID, strategy); err != nil {
			return nil, err
		}
	}

	uc.logger.InfoContext(ctx, "meeting_uploaded",
		"meeting_id", meeting.ID,
		"format", format,
		"strategies", len(strategies),
	)
	return meeting, nil
}

// Reindex enqueues ingestion of an already uploaded meeting under another
// chunking strategy. Existing chunks of other strategies are untouched.
func (uc *MeetingUseCase) Reindex(ctx context.Context, meetingID string, strategy domain.ChunkingStrategy) (domain.ChunkingStrategy, error) {
	if strategy == "" {
		strategy = uc.defaultStrategy
	}
	if !strategy.Valid() {
		return "", domain.WrapError(domain.ErrMalformedStrategyConfig, "reindex meeting", fmt.Errorf("unknown chunking strategy %q", strategy))
	}
	if _, err := uc.repo.GetByID(ctx, meetingID); err != nil {
		return "", err
	}
	if err := uc.publish(ctx, meetingID, strategy); err != nil {
		return "", err
	}
	return strategy, nil
}

func (uc *MeetingUseCase) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	meeting, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.attachChunkCounts(ctx, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (uc *MeetingUseCase) List(ctx context.Context) ([]domain.Meeting, error) {
	meetings, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range meetings {
		if err := uc.attachChunkCounts(ctx, &meetings[i]); err != nil {
			return nil, err
		}
	}
	return meetings, nil
}

// Delete removes the meeting; chunks and extracted items go with it.
func (uc *MeetingUseCase) Delete(ctx context.Context, id string) error {
	meeting, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	if meeting.StoragePath != "" {
		if err := uc.storage.Delete(ctx, meeting.StoragePath); err != nil {
			uc.logger.WarnContext(ctx, "transcript_delete_failed",
				"meeting_id", id,
				"error", err.Error(),
			)
		}
	}
	uc.logger.InfoContext(ctx, "meeting_deleted", "meeting_id", id)
	return nil
}

// ReplaceItems swaps the extracted items of a meeting for items.
func (uc *MeetingUseCase) ReplaceItems(ctx context.Context, meetingID string, items []domain.ExtractedItem) ([]domain.ExtractedItem, error) {
	if _, err := uc.repo.GetByID(ctx, meetingID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]domain.ExtractedItem, 0, len(items))
	for i, item := range items {
		item.Content = strings.TrimSpace(item.Content)
		if !item.ItemType.Valid() {
			return nil, domain.WrapError(domain.ErrInvalidInput, "replace items", fmt.Errorf("item %d: unknown item_type %q", i, item.ItemType))
		}
		if item.Content == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "replace items", fmt.Errorf("item %d: content is required", i))
		}
		if item.Confidence < 0 || item.Confidence > 1 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "replace items", fmt.Errorf("item %d: confidence must be within [0,1]", i))
		}
		if item.Confidence == 0 {
			item.Confidence = 1
		}
		item.ID = uuid.NewString()
		item.MeetingID = meetingID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		out = append(out, item)
	}

	if err := uc.items.ReplaceItems(ctx, meetingID, out); err != nil {
		return nil, domain.WrapExternal(domain.ErrStorageUnavailable, "replace items", err)
	}
	return out, nil
}

func (uc *MeetingUseCase) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error) {
	if filter.ItemType != "" && !filter.ItemType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list items", fmt.Errorf("unknown item_type %q", filter.ItemType))
	}
	items, err := uc.items.ListItems(ctx, filter)
	if err != nil {
		return nil, domain.WrapExternal(domain.ErrStorageUnavailable, "list items", err)
	}
	if items == nil {
		items = []domain.ExtractedItem{}
	}
	return items, nil
}

func (uc *MeetingUseCase) resolveStrategies(requested []domain.ChunkingStrategy) ([]domain.ChunkingStrategy, error) {
	if len(requested) == 0 {
		return []domain.ChunkingStrategy{uc.defaultStrategy}, nil
	}
	seen := make(map[domain.ChunkingStrategy]struct{}, len(requested))
	out := make([]domain.ChunkingStrategy, 0, len(requested))
	for _, s := range requested {
		if !s.Valid() {
			return nil, domain.WrapError(domain.ErrMalformedStrategyConfig, "upload meeting", fmt.Errorf("unknown chunking strategy %q", s))
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

func (uc *MeetingUseCase) publish(ctx context.Context, meetingID string, strategy domain.ChunkingStrategy) error {
	job := domain.IngestJob{
		MeetingID:        meetingID,
		ChunkingStrategy: strategy,
		RequestedAt:      time.Now().UTC(),
	}
	if err := uc.queue.PublishIngestJob(ctx, job); err != nil {
		return domain.WrapExternal(domain.ErrQueueUnavailable, "publish ingest job", err)
	}
	return nil
}

func (uc *MeetingUseCase) attachChunkCounts(ctx context.Context, meeting *domain.Meeting) error {
	counts, err := uc.chunks.CountChunks(ctx, meeting.ID)
	if err != nil {
		return domain.WrapExternal(domain.ErrIndexUnavailable, "count chunks", err)
	}
	meeting.ChunkCounts = make(map[string]int, len(counts))
	for strategy, n := range counts {
		meeting.ChunkCounts[string(strategy)] = n
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "transcript.txt"
	}
	return base
}
