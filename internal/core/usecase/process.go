package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

// ProcessMeetingUseCase executes one ingestion job: load the stored
// transcript, parse it, and index it under the job's chunking strategy.
type ProcessMeetingUseCase struct {
	repo     ports.MeetingRepository
	storage  ports.ObjectStorage
	parser   ports.TranscriptParser
	ingest   *IngestUseCase
	strategy domain.StrategyConfig
}

func NewProcessMeetingUseCase(
	repo ports.MeetingRepository,
	storage ports.ObjectStorage,
	parser ports.TranscriptParser,
	ingest *IngestUseCase,
	strategy domain.StrategyConfig,
) *ProcessMeetingUseCase {
	return &ProcessMeetingUseCase{
		repo:     repo,
		storage:  storage,
		parser:   parser,
		ingest:   ingest,
		strategy: strategyOrDefault(strategy),
	}
}

// Process indexes one (meeting, strategy) pair. Status is meeting-wide while
// jobs run per strategy: a meeting that already serves one strategy stays
// ready while another is being indexed, and a failed job only marks the
// meeting failed when no strategy has chunks.
func (uc *ProcessMeetingUseCase) Process(ctx context.Context, job domain.IngestJob) error {
	cfg, err := uc.strategy.With(domain.StrategyOptions{ChunkingStrategy: job.ChunkingStrategy})
	if err != nil {
		return err
	}

	meeting, err := uc.repo.GetByID(ctx, job.MeetingID)
	if err != nil {
		return fmt.Errorf("fetch meeting by id: %w", err)
	}

	if meeting.Status != domain.MeetingReady {
		if err := uc.markStatus(ctx, job.MeetingID, domain.MeetingProcessing, ""); err != nil {
			return fmt.Errorf("set status=processing: %w", err)
		}
	}

	if err := uc.processPipeline(ctx, meeting, cfg); err != nil {
		if failErr := uc.markFailed(ctx, job.MeetingID, cfg.ChunkingStrategy(), err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, job.MeetingID, domain.MeetingReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessMeetingUseCase) processPipeline(ctx context.Context, meeting *domain.Meeting, cfg domain.StrategyConfig) error {
	segments, err := uc.parse(ctx, meeting)
	if err != nil {
		return err
	}

	if err := uc.repo.UpdateSpeakers(ctx, meeting.ID, domain.CountSpeakers(segments)); err != nil {
		return fmt.Errorf("update speaker count: %w", err)
	}

	if _, err := uc.ingest.Ingest(ctx, meeting.ID, segments, cfg); err != nil {
		return fmt.Errorf("ingest meeting: %w", err)
	}
	return nil
}

func (uc *ProcessMeetingUseCase) parse(ctx context.Context, meeting *domain.Meeting) ([]domain.TranscriptSegment, error) {
	rc, err := uc.storage.Open(ctx, meeting.StoragePath)
	if err != nil {
		return nil, domain.WrapExternal(domain.ErrStorageUnavailable, "open transcript", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorageUnavailable, "read transcript", err)
	}

	segments, err := uc.parser.Parse(ctx, raw, meeting.TranscriptFormat)
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return segments, nil
}

func (uc *ProcessMeetingUseCase) markStatus(ctx context.Context, meetingID string, status domain.MeetingStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, meetingID, status, errMessage)
}

// markFailed keeps the meeting ready when any strategy is still indexed and
// records which strategy failed.
func (uc *ProcessMeetingUseCase) markFailed(
	ctx context.Context,
	meetingID string,
	strategy domain.ChunkingStrategy,
	processErr error,
) error {
	if processErr == nil {
		return nil
	}
	message := fmt.Sprintf("%s: %s", strategy, processErr.Error())
	counts, err := uc.ingest.CountChunks(ctx, meetingID)
	if err == nil {
		for _, n := range counts {
			if n > 0 {
				return uc.markStatus(ctx, meetingID, domain.MeetingReady, message)
			}
		}
	}
	return uc.markStatus(ctx, meetingID, domain.MeetingFailed, message)
}
