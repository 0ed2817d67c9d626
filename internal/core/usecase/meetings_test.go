package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

type meetingFixture struct {
	repo    *meetingRepoFake
	storage *storageFake
	queue   *queueFake
	items   *itemStoreFake
	chunks  *chunkWriterFake
	uc      *MeetingUseCase
}

func newMeetingFixture(meetings ...domain.Meeting) *meetingFixture {
	f := &meetingFixture{
		repo:    newMeetingRepoFake(meetings...),
		storage: &storageFake{},
		queue:   &queueFake{},
		items:   &itemStoreFake{},
		chunks: &chunkWriterFake{counts: map[domain.ChunkingStrategy]int{
			domain.ChunkingSpeakerTurn: 12,
			domain.ChunkingNaive:       4,
		}},
	}
	f.uc = NewMeetingUseCase(f.repo, f.storage, f.queue, f.items, f.chunks, domain.ChunkingSpeakerTurn, nil)
	return f
}

func TestUploadStoresRegistersAndEnqueues(t *testing.T) {
	f := newMeetingFixture()

	meeting, err := f.uc.Upload(context.Background(), ports.UploadRequest{
		SourceFile: "weekly sync.txt",
		Strategies: []domain.ChunkingStrategy{domain.ChunkingNaive, domain.ChunkingSpeakerTurn, domain.ChunkingNaive},
		Body:       strings.NewReader("Alice: hello"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if meeting.Title != "weekly sync" || meeting.TranscriptFormat != "txt" || meeting.Status != domain.MeetingUploaded {
		t.Fatalf("unexpected meeting %+v", meeting)
	}
	if !strings.HasSuffix(meeting.StoragePath, "_weekly_sync.txt") {
		t.Fatalf("unexpected storage key %q", meeting.StoragePath)
	}
	if f.storage.files[meeting.StoragePath] != "Alice: hello" {
		t.Fatalf("transcript was not stored")
	}
	if f.repo.created == nil || f.repo.created.ID != meeting.ID {
		t.Fatalf("meeting was not registered")
	}
	if len(f.queue.jobs) != 2 {
		t.Fatalf("expected one job per distinct strategy, got %d", len(f.queue.jobs))
	}
	if f.queue.jobs[0].ChunkingStrategy != domain.ChunkingNaive || f.queue.jobs[1].ChunkingStrategy != domain.ChunkingSpeakerTurn {
		t.Fatalf("unexpected jobs %+v", f.queue.jobs)
	}
}

func TestUploadDefaultsToConfiguredStrategy(t *testing.T) {
	f := newMeetingFixture()

	_, err := f.uc.Upload(context.Background(), ports.UploadRequest{Title: "Retro", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(f.queue.jobs) != 1 || f.queue.jobs[0].ChunkingStrategy != domain.ChunkingSpeakerTurn {
		t.Fatalf("unexpected jobs %+v", f.queue.jobs)
	}
}

func TestUploadRejectsUnknownStrategy(t *testing.T) {
	f := newMeetingFixture()

	_, err := f.uc.Upload(context.Background(), ports.UploadRequest{
		Strategies: []domain.ChunkingStrategy{"paragraph"},
		Body:       strings.NewReader("x"),
	})
	if !domain.IsKind(err, domain.ErrMalformedStrategyConfig) {
		t.Fatalf("expected ErrMalformedStrategyConfig, got %v", err)
	}
	if len(f.storage.files) != 0 {
		t.Fatalf("nothing must be stored for a rejected upload")
	}
}

func TestUploadFailureKinds(t *testing.T) {
	f := newMeetingFixture()
	f.storage.saveErr = errors.New("read-only fs")
	if _, err := f.uc.Upload(context.Background(), ports.UploadRequest{Body: strings.NewReader("x")}); !domain.IsKind(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	f = newMeetingFixture()
	f.queue.err = errors.New("nats: no servers available")
	if _, err := f.uc.Upload(context.Background(), ports.UploadRequest{Body: strings.NewReader("x")}); !domain.IsKind(err, domain.ErrQueueUnavailable) {
		t.Fatalf("expected ErrQueueUnavailable, got %v", err)
	}

	if _, err := f.uc.Upload(context.Background(), ports.UploadRequest{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing body, got %v", err)
	}
}

func TestReindexPublishesAdditionalStrategy(t *testing.T) {
	f := newMeetingFixture(domain.Meeting{ID: "m-1"})

	if strategy, err := f.uc.Reindex(context.Background(), "m-1", domain.ChunkingNaive); err != nil || strategy != domain.ChunkingNaive {
		t.Fatalf("Reindex() = %q, %v", strategy, err)
	}
	if len(f.queue.jobs) != 1 || f.queue.jobs[0].MeetingID != "m-1" || f.queue.jobs[0].ChunkingStrategy != domain.ChunkingNaive {
		t.Fatalf("unexpected jobs %+v", f.queue.jobs)
	}

	if _, err := f.uc.Reindex(context.Background(), "missing", domain.ChunkingNaive); !domain.IsKind(err, domain.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestReindexResolvesDefaultStrategy(t *testing.T) {
	f := newMeetingFixture(domain.Meeting{ID: "m-1"})

	strategy, err := f.uc.Reindex(context.Background(), "m-1", "")
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if strategy != domain.ChunkingSpeakerTurn || f.queue.jobs[0].ChunkingStrategy != domain.ChunkingSpeakerTurn {
		t.Fatalf("expected default strategy, got %q jobs=%+v", strategy, f.queue.jobs)
	}
}

func TestGetAndListAttachChunkCounts(t *testing.T) {
	f := newMeetingFixture(domain.Meeting{ID: "m-1"}, domain.Meeting{ID: "m-2"})

	meeting, err := f.uc.GetByID(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if meeting.ChunkCounts["speaker_turn"] != 12 || meeting.ChunkCounts["naive"] != 4 {
		t.Fatalf("unexpected chunk counts %v", meeting.ChunkCounts)
	}

	meetings, err := f.uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(meetings) != 2 || meetings[1].ChunkCounts["naive"] != 4 {
		t.Fatalf("unexpected list %+v", meetings)
	}
}

func TestReplaceItemsValidatesAndStamps(t *testing.T) {
	f := newMeetingFixture(domain.Meeting{ID: "m-1"})

	items, err := f.uc.ReplaceItems(context.Background(), "m-1", []domain.ExtractedItem{
		{ItemType: domain.ItemActionItem, Content: "  Send notes  ", Assignee: domain.StringPtr("Sarah")},
		{ItemType: domain.ItemDecision, Content: "Ship in May", Confidence: 0.8},
	})
	if err != nil {
		t.Fatalf("ReplaceItems() error = %v", err)
	}
	if f.items.replacedFor != "m-1" || len(f.items.replaced) != 2 {
		t.Fatalf("items were not replaced")
	}
	for _, item := range items {
		if item.ID == "" || item.MeetingID != "m-1" || item.CreatedAt.IsZero() {
			t.Fatalf("item not stamped: %+v", item)
		}
	}
	if items[0].Content != "Send notes" || items[0].Confidence != 1 || items[1].Confidence != 0.8 {
		t.Fatalf("unexpected normalization %+v", items)
	}

	_, err = f.uc.ReplaceItems(context.Background(), "m-1", []domain.ExtractedItem{{ItemType: "risk", Content: "x"}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, err = f.uc.ReplaceItems(context.Background(), "missing", nil)
	if !domain.IsKind(err, domain.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestDeleteMeeting(t *testing.T) {
	f := newMeetingFixture(domain.Meeting{ID: "m-1", StoragePath: "m-1_sync.txt"})
	f.storage.files = map[string]string{"m-1_sync.txt": "Alice: hi"}

	if err := f.uc.Delete(context.Background(), "m-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if f.repo.deleted != "m-1" {
		t.Fatalf("meeting was not deleted")
	}
	if _, ok := f.storage.files["m-1_sync.txt"]; ok {
		t.Fatalf("raw transcript was not removed")
	}
	if err := f.uc.Delete(context.Background(), "m-1"); !domain.IsKind(err, domain.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound on second delete, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"weekly sync.txt":   "weekly_sync.txt",
		"../../etc/passwd":  "passwd",
		"notes (final).vtt": "notes__final_.vtt",
		"":                  "transcript.txt",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
