package domain

import "time"

type MeetingStatus string

const (
	MeetingUploaded   MeetingStatus = "uploaded"
	MeetingProcessing MeetingStatus = "processing"
	MeetingReady      MeetingStatus = "ready"
	MeetingFailed     MeetingStatus = "failed"
)

type Meeting struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	SourceFile       string         `json:"source_file,omitempty"`
	TranscriptFormat string         `json:"transcript_format,omitempty"`
	StoragePath      string         `json:"storage_path,omitempty"`
	NumSpeakers      int            `json:"num_speakers,omitempty"`
	Status           MeetingStatus  `json:"status"`
	Error            string         `json:"error,omitempty"`
	ChunkCounts      map[string]int `json:"chunk_counts,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TranscriptSegment is one speaker utterance as produced by a transcript parser.
type TranscriptSegment struct {
	Speaker   *string  `json:"speaker,omitempty"`
	Text      string   `json:"text"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
}

// IngestJob asks a worker to index one meeting under one chunking strategy.
type IngestJob struct {
	MeetingID        string           `json:"meeting_id"`
	ChunkingStrategy ChunkingStrategy `json:"chunking_strategy"`
	RequestedAt      time.Time        `json:"requested_at"`
}

// CountSpeakers returns the number of distinct non-null speakers.
func CountSpeakers(segments []TranscriptSegment) int {
	seen := make(map[string]struct{}, 4)
	for _, seg := range segments {
		if seg.Speaker != nil && *seg.Speaker != "" {
			seen[*seg.Speaker] = struct{}{}
		}
	}
	return len(seen)
}

func StringPtr(s string) *string { return &s }

func FloatPtr(f float64) *float64 { return &f }
