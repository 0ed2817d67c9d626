package domain

import "fmt"

type ChunkingStrategy string

const (
	ChunkingNaive       ChunkingStrategy = "naive"
	ChunkingSpeakerTurn ChunkingStrategy = "speaker_turn"
)

func (s ChunkingStrategy) Valid() bool {
	return s == ChunkingNaive || s == ChunkingSpeakerTurn
}

// Chunk is the atomic retrievable unit. (MeetingID, Strategy, ChunkIndex) is unique.
type Chunk struct {
	ID           string           `json:"id"`
	MeetingID    string           `json:"meeting_id"`
	MeetingTitle string           `json:"meeting_title,omitempty"`
	ChunkIndex   int              `json:"chunk_index"`
	Content      string           `json:"content"`
	Speaker      *string          `json:"speaker"`
	StartTime    *float64         `json:"start_time"`
	EndTime      *float64         `json:"end_time"`
	Strategy     ChunkingStrategy `json:"strategy"`
	Embedding    []float32        `json:"-"`
}

// ChunkID derives the stable identifier of a chunk. Zero padding keeps the
// lexical order of ids aligned with chunk order inside one meeting.
func ChunkID(meetingID string, strategy ChunkingStrategy, index int) string {
	return fmt.Sprintf("%s:%s:%06d", meetingID, strategy, index)
}

// AssignIDs stamps meeting ownership and derived ids onto freshly chunked units.
func AssignIDs(meetingID string, chunks []Chunk) {
	for i := range chunks {
		chunks[i].MeetingID = meetingID
		chunks[i].ID = ChunkID(meetingID, chunks[i].Strategy, chunks[i].ChunkIndex)
	}
}
