package domain

// SearchFilter narrows index queries. Empty fields do not filter.
type SearchFilter struct {
	MeetingID string           `json:"meeting_id,omitempty"`
	Strategy  ChunkingStrategy `json:"strategy,omitempty"`
}

// ScoredChunk is one hit of a single index capability (vector or lexical).
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult is a scored reference to a chunk. VectorScore and TextScore
// are nil when the signal was not computed; CombinedScore is set only by
// hybrid retrieval.
type RetrievalResult struct {
	Chunk         Chunk    `json:"chunk"`
	VectorScore   *float64 `json:"vector_score"`
	TextScore     *float64 `json:"text_score"`
	CombinedScore *float64 `json:"combined_score"`
}

// RankScore is the score the result was ordered by.
func (r RetrievalResult) RankScore() float64 {
	switch {
	case r.CombinedScore != nil:
		return *r.CombinedScore
	case r.VectorScore != nil:
		return *r.VectorScore
	case r.TextScore != nil:
		return *r.TextScore
	default:
		return 0
	}
}

type AnswerRoute string

const (
	RouteStructured AnswerRoute = "structured"
	RouteRetrieval  AnswerRoute = "retrieval"
)

type Answer struct {
	Text         string            `json:"text"`
	Route        AnswerRoute       `json:"route"`
	ItemType     ItemType          `json:"item_type,omitempty"`
	CitedSources []RetrievalResult `json:"cited_sources"`
	CitedItems   []ExtractedItem   `json:"cited_items,omitempty"`
	Strategy     *StrategyConfig   `json:"strategy,omitempty"`
	NoEvidence   bool              `json:"no_evidence"`
}

// StrategyRun is the outcome of one strategy combination in a comparison.
type StrategyRun struct {
	Label    string            `json:"label"`
	Strategy StrategyConfig    `json:"strategy"`
	Results  []RetrievalResult `json:"results"`
	Error    string            `json:"error,omitempty"`
}
