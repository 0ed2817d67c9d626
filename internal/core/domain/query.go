package domain

type QueryClass string

const (
	QueryStructured QueryClass = "structured"
	QueryOpenEnded  QueryClass = "open_ended"
)

// RoutedQuery is the one-shot classification of a question. ItemType and
// Assignee are only meaningful for structured queries; empty means no
// narrowing.
type RoutedQuery struct {
	Class    QueryClass `json:"class"`
	ItemType ItemType   `json:"item_type,omitempty"`
	Assignee string     `json:"assignee,omitempty"`
	Question string     `json:"question"`
}
