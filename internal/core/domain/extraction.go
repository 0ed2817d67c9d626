package domain

import (
	"strings"
	"time"
)

type ItemType string

const (
	ItemActionItem ItemType = "action_item"
	ItemDecision   ItemType = "decision"
	ItemTopic      ItemType = "topic"
)

// ItemTypes lists the categories in rendering order.
var ItemTypes = []ItemType{ItemActionItem, ItemDecision, ItemTopic}

func (t ItemType) Valid() bool {
	return t == ItemActionItem || t == ItemDecision || t == ItemTopic
}

// ExtractedItem is a structured fact written by the upstream extraction step.
type ExtractedItem struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meeting_id"`
	ItemType   ItemType  `json:"item_type"`
	Content    string    `json:"content"`
	Assignee   *string   `json:"assignee,omitempty"`
	DueDate    *string   `json:"due_date,omitempty"`
	Speaker    *string   `json:"speaker,omitempty"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// ItemFilter narrows a structured lookup. An empty ItemType matches every
// type. Assignee matches case-insensitively as a substring, so "sarah" finds
// "Sarah Chen".
type ItemFilter struct {
	MeetingID string
	ItemType  ItemType
	Assignee  string
}

// Matches reports whether item passes every non-empty field of f.
func (f ItemFilter) Matches(item ExtractedItem) bool {
	if f.MeetingID != "" && item.MeetingID != f.MeetingID {
		return false
	}
	if f.ItemType != "" && item.ItemType != f.ItemType {
		return false
	}
	if f.Assignee != "" {
		if item.Assignee == nil {
			return false
		}
		return strings.Contains(strings.ToLower(*item.Assignee), strings.ToLower(f.Assignee))
	}
	return true
}
