package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// ItemStore keeps extracted items in memory, newest first on read.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string][]domain.ExtractedItem
}

func NewItemStore() *ItemStore {
	return &ItemStore{items: make(map[string][]domain.ExtractedItem)}
}

func (s *ItemStore) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ExtractedItem, 0)
	for meetingID, items := range s.items {
		if filter.MeetingID != "" && meetingID != filter.MeetingID {
			continue
		}
		for _, item := range items {
			if !filter.Matches(item) {
				continue
			}
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (s *ItemStore) ReplaceItems(_ context.Context, meetingID string, items []domain.ExtractedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		delete(s.items, meetingID)
		return nil
	}
	copied := make([]domain.ExtractedItem, len(items))
	for i, item := range items {
		item.MeetingID = meetingID
		copied[i] = item
	}
	s.items[meetingID] = copied
	return nil
}
