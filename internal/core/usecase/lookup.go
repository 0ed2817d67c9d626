package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

// StructuredLookup reads extracted items without ranking. It never touches
// the chunk index.
type StructuredLookup struct {
	items   ports.ExtractedItemStore
	timeout time.Duration
}

func NewStructuredLookup(items ports.ExtractedItemStore, timeout time.Duration) *StructuredLookup {
	return &StructuredLookup{items: items, timeout: timeout}
}

// Lookup returns every item matching filter, or an empty slice.
func (l *StructuredLookup) Lookup(ctx context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error) {
	callCtx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	items, err := l.items.ListItems(callCtx, filter)
	if err != nil {
		return nil, domain.WrapExternal(domain.ErrStorageUnavailable, "lookup extracted items", err)
	}
	if items == nil {
		items = []domain.ExtractedItem{}
	}
	return items, nil
}

var itemTypeLabels = map[domain.ItemType]string{
	domain.ItemActionItem: "Action Items",
	domain.ItemDecision:   "Decisions",
	domain.ItemTopic:      "Key Topics",
}

// formatStructuredAnswer renders items grouped by type in a fixed order.
func formatStructuredAnswer(items []domain.ExtractedItem, itemType domain.ItemType) string {
	if len(items) == 0 {
		label := "extracted items"
		if itemType != "" {
			label = strings.ReplaceAll(string(itemType), "_", " ") + "s"
		}
		return fmt.Sprintf("No %s found for this meeting.", label)
	}

	grouped := make(map[domain.ItemType][]domain.ExtractedItem, len(domain.ItemTypes))
	for _, item := range items {
		grouped[item.ItemType] = append(grouped[item.ItemType], item)
	}

	var b strings.Builder
	for _, t := range domain.ItemTypes {
		group := grouped[t]
		if len(group) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "**%s:**\n", itemTypeLabels[t])
		for i, item := range group {
			fmt.Fprintf(&b, "  %d. %s", i+1, item.Content)
			if item.Assignee != nil && *item.Assignee != "" {
				fmt.Fprintf(&b, " (assigned to %s)", *item.Assignee)
			}
			if item.DueDate != nil && *item.DueDate != "" {
				fmt.Fprintf(&b, ", due: %s", *item.DueDate)
			}
			if item.Speaker != nil && *item.Speaker != "" {
				fmt.Fprintf(&b, " [mentioned by %s]", *item.Speaker)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}
