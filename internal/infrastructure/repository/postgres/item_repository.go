package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

type ExtractedItemRepository struct {
	db *sql.DB
}

func NewExtractedItemRepository(db *sql.DB) *ExtractedItemRepository {
	return &ExtractedItemRepository{db: db}
}

func (r *ExtractedItemRepository) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ExtractedItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, meeting_id, item_type, content, assignee, due_date, speaker, confidence, created_at
FROM extracted_items
WHERE ($1::text = '' OR meeting_id = $1::text)
  AND ($2::text = '' OR item_type = $2::text)
  AND ($3::text = '' OR assignee ILIKE '%' || $3::text || '%')
ORDER BY created_at DESC, id
`, filter.MeetingID, string(filter.ItemType), filter.Assignee)
	if err != nil {
		return nil, fmt.Errorf("query extracted items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ExtractedItem, 0)
	for rows.Next() {
		var (
			item     domain.ExtractedItem
			itemType string
			assignee sql.NullString
			dueDate  sql.NullString
			speaker  sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.MeetingID, &itemType, &item.Content,
			&assignee, &dueDate, &speaker, &item.Confidence, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extracted item: %w", err)
		}
		item.ItemType = domain.ItemType(itemType)
		item.Assignee = stringPtr(assignee)
		item.DueDate = stringPtr(dueDate)
		item.Speaker = stringPtr(speaker)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extracted items: %w", err)
	}
	return items, nil
}

func (r *ExtractedItemRepository) ReplaceItems(ctx context.Context, meetingID string, items []domain.ExtractedItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin items tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_items WHERE meeting_id = $1`, meetingID); err != nil {
		return fmt.Errorf("delete extracted items: %w", err)
	}
	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
INSERT INTO extracted_items (id, meeting_id, item_type, content, assignee, due_date, speaker, confidence, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
			item.ID, meetingID, string(item.ItemType), item.Content,
			nullString(item.Assignee), nullString(item.DueDate), nullString(item.Speaker),
			item.Confidence, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert extracted item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items tx: %w", err)
	}
	return nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return domain.StringPtr(v.String)
}
