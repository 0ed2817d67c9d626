package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

func TestListItemsFiltersByMeetingAndType(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewExtractedItemRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("FROM extracted_items").
		WithArgs("m1", "action_item", "").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "meeting_id", "item_type", "content", "assignee", "due_date", "speaker", "confidence", "created_at",
		}).AddRow("i1", "m1", "action_item", "send notes", "Bob", nil, "Alice", 0.8, now))

	items, err := repo.ListItems(context.Background(), domain.ItemFilter{MeetingID: "m1", ItemType: domain.ItemActionItem})
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Assignee == nil || *item.Assignee != "Bob" || item.DueDate != nil || item.ItemType != domain.ItemActionItem {
		t.Fatalf("unexpected item %+v", item)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListItemsPassesAssigneeFilter(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewExtractedItemRepository(db)

	mock.ExpectQuery(`assignee ILIKE`).
		WithArgs("", "action_item", "sarah").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "meeting_id", "item_type", "content", "assignee", "due_date", "speaker", "confidence", "created_at",
		}).AddRow("i2", "m1", "action_item", "book venue", "Sarah Chen", nil, nil, 0.7, time.Now().UTC()))

	items, err := repo.ListItems(context.Background(), domain.ItemFilter{ItemType: domain.ItemActionItem, Assignee: "sarah"})
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 1 || *items[0].Assignee != "Sarah Chen" {
		t.Fatalf("unexpected items %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceItemsDeletesThenInserts(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewExtractedItemRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM extracted_items").WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO extracted_items").
		WithArgs("i1", "m1", "decision", "adopt plan", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 1.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceItems(context.Background(), "m1", []domain.ExtractedItem{
		{ID: "i1", ItemType: domain.ItemDecision, Content: "adopt plan", Confidence: 1, CreatedAt: time.Now().UTC()},
	})
	if err != nil {
		t.Fatalf("ReplaceItems() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
