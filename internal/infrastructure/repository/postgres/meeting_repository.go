package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

type MeetingRepository struct {
	db *sql.DB
}

func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, title, source_file, transcript_format, storage_path, num_speakers, status, error_message, created_at, updated_at`

func (r *MeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO meetings (`+meetingColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		meeting.ID, meeting.Title, meeting.SourceFile, meeting.TranscriptFormat, meeting.StoragePath,
		meeting.NumSpeakers, string(meeting.Status), meeting.Error, meeting.CreatedAt, meeting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

func (r *MeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+meetingColumns+`
FROM meetings
WHERE id = $1
`, id)

	meeting, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrMeetingNotFound, "get meeting", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan meeting: %w", err)
	}
	return meeting, nil
}

func (r *MeetingRepository) List(ctx context.Context) ([]domain.Meeting, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+meetingColumns+`
FROM meetings
ORDER BY created_at DESC, id
`)
	if err != nil {
		return nil, fmt.Errorf("query meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]domain.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, *meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return meetings, nil
}

func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, status domain.MeetingStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE meetings
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}
	return requireAffected(result, "update meeting status", id)
}

func (r *MeetingRepository) UpdateSpeakers(ctx context.Context, id string, numSpeakers int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE meetings
SET num_speakers = $2, updated_at = $3
WHERE id = $1
`, id, numSpeakers, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update meeting speakers: %w", err)
	}
	return requireAffected(result, "update meeting speakers", id)
}

// Delete relies on ON DELETE CASCADE for chunks and extracted items.
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return requireAffected(result, "delete meeting", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*domain.Meeting, error) {
	var meeting domain.Meeting
	var status string
	if err := row.Scan(
		&meeting.ID, &meeting.Title, &meeting.SourceFile, &meeting.TranscriptFormat, &meeting.StoragePath,
		&meeting.NumSpeakers, &status, &meeting.Error, &meeting.CreatedAt, &meeting.UpdatedAt,
	); err != nil {
		return nil, err
	}
	meeting.Status = domain.MeetingStatus(status)
	return &meeting, nil
}

func requireAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrMeetingNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
