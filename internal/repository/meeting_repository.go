package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

const meetingColumns = `id, title, meeting_date, notes, created_at, updated_at`

// MeetingRepository handles meetings and their attendance marks.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository instantiates a meeting repository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// List returns meetings newest first.
func (r *MeetingRepository) List(ctx context.Context) ([]models.Meeting, error) {
	query := fmt.Sprintf(`SELECT %s FROM meetings ORDER BY meeting_date DESC`, meetingColumns)
	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query); err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

// FindByID loads a meeting by identifier.
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := fmt.Sprintf(`SELECT %s FROM meetings WHERE id = $1`, meetingColumns)
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, query, id); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// FindLatest returns the most recent meeting by date.
func (r *MeetingRepository) FindLatest(ctx context.Context) (*models.Meeting, error) {
	query := fmt.Sprintf(`SELECT %s FROM meetings ORDER BY meeting_date DESC LIMIT 1`, meetingColumns)
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, query); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Create inserts a new meeting.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	const query = `INSERT INTO meetings (id, title, meeting_date, notes, created_at, updated_at)
VALUES (:id, :title, :meeting_date, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, meeting); err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// SaveAttendance replaces the attendance marks of one meeting in one
// transaction.
func (r *MeetingRepository) SaveAttendance(ctx context.Context, meetingID string, marks []models.MeetingAttendance) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM meeting_attendances WHERE meeting_id = $1`, meetingID); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}

	const insert = `INSERT INTO meeting_attendances (id, meeting_id, student_id, present, created_at)
VALUES (:id, :meeting_id, :student_id, :present, :created_at)`
	now := time.Now().UTC()
	for i := range marks {
		marks[i].MeetingID = meetingID
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		marks[i].CreatedAt = now
		if _, err = tx.NamedExecContext(ctx, insert, marks[i]); err != nil {
			return fmt.Errorf("insert attendance mark: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance tx: %w", err)
	}
	return nil
}

// ListAttendance returns the attendance marks of one meeting.
func (r *MeetingRepository) ListAttendance(ctx context.Context, meetingID string) ([]models.MeetingAttendance, error) {
	const query = `SELECT id, meeting_id, student_id, present, created_at
FROM meeting_attendances WHERE meeting_id = $1 ORDER BY created_at ASC`
	var marks []models.MeetingAttendance
	if err := r.db.SelectContext(ctx, &marks, query, meetingID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return marks, nil
}

// ListAbsentStudentIDs returns the ids of students marked absent on a
// meeting.
func (r *MeetingRepository) ListAbsentStudentIDs(ctx context.Context, meetingID string) ([]string, error) {
	const query = `SELECT student_id FROM meeting_attendances WHERE meeting_id = $1 AND present = FALSE`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, meetingID); err != nil {
		return nil, fmt.Errorf("list absent students: %w", err)
	}
	return ids, nil
}
