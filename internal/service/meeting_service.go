package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type meetingRepository interface {
	List(ctx context.Context) ([]models.Meeting, error)
	FindByID(ctx context.Context, id string) (*models.Meeting, error)
	FindLatest(ctx context.Context) (*models.Meeting, error)
	Create(ctx context.Context, meeting *models.Meeting) error
	SaveAttendance(ctx context.Context, meetingID string, marks []models.MeetingAttendance) error
	ListAttendance(ctx context.Context, meetingID string) ([]models.MeetingAttendance, error)
}

// CreateMeetingRequest creates a meeting.
type CreateMeetingRequest struct {
	Title       string    `json:"title" validate:"required"`
	MeetingDate time.Time `json:"meeting_date" validate:"required"`
	Notes       *string   `json:"notes"`
}

// AttendanceMark is one student's presence flag.
type AttendanceMark struct {
	StudentID string `json:"student_id" validate:"required"`
	Present   bool   `json:"present"`
}

// SaveAttendanceRequest replaces a meeting's attendance sheet.
type SaveAttendanceRequest struct {
	Marks []AttendanceMark `json:"marks" validate:"required,min=1,dive"`
}

// MeetingService manages meetings and their attendance sheets.
type MeetingService struct {
	repo      meetingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMeetingService creates a meeting service.
func NewMeetingService(repo meetingRepository, validate *validator.Validate, logger *zap.Logger) *MeetingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{repo: repo, validator: validate, logger: logger}
}

// List returns meetings newest first.
func (s *MeetingService) List(ctx context.Context) ([]models.Meeting, error) {
	meetings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	return meetings, nil
}

// Get returns one meeting.
func (s *MeetingService) Get(ctx context.Context, id string) (*models.Meeting, error) {
	meeting, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	return meeting, nil
}

// GetLatest returns the most recent meeting.
func (s *MeetingService) GetLatest(ctx context.Context) (*models.Meeting, error) {
	meeting, err := s.repo.FindLatest(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no meetings recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest meeting")
	}
	return meeting, nil
}

// Create records a new meeting.
func (s *MeetingService) Create(ctx context.Context, req CreateMeetingRequest) (*models.Meeting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid meeting payload")
	}

	meeting := &models.Meeting{
		Title:       req.Title,
		MeetingDate: req.MeetingDate,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, meeting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create meeting")
	}
	return meeting, nil
}

// SaveAttendance replaces the attendance sheet of a meeting.
func (s *MeetingService) SaveAttendance(ctx context.Context, meetingID string, req SaveAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	if _, err := s.repo.FindByID(ctx, meetingID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}

	marks := make([]models.MeetingAttendance, 0, len(req.Marks))
	for _, mark := range req.Marks {
		marks = append(marks, models.MeetingAttendance{
			StudentID: mark.StudentID,
			Present:   mark.Present,
		})
	}

	if err := s.repo.SaveAttendance(ctx, meetingID, marks); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.logger.Info("saved attendance",
		zap.String("meeting_id", meetingID),
		zap.Int("marks", len(marks)))
	return nil
}

// ListAttendance returns the attendance sheet of a meeting.
func (s *MeetingService) ListAttendance(ctx context.Context, meetingID string) ([]models.MeetingAttendance, error) {
	marks, err := s.repo.ListAttendance(ctx, meetingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return marks, nil
}
