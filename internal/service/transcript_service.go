package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type transcriptRepository interface {
	Create(ctx context.Context, transcript *models.Transcript) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Transcript, error)
	FindLatestByStudent(ctx context.Context, studentID string) (*models.Transcript, error)
}

type transcriptStudentTermWriter interface {
	FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.StudentTermRecord, error)
	Update(ctx context.Context, record *models.StudentTermRecord) error
}

// UploadTranscriptRequest records a grade report for a student.
type UploadTranscriptRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	TermID    *string  `json:"term_id"`
	GPA       *float64 `json:"gpa" validate:"required,gte=0,lte=4"`
	Notes     *string  `json:"notes"`
}

// TranscriptService records transcripts and mirrors the latest GPA onto the
// student's term record so listings stay in sync.
type TranscriptService struct {
	repo         transcriptRepository
	studentTerms transcriptStudentTermWriter
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTranscriptService creates a transcript service.
func NewTranscriptService(repo transcriptRepository, studentTerms transcriptStudentTermWriter, validate *validator.Validate, logger *zap.Logger) *TranscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{repo: repo, studentTerms: studentTerms, validator: validate, logger: logger}
}

// Upload stores the transcript and updates the term record's GPA when the
// transcript is term-scoped.
func (s *TranscriptService) Upload(ctx context.Context, req UploadTranscriptRequest) (*models.Transcript, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transcript payload")
	}

	transcript := &models.Transcript{
		StudentID: req.StudentID,
		TermID:    req.TermID,
		GPA:       *req.GPA,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, transcript); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store transcript")
	}

	if req.TermID != nil {
		record, err := s.studentTerms.FindByStudentAndTerm(ctx, req.StudentID, *req.TermID)
		if err == nil {
			record.GPA = req.GPA
			record.TranscriptNotes = req.Notes
			if err := s.studentTerms.Update(ctx, record); err != nil {
				s.logger.Warn("failed to mirror gpa onto term record", zap.Error(err))
			}
		} else if err != sql.ErrNoRows {
			s.logger.Warn("failed to load term record for gpa mirror", zap.Error(err))
		}
	}

	s.logger.Info("stored transcript",
		zap.String("student_id", req.StudentID),
		zap.Float64("gpa", transcript.GPA))
	return transcript, nil
}

// ListByStudent returns a student's transcripts, newest first.
func (s *TranscriptService) ListByStudent(ctx context.Context, studentID string) ([]models.Transcript, error) {
	transcripts, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transcripts")
	}
	return transcripts, nil
}

// GetLatest returns the most recent transcript of a student.
func (s *TranscriptService) GetLatest(ctx context.Context, studentID string) (*models.Transcript, error) {
	transcript, err := s.repo.FindLatestByStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no transcripts for student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	return transcript, nil
}
