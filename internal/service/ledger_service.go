package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type ledgerRepository interface {
	FindByID(ctx context.Context, id string) (*models.MonthlyScholarshipStatus, error)
	ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.MonthlyScholarshipStatus, error)
	ListByTerm(ctx context.Context, termID string) ([]models.LedgerTermRow, error)
	InsertBatch(ctx context.Context, rows []models.MonthlyScholarshipStatus) error
	UpdateStatus(ctx context.Context, id string, isPaid bool, cutReason, updatedBy *string) error
	MarkStalePaid(ctx context.Context, studentID, termID string, upTo models.MonthYear) error
	CutMonths(ctx context.Context, studentID, termID string, months []models.MonthYear, reason string, updatedBy *string) error
}

type ledgerTermLookup interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type ledgerStudentTermLookup interface {
	FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.StudentTermRecord, error)
}

// ToggleLedgerRequest flips one ledger row.
type ToggleLedgerRequest struct {
	IsPaid    bool    `json:"is_paid"`
	CutReason *string `json:"cut_reason"`
}

// MonthCutRequest cuts one student's month identified by a date.
type MonthCutRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
}

// MonthCutResult reports the outcome of one cut attempt.
type MonthCutResult struct {
	StudentID string  `json:"student_id"`
	Cut       bool    `json:"cut"`
	Error     *string `json:"error,omitempty"`
}

// LedgerService maintains the per-student monthly scholarship ledger. Rows
// default to paid; only an explicit cut makes a month unpaid with a reason.
type LedgerService struct {
	repo         ledgerRepository
	terms        ledgerTermLookup
	studentTerms ledgerStudentTermLookup
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewLedgerService creates a ledger service.
func NewLedgerService(repo ledgerRepository, terms ledgerTermLookup, studentTerms ledgerStudentTermLookup, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		repo:         repo,
		terms:        terms,
		studentTerms: studentTerms,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetStudentLedger returns the student's rows for a term, creating missing
// months and healing stale unpaid rows first. Repeated calls converge on the
// same ledger.
func (s *LedgerService) GetStudentLedger(ctx context.Context, studentID, termID string) ([]models.MonthlyScholarshipStatus, error) {
	if _, err := s.ensureInitialized(ctx, studentID, termID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ledger rows")
	}
	return rows, nil
}

// ListTermLedger returns every row of a term flattened for reporting.
func (s *LedgerService) ListTermLedger(ctx context.Context, termID string) ([]models.LedgerTermRow, error) {
	rows, err := s.repo.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list term ledger")
	}
	return rows, nil
}

// ToggleStatus flips one row. Marking a row paid always clears its cut
// reason; marking it unpaid requires one.
func (s *LedgerService) ToggleStatus(ctx context.Context, id string, req ToggleLedgerRequest, updatedBy *string) (*models.MonthlyScholarshipStatus, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ledger row not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger row")
	}

	if !req.IsPaid && (req.CutReason == nil || *req.CutReason == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cut_reason is required when marking a month unpaid")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.IsPaid, req.CutReason, updatedBy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ledger row")
	}

	row.IsPaid = req.IsPaid
	if req.IsPaid {
		row.CutReason = nil
	} else {
		row.CutReason = req.CutReason
	}
	row.UpdatedBy = updatedBy
	return row, nil
}

// CutByDate cuts the month a date falls into. Dates outside the October-May
// window are rejected with a caller-visible error.
func (s *LedgerService) CutByDate(ctx context.Context, termID string, req MonthCutRequest, updatedBy *string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cut payload")
	}

	month := req.Date.Month()
	if !models.IsScholarshipMonth(month) {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("%s is outside the scholarship months", month))
	}

	term, err := s.ensureInitialized(ctx, req.StudentID, termID)
	if err != nil {
		return err
	}

	// The date's own calendar year is ignored: the month alone decides which
	// academic year row it belongs to.
	target := models.MonthYear{Month: month, Year: models.CalendarYearFor(term.StartDate.Year(), month)}
	if err := s.repo.CutMonths(ctx, req.StudentID, termID, []models.MonthYear{target}, req.Reason, updatedBy); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cut ledger month")
	}

	s.logger.Info("cut ledger month",
		zap.String("student_id", req.StudentID),
		zap.String("term_id", termID),
		zap.Int("month", int(target.Month)),
		zap.Int("year", target.Year),
		zap.String("reason", req.Reason))
	return nil
}

// BulkCutByDate applies CutByDate to many students, collecting per-student
// outcomes instead of failing the batch.
func (s *LedgerService) BulkCutByDate(ctx context.Context, termID string, reqs []MonthCutRequest, updatedBy *string) []MonthCutResult {
	results := make([]MonthCutResult, 0, len(reqs))
	for _, req := range reqs {
		result := MonthCutResult{StudentID: req.StudentID}
		if err := s.CutByDate(ctx, termID, req, updatedBy); err != nil {
			msg := appErrors.FromError(err).Message
			result.Error = &msg
		} else {
			result.Cut = true
		}
		results = append(results, result)
	}
	return results
}

// ensureInitialized creates missing ledger rows for the student's term and
// heals rows left unpaid with no cut reason. Returns the term for callers
// needing its boundaries.
func (s *LedgerService) ensureInitialized(ctx context.Context, studentID, termID string) (*models.Term, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	record, err := s.studentTerms.FindByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no record in this term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student term record")
	}

	existing, err := s.repo.ListByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ledger rows")
	}

	present := make(map[models.MonthYear]bool, len(existing))
	for _, row := range existing {
		present[models.MonthYear{Month: time.Month(row.Month), Year: row.Year}] = true
	}

	var missing []models.MonthlyScholarshipStatus
	for _, my := range models.TermMonths(term.StartDate.Year()) {
		if present[my] {
			continue
		}
		missing = append(missing, models.MonthlyScholarshipStatus{
			StudentID: studentID,
			TermID:    termID,
			Month:     int(my.Month),
			Year:      my.Year,
			IsPaid:    true,
			Amount:    record.MonthlyAmount,
		})
	}

	if len(missing) > 0 {
		if err := s.repo.InsertBatch(ctx, missing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ledger rows")
		}
		s.logger.Info("initialized ledger rows",
			zap.String("student_id", studentID),
			zap.String("term_id", termID),
			zap.Int("created", len(missing)))
	}

	now := s.now()
	upTo := models.MonthYear{Month: now.Month(), Year: now.Year()}
	if err := s.repo.MarkStalePaid(ctx, studentID, termID, upTo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to heal ledger rows")
	}
	return term, nil
}
