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

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.ScholarshipPayment, int, error)
	FindByID(ctx context.Context, id string) (*models.ScholarshipPayment, error)
	Create(ctx context.Context, payment *models.ScholarshipPayment) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error
	Delete(ctx context.Context, id string) error
	TotalPaidByTerm(ctx context.Context, termID string) (float64, error)
}

type paymentCommitmentLookup interface {
	FindByID(ctx context.Context, id string) (*models.MemberCommitment, error)
}

type paymentTotalsWriter interface {
	AddToTotalReceived(ctx context.Context, studentID, termID string, delta float64) error
}

// CreatePaymentRequest records a disbursement against a commitment.
type CreatePaymentRequest struct {
	CommitmentID string    `json:"commitment_id" validate:"required"`
	StudentID    string    `json:"student_id" validate:"required"`
	TermID       *string   `json:"term_id"`
	Amount       float64   `json:"amount" validate:"required,gt=0"`
	PaymentDate  time.Time `json:"payment_date" validate:"required"`
	Type         *string   `json:"type"`
	Method       *string   `json:"method"`
	ReferenceNo  *string   `json:"reference_no"`
	Notes        *string   `json:"notes"`
}

// PaymentService records disbursements. Completed payments feed the student's
// cumulative total; cancellation reverses it without destroying the record.
type PaymentService struct {
	repo        paymentRepository
	commitments paymentCommitmentLookup
	totals      paymentTotalsWriter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService creates a payment service.
func NewPaymentService(repo paymentRepository, commitments paymentCommitmentLookup, totals paymentTotalsWriter, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, commitments: commitments, totals: totals, validator: validate, logger: logger}
}

// List returns paginated payments.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.ScholarshipPayment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.ScholarshipPayment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Create records a disbursement. Completed payments bump the student's
// cumulative received total for the term.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*models.ScholarshipPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	if _, err := s.commitments.FindByID(ctx, req.CommitmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "commitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitment")
	}

	payment := &models.ScholarshipPayment{
		CommitmentID: req.CommitmentID,
		StudentID:    req.StudentID,
		TermID:       req.TermID,
		Amount:       req.Amount,
		PaymentDate:  req.PaymentDate,
		Type:         req.Type,
		Method:       req.Method,
		ReferenceNo:  req.ReferenceNo,
		Status:       models.PaymentStatusCompleted,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	if payment.TermID != nil {
		if err := s.totals.AddToTotalReceived(ctx, payment.StudentID, *payment.TermID, payment.Amount); err != nil {
			s.logger.Warn("failed to update cumulative total", zap.Error(err))
		}
	}

	s.logger.Info("recorded payment",
		zap.String("payment_id", payment.ID),
		zap.String("student_id", payment.StudentID),
		zap.Float64("amount", payment.Amount))
	return payment, nil
}

// Cancel marks a payment cancelled and reverses its effect on the student's
// cumulative total. The record itself is kept.
func (s *PaymentService) Cancel(ctx context.Context, id string) (*models.ScholarshipPayment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if payment.Status == models.PaymentStatusCancelled {
		return payment, nil
	}

	wasCompleted := payment.Status == models.PaymentStatusCompleted
	if err := s.repo.UpdateStatus(ctx, id, models.PaymentStatusCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel payment")
	}

	if wasCompleted && payment.TermID != nil {
		if err := s.totals.AddToTotalReceived(ctx, payment.StudentID, *payment.TermID, -payment.Amount); err != nil {
			s.logger.Warn("failed to reverse cumulative total", zap.Error(err))
		}
	}

	payment.Status = models.PaymentStatusCancelled
	return payment, nil
}

// HardDelete removes a payment record permanently, reversing its total if it
// was completed. Reserved for data-entry corrections.
func (s *PaymentService) HardDelete(ctx context.Context, id string) error {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}

	if payment.Status == models.PaymentStatusCompleted && payment.TermID != nil {
		if err := s.totals.AddToTotalReceived(ctx, payment.StudentID, *payment.TermID, -payment.Amount); err != nil {
			s.logger.Warn("failed to reverse cumulative total", zap.Error(err))
		}
	}

	s.logger.Info("deleted payment", zap.String("payment_id", id))
	return nil
}

// TermTotal returns the sum of completed payments within a term.
func (s *PaymentService) TermTotal(ctx context.Context, termID string) (float64, error) {
	total, err := s.repo.TotalPaidByTerm(ctx, termID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum term payments")
	}
	return total, nil
}
