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

type termRepository interface {
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindActive(ctx context.Context) (*models.Term, error)
	ExistsByStartDate(ctx context.Context, start time.Time, excludeID string) (bool, error)
	OpenNewTerm(ctx context.Context, term *models.Term) error
	SetActive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountPayments(ctx context.Context, id string) (int, error)
}

// OpenTermRequest describes the payload that starts a new term.
type OpenTermRequest struct {
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Description *string   `json:"description"`
}

// TermService orchestrates the term lifecycle including the transition that
// closes the current term and opens the next one.
type TermService struct {
	repo      termRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated terms.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
	}
	return terms, pagination, nil
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// GetActive returns the currently active term.
func (s *TermService) GetActive(ctx context.Context) (*models.Term, error) {
	term, err := s.repo.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}
	return term, nil
}

// OpenNewTerm closes the current term and opens a new one atomically. The
// previous term's scholarship config is copied forward and every
// non-graduated student is rolled into the new term one class level up.
func (s *TermService) OpenNewTerm(ctx context.Context, req OpenTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	exists, err := s.repo.ExistsByStartDate(ctx, req.StartDate, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a term already starts on that date")
	}

	term := &models.Term{
		Name:        models.TermDisplayName(req.StartDate, req.EndDate),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
	}

	if err := s.repo.OpenNewTerm(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open new term")
	}

	s.logger.Info("opened new term",
		zap.String("term_id", term.ID),
		zap.String("name", term.Name))

	return term, nil
}

// SetActive marks the given term as the single active one.
func (s *TermService) SetActive(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	if err := s.repo.SetActive(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate term")
	}
	term.IsActive = true
	return term, nil
}

// Delete removes a term. The active term and any term with payments attached
// are protected.
func (s *TermService) Delete(ctx context.Context, id string) error {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	if term.IsActive {
		return appErrors.Clone(appErrors.ErrActiveTerm, "cannot delete the active term")
	}

	payments, err := s.repo.CountPayments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count term payments")
	}
	if payments > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "term has payments attached")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete term")
	}

	s.logger.Info("deleted term", zap.String("term_id", id))
	return nil
}
