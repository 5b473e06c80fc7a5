package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/pkg/config"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type scholarshipConfigRepository interface {
	FindByTerm(ctx context.Context, termID string) (*models.TermScholarshipConfig, error)
	Create(ctx context.Context, cfg *models.TermScholarshipConfig) error
	UpdateAmounts(ctx context.Context, termID string, yearly, monthly float64, updatedBy *string) error
}

// SetYearlyAmountRequest updates a term's yearly default.
type SetYearlyAmountRequest struct {
	YearlyAmount float64 `json:"yearly_amount" validate:"required,gt=0"`
}

// SetMonthlyAmountRequest updates a term's monthly default.
type SetMonthlyAmountRequest struct {
	MonthlyAmount float64 `json:"monthly_amount" validate:"required,gt=0"`
}

// ScholarshipConfigService manages the per-term default amounts. The yearly
// and monthly values are kept consistent through a single divisor: the number
// of academic months.
type ScholarshipConfigService struct {
	repo      scholarshipConfigRepository
	validator *validator.Validate
	logger    *zap.Logger
	defaults  config.ScholarshipConfig
}

// NewScholarshipConfigService creates the service.
func NewScholarshipConfigService(repo scholarshipConfigRepository, validate *validator.Validate, logger *zap.Logger, defaults config.ScholarshipConfig) *ScholarshipConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.MonthsPerYear <= 0 {
		defaults.MonthsPerYear = len(models.ScholarshipMonths)
	}
	return &ScholarshipConfigService{repo: repo, validator: validate, logger: logger, defaults: defaults}
}

// MonthsPerYear exposes the divisor shared with commitment math.
func (s *ScholarshipConfigService) MonthsPerYear() int {
	return s.defaults.MonthsPerYear
}

// GetOrCreate returns the term's config, creating it from the configured
// defaults on first access. Safe to call repeatedly.
func (s *ScholarshipConfigService) GetOrCreate(ctx context.Context, termID string) (*models.TermScholarshipConfig, error) {
	cfg, err := s.repo.FindByTerm(ctx, termID)
	if err == nil {
		return cfg, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term config")
	}

	cfg = &models.TermScholarshipConfig{
		TermID:        termID,
		YearlyAmount:  s.defaults.DefaultYearly,
		MonthlyAmount: s.defaults.DefaultYearly / float64(s.defaults.MonthsPerYear),
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term config")
	}

	s.logger.Info("created term scholarship config",
		zap.String("term_id", termID),
		zap.Float64("yearly_amount", cfg.YearlyAmount))
	return cfg, nil
}

// SetYearly stores a new yearly amount and derives the monthly one.
func (s *ScholarshipConfigService) SetYearly(ctx context.Context, termID string, req SetYearlyAmountRequest, updatedBy *string) (*models.TermScholarshipConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid yearly amount payload")
	}

	cfg, err := s.GetOrCreate(ctx, termID)
	if err != nil {
		return nil, err
	}

	monthly := req.YearlyAmount / float64(s.defaults.MonthsPerYear)
	if err := s.repo.UpdateAmounts(ctx, termID, req.YearlyAmount, monthly, updatedBy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term config")
	}

	cfg.YearlyAmount = req.YearlyAmount
	cfg.MonthlyAmount = monthly
	cfg.UpdatedBy = updatedBy
	return cfg, nil
}

// SetMonthly stores a new monthly amount and derives the yearly one.
func (s *ScholarshipConfigService) SetMonthly(ctx context.Context, termID string, req SetMonthlyAmountRequest, updatedBy *string) (*models.TermScholarshipConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid monthly amount payload")
	}

	cfg, err := s.GetOrCreate(ctx, termID)
	if err != nil {
		return nil, err
	}

	yearly := req.MonthlyAmount * float64(s.defaults.MonthsPerYear)
	if err := s.repo.UpdateAmounts(ctx, termID, yearly, req.MonthlyAmount, updatedBy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term config")
	}

	cfg.YearlyAmount = yearly
	cfg.MonthlyAmount = req.MonthlyAmount
	cfg.UpdatedBy = updatedBy
	return cfg, nil
}
