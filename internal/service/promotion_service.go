package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/pkg/config"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type promotionTermSource interface {
	FindActive(ctx context.Context) (*models.Term, error)
}

type promotionStudentTerms interface {
	ListActiveWithClassLevel(ctx context.Context, termID string, minLevel int) ([]models.StudentTermRecord, error)
	MarkGraduated(ctx context.Context, id string) error
}

// PromotionResult summarizes one graduation sweep.
type PromotionResult struct {
	TermID    string    `json:"term_id"`
	Graduated int       `json:"graduated"`
	RanAt     time.Time `json:"ran_at"`
}

// PromotionService flags students at the terminal class level as graduated on
// the yearly promotion date, so the next term transition leaves them behind.
// Class levels themselves advance as part of the transition.
type PromotionService struct {
	terms        promotionTermSource
	studentTerms promotionStudentTerms
	logger       *zap.Logger
	promotion    config.PromotionConfig
	rules        config.ScholarshipConfig
}

// NewPromotionService creates a promotion service.
func NewPromotionService(terms promotionTermSource, studentTerms promotionStudentTerms, logger *zap.Logger, promotion config.PromotionConfig, rules config.ScholarshipConfig) *PromotionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{
		terms:        terms,
		studentTerms: studentTerms,
		logger:       logger,
		promotion:    promotion,
		rules:        rules,
	}
}

// RunIfDue runs the sweep when the date matches the configured promotion day.
// The scheduler invokes this daily; on every other day it is a no-op. Running
// it twice on the promotion day changes nothing the second time.
func (s *PromotionService) RunIfDue(ctx context.Context, date time.Time) (*PromotionResult, error) {
	if int(date.Month()) != s.promotion.Month || date.Day() != s.promotion.Day {
		return nil, nil
	}
	return s.Run(ctx)
}

// Run performs the graduation sweep immediately.
func (s *PromotionService) Run(ctx context.Context) (*PromotionResult, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	records, err := s.studentTerms.ListActiveWithClassLevel(ctx, term.ID, s.rules.TerminalClassLevel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terminal-level students")
	}

	result := &PromotionResult{TermID: term.ID, RanAt: time.Now().UTC()}
	for _, record := range records {
		if record.Graduated {
			continue
		}
		if err := s.studentTerms.MarkGraduated(ctx, record.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark student graduated")
		}
		result.Graduated++
	}

	s.logger.Info("graduation sweep complete",
		zap.String("term_id", term.ID),
		zap.Int("graduated", result.Graduated))
	return result, nil
}
