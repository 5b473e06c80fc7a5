package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type dashboardCommitmentSource interface {
	FundingTotals(ctx context.Context, termID string) (donorCount, pledgedCount int, pledgedYearly float64, err error)
}

type dashboardPaymentSource interface {
	TotalPaidByTerm(ctx context.Context, termID string) (float64, error)
}

type dashboardStudentTermSource interface {
	CountByTerm(ctx context.Context, termID string) (active, cut int, err error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dashboardMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
}

// DashboardService aggregates the funding picture of a term, cached in Redis
// because the queries fan out over several tables.
type DashboardService struct {
	commitments  dashboardCommitmentSource
	payments     dashboardPaymentSource
	studentTerms dashboardStudentTermSource
	cache        dashboardCache
	metrics      dashboardMetrics
	logger       *zap.Logger
	cacheTTL     time.Duration
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(commitments dashboardCommitmentSource, payments dashboardPaymentSource, studentTerms dashboardStudentTermSource, cache dashboardCache, metrics dashboardMetrics, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		commitments:  commitments,
		payments:     payments,
		studentTerms: studentTerms,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		cacheTTL:     cacheTTL,
	}
}

func fundingCacheKey(termID string) string {
	return fmt.Sprintf("dashboard:funding:%s", termID)
}

// TermFundingSummary returns the cached funding summary of a term, computing
// and caching it on a miss.
func (s *DashboardService) TermFundingSummary(ctx context.Context, termID string) (*models.TermFundingSummary, error) {
	key := fundingCacheKey(termID)

	if s.cache != nil {
		start := time.Now()
		var cached models.TermFundingSummary
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := s.computeFundingSummary(ctx, termID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		start := time.Now()
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		} else if s.metrics != nil {
			s.metrics.ObserveCacheWrite(time.Since(start))
		}
	}

	return summary, nil
}

// InvalidateTerm drops the cached summary of a term after a mutation.
func (s *DashboardService) InvalidateTerm(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fundingCacheKey(termID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) computeFundingSummary(ctx context.Context, termID string) (*models.TermFundingSummary, error) {
	donorCount, pledgedCount, pledgedYearly, err := s.commitments.FundingTotals(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate commitments")
	}

	totalPaid, err := s.payments.TotalPaidByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}

	active, cut, err := s.studentTerms.CountByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scholars")
	}

	return &models.TermFundingSummary{
		TermID:             termID,
		DonorCount:         donorCount,
		TotalPledgedCount:  pledgedCount,
		TotalPledgedYearly: pledgedYearly,
		TotalPaid:          totalPaid,
		ActiveScholars:     active,
		CutScholars:        cut,
		GeneratedAt:        time.Now().UTC(),
	}, nil
}
