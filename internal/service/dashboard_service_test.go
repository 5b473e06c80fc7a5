package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type mockDashboardCommitments struct {
	donorCount    int
	pledgedCount  int
	pledgedYearly float64
	calls         int
}

func (m *mockDashboardCommitments) FundingTotals(ctx context.Context, termID string) (int, int, float64, error) {
	m.calls++
	return m.donorCount, m.pledgedCount, m.pledgedYearly, nil
}

type mockDashboardPayments struct {
	totalPaid float64
}

func (m *mockDashboardPayments) TotalPaidByTerm(ctx context.Context, termID string) (float64, error) {
	return m.totalPaid, nil
}

type mockDashboardStudentTerms struct {
	active int
	cut    int
}

func (m *mockDashboardStudentTerms) CountByTerm(ctx context.Context, termID string) (int, int, error) {
	return m.active, m.cut, nil
}

type memoryCache struct {
	values  map[string]*models.TermFundingSummary
	sets    int
	deletes []string
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if v, ok := c.values[key]; ok {
		*dest.(*models.TermFundingSummary) = *v
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.values == nil {
		c.values = make(map[string]*models.TermFundingSummary)
	}
	v := *value.(*models.TermFundingSummary)
	c.values[key] = &v
	c.sets++
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deletes = append(c.deletes, pattern)
	c.values = nil
	return nil
}

type mockDashboardMetrics struct {
	hits   int
	misses int
	writes int
}

func (m *mockDashboardMetrics) RecordCacheOperation(hit bool, duration time.Duration) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *mockDashboardMetrics) ObserveCacheWrite(duration time.Duration) { m.writes++ }

func TestDashboardServiceComputesAndCachesSummary(t *testing.T) {
	commitments := &mockDashboardCommitments{donorCount: 4, pledgedCount: 9, pledgedYearly: 324000}
	cache := &memoryCache{}
	metrics := &mockDashboardMetrics{}
	svc := NewDashboardService(commitments,
		&mockDashboardPayments{totalPaid: 120000},
		&mockDashboardStudentTerms{active: 7, cut: 2},
		cache, metrics, nil, time.Minute)

	summary, err := svc.TermFundingSummary(context.Background(), "term-1")
	require.NoError(t, err)

	assert.Equal(t, "term-1", summary.TermID)
	assert.Equal(t, 4, summary.DonorCount)
	assert.Equal(t, 9, summary.TotalPledgedCount)
	assert.Equal(t, 324000.0, summary.TotalPledgedYearly)
	assert.Equal(t, 120000.0, summary.TotalPaid)
	assert.Equal(t, 7, summary.ActiveScholars)
	assert.Equal(t, 2, summary.CutScholars)

	// Second call is served from the cache without recomputing.
	_, err = svc.TermFundingSummary(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 1, commitments.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.writes)
}

func TestDashboardServiceInvalidateTermForcesRecompute(t *testing.T) {
	commitments := &mockDashboardCommitments{}
	cache := &memoryCache{}
	svc := NewDashboardService(commitments,
		&mockDashboardPayments{},
		&mockDashboardStudentTerms{},
		cache, nil, nil, time.Minute)

	_, err := svc.TermFundingSummary(context.Background(), "term-1")
	require.NoError(t, err)

	svc.InvalidateTerm(context.Background(), "term-1")
	require.Len(t, cache.deletes, 1)

	_, err = svc.TermFundingSummary(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 2, commitments.calls)
}

func TestDashboardServiceWorksWithoutCache(t *testing.T) {
	commitments := &mockDashboardCommitments{donorCount: 1}
	svc := NewDashboardService(commitments,
		&mockDashboardPayments{},
		&mockDashboardStudentTerms{},
		nil, nil, nil, 0)

	summary, err := svc.TermFundingSummary(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DonorCount)
}
