package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/pkg/config"
)

type mockConfigRepo struct {
	configs map[string]models.TermScholarshipConfig
	created int
	updated []float64
}

func (m *mockConfigRepo) FindByTerm(ctx context.Context, termID string) (*models.TermScholarshipConfig, error) {
	if c, ok := m.configs[termID]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockConfigRepo) Create(ctx context.Context, cfg *models.TermScholarshipConfig) error {
	if m.configs == nil {
		m.configs = make(map[string]models.TermScholarshipConfig)
	}
	cfg.ID = "cfg-new"
	m.configs[cfg.TermID] = *cfg
	m.created++
	return nil
}

func (m *mockConfigRepo) UpdateAmounts(ctx context.Context, termID string, yearly, monthly float64, updatedBy *string) error {
	if c, ok := m.configs[termID]; ok {
		c.YearlyAmount = yearly
		c.MonthlyAmount = monthly
		m.configs[termID] = c
	}
	m.updated = append(m.updated, yearly, monthly)
	return nil
}

var scholarshipDefaults = config.ScholarshipConfig{
	MonthsPerYear: 8,
	DefaultYearly: 36000,
}

func TestScholarshipConfigGetOrCreateUsesDefaults(t *testing.T) {
	repo := &mockConfigRepo{}
	svc := NewScholarshipConfigService(repo, nil, nil, scholarshipDefaults)

	cfg, err := svc.GetOrCreate(context.Background(), "term-1")
	require.NoError(t, err)

	assert.Equal(t, 36000.0, cfg.YearlyAmount)
	assert.Equal(t, 4500.0, cfg.MonthlyAmount)
	assert.Equal(t, 1, repo.created)

	// A second call reuses the stored config.
	_, err = svc.GetOrCreate(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.created)
}

func TestScholarshipConfigSetYearlyDerivesMonthly(t *testing.T) {
	repo := &mockConfigRepo{configs: map[string]models.TermScholarshipConfig{
		"term-1": {ID: "cfg-1", TermID: "term-1", YearlyAmount: 36000, MonthlyAmount: 4500},
	}}
	svc := NewScholarshipConfigService(repo, nil, nil, scholarshipDefaults)

	cfg, err := svc.SetYearly(context.Background(), "term-1", SetYearlyAmountRequest{YearlyAmount: 48000}, nil)
	require.NoError(t, err)

	assert.Equal(t, 48000.0, cfg.YearlyAmount)
	assert.Equal(t, 6000.0, cfg.MonthlyAmount)
}

func TestScholarshipConfigSetMonthlyDerivesYearly(t *testing.T) {
	repo := &mockConfigRepo{configs: map[string]models.TermScholarshipConfig{
		"term-1": {ID: "cfg-1", TermID: "term-1", YearlyAmount: 36000, MonthlyAmount: 4500},
	}}
	svc := NewScholarshipConfigService(repo, nil, nil, scholarshipDefaults)

	cfg, err := svc.SetMonthly(context.Background(), "term-1", SetMonthlyAmountRequest{MonthlyAmount: 5000}, nil)
	require.NoError(t, err)

	assert.Equal(t, 40000.0, cfg.YearlyAmount)
	assert.Equal(t, 5000.0, cfg.MonthlyAmount)
}

func TestScholarshipConfigSetYearlyRejectsZero(t *testing.T) {
	svc := NewScholarshipConfigService(&mockConfigRepo{}, nil, nil, scholarshipDefaults)

	_, err := svc.SetYearly(context.Background(), "term-1", SetYearlyAmountRequest{}, nil)
	require.Error(t, err)
}
