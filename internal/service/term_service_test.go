package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type mockTermRepo struct {
	terms        map[string]models.Term
	activeID     string
	startDates   map[string]bool
	opened       *models.Term
	deleted      []string
	paymentCount int
}

func (m *mockTermRepo) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	var list []models.Term
	for _, t := range m.terms {
		list = append(list, t)
	}
	return list, len(list), nil
}

func (m *mockTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := m.terms[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) FindActive(ctx context.Context) (*models.Term, error) {
	if t, ok := m.terms[m.activeID]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) ExistsByStartDate(ctx context.Context, start time.Time, excludeID string) (bool, error) {
	return m.startDates[start.Format("2006-01-02")], nil
}

func (m *mockTermRepo) OpenNewTerm(ctx context.Context, term *models.Term) error {
	if m.terms == nil {
		m.terms = make(map[string]models.Term)
	}
	term.ID = "term-new"
	term.IsActive = true
	for id, t := range m.terms {
		t.IsActive = false
		m.terms[id] = t
	}
	m.terms[term.ID] = *term
	m.activeID = term.ID
	m.opened = term
	return nil
}

func (m *mockTermRepo) SetActive(ctx context.Context, id string) error {
	m.activeID = id
	return nil
}

func (m *mockTermRepo) Delete(ctx context.Context, id string) error {
	delete(m.terms, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockTermRepo) CountPayments(ctx context.Context, id string) (int, error) {
	return m.paymentCount, nil
}

func newTermFixture(id string, startYear int, active bool) models.Term {
	start := time.Date(startYear, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(startYear+1, 6, 30, 0, 0, 0, 0, time.UTC)
	return models.Term{
		ID:        id,
		Name:      models.TermDisplayName(start, end),
		StartDate: start,
		EndDate:   end,
		IsActive:  active,
	}
}

func TestTermServiceOpenNewTermDeactivatesPrevious(t *testing.T) {
	repo := &mockTermRepo{
		terms:    map[string]models.Term{"term-1": newTermFixture("term-1", 2024, true)},
		activeID: "term-1",
	}
	svc := NewTermService(repo, nil, nil)

	term, err := svc.OpenNewTerm(context.Background(), OpenTermRequest{
		StartDate: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, term)

	assert.Equal(t, "2025-2026", term.Name)
	assert.True(t, term.IsActive)
	assert.False(t, repo.terms["term-1"].IsActive)
	assert.Equal(t, term.ID, repo.activeID)
}

func TestTermServiceOpenNewTermRejectsInvertedDates(t *testing.T) {
	svc := NewTermService(&mockTermRepo{}, nil, nil)

	_, err := svc.OpenNewTerm(context.Background(), OpenTermRequest{
		StartDate: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTermServiceOpenNewTermRejectsDuplicateStartDate(t *testing.T) {
	repo := &mockTermRepo{startDates: map[string]bool{"2025-10-01": true}}
	svc := NewTermService(repo, nil, nil)

	_, err := svc.OpenNewTerm(context.Background(), OpenTermRequest{
		StartDate: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTermServiceDeleteGuardsActiveTerm(t *testing.T) {
	repo := &mockTermRepo{
		terms:    map[string]models.Term{"term-1": newTermFixture("term-1", 2025, true)},
		activeID: "term-1",
	}
	svc := NewTermService(repo, nil, nil)

	err := svc.Delete(context.Background(), "term-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrActiveTerm.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestTermServiceDeleteGuardsTermWithPayments(t *testing.T) {
	repo := &mockTermRepo{
		terms:        map[string]models.Term{"term-1": newTermFixture("term-1", 2024, false)},
		paymentCount: 3,
	}
	svc := NewTermService(repo, nil, nil)

	err := svc.Delete(context.Background(), "term-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestTermServiceDeleteRemovesInactiveTerm(t *testing.T) {
	repo := &mockTermRepo{
		terms: map[string]models.Term{"term-1": newTermFixture("term-1", 2023, false)},
	}
	svc := NewTermService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "term-1"))
	assert.Equal(t, []string{"term-1"}, repo.deleted)
}

func TestTermServiceGetActiveNotFound(t *testing.T) {
	svc := NewTermService(&mockTermRepo{}, nil, nil)

	_, err := svc.GetActive(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
