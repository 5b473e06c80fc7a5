package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/pkg/config"
)

type mockPromotionStudentTerms struct {
	records   []models.StudentTermRecord
	graduated []string
}

func (m *mockPromotionStudentTerms) ListActiveWithClassLevel(ctx context.Context, termID string, minLevel int) ([]models.StudentTermRecord, error) {
	var list []models.StudentTermRecord
	for _, r := range m.records {
		if r.TermID == termID && r.ScholarshipActive && r.ClassLevel >= minLevel {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockPromotionStudentTerms) MarkGraduated(ctx context.Context, id string) error {
	m.graduated = append(m.graduated, id)
	for i, r := range m.records {
		if r.ID == id {
			m.records[i].Graduated = true
		}
	}
	return nil
}

var promotionCfg = config.PromotionConfig{Enabled: true, Month: 8, Day: 1}

func newPromotionFixture(records []models.StudentTermRecord) (*PromotionService, *mockPromotionStudentTerms) {
	active := newTermFixture("term-1", 2024, true)
	studentTerms := &mockPromotionStudentTerms{records: records}
	svc := NewPromotionService(&mockCutTermSource{active: &active}, studentTerms, nil, promotionCfg, cutRules)
	return svc, studentTerms
}

func TestPromotionServiceRunIfDueSkipsOtherDays(t *testing.T) {
	svc, studentTerms := newPromotionFixture([]models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-1", TermID: "term-1", ScholarshipActive: true, ClassLevel: 4},
	})

	result, err := svc.RunIfDue(context.Background(), time.Date(2025, 7, 31, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, studentTerms.graduated)
}

func TestPromotionServiceRunIfDueRunsOnPromotionDay(t *testing.T) {
	svc, studentTerms := newPromotionFixture([]models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-1", TermID: "term-1", ScholarshipActive: true, ClassLevel: 4},
		{ID: "st-2", StudentID: "stu-2", TermID: "term-1", ScholarshipActive: true, ClassLevel: 3},
	})

	result, err := svc.RunIfDue(context.Background(), time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.Graduated)
	assert.Equal(t, []string{"st-1"}, studentTerms.graduated)
}

func TestPromotionServiceRunIsIdempotent(t *testing.T) {
	svc, studentTerms := newPromotionFixture([]models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-1", TermID: "term-1", ScholarshipActive: true, ClassLevel: 4},
	})

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Graduated)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Graduated)
	assert.Equal(t, []string{"st-1"}, studentTerms.graduated)
}

func TestPromotionServiceRunIgnoresLowerClassLevels(t *testing.T) {
	svc, studentTerms := newPromotionFixture([]models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-1", TermID: "term-1", ScholarshipActive: true, ClassLevel: 2},
		{ID: "st-2", StudentID: "stu-2", TermID: "term-1", ScholarshipActive: true, ClassLevel: 3},
	})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Graduated)
	assert.Empty(t, studentTerms.graduated)
}
