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

type mockLedgerRepo struct {
	rows       map[string]models.MonthlyScholarshipStatus
	inserted   [][]models.MonthlyScholarshipStatus
	healed     []models.MonthYear
	cutCalls   []models.MonthYear
	cutReasons []string
	updated    map[string]bool
}

func (m *mockLedgerRepo) FindByID(ctx context.Context, id string) (*models.MonthlyScholarshipStatus, error) {
	if r, ok := m.rows[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedgerRepo) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.MonthlyScholarshipStatus, error) {
	var list []models.MonthlyScholarshipStatus
	for _, r := range m.rows {
		if r.StudentID == studentID && r.TermID == termID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockLedgerRepo) ListByTerm(ctx context.Context, termID string) ([]models.LedgerTermRow, error) {
	return nil, nil
}

func (m *mockLedgerRepo) InsertBatch(ctx context.Context, rows []models.MonthlyScholarshipStatus) error {
	if m.rows == nil {
		m.rows = make(map[string]models.MonthlyScholarshipStatus)
	}
	for i, row := range rows {
		if row.ID == "" {
			row.ID = row.StudentID + "-" + row.TermID + "-" + time.Month(row.Month).String() + "-" + string(rune('0'+i))
		}
		m.rows[row.ID] = row
	}
	m.inserted = append(m.inserted, rows)
	return nil
}

func (m *mockLedgerRepo) UpdateStatus(ctx context.Context, id string, isPaid bool, cutReason, updatedBy *string) error {
	if m.updated == nil {
		m.updated = make(map[string]bool)
	}
	m.updated[id] = isPaid
	if r, ok := m.rows[id]; ok {
		r.IsPaid = isPaid
		if isPaid {
			r.CutReason = nil
		} else {
			r.CutReason = cutReason
		}
		m.rows[id] = r
	}
	return nil
}

func (m *mockLedgerRepo) MarkStalePaid(ctx context.Context, studentID, termID string, upTo models.MonthYear) error {
	m.healed = append(m.healed, upTo)
	return nil
}

func (m *mockLedgerRepo) CutMonths(ctx context.Context, studentID, termID string, months []models.MonthYear, reason string, updatedBy *string) error {
	m.cutCalls = append(m.cutCalls, months...)
	m.cutReasons = append(m.cutReasons, reason)
	return nil
}

type mockLedgerTermLookup struct {
	term *models.Term
}

func (m *mockLedgerTermLookup) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if m.term != nil && m.term.ID == id {
		return m.term, nil
	}
	return nil, sql.ErrNoRows
}

type mockLedgerStudentTermLookup struct {
	record *models.StudentTermRecord
}

func (m *mockLedgerStudentTermLookup) FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.StudentTermRecord, error) {
	if m.record != nil && m.record.StudentID == studentID && m.record.TermID == termID {
		return m.record, nil
	}
	return nil, sql.ErrNoRows
}

func newLedgerFixture() (*LedgerService, *mockLedgerRepo) {
	term := newTermFixture("term-1", 2025, true)
	repo := &mockLedgerRepo{}
	svc := NewLedgerService(repo,
		&mockLedgerTermLookup{term: &term},
		&mockLedgerStudentTermLookup{record: &models.StudentTermRecord{
			ID: "st-1", StudentID: "stu-1", TermID: "term-1",
			ScholarshipActive: true, MonthlyAmount: 4500,
		}},
		nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestLedgerServiceGetStudentLedgerCreatesAllMonthsPaid(t *testing.T) {
	svc, repo := newLedgerFixture()

	rows, err := svc.GetStudentLedger(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, rows, 8)

	for _, row := range rows {
		assert.True(t, row.IsPaid)
		assert.Nil(t, row.CutReason)
		assert.Equal(t, 4500.0, row.Amount)
	}

	// Self-heal window covers everything up to the current month.
	require.Len(t, repo.healed, 1)
	assert.Equal(t, models.MonthYear{Month: time.November, Year: 2025}, repo.healed[0])
}

func TestLedgerServiceGetStudentLedgerIsIdempotent(t *testing.T) {
	svc, repo := newLedgerFixture()

	_, err := svc.GetStudentLedger(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	rows, err := svc.GetStudentLedger(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)

	assert.Len(t, rows, 8)
	// Only the first call inserts; the second finds every month present.
	assert.Len(t, repo.inserted, 1)
}

func TestLedgerServiceToggleUnpaidRequiresReason(t *testing.T) {
	svc, repo := newLedgerFixture()
	repo.rows = map[string]models.MonthlyScholarshipStatus{
		"row-1": {ID: "row-1", StudentID: "stu-1", TermID: "term-1", Month: 10, Year: 2025, IsPaid: true},
	}

	_, err := svc.ToggleStatus(context.Background(), "row-1", ToggleLedgerRequest{IsPaid: false}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceTogglePaidClearsReason(t *testing.T) {
	svc, repo := newLedgerFixture()
	reason := "absent from meeting"
	repo.rows = map[string]models.MonthlyScholarshipStatus{
		"row-1": {ID: "row-1", StudentID: "stu-1", TermID: "term-1", Month: 10, Year: 2025, IsPaid: false, CutReason: &reason},
	}

	row, err := svc.ToggleStatus(context.Background(), "row-1", ToggleLedgerRequest{IsPaid: true}, nil)
	require.NoError(t, err)
	assert.True(t, row.IsPaid)
	assert.Nil(t, row.CutReason)
}

func TestLedgerServiceToggleUnknownRow(t *testing.T) {
	svc, _ := newLedgerFixture()

	_, err := svc.ToggleStatus(context.Background(), "missing", ToggleLedgerRequest{IsPaid: true}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceCutByDateRejectsSummerMonth(t *testing.T) {
	svc, repo := newLedgerFixture()

	err := svc.CutByDate(context.Background(), "term-1", MonthCutRequest{
		StudentID: "stu-1",
		Date:      time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		Reason:    "absent",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.cutCalls)
}

func TestLedgerServiceCutByDateCutsSingleMonth(t *testing.T) {
	svc, repo := newLedgerFixture()

	err := svc.CutByDate(context.Background(), "term-1", MonthCutRequest{
		StudentID: "stu-1",
		Date:      time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC),
		Reason:    "absent from meeting",
	}, nil)
	require.NoError(t, err)

	require.Len(t, repo.cutCalls, 1)
	assert.Equal(t, models.MonthYear{Month: time.December, Year: 2025}, repo.cutCalls[0])
	assert.Equal(t, []string{"absent from meeting"}, repo.cutReasons)
}

func TestLedgerServiceCutByDateMapsMonthOntoAcademicYear(t *testing.T) {
	svc, repo := newLedgerFixture()

	// November belongs to the term's start year no matter which calendar
	// year the submitted date carries.
	err := svc.CutByDate(context.Background(), "term-1", MonthCutRequest{
		StudentID: "stu-1",
		Date:      time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC),
		Reason:    "absent",
	}, nil)
	require.NoError(t, err)

	require.Len(t, repo.cutCalls, 1)
	assert.Equal(t, models.MonthYear{Month: time.November, Year: 2025}, repo.cutCalls[0])
}

func TestLedgerServiceBulkCutCollectsPerStudentOutcomes(t *testing.T) {
	svc, repo := newLedgerFixture()
	// Second student has no term record, so the cut must fail for them only.
	results := svc.BulkCutByDate(context.Background(), "term-1", []MonthCutRequest{
		{StudentID: "stu-1", Date: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), Reason: "absent"},
		{StudentID: "stu-ghost", Date: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), Reason: "absent"},
	}, nil)

	require.Len(t, results, 2)
	assert.True(t, results[0].Cut)
	assert.Nil(t, results[0].Error)
	assert.False(t, results[1].Cut)
	require.NotNil(t, results[1].Error)
	assert.Len(t, repo.cutCalls, 1)
}
