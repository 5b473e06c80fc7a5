package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/pkg/config"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type mockCutTermSource struct {
	active    *models.Term
	next      *models.Term
	lastAfter time.Time
}

func (m *mockCutTermSource) FindActive(ctx context.Context) (*models.Term, error) {
	if m.active == nil {
		return nil, sql.ErrNoRows
	}
	return m.active, nil
}

func (m *mockCutTermSource) FindNextAfter(ctx context.Context, after time.Time) (*models.Term, error) {
	m.lastAfter = after
	if m.next == nil {
		return nil, sql.ErrNoRows
	}
	return m.next, nil
}

type mockCutStudentTermSource struct {
	records []models.StudentTermRecord
}

func (m *mockCutStudentTermSource) ListByTerm(ctx context.Context, termID string, onlyActive bool) ([]models.StudentTermRecord, error) {
	var list []models.StudentTermRecord
	for _, r := range m.records {
		if r.TermID == termID && (!onlyActive || r.ScholarshipActive) {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockCutStudentTermSource) ListByTermAndStudents(ctx context.Context, termID string, studentIDs []string) ([]models.StudentTermRecord, error) {
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	var list []models.StudentTermRecord
	for _, r := range m.records {
		if r.TermID == termID && wanted[r.StudentID] {
			list = append(list, r)
		}
	}
	return list, nil
}

type mockCutTranscriptSource struct {
	latest map[string]*models.Transcript
}

func (m *mockCutTranscriptSource) FindLatestByStudent(ctx context.Context, studentID string) (*models.Transcript, error) {
	if tr, ok := m.latest[studentID]; ok {
		return tr, nil
	}
	return nil, sql.ErrNoRows
}

type mockCutMeetingSource struct {
	meeting *models.Meeting
	absent  []string
}

func (m *mockCutMeetingSource) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	if m.meeting != nil && m.meeting.ID == id {
		return m.meeting, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCutMeetingSource) ListAbsentStudentIDs(ctx context.Context, meetingID string) ([]string, error) {
	return m.absent, nil
}

type appliedCut struct {
	studentID string
	termID    string
	reason    string
	months    []models.MonthYear
}

type mockCutApplier struct {
	cuts       []appliedCut
	reinstated []appliedCut
}

func (m *mockCutApplier) ApplyCut(ctx context.Context, studentID, termID, reason string, months []models.MonthYear, updatedBy *string) error {
	m.cuts = append(m.cuts, appliedCut{studentID: studentID, termID: termID, reason: reason, months: months})
	return nil
}

func (m *mockCutApplier) Reinstate(ctx context.Context, studentID, termID string, months []models.MonthYear, updatedBy *string) error {
	m.reinstated = append(m.reinstated, appliedCut{studentID: studentID, termID: termID, months: months})
	return nil
}

type mockCutLedger struct {
	rows     []models.MonthlyScholarshipStatus
	inserted [][]models.MonthlyScholarshipStatus
	cuts     []appliedCut
}

func (m *mockCutLedger) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.MonthlyScholarshipStatus, error) {
	var list []models.MonthlyScholarshipStatus
	for _, r := range m.rows {
		if r.StudentID == studentID && r.TermID == termID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockCutLedger) InsertBatch(ctx context.Context, rows []models.MonthlyScholarshipStatus) error {
	m.rows = append(m.rows, rows...)
	m.inserted = append(m.inserted, rows)
	return nil
}

func (m *mockCutLedger) CutMonths(ctx context.Context, studentID, termID string, months []models.MonthYear, reason string, updatedBy *string) error {
	m.cuts = append(m.cuts, appliedCut{studentID: studentID, termID: termID, reason: reason, months: months})
	return nil
}

type mockCutConfigSource struct {
	monthly float64
}

func (m *mockCutConfigSource) GetOrCreate(ctx context.Context, termID string) (*models.TermScholarshipConfig, error) {
	return &models.TermScholarshipConfig{
		TermID:        termID,
		YearlyAmount:  m.monthly * 8,
		MonthlyAmount: m.monthly,
	}, nil
}

var cutRules = config.ScholarshipConfig{
	MonthsPerYear:      8,
	MinPassingGPA:      2.0,
	TerminalClassLevel: 4,
}

func TestCutServiceTranscriptCheckMidTermCutsFutureMonths(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	terms := &mockCutTermSource{active: &active}
	students := &mockCutStudentTermSource{records: []models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-fail", TermID: "term-1", ScholarshipActive: true, MonthlyAmount: 4500},
		{ID: "st-2", StudentID: "stu-pass", TermID: "term-1", ScholarshipActive: true, MonthlyAmount: 4500},
		{ID: "st-3", StudentID: "stu-none", TermID: "term-1", ScholarshipActive: true, MonthlyAmount: 4500},
	}}
	transcripts := &mockCutTranscriptSource{latest: map[string]*models.Transcript{
		"stu-fail": {ID: "tr-1", StudentID: "stu-fail", GPA: 1.4},
		"stu-pass": {ID: "tr-2", StudentID: "stu-pass", GPA: 3.1},
	}}
	applier := &mockCutApplier{}
	svc := NewCutService(terms, students, transcripts, &mockCutMeetingSource{}, applier, &mockCutLedger{}, &mockCutConfigSource{}, nil, cutRules)

	// Mid December: Jan-May of the term remain ahead.
	asOf := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.RunTranscriptCheck(context.Background(), asOf)
	require.NoError(t, err)

	assert.True(t, result.MidTerm)
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Cuts, 1)
	assert.Equal(t, "stu-fail", result.Cuts[0].StudentID)
	assert.Equal(t, "term-1", result.Cuts[0].TermID)

	require.Len(t, applier.cuts, 1)
	cut := applier.cuts[0]
	assert.Equal(t, "term-1", cut.termID)
	require.Len(t, cut.months, 5)
	assert.Equal(t, models.MonthYear{Month: time.January, Year: 2026}, cut.months[0])
	assert.Equal(t, models.MonthYear{Month: time.May, Year: 2026}, cut.months[4])
	assert.Contains(t, cut.reason, "GPA 1.40")
}

func TestCutServiceTranscriptCheckMayFlipsFlagOnly(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	next := newTermFixture("term-2", 2026, false)
	terms := &mockCutTermSource{active: &active, next: &next}
	students := &mockCutStudentTermSource{records: []models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-fail", TermID: "term-1", ScholarshipActive: true, MonthlyAmount: 4500},
	}}
	transcripts := &mockCutTranscriptSource{latest: map[string]*models.Transcript{
		"stu-fail": {ID: "tr-1", StudentID: "stu-fail", GPA: 1.1},
	}}
	applier := &mockCutApplier{}
	ledger := &mockCutLedger{}
	svc := NewCutService(terms, students, transcripts, &mockCutMeetingSource{}, applier, ledger, &mockCutConfigSource{}, nil, cutRules)

	// May is still inside the term: the last scholarship month is in
	// progress, so no future months exist and the next term stays untouched.
	asOf := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
	result, err := svc.RunTranscriptCheck(context.Background(), asOf)
	require.NoError(t, err)

	assert.True(t, result.MidTerm)
	require.Len(t, applier.cuts, 1)
	assert.Equal(t, "term-1", applier.cuts[0].termID)
	assert.Empty(t, applier.cuts[0].months)
	assert.Empty(t, ledger.cuts)
	assert.True(t, terms.lastAfter.IsZero())
}

func TestCutServiceTranscriptCheckEndOfTermCutsNextTerm(t *testing.T) {
	active := newTermFixture("term-1", 2024, true)
	next := newTermFixture("term-2", 2025, false)
	terms := &mockCutTermSource{active: &active, next: &next}
	students := &mockCutStudentTermSource{records: []models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-fail", TermID: "term-1", ScholarshipActive: true, MonthlyAmount: 4500},
	}}
	transcripts := &mockCutTranscriptSource{latest: map[string]*models.Transcript{
		"stu-fail": {ID: "tr-1", StudentID: "stu-fail", GPA: 1.2},
	}}
	applier := &mockCutApplier{}
	ledger := &mockCutLedger{}
	svc := NewCutService(terms, students, transcripts, &mockCutMeetingSource{}, applier, ledger, &mockCutConfigSource{monthly: 5000}, nil, cutRules)

	// June 2025: term-1's May has passed, so the cut lands on term-2.
	asOf := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	result, err := svc.RunTranscriptCheck(context.Background(), asOf)
	require.NoError(t, err)

	assert.False(t, result.MidTerm)
	require.Len(t, result.Cuts, 1)
	assert.Equal(t, "term-2", result.Cuts[0].TermID)
	assert.Equal(t, 8, result.Cuts[0].Months)

	// The next term is located relative to the active term's end.
	assert.Equal(t, active.EndDate, terms.lastAfter)

	// The flag flips on the student's current record.
	require.Len(t, applier.cuts, 1)
	assert.Equal(t, "term-1", applier.cuts[0].termID)
	assert.Empty(t, applier.cuts[0].months)

	// The ledger cut covers every month of term-2, created first at the next
	// term's configured amount.
	require.Len(t, ledger.cuts, 1)
	assert.Equal(t, "term-2", ledger.cuts[0].termID)
	require.Len(t, ledger.cuts[0].months, 8)
	assert.Equal(t, models.MonthYear{Month: time.October, Year: 2025}, ledger.cuts[0].months[0])
	require.Len(t, ledger.inserted, 1)
	assert.Len(t, ledger.inserted[0], 8)
	assert.Equal(t, 5000.0, ledger.inserted[0][0].Amount)
}

func TestCutServiceTranscriptCheckEndOfTermWithoutNextTerm(t *testing.T) {
	active := newTermFixture("term-1", 2024, true)
	terms := &mockCutTermSource{active: &active}
	students := &mockCutStudentTermSource{records: []models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-fail", TermID: "term-1", ScholarshipActive: true, MonthlyAmount: 4500},
	}}
	transcripts := &mockCutTranscriptSource{latest: map[string]*models.Transcript{
		"stu-fail": {ID: "tr-1", StudentID: "stu-fail", GPA: 1.3},
	}}
	applier := &mockCutApplier{}
	ledger := &mockCutLedger{}
	svc := NewCutService(terms, students, transcripts, &mockCutMeetingSource{}, applier, ledger, &mockCutConfigSource{}, nil, cutRules)

	// No next term exists yet: the check still runs, the failing student's
	// flag flips, and no ledger months are touched anywhere.
	asOf := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	result, err := svc.RunTranscriptCheck(context.Background(), asOf)
	require.NoError(t, err)

	require.Len(t, result.Cuts, 1)
	assert.Equal(t, "term-1", result.Cuts[0].TermID)
	assert.Zero(t, result.Cuts[0].Months)

	require.Len(t, applier.cuts, 1)
	assert.Equal(t, "term-1", applier.cuts[0].termID)
	assert.Empty(t, applier.cuts[0].months)
	assert.Empty(t, ledger.cuts)
}

func TestCutServiceMeetingAbsenceDeactivatesAndCutsMeetingMonth(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	meeting := &models.Meeting{
		ID:          "meet-1",
		Title:       "November gathering",
		MeetingDate: time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC),
	}
	terms := &mockCutTermSource{active: &active}
	students := &mockCutStudentTermSource{records: []models.StudentTermRecord{
		{ID: "st-1", StudentID: "stu-absent", TermID: "term-1", ScholarshipActive: true, MonthlyAmount: 4500},
		{ID: "st-2", StudentID: "stu-cut", TermID: "term-1", ScholarshipActive: false},
	}}
	meetings := &mockCutMeetingSource{meeting: meeting, absent: []string{"stu-absent", "stu-cut"}}
	applier := &mockCutApplier{}
	ledger := &mockCutLedger{}
	svc := NewCutService(terms, students, &mockCutTranscriptSource{}, meetings, applier, ledger, &mockCutConfigSource{}, nil, cutRules)

	result, err := svc.RunMeetingAbsenceCheck(context.Background(), "meet-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Absent)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Cuts, 1)
	assert.Equal(t, "stu-absent", result.Cuts[0].StudentID)
	assert.Equal(t, 11, result.Cuts[0].Month)

	// The flag and the meeting's single ledger month change together.
	require.Len(t, applier.cuts, 1)
	cut := applier.cuts[0]
	assert.Equal(t, "stu-absent", cut.studentID)
	assert.Equal(t, "term-1", cut.termID)
	require.Len(t, cut.months, 1)
	assert.Equal(t, models.MonthYear{Month: time.November, Year: 2025}, cut.months[0])
	assert.Contains(t, cut.reason, "2025-11-08")
}

func TestCutServiceMeetingOutsideScholarshipMonths(t *testing.T) {
	meeting := &models.Meeting{
		ID:          "meet-1",
		Title:       "Summer retreat",
		MeetingDate: time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC),
	}
	svc := NewCutService(&mockCutTermSource{}, &mockCutStudentTermSource{}, &mockCutTranscriptSource{},
		&mockCutMeetingSource{meeting: meeting}, &mockCutApplier{}, &mockCutLedger{}, &mockCutConfigSource{}, nil, cutRules)

	_, err := svc.RunMeetingAbsenceCheck(context.Background(), "meet-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCutServiceReinstateRestoresFutureMonthsOfActiveTerm(t *testing.T) {
	active := newTermFixture("term-1", time.Now().UTC().Year(), true)
	applier := &mockCutApplier{}
	svc := NewCutService(&mockCutTermSource{active: &active}, &mockCutStudentTermSource{}, &mockCutTranscriptSource{},
		&mockCutMeetingSource{}, applier, &mockCutLedger{}, &mockCutConfigSource{}, nil, cutRules)

	require.NoError(t, svc.ReinstateStudent(context.Background(), "stu-1", "term-1", nil))

	require.Len(t, applier.reinstated, 1)
	assert.Equal(t, "stu-1", applier.reinstated[0].studentID)
	assert.Equal(t, "term-1", applier.reinstated[0].termID)
}

func TestCutServiceReinstateOtherTermTouchesNoMonths(t *testing.T) {
	active := newTermFixture("term-2", 2025, true)
	applier := &mockCutApplier{}
	svc := NewCutService(&mockCutTermSource{active: &active}, &mockCutStudentTermSource{}, &mockCutTranscriptSource{},
		&mockCutMeetingSource{}, applier, &mockCutLedger{}, &mockCutConfigSource{}, nil, cutRules)

	require.NoError(t, svc.ReinstateStudent(context.Background(), "stu-1", "term-1", nil))

	require.Len(t, applier.reinstated, 1)
	assert.Empty(t, applier.reinstated[0].months)
}
