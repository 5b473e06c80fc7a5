package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.Student
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var list []models.Student
	for _, s := range m.students {
		list = append(list, s)
	}
	return list, len(list), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	student.ID = "stu-new"
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	return nil
}

type mockStudentTermWriter struct {
	records map[string]models.StudentTermRecord
	created *models.StudentTermRecord
}

func (m *mockStudentTermWriter) key(studentID, termID string) string {
	return studentID + "|" + termID
}

func (m *mockStudentTermWriter) FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.StudentTermRecord, error) {
	if r, ok := m.records[m.key(studentID, termID)]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentTermWriter) Create(ctx context.Context, record *models.StudentTermRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.StudentTermRecord)
	}
	record.ID = "st-new"
	m.records[m.key(record.StudentID, record.TermID)] = *record
	m.created = record
	return nil
}

func (m *mockStudentTermWriter) Update(ctx context.Context, record *models.StudentTermRecord) error {
	m.records[m.key(record.StudentID, record.TermID)] = *record
	return nil
}

type mockTermConfigLookup struct {
	config *models.TermScholarshipConfig
}

func (m *mockTermConfigLookup) GetOrCreate(ctx context.Context, termID string) (*models.TermScholarshipConfig, error) {
	if m.config != nil {
		return m.config, nil
	}
	return &models.TermScholarshipConfig{TermID: termID, YearlyAmount: 36000, MonthlyAmount: 4500}, nil
}

func newStudentFixture(activeTerm *models.Term) (*StudentService, *mockStudentTermWriter) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", FullName: "Student One"},
	}}
	writer := &mockStudentTermWriter{}
	terms := &mockCutTermSource{active: activeTerm}
	svc := NewStudentService(repo, writer, terms, &mockTermConfigLookup{}, nil, nil)
	return svc, writer
}

func TestStudentServiceAdmitUsesTermDefaultAmount(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	svc, writer := newStudentFixture(&active)

	record, err := svc.AdmitToActiveTerm(context.Background(), "stu-1", AdmitStudentRequest{ClassLevel: 1})
	require.NoError(t, err)

	assert.Equal(t, "term-1", record.TermID)
	assert.True(t, record.ScholarshipActive)
	assert.Equal(t, 4500.0, record.MonthlyAmount)
	assert.Equal(t, 1, record.ClassLevel)
	require.NotNil(t, record.ScholarshipStart)
	assert.Equal(t, active.StartDate, *record.ScholarshipStart)
	assert.NotNil(t, writer.created)
}

func TestStudentServiceAdmitHonorsExplicitAmount(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	svc, _ := newStudentFixture(&active)

	amount := 6000.0
	record, err := svc.AdmitToActiveTerm(context.Background(), "stu-1", AdmitStudentRequest{
		ClassLevel:    2,
		MonthlyAmount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, 6000.0, record.MonthlyAmount)
}

func TestStudentServiceAdmitWithoutActiveTerm(t *testing.T) {
	svc, _ := newStudentFixture(nil)

	_, err := svc.AdmitToActiveTerm(context.Background(), "stu-1", AdmitStudentRequest{ClassLevel: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAdmitTwiceConflicts(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	svc, _ := newStudentFixture(&active)

	_, err := svc.AdmitToActiveTerm(context.Background(), "stu-1", AdmitStudentRequest{ClassLevel: 1})
	require.NoError(t, err)

	_, err = svc.AdmitToActiveTerm(context.Background(), "stu-1", AdmitStudentRequest{ClassLevel: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAdmitUnknownStudent(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	svc, _ := newStudentFixture(&active)

	_, err := svc.AdmitToActiveTerm(context.Background(), "stu-ghost", AdmitStudentRequest{ClassLevel: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateTermRecord(t *testing.T) {
	active := newTermFixture("term-1", 2025, true)
	svc, writer := newStudentFixture(&active)
	writer.records = map[string]models.StudentTermRecord{
		"stu-1|term-1": {ID: "st-1", StudentID: "stu-1", TermID: "term-1", MonthlyAmount: 4500, ClassLevel: 1},
	}

	gpa := 3.2
	record, err := svc.UpdateTermRecord(context.Background(), "stu-1", "term-1", UpdateStudentTermRequest{
		MonthlyAmount: 5000,
		ClassLevel:    2,
		GPA:           &gpa,
	})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, record.MonthlyAmount)
	assert.Equal(t, 2, record.ClassLevel)
	require.NotNil(t, record.GPA)
	assert.Equal(t, 3.2, *record.GPA)
}
