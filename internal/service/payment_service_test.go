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

type mockPaymentRepo struct {
	payments map[string]models.ScholarshipPayment
	statuses map[string]models.PaymentStatus
	deleted  []string
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.ScholarshipPayment, int, error) {
	var list []models.ScholarshipPayment
	for _, p := range m.payments {
		list = append(list, p)
	}
	return list, len(list), nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.ScholarshipPayment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.ScholarshipPayment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.ScholarshipPayment)
	}
	payment.ID = "pay-new"
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.PaymentStatus)
	}
	m.statuses[id] = status
	if p, ok := m.payments[id]; ok {
		p.Status = status
		m.payments[id] = p
	}
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id string) error {
	delete(m.payments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPaymentRepo) TotalPaidByTerm(ctx context.Context, termID string) (float64, error) {
	var total float64
	for _, p := range m.payments {
		if p.TermID != nil && *p.TermID == termID && p.Status == models.PaymentStatusCompleted {
			total += p.Amount
		}
	}
	return total, nil
}

type mockCommitmentLookup struct {
	commitment *models.MemberCommitment
}

func (m *mockCommitmentLookup) FindByID(ctx context.Context, id string) (*models.MemberCommitment, error) {
	if m.commitment != nil && m.commitment.ID == id {
		return m.commitment, nil
	}
	return nil, sql.ErrNoRows
}

type mockTotalsWriter struct {
	deltas []float64
}

func (m *mockTotalsWriter) AddToTotalReceived(ctx context.Context, studentID, termID string, delta float64) error {
	m.deltas = append(m.deltas, delta)
	return nil
}

func newPaymentFixture(repo *mockPaymentRepo) (*PaymentService, *mockTotalsWriter) {
	totals := &mockTotalsWriter{}
	commitments := &mockCommitmentLookup{commitment: &models.MemberCommitment{
		ID: "cmt-1", MemberID: "mem-1", TermID: "term-1", PledgedCount: 2, YearlyAmount: 36000,
	}}
	return NewPaymentService(repo, commitments, totals, nil, nil), totals
}

func TestPaymentServiceCreateBumpsCumulativeTotal(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc, totals := newPaymentFixture(repo)

	termID := "term-1"
	payment, err := svc.Create(context.Background(), CreatePaymentRequest{
		CommitmentID: "cmt-1",
		StudentID:    "stu-1",
		TermID:       &termID,
		Amount:       4500,
		PaymentDate:  time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, []float64{4500}, totals.deltas)
}

func TestPaymentServiceCreateUnknownCommitment(t *testing.T) {
	svc, _ := newPaymentFixture(&mockPaymentRepo{})

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		CommitmentID: "cmt-ghost",
		StudentID:    "stu-1",
		Amount:       4500,
		PaymentDate:  time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceCancelReversesTotalOnce(t *testing.T) {
	termID := "term-1"
	repo := &mockPaymentRepo{payments: map[string]models.ScholarshipPayment{
		"pay-1": {ID: "pay-1", CommitmentID: "cmt-1", StudentID: "stu-1", TermID: &termID,
			Amount: 4500, Status: models.PaymentStatusCompleted},
	}}
	svc, totals := newPaymentFixture(repo)

	payment, err := svc.Cancel(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, payment.Status)
	assert.Equal(t, []float64{-4500}, totals.deltas)

	// Cancelling again is a no-op.
	_, err = svc.Cancel(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{-4500}, totals.deltas)
}

func TestPaymentServiceCancelPendingLeavesTotalAlone(t *testing.T) {
	termID := "term-1"
	repo := &mockPaymentRepo{payments: map[string]models.ScholarshipPayment{
		"pay-1": {ID: "pay-1", CommitmentID: "cmt-1", StudentID: "stu-1", TermID: &termID,
			Amount: 4500, Status: models.PaymentStatusPending},
	}}
	svc, totals := newPaymentFixture(repo)

	_, err := svc.Cancel(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Empty(t, totals.deltas)
}

func TestPaymentServiceHardDeleteReversesTotal(t *testing.T) {
	termID := "term-1"
	repo := &mockPaymentRepo{payments: map[string]models.ScholarshipPayment{
		"pay-1": {ID: "pay-1", CommitmentID: "cmt-1", StudentID: "stu-1", TermID: &termID,
			Amount: 4500, Status: models.PaymentStatusCompleted},
	}}
	svc, totals := newPaymentFixture(repo)

	require.NoError(t, svc.HardDelete(context.Background(), "pay-1"))
	assert.Equal(t, []string{"pay-1"}, repo.deleted)
	assert.Equal(t, []float64{-4500}, totals.deltas)
}
