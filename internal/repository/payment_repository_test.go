package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
)

func TestPaymentRepositoryTotalPaidByTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM scholarship_payments WHERE term_id = \$1 AND status = \$2`).
		WithArgs("term-1", models.PaymentStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(120000.0))

	total, err := repo.TotalPaidByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Equal(t, 120000.0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListFiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	cols := []string{"id", "commitment_id", "student_id", "term_id", "amount", "payment_date",
		"type", "method", "reference_no", "status", "notes", "created_at", "updated_at"}
	mock.ExpectQuery(`SELECT .+ FROM scholarship_payments WHERE 1=1 AND term_id = \$1 AND student_id = \$2 ORDER BY payment_date DESC LIMIT 20 OFFSET 0`).
		WithArgs("term-1", "stu-1").
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scholarship_payments WHERE 1=1 AND term_id = \$1 AND student_id = \$2`).
		WithArgs("term-1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	payments, total, err := repo.List(context.Background(), models.PaymentFilter{
		TermID:    "term-1",
		StudentID: "stu-1",
		SortBy:    "balance", // unknown column falls back to payment_date
	})
	require.NoError(t, err)
	require.Empty(t, payments)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryUpdateStatusUnknownPayment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec(`UPDATE scholarship_payments SET status = \$2`).
		WithArgs("pay-missing", models.PaymentStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "pay-missing", models.PaymentStatusCancelled)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
