package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
)

func TestLedgerRepositoryInsertBatchAssignsIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	rows := []models.MonthlyScholarshipStatus{
		{StudentID: "stu-1", TermID: "term-1", Month: 10, Year: 2025, IsPaid: true, Amount: 4500},
		{StudentID: "stu-1", TermID: "term-1", Month: 11, Year: 2025, IsPaid: true, Amount: 4500},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO student_scholarship_statuses`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO student_scholarship_statuses`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertBatch(context.Background(), rows))
	require.NotEmpty(t, rows[0].ID)
	require.NotEmpty(t, rows[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryInsertBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryUpdateStatusClearsReasonWhenPaid(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	reason := "stale"
	mock.ExpectExec(`UPDATE student_scholarship_statuses SET is_paid = \$2, cut_reason = \$3`).
		WithArgs("row-1", true, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// The reason passed by the caller is discarded on the paid path.
	require.NoError(t, repo.UpdateStatus(context.Background(), "row-1", true, &reason, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryUpdateStatusUnknownRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectExec(`UPDATE student_scholarship_statuses`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "row-missing", false, strPtr("absent"), nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryMarkStalePaidBoundsWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectExec(`UPDATE student_scholarship_statuses\s+SET is_paid = TRUE`).
		WithArgs("stu-1", "term-1", 2025, 11, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	upTo := models.MonthYear{Month: time.November, Year: 2025}
	require.NoError(t, repo.MarkStalePaid(context.Background(), "stu-1", "term-1", upTo))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryCutMonthsBuildsOneStatement(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	months := []models.MonthYear{
		{Month: time.January, Year: 2026},
		{Month: time.February, Year: 2026},
	}

	mock.ExpectExec(`UPDATE student_scholarship_statuses\s+SET is_paid = FALSE, cut_reason = \$3`).
		WithArgs("stu-1", "term-1", "GPA below minimum", nil, sqlmock.AnyArg(), 1, 2026, 2, 2026).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.CutMonths(context.Background(), "stu-1", "term-1", months, "GPA below minimum", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryCutMonthsUnknownRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectExec(`UPDATE student_scholarship_statuses\s+SET is_paid = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	months := []models.MonthYear{{Month: time.November, Year: 2026}}
	err := repo.CutMonths(context.Background(), "stu-1", "term-1", months, "absent", nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryCutMonthsEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	require.NoError(t, repo.CutMonths(context.Background(), "stu-1", "term-1", nil, "reason", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
