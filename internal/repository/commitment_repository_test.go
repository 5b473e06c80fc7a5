package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestCommitmentRepositoryFundingTotals(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCommitmentRepository(db)

	mock.ExpectQuery(`COUNT\(DISTINCT member_id\).+FROM member_commitments WHERE term_id = \$1`).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"donor_count", "pledged_count", "pledged_yearly"}).
			AddRow(4, 9, 324000.0))

	donors, pledged, yearly, err := repo.FundingTotals(context.Background(), "term-1")
	require.NoError(t, err)
	require.Equal(t, 4, donors)
	require.Equal(t, 9, pledged)
	require.Equal(t, 324000.0, yearly)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitmentRepositoryExistsForMemberAndTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCommitmentRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM member_commitments WHERE member_id = \$1 AND term_id = \$2 LIMIT 1`).
		WithArgs("mem-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsForMemberAndTerm(context.Background(), "mem-1", "term-1", "")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(`SELECT 1 FROM member_commitments WHERE member_id = \$1 AND term_id = \$2 AND id <> \$3 LIMIT 1`).
		WithArgs("mem-1", "term-1", "cmt-1").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsForMemberAndTerm(context.Background(), "mem-1", "term-1", "cmt-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitmentRepositoryAdjustGivenCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCommitmentRepository(db)

	mock.ExpectExec(`UPDATE member_commitments SET given_count = given_count \+ \$2`).
		WithArgs("cmt-1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AdjustGivenCount(context.Background(), "cmt-1", -1))
	require.NoError(t, mock.ExpectationsWereMet())
}
