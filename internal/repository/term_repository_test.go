package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func termRows(id string, startYear int, active bool) *sqlmock.Rows {
	start := time.Date(startYear, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(startYear+1, 6, 30, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "is_active", "description", "created_at", "updated_at"}).
		AddRow(id, models.TermDisplayName(start, end), start, end, active, nil, time.Now(), time.Now())
}

func TestTermRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM terms WHERE is_active = TRUE LIMIT 1`).
		WillReturnRows(termRows("term-1", 2025, true))

	term, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	require.Equal(t, "term-1", term.ID)
	require.True(t, term.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryOpenNewTermRunsFullTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM terms WHERE is_active = TRUE LIMIT 1`).
		WillReturnRows(termRows("term-old", 2024, true))
	mock.ExpectExec(`UPDATE terms SET is_active = FALSE`).
		WithArgs("term-old", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO terms`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO term_scholarship_configs`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "term-old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO student_terms`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "term-old").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	term := &models.Term{
		Name:      "2025-2026",
		StartDate: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.OpenNewTerm(context.Background(), term))
	require.NotEmpty(t, term.ID)
	require.True(t, term.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryOpenFirstTermSkipsRollForward(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM terms WHERE is_active = TRUE LIMIT 1`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO terms`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	term := &models.Term{
		Name:      "2025-2026",
		StartDate: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.OpenNewTerm(context.Background(), term))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryExistsByStartDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT 1 FROM terms WHERE start_date::date = \$1::date LIMIT 1`).
		WithArgs(start).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByStartDate(context.Background(), start, "")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(`SELECT 1 FROM terms WHERE start_date::date = \$1::date LIMIT 1`).
		WithArgs(start).
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByStartDate(context.Background(), start, "")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetActiveDeactivatesOthers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE terms SET is_active = FALSE, updated_at = \$1 WHERE is_active = TRUE AND id <> \$2`).
		WithArgs(sqlmock.AnyArg(), "term-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE terms SET is_active = TRUE`).
		WithArgs("term-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetActive(context.Background(), "term-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}
