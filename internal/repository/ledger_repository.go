package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

const ledgerColumns = `id, student_id, term_id, month, year, is_paid, cut_reason, amount, updated_by, created_at, updated_at`

// LedgerRepository persists the monthly scholarship status rows. Rows are
// only ever inserted and toggled, never deleted.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs a ledger repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// FindByID loads a single ledger row.
func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*models.MonthlyScholarshipStatus, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_scholarship_statuses WHERE id = $1`, ledgerColumns)
	var row models.MonthlyScholarshipStatus
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByStudentAndTerm returns the student's rows for a term in academic
// order (the calendar order happens to coincide: Oct-Dec, then Jan-May).
func (r *LedgerRepository) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.MonthlyScholarshipStatus, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_scholarship_statuses WHERE student_id = $1 AND term_id = $2 ORDER BY year ASC, month ASC`, ledgerColumns)
	var rows []models.MonthlyScholarshipStatus
	if err := r.db.SelectContext(ctx, &rows, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list ledger rows: %w", err)
	}
	return rows, nil
}

// ListByTerm returns every ledger row of a term joined with student names,
// feeding the aggregate reports.
func (r *LedgerRepository) ListByTerm(ctx context.Context, termID string) ([]models.LedgerTermRow, error) {
	const query = `SELECT l.student_id, s.full_name AS student_name, l.month, l.year, l.is_paid, l.cut_reason, l.amount
FROM student_scholarship_statuses l
JOIN students s ON s.id = l.student_id
WHERE l.term_id = $1
ORDER BY s.full_name ASC, l.year ASC, l.month ASC`
	var rows []models.LedgerTermRow
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list term ledger: %w", err)
	}
	return rows, nil
}

// InsertBatch inserts the provided rows inside one transaction.
func (r *LedgerRepository) InsertBatch(ctx context.Context, rows []models.MonthlyScholarshipStatus) (err error) {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger insert tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO student_scholarship_statuses (id, student_id, term_id, month, year, is_paid, cut_reason, amount, updated_by, created_at, updated_at)
VALUES (:id, :student_id, :term_id, :month, :year, :is_paid, :cut_reason, :amount, :updated_by, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		rows[i].CreatedAt = now
		rows[i].UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, query, rows[i]); err != nil {
			return fmt.Errorf("insert ledger row %d/%d: %w", rows[i].Month, rows[i].Year, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger insert tx: %w", err)
	}
	return nil
}

// UpdateStatus toggles one row. Marking a row paid clears the cut reason.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, id string, isPaid bool, cutReason, updatedBy *string) error {
	if isPaid {
		cutReason = nil
	}
	const query = `UPDATE student_scholarship_statuses SET is_paid = $2, cut_reason = $3, updated_by = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, isPaid, cutReason, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update ledger status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("ledger row %s: no rows updated", id)
	}
	return nil
}

// MarkStalePaid flips unpaid rows with no cut reason whose month is at or
// before the given month to paid. This is the self-heal applied on ledger
// initialization.
func (r *LedgerRepository) MarkStalePaid(ctx context.Context, studentID, termID string, upTo models.MonthYear) error {
	const query = `UPDATE student_scholarship_statuses
SET is_paid = TRUE, updated_at = $5
WHERE student_id = $1 AND term_id = $2 AND is_paid = FALSE AND cut_reason IS NULL
  AND (year < $3 OR (year = $3 AND month <= $4))`
	if _, err := r.db.ExecContext(ctx, query, studentID, termID, upTo.Year, int(upTo.Month), time.Now().UTC()); err != nil {
		return fmt.Errorf("mark stale rows paid: %w", err)
	}
	return nil
}

// CutMonths marks the given months of one student's term ledger as cut.
func (r *LedgerRepository) CutMonths(ctx context.Context, studentID, termID string, months []models.MonthYear, reason string, updatedBy *string) error {
	if len(months) == 0 {
		return nil
	}
	conditions := make([]string, 0, len(months))
	args := []interface{}{studentID, termID, reason, updatedBy, time.Now().UTC()}
	for _, my := range months {
		conditions = append(conditions, fmt.Sprintf("(month = $%d AND year = $%d)", len(args)+1, len(args)+2))
		args = append(args, int(my.Month), my.Year)
	}
	query := fmt.Sprintf(`UPDATE student_scholarship_statuses
SET is_paid = FALSE, cut_reason = $3, updated_by = $4, updated_at = $5
WHERE student_id = $1 AND term_id = $2 AND (%s)`, strings.Join(conditions, " OR "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("cut ledger months: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("ledger %s/%s: no months cut", studentID, termID)
	}
	return nil
}
