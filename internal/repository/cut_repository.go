package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

// CutRepository applies scholarship cuts and reinstatements atomically: the
// student's term record and the affected ledger months always change
// together.
type CutRepository struct {
	db *sqlx.DB
}

// NewCutRepository instantiates a cut repository.
func NewCutRepository(db *sqlx.DB) *CutRepository {
	return &CutRepository{db: db}
}

// ApplyCut deactivates the student's scholarship for the term and marks the
// given ledger months cut, all in one transaction.
func (r *CutRepository) ApplyCut(ctx context.Context, studentID, termID, reason string, months []models.MonthYear, updatedBy *string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cut tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const deactivate = `UPDATE student_terms
SET scholarship_active = FALSE, cut_reason = $3, cut_at = $4, updated_at = $4
WHERE student_id = $1 AND term_id = $2`
	if _, err = tx.ExecContext(ctx, deactivate, studentID, termID, reason, now); err != nil {
		return fmt.Errorf("deactivate scholarship: %w", err)
	}

	if len(months) > 0 {
		conditions := make([]string, 0, len(months))
		args := []interface{}{studentID, termID, reason, updatedBy, now}
		for _, my := range months {
			conditions = append(conditions, fmt.Sprintf("(month = $%d AND year = $%d)", len(args)+1, len(args)+2))
			args = append(args, int(my.Month), my.Year)
		}
		query := fmt.Sprintf(`UPDATE student_scholarship_statuses
SET is_paid = FALSE, cut_reason = $3, updated_by = $4, updated_at = $5
WHERE student_id = $1 AND term_id = $2 AND (%s)`, strings.Join(conditions, " OR "))
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("cut ledger months: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit cut tx: %w", err)
	}
	return nil
}

// Reinstate reactivates the student's scholarship for the term, clears the
// cut marker and restores the given ledger months to paid, all in one
// transaction.
func (r *CutRepository) Reinstate(ctx context.Context, studentID, termID string, months []models.MonthYear, updatedBy *string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reinstate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const activate = `UPDATE student_terms
SET scholarship_active = TRUE, cut_reason = NULL, cut_at = NULL, updated_at = $3
WHERE student_id = $1 AND term_id = $2`
	if _, err = tx.ExecContext(ctx, activate, studentID, termID, now); err != nil {
		return fmt.Errorf("reactivate scholarship: %w", err)
	}

	if len(months) > 0 {
		conditions := make([]string, 0, len(months))
		args := []interface{}{studentID, termID, updatedBy, now}
		for _, my := range months {
			conditions = append(conditions, fmt.Sprintf("(month = $%d AND year = $%d)", len(args)+1, len(args)+2))
			args = append(args, int(my.Month), my.Year)
		}
		query := fmt.Sprintf(`UPDATE student_scholarship_statuses
SET is_paid = TRUE, cut_reason = NULL, updated_by = $3, updated_at = $4
WHERE student_id = $1 AND term_id = $2 AND (%s)`, strings.Join(conditions, " OR "))
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("restore ledger months: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reinstate tx: %w", err)
	}
	return nil
}
