package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

const termColumns = `id, name, start_date, end_date, is_active, description, created_at, updated_at`

// TermRepository handles persistence for academic terms, including the
// atomic close-current/open-next transition.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// List returns terms matching provided filters, most recent start first.
func (r *TermRepository) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	base := "FROM terms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"start_date": true,
		"end_date":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", termColumns, base, sortBy, order, size, offset)

	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list terms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}

	return terms, total, nil
}

// FindByID loads a term by identifier.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf(`SELECT %s FROM terms WHERE id = $1`, termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindActive returns the currently active term.
func (r *TermRepository) FindActive(ctx context.Context) (*models.Term, error) {
	query := fmt.Sprintf(`SELECT %s FROM terms WHERE is_active = TRUE LIMIT 1`, termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindNextAfter returns the earliest term whose start date is after the given
// date, or sql.ErrNoRows when none exists yet.
func (r *TermRepository) FindNextAfter(ctx context.Context, after time.Time) (*models.Term, error) {
	query := fmt.Sprintf(`SELECT %s FROM terms WHERE start_date > $1 ORDER BY start_date ASC LIMIT 1`, termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, after); err != nil {
		return nil, err
	}
	return &term, nil
}

// ExistsByStartDate checks whether a term already starts on the same calendar
// date.
func (r *TermRepository) ExistsByStartDate(ctx context.Context, start time.Time, excludeID string) (bool, error) {
	base := "SELECT 1 FROM terms WHERE start_date::date = $1::date"
	args := []interface{}{start}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check term start date: %w", err)
	}
	return true, nil
}

// OpenNewTerm performs the term transition in a single transaction: the
// current active term is deactivated, the new term inserted as active, the
// scholarship config copied forward, and the student term records of every
// non-graduated student rolled into the new term with the class level
// incremented and the term-scoped fields reset. Graduated students are left
// behind. Any failure rolls the whole transition back.
func (r *TermRepository) OpenNewTerm(ctx context.Context, term *models.Term) (err error) {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	term.CreatedAt = now
	term.UpdatedAt = now
	term.IsActive = true

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin term transition tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var prev models.Term
	hasPrev := true
	if err = tx.GetContext(ctx, &prev, fmt.Sprintf(`SELECT %s FROM terms WHERE is_active = TRUE LIMIT 1`, termColumns)); err != nil {
		if err != sql.ErrNoRows {
			return fmt.Errorf("load active term: %w", err)
		}
		hasPrev = false
		err = nil
	}

	if hasPrev {
		if _, err = tx.ExecContext(ctx, `UPDATE terms SET is_active = FALSE, updated_at = $2 WHERE id = $1`, prev.ID, now); err != nil {
			return fmt.Errorf("deactivate term %s: %w", prev.ID, err)
		}
	}

	const insertTerm = `INSERT INTO terms (id, name, start_date, end_date, is_active, description, created_at, updated_at)
VALUES (:id, :name, :start_date, :end_date, :is_active, :description, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertTerm, term); err != nil {
		return fmt.Errorf("insert term: %w", err)
	}

	if hasPrev {
		const copyConfig = `INSERT INTO term_scholarship_configs (id, term_id, yearly_amount, monthly_amount, updated_by, created_at, updated_at)
SELECT $1, $2, yearly_amount, monthly_amount, updated_by, $3, $3
FROM term_scholarship_configs WHERE term_id = $4`
		if _, err = tx.ExecContext(ctx, copyConfig, uuid.NewString(), term.ID, now, prev.ID); err != nil {
			return fmt.Errorf("copy term config: %w", err)
		}

		const cloneRecords = `INSERT INTO student_terms
	(id, student_id, term_id, scholarship_active, graduated, monthly_amount, scholarship_start,
	 scholarship_end, gpa, class_level, donor_name, department, university, total_received,
	 notes, transcript_notes, cut_reason, cut_at, created_at, updated_at)
SELECT gen_random_uuid(), student_id, $1, scholarship_active, FALSE, monthly_amount, $2,
	NULL, NULL, class_level + 1, donor_name, department, university, total_received,
	NULL, NULL, NULL, NULL, $3, $3
FROM student_terms WHERE term_id = $4 AND graduated = FALSE`
		if _, err = tx.ExecContext(ctx, cloneRecords, term.ID, term.StartDate, now, prev.ID); err != nil {
			return fmt.Errorf("roll student records forward: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit term transition tx: %w", err)
	}
	return nil
}

// SetActive marks the provided term as active and deactivates the rest.
func (r *TermRepository) SetActive(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set active tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE terms SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("deactivate other terms: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE terms SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("activate term: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set active tx: %w", err)
	}
	return nil
}

// Delete removes a term and its dependent configuration rows. Callers are
// responsible for the business guards (active term, payment references).
func (r *TermRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete term tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM term_scholarship_configs WHERE term_id = $1`, id); err != nil {
		return fmt.Errorf("delete term configs: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM terms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete term: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete term tx: %w", err)
	}
	return nil
}

// CountPayments returns the number of payment rows referencing the term.
func (r *TermRepository) CountPayments(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM scholarship_payments WHERE term_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count term payments: %w", err)
	}
	return count, nil
}
