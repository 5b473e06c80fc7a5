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

const studentTermColumns = `id, student_id, term_id, scholarship_active, graduated, monthly_amount,
	scholarship_start, scholarship_end, gpa, class_level, donor_name, department, university,
	total_received, notes, transcript_notes, cut_reason, cut_at, created_at, updated_at`

// StudentTermRepository handles the per-term student records rolled forward by
// the term transition.
type StudentTermRepository struct {
	db *sqlx.DB
}

// NewStudentTermRepository instantiates the repository.
func NewStudentTermRepository(db *sqlx.DB) *StudentTermRepository {
	return &StudentTermRepository{db: db}
}

// FindByStudentAndTerm loads the record of one student within one term.
func (r *StudentTermRepository) FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.StudentTermRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_terms WHERE student_id = $1 AND term_id = $2`, studentTermColumns)
	var record models.StudentTermRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, termID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByTerm returns every student record of a term, optionally restricted to
// active scholarship holders.
func (r *StudentTermRepository) ListByTerm(ctx context.Context, termID string, onlyActive bool) ([]models.StudentTermRecord, error) {
	base := fmt.Sprintf(`SELECT %s FROM student_terms WHERE term_id = $1`, studentTermColumns)
	if onlyActive {
		base += " AND scholarship_active = TRUE"
	}
	var records []models.StudentTermRecord
	if err := r.db.SelectContext(ctx, &records, base+" ORDER BY created_at ASC", termID); err != nil {
		return nil, fmt.Errorf("list student terms: %w", err)
	}
	return records, nil
}

// Create inserts a student's record for a term.
func (r *StudentTermRepository) Create(ctx context.Context, record *models.StudentTermRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	const query = `INSERT INTO student_terms
	(id, student_id, term_id, scholarship_active, graduated, monthly_amount, scholarship_start,
	 scholarship_end, gpa, class_level, donor_name, department, university, total_received,
	 notes, transcript_notes, cut_reason, cut_at, created_at, updated_at)
VALUES (:id, :student_id, :term_id, :scholarship_active, :graduated, :monthly_amount, :scholarship_start,
	:scholarship_end, :gpa, :class_level, :donor_name, :department, :university, :total_received,
	:notes, :transcript_notes, :cut_reason, :cut_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create student term record: %w", err)
	}
	return nil
}

// Update stores a student term record.
func (r *StudentTermRepository) Update(ctx context.Context, record *models.StudentTermRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_terms
SET scholarship_active = :scholarship_active, graduated = :graduated, monthly_amount = :monthly_amount,
    scholarship_start = :scholarship_start, scholarship_end = :scholarship_end, gpa = :gpa,
    class_level = :class_level, donor_name = :donor_name, department = :department,
    university = :university, total_received = :total_received, notes = :notes,
    transcript_notes = :transcript_notes, cut_reason = :cut_reason, cut_at = :cut_at,
    updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update student term record: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("student term record %s: no rows updated", record.ID)
	}
	return nil
}

// MarkGraduated flags the record as graduated so transitions leave it behind.
func (r *StudentTermRepository) MarkGraduated(ctx context.Context, id string) error {
	const query = `UPDATE student_terms SET graduated = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark graduated: %w", err)
	}
	return nil
}

// AddToTotalReceived bumps the cumulative disbursed amount of a student's term
// record. Negative deltas undo cancelled payments.
func (r *StudentTermRepository) AddToTotalReceived(ctx context.Context, studentID, termID string, delta float64) error {
	const query = `UPDATE student_terms SET total_received = total_received + $3, updated_at = $4
WHERE student_id = $1 AND term_id = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, termID, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("update total received: %w", err)
	}
	return nil
}

// CountByTerm returns active and cut scholar counts for one term.
func (r *StudentTermRepository) CountByTerm(ctx context.Context, termID string) (active, cut int, err error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE scholarship_active = TRUE) AS active,
	COUNT(*) FILTER (WHERE scholarship_active = FALSE AND cut_reason IS NOT NULL) AS cut
FROM student_terms WHERE term_id = $1`
	row := struct {
		Active int `db:"active"`
		Cut    int `db:"cut"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, termID); err != nil {
		return 0, 0, fmt.Errorf("count student terms: %w", err)
	}
	return row.Active, row.Cut, nil
}

// ListActiveWithClassLevel returns active records of a term at or above the
// given class level.
func (r *StudentTermRepository) ListActiveWithClassLevel(ctx context.Context, termID string, minLevel int) ([]models.StudentTermRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_terms
WHERE term_id = $1 AND scholarship_active = TRUE AND class_level >= $2
ORDER BY class_level DESC`, studentTermColumns)
	var records []models.StudentTermRecord
	if err := r.db.SelectContext(ctx, &records, query, termID, minLevel); err != nil {
		return nil, fmt.Errorf("list records by class level: %w", err)
	}
	return records, nil
}

// ListByTermAndStudents returns the term records of the given students.
func (r *StudentTermRepository) ListByTermAndStudents(ctx context.Context, termID string, studentIDs []string) ([]models.StudentTermRecord, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, 0, len(studentIDs)+1)
	args = append(args, termID)
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT %s FROM student_terms WHERE term_id = $1 AND student_id IN (%s)`,
		studentTermColumns, strings.Join(placeholders, ", "))
	var records []models.StudentTermRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list records by students: %w", err)
	}
	return records, nil
}
