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

const paymentColumns = `id, commitment_id, student_id, term_id, amount, payment_date, type, method,
	reference_no, status, notes, created_at, updated_at`

// PaymentRepository handles persistence for scholarship disbursements.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository instantiates a payment repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments matching the filter with a total count.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.ScholarshipPayment, int, error) {
	base := "FROM scholarship_payments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CommitmentID != "" {
		conditions = append(conditions, fmt.Sprintf("commitment_id = $%d", len(args)+1))
		args = append(args, filter.CommitmentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"payment_date": true,
		"amount":       true,
		"created_at":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "payment_date"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", paymentColumns, base, sortBy, order, size, offset)

	var payments []models.ScholarshipPayment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	return payments, total, nil
}

// FindByID loads a payment by identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.ScholarshipPayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM scholarship_payments WHERE id = $1`, paymentColumns)
	var payment models.ScholarshipPayment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.ScholarshipPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const query = `INSERT INTO scholarship_payments
	(id, commitment_id, student_id, term_id, amount, payment_date, type, method, reference_no, status, notes, created_at, updated_at)
VALUES (:id, :commitment_id, :student_id, :term_id, :amount, :payment_date, :type, :method, :reference_no, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// UpdateStatus changes the lifecycle status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	const query = `UPDATE scholarship_payments SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("payment %s: no rows updated", id)
	}
	return nil
}

// Delete removes a payment row permanently. Reserved for corrections;
// cancellation is a status change.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scholarship_payments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// TotalPaidByTerm sums completed payment amounts of a term.
func (r *PaymentRepository) TotalPaidByTerm(ctx context.Context, termID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM scholarship_payments WHERE term_id = $1 AND status = $2`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, termID, models.PaymentStatusCompleted); err != nil {
		return 0, fmt.Errorf("sum term payments: %w", err)
	}
	return total, nil
}
