package models

import "time"

// PaymentStatus enumerates the lifecycle of a disbursement record.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Valid reports whether the status is one of the known values.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusPending, PaymentStatusCancelled, PaymentStatusFailed:
		return true
	}
	return false
}

// ScholarshipPayment records an actual disbursement against a commitment, to
// a student, optionally scoped to a term. Cancellation is a status change;
// hard deletion exists only for corrections.
type ScholarshipPayment struct {
	ID           string        `db:"id" json:"id"`
	CommitmentID string        `db:"commitment_id" json:"commitment_id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	TermID       *string       `db:"term_id" json:"term_id,omitempty"`
	Amount       float64       `db:"amount" json:"amount"`
	PaymentDate  time.Time     `db:"payment_date" json:"payment_date"`
	Type         *string       `db:"type" json:"type,omitempty"`
	Method       *string       `db:"method" json:"method,omitempty"`
	ReferenceNo  *string       `db:"reference_no" json:"reference_no,omitempty"`
	Status       PaymentStatus `db:"status" json:"status"`
	Notes        *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// PaymentFilter captures list filters for payments.
type PaymentFilter struct {
	TermID       string
	StudentID    string
	CommitmentID string
	Status       *PaymentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
