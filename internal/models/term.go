package models

import (
	"fmt"
	"time"
)

// Term models one academic/financial period of the foundation. Exactly one
// term is active at a time; activation is always deactivate-then-activate
// inside a single transaction.
type Term struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName derives the canonical "{startYear}-{endYear}" label.
func TermDisplayName(start, end time.Time) string {
	return fmt.Sprintf("%d-%d", start.Year(), end.Year())
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TermScholarshipConfig holds the per-term default scholarship amounts.
// Monthly is conventionally yearly divided by the configured number of
// academic months; both fields are stored so historical terms keep the
// values they were closed with.
type TermScholarshipConfig struct {
	ID            string    `db:"id" json:"id"`
	TermID        string    `db:"term_id" json:"term_id"`
	YearlyAmount  float64   `db:"yearly_amount" json:"yearly_amount"`
	MonthlyAmount float64   `db:"monthly_amount" json:"monthly_amount"`
	UpdatedBy     *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
