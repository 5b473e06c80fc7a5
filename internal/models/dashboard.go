package models

import "time"

// TermFundingSummary aggregates the funding picture of one term for the
// dashboard and reporting collaborators.
type TermFundingSummary struct {
	TermID             string    `json:"term_id"`
	DonorCount         int       `json:"donor_count"`
	TotalPledgedCount  int       `json:"total_pledged_count"`
	TotalPledgedYearly float64   `json:"total_pledged_yearly"`
	TotalPaid          float64   `json:"total_paid"`
	ActiveScholars     int       `json:"active_scholars"`
	CutScholars        int       `json:"cut_scholars"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// LedgerTermRow is one reporting row of the term ledger: a student's monthly
// pay/cut statuses flattened for export.
type LedgerTermRow struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Month       int     `db:"month" json:"month"`
	Year        int     `db:"year" json:"year"`
	IsPaid      bool    `db:"is_paid" json:"is_paid"`
	CutReason   *string `db:"cut_reason" json:"cut_reason,omitempty"`
	Amount      float64 `db:"amount" json:"amount"`
}
