package models

import "time"

// MonthlyScholarshipStatus is one row of the monthly ledger: the unit of
// truth for "was this student funded in month M of term T". Unique per
// (student_id, term_id, month, year); the year disambiguates because a term
// spans a calendar-year boundary. Rows are toggled, never deleted.
type MonthlyScholarshipStatus struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	Month     int       `db:"month" json:"month"`
	Year      int       `db:"year" json:"year"`
	IsPaid    bool      `db:"is_paid" json:"is_paid"`
	CutReason *string   `db:"cut_reason" json:"cut_reason,omitempty"`
	Amount    float64   `db:"amount" json:"amount"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MonthYearKey returns the row's calendar position.
func (m MonthlyScholarshipStatus) MonthYearKey() MonthYear {
	return MonthYear{Month: time.Month(m.Month), Year: m.Year}
}

// IsCut reports whether the month was explicitly cut.
func (m MonthlyScholarshipStatus) IsCut() bool {
	return !m.IsPaid && m.CutReason != nil
}
