package models

import "time"

// Student is the term-independent identity of a scholarship recipient.
// Term-scoped facts live on StudentTermRecord.
type Student struct {
	ID         string     `db:"id" json:"id"`
	FullName   string     `db:"full_name" json:"full_name"`
	NationalID *string    `db:"national_id" json:"national_id,omitempty"`
	Email      *string    `db:"email" json:"email,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures list filters for students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentTermRecord carries the facts about a student that are true for one
// term only. Unique per (student_id, term_id). Rolled forward by the term
// transition for non-graduated students with the class level incremented and
// the term-scoped fields reset.
type StudentTermRecord struct {
	ID                string     `db:"id" json:"id"`
	StudentID         string     `db:"student_id" json:"student_id"`
	TermID            string     `db:"term_id" json:"term_id"`
	ScholarshipActive bool       `db:"scholarship_active" json:"scholarship_active"`
	Graduated         bool       `db:"graduated" json:"graduated"`
	MonthlyAmount     float64    `db:"monthly_amount" json:"monthly_amount"`
	ScholarshipStart  *time.Time `db:"scholarship_start" json:"scholarship_start,omitempty"`
	ScholarshipEnd    *time.Time `db:"scholarship_end" json:"scholarship_end,omitempty"`
	GPA               *float64   `db:"gpa" json:"gpa,omitempty"`
	ClassLevel        int        `db:"class_level" json:"class_level"`
	DonorName         *string    `db:"donor_name" json:"donor_name,omitempty"`
	Department        *string    `db:"department" json:"department,omitempty"`
	University        *string    `db:"university" json:"university,omitempty"`
	TotalReceived     float64    `db:"total_received" json:"total_received"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	TranscriptNotes   *string    `db:"transcript_notes" json:"transcript_notes,omitempty"`
	CutReason         *string    `db:"cut_reason" json:"cut_reason,omitempty"`
	CutAt             *time.Time `db:"cut_at" json:"cut_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
