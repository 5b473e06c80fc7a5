package models

import "time"

// Transcript is an uploaded grade report for a student. The cut rule engine
// only ever looks at the latest transcript per student.
type Transcript struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	TermID     *string   `db:"term_id" json:"term_id,omitempty"`
	GPA        float64   `db:"gpa" json:"gpa"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}
