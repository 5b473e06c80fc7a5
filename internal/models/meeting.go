package models

import "time"

// Meeting is a foundation meeting whose attendance feeds the cut rules.
type Meeting struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	MeetingDate time.Time `db:"meeting_date" json:"meeting_date"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MeetingAttendance marks a student present or absent on a meeting.
type MeetingAttendance struct {
	ID        string    `db:"id" json:"id"`
	MeetingID string    `db:"meeting_id" json:"meeting_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Present   bool      `db:"present" json:"present"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
