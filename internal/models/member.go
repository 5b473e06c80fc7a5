package models

import "time"

// Member is a foundation member who may pledge and fund scholarships.
// Role facts are term-independent; per-term pledges live on MemberCommitment.
type Member struct {
	ID                  string     `db:"id" json:"id"`
	FullName            string     `db:"full_name" json:"full_name"`
	Email               *string    `db:"email" json:"email,omitempty"`
	Phone               *string    `db:"phone" json:"phone,omitempty"`
	Role                *string    `db:"role" json:"role,omitempty"`
	Trustee             bool       `db:"trustee" json:"trustee"`
	ExecutiveBoard      bool       `db:"executive_board" json:"executive_board"`
	AuditCommittee      bool       `db:"audit_committee" json:"audit_committee"`
	ScholarshipProvider bool       `db:"scholarship_provider" json:"scholarship_provider"`
	Status              string     `db:"status" json:"status"`
	RoleStart           *time.Time `db:"role_start" json:"role_start,omitempty"`
	RoleEnd             *time.Time `db:"role_end" json:"role_end,omitempty"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// MemberFilter captures list filters for members.
type MemberFilter struct {
	Search              string
	ScholarshipProvider *bool
	Page                int
	PageSize            int
	SortBy              string
	SortOrder           string
}

// MemberCommitment is a member's pledge of scholarship slots for one term.
// Unique per (member_id, term_id). Remaining/total quantities are derived,
// never stored.
type MemberCommitment struct {
	ID           string    `db:"id" json:"id"`
	MemberID     string    `db:"member_id" json:"member_id"`
	TermID       string    `db:"term_id" json:"term_id"`
	PledgedCount int       `db:"pledged_count" json:"pledged_count"`
	GivenCount   int       `db:"given_count" json:"given_count"`
	YearlyAmount float64   `db:"yearly_amount" json:"yearly_amount"`
	AcademicYear *string   `db:"academic_year" json:"academic_year,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RemainingCount returns pledged minus realized slots.
func (c MemberCommitment) RemainingCount() int {
	return c.PledgedCount - c.GivenCount
}

// TotalYearlyAmount returns the pledge's full yearly value.
func (c MemberCommitment) TotalYearlyAmount() float64 {
	return float64(c.PledgedCount) * c.YearlyAmount
}

// TotalMonthlyAmount spreads the yearly value over the academic months.
func (c MemberCommitment) TotalMonthlyAmount(monthsPerYear int) float64 {
	if monthsPerYear <= 0 {
		return 0
	}
	return c.TotalYearlyAmount() / float64(monthsPerYear)
}
