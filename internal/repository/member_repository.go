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

const memberColumns = `id, full_name, email, phone, role, trustee, executive_board, audit_committee,
	scholarship_provider, status, role_start, role_end, notes, created_at, updated_at`

// MemberRepository handles persistence for foundation members.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository instantiates a member repository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// List returns members matching the filter with a total count.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error) {
	base := "FROM members WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ScholarshipProvider != nil {
		conditions = append(conditions, fmt.Sprintf("scholarship_provider = $%d", len(args)+1))
		args = append(args, *filter.ScholarshipProvider)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", memberColumns, base, sortBy, order, size, offset)

	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	return members, total, nil
}

// FindByID loads a member by identifier.
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*models.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE id = $1`, memberColumns)
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// Create inserts a new member.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	const query = `INSERT INTO members
	(id, full_name, email, phone, role, trustee, executive_board, audit_committee,
	 scholarship_provider, status, role_start, role_end, notes, created_at, updated_at)
VALUES (:id, :full_name, :email, :phone, :role, :trustee, :executive_board, :audit_committee,
	:scholarship_provider, :status, :role_start, :role_end, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// Update stores a member's fields.
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE members
SET full_name = :full_name, email = :email, phone = :phone, role = :role,
    trustee = :trustee, executive_board = :executive_board, audit_committee = :audit_committee,
    scholarship_provider = :scholarship_provider, status = :status,
    role_start = :role_start, role_end = :role_end, notes = :notes, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, member)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("member %s: no rows updated", member.ID)
	}
	return nil
}

// Delete removes a member row.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
