package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

const commitmentColumns = `id, member_id, term_id, pledged_count, given_count, yearly_amount,
	academic_year, notes, created_at, updated_at`

// CommitmentRepository handles persistence for per-term member pledges.
type CommitmentRepository struct {
	db *sqlx.DB
}

// NewCommitmentRepository instantiates a commitment repository.
func NewCommitmentRepository(db *sqlx.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

// ListByTerm returns every commitment of a term.
func (r *CommitmentRepository) ListByTerm(ctx context.Context, termID string) ([]models.MemberCommitment, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_commitments WHERE term_id = $1 ORDER BY created_at ASC`, commitmentColumns)
	var commitments []models.MemberCommitment
	if err := r.db.SelectContext(ctx, &commitments, query, termID); err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	return commitments, nil
}

// ListByMember returns a member's commitments across terms, newest first.
func (r *CommitmentRepository) ListByMember(ctx context.Context, memberID string) ([]models.MemberCommitment, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_commitments WHERE member_id = $1 ORDER BY created_at DESC`, commitmentColumns)
	var commitments []models.MemberCommitment
	if err := r.db.SelectContext(ctx, &commitments, query, memberID); err != nil {
		return nil, fmt.Errorf("list member commitments: %w", err)
	}
	return commitments, nil
}

// FindByID loads a commitment by identifier.
func (r *CommitmentRepository) FindByID(ctx context.Context, id string) (*models.MemberCommitment, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_commitments WHERE id = $1`, commitmentColumns)
	var commitment models.MemberCommitment
	if err := r.db.GetContext(ctx, &commitment, query, id); err != nil {
		return nil, err
	}
	return &commitment, nil
}

// ExistsForMemberAndTerm reports whether the member already pledged for the
// term. One commitment per member per term.
func (r *CommitmentRepository) ExistsForMemberAndTerm(ctx context.Context, memberID, termID, excludeID string) (bool, error) {
	base := "SELECT 1 FROM member_commitments WHERE member_id = $1 AND term_id = $2"
	args := []interface{}{memberID, termID}
	if excludeID != "" {
		base += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check commitment uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new commitment.
func (r *CommitmentRepository) Create(ctx context.Context, commitment *models.MemberCommitment) error {
	if commitment.ID == "" {
		commitment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	commitment.CreatedAt = now
	commitment.UpdatedAt = now

	const query = `INSERT INTO member_commitments
	(id, member_id, term_id, pledged_count, given_count, yearly_amount, academic_year, notes, created_at, updated_at)
VALUES (:id, :member_id, :term_id, :pledged_count, :given_count, :yearly_amount, :academic_year, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, commitment); err != nil {
		return fmt.Errorf("create commitment: %w", err)
	}
	return nil
}

// Update stores a commitment's fields.
func (r *CommitmentRepository) Update(ctx context.Context, commitment *models.MemberCommitment) error {
	commitment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE member_commitments
SET pledged_count = :pledged_count, given_count = :given_count, yearly_amount = :yearly_amount,
    academic_year = :academic_year, notes = :notes, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, commitment)
	if err != nil {
		return fmt.Errorf("update commitment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("commitment %s: no rows updated", commitment.ID)
	}
	return nil
}

// Delete removes a commitment row.
func (r *CommitmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM member_commitments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete commitment: %w", err)
	}
	return nil
}

// AdjustGivenCount bumps the realized slot count of a commitment.
func (r *CommitmentRepository) AdjustGivenCount(ctx context.Context, id string, delta int) error {
	const query = `UPDATE member_commitments SET given_count = given_count + $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("adjust given count: %w", err)
	}
	return nil
}

// FundingTotals aggregates the pledge side of a term's funding picture.
func (r *CommitmentRepository) FundingTotals(ctx context.Context, termID string) (donorCount, pledgedCount int, pledgedYearly float64, err error) {
	const query = `SELECT
	COUNT(DISTINCT member_id) AS donor_count,
	COALESCE(SUM(pledged_count), 0) AS pledged_count,
	COALESCE(SUM(pledged_count * yearly_amount), 0) AS pledged_yearly
FROM member_commitments WHERE term_id = $1`
	row := struct {
		DonorCount    int     `db:"donor_count"`
		PledgedCount  int     `db:"pledged_count"`
		PledgedYearly float64 `db:"pledged_yearly"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, termID); err != nil {
		return 0, 0, 0, fmt.Errorf("aggregate commitment totals: %w", err)
	}
	return row.DonorCount, row.PledgedCount, row.PledgedYearly, nil
}
