package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

const configColumns = `id, term_id, yearly_amount, monthly_amount, updated_by, created_at, updated_at`

// ScholarshipConfigRepository persists per-term scholarship amount defaults.
type ScholarshipConfigRepository struct {
	db *sqlx.DB
}

// NewScholarshipConfigRepository constructs the repository.
func NewScholarshipConfigRepository(db *sqlx.DB) *ScholarshipConfigRepository {
	return &ScholarshipConfigRepository{db: db}
}

// FindByTerm fetches the config row of a term.
func (r *ScholarshipConfigRepository) FindByTerm(ctx context.Context, termID string) (*models.TermScholarshipConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM term_scholarship_configs WHERE term_id = $1`, configColumns)
	var cfg models.TermScholarshipConfig
	if err := r.db.GetContext(ctx, &cfg, query, termID); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Create inserts a new config row for a term.
func (r *ScholarshipConfigRepository) Create(ctx context.Context, cfg *models.TermScholarshipConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	const query = `INSERT INTO term_scholarship_configs (id, term_id, yearly_amount, monthly_amount, updated_by, created_at, updated_at)
VALUES (:id, :term_id, :yearly_amount, :monthly_amount, :updated_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("create term config: %w", err)
	}
	return nil
}

// UpdateAmounts stores both amounts, stamping the updater and timestamp.
func (r *ScholarshipConfigRepository) UpdateAmounts(ctx context.Context, termID string, yearly, monthly float64, updatedBy *string) error {
	const query = `UPDATE term_scholarship_configs
SET yearly_amount = $2, monthly_amount = $3, updated_by = $4, updated_at = $5
WHERE term_id = $1`
	if _, err := r.db.ExecContext(ctx, query, termID, yearly, monthly, updatedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("update term config amounts: %w", err)
	}
	return nil
}
