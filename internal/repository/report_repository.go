package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

const reportColumns = `id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ReportRepository persists background report job metadata.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository instantiates a report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a queued job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}

	const query = `INSERT INTO report_jobs (id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID loads a job by identifier.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_jobs WHERE id = $1`, reportColumns)
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByUser returns the jobs created by one user, newest first.
func (r *ReportRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM report_jobs WHERE created_by = $1 ORDER BY created_at DESC LIMIT %d`, reportColumns, limit)
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// UpdateProgress stores the progress and status of a running job.
func (r *ReportRepository) UpdateProgress(ctx context.Context, id string, status models.ReportStatus, progress int) error {
	const query = `UPDATE report_jobs SET status = $2, progress = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, progress); err != nil {
		return fmt.Errorf("update report progress: %w", err)
	}
	return nil
}

// MarkFinished records a successful completion with its download URL.
func (r *ReportRepository) MarkFinished(ctx context.Context, id, resultURL string) error {
	const query = `UPDATE report_jobs SET status = $2, progress = 100, result_url = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportStatusFinished, resultURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("finish report job: %w", err)
	}
	return nil
}

// MarkFailed records a failure with its message.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE report_jobs SET status = $2, error_message = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportStatusFailed, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("fail report job: %w", err)
	}
	return nil
}
