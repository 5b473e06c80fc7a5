package service

import (
	"context"
	"database/sql"
	"fmt"
	"path"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
	"github.com/noah-isme/burs-api/pkg/jobs"
	"github.com/noah-isme/burs-api/pkg/storage"
)

type reportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	UpdateProgress(ctx context.Context, id string, status models.ReportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string) error
	MarkFailed(ctx context.Context, id, message string) error
}

type reportRenderer interface {
	RenderTermLedger(ctx context.Context, termID string, format models.ReportFormat) ([]byte, string, error)
	RenderFundingSummary(ctx context.Context, termID string, format models.ReportFormat) ([]byte, string, error)
}

// CreateReportRequest queues an asynchronous report.
type CreateReportRequest struct {
	Type   models.ReportType   `json:"type" validate:"required,oneof=ledger funding"`
	TermID string              `json:"term_id" validate:"required"`
	Format models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportService generates reports in the background: requests are persisted,
// queued, rendered by a worker and exposed through signed download URLs.
type ReportService struct {
	repo     reportRepository
	renderer reportRenderer
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner

	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService creates the report service and its worker queue.
func NewReportService(repo reportRepository, renderer reportRenderer, store *storage.LocalStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, workers, retries int) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ReportService{
		repo:      repo,
		renderer:  renderer,
		store:     store,
		signer:    signer,
		validator: validate,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Enqueue persists and queues a report job.
func (s *ReportService) Enqueue(ctx context.Context, req CreateReportRequest, userID string) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	job := &models.ReportJob{
		Type:      req.Type,
		Params:    models.ReportJobParams{TermID: req.TermID, Format: req.Format},
		Status:    models.ReportStatusQueued,
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue unavailable"); markErr != nil {
			s.logger.Warn("failed to mark queued job failed", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report job")
	}

	return job, nil
}

// Get returns a report job visible to its creator.
func (s *ReportService) Get(ctx context.Context, id, userID string) (*models.ReportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CreatedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another user")
	}
	return job, nil
}

// ListMine returns the caller's recent report jobs.
func (s *ReportService) ListMine(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	reports, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return reports, nil
}

// ResolveDownload validates a signed token and returns the stored file path.
func (s *ReportService) ResolveDownload(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return s.store.Path(relPath), nil
}

func (s *ReportService) process(ctx context.Context, qj jobs.Job) error {
	job, err := s.repo.FindByID(ctx, qj.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", qj.ID, err)
	}

	if err := s.repo.UpdateProgress(ctx, job.ID, models.ReportStatusProcessing, 10); err != nil {
		s.logger.Warn("failed to mark report processing", zap.Error(err))
	}

	var data []byte
	var filename string
	switch job.Type {
	case models.ReportTypeLedger:
		data, filename, err = s.renderer.RenderTermLedger(ctx, job.Params.TermID, job.Params.Format)
	case models.ReportTypeFunding:
		data, filename, err = s.renderer.RenderFundingSummary(ctx, job.Params.TermID, job.Params.Format)
	default:
		err = fmt.Errorf("unknown report type %q", job.Type)
	}
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.logger.Warn("failed to mark report failed", zap.Error(markErr))
		}
		return err
	}

	relPath := path.Join("reports", job.ID, filename)
	if _, err := s.store.Save(relPath, data); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "failed to store report file"); markErr != nil {
			s.logger.Warn("failed to mark report failed", zap.Error(markErr))
		}
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "failed to sign download url"); markErr != nil {
			s.logger.Warn("failed to mark report failed", zap.Error(markErr))
		}
		return err
	}

	resultURL := fmt.Sprintf("/reports/download?token=%s", token)
	if err := s.repo.MarkFinished(ctx, job.ID, resultURL); err != nil {
		return fmt.Errorf("finish report job %s: %w", job.ID, err)
	}

	s.logger.Info("report ready",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Time("url_expires", expiresAt))
	return nil
}
