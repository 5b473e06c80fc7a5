package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/burs-api/internal/models"
)

const transcriptColumns = `id, student_id, term_id, gpa, notes, uploaded_at`

// TranscriptRepository handles uploaded grade reports.
type TranscriptRepository struct {
	db *sqlx.DB
}

// NewTranscriptRepository instantiates a transcript repository.
func NewTranscriptRepository(db *sqlx.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Create inserts a transcript record.
func (r *TranscriptRepository) Create(ctx context.Context, transcript *models.Transcript) error {
	if transcript.ID == "" {
		transcript.ID = uuid.NewString()
	}
	if transcript.UploadedAt.IsZero() {
		transcript.UploadedAt = time.Now().UTC()
	}

	const query = `INSERT INTO transcripts (id, student_id, term_id, gpa, notes, uploaded_at)
VALUES (:id, :student_id, :term_id, :gpa, :notes, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, transcript); err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	return nil
}

// ListByStudent returns a student's transcripts, newest first.
func (r *TranscriptRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Transcript, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcripts WHERE student_id = $1 ORDER BY uploaded_at DESC`, transcriptColumns)
	var transcripts []models.Transcript
	if err := r.db.SelectContext(ctx, &transcripts, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	return transcripts, nil
}

// FindLatestByStudent returns the most recently uploaded transcript of a
// student, or sql.ErrNoRows when none exists.
func (r *TranscriptRepository) FindLatestByStudent(ctx context.Context, studentID string) (*models.Transcript, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcripts WHERE student_id = $1 ORDER BY uploaded_at DESC LIMIT 1`, transcriptColumns)
	var transcript models.Transcript
	if err := r.db.GetContext(ctx, &transcript, query, studentID); err != nil {
		return nil, err
	}
	return &transcript, nil
}

// LatestByTerm returns the latest transcript per student within a term.
func (r *TranscriptRepository) LatestByTerm(ctx context.Context, termID string) ([]models.Transcript, error) {
	const query = `SELECT DISTINCT ON (student_id) id, student_id, term_id, gpa, notes, uploaded_at
FROM transcripts WHERE term_id = $1
ORDER BY student_id, uploaded_at DESC`
	var transcripts []models.Transcript
	if err := r.db.SelectContext(ctx, &transcripts, query, termID); err != nil {
		return nil, fmt.Errorf("list latest transcripts: %w", err)
	}
	return transcripts, nil
}
