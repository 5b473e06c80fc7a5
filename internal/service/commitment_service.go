package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type commitmentRepository interface {
	ListByTerm(ctx context.Context, termID string) ([]models.MemberCommitment, error)
	ListByMember(ctx context.Context, memberID string) ([]models.MemberCommitment, error)
	FindByID(ctx context.Context, id string) (*models.MemberCommitment, error)
	ExistsForMemberAndTerm(ctx context.Context, memberID, termID, excludeID string) (bool, error)
	Create(ctx context.Context, commitment *models.MemberCommitment) error
	Update(ctx context.Context, commitment *models.MemberCommitment) error
	Delete(ctx context.Context, id string) error
}

type commitmentMemberLookup interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

// CreateCommitmentRequest records a member's pledge for one term.
type CreateCommitmentRequest struct {
	MemberID     string  `json:"member_id" validate:"required"`
	TermID       string  `json:"term_id" validate:"required"`
	PledgedCount int     `json:"pledged_count" validate:"required,gt=0"`
	YearlyAmount float64 `json:"yearly_amount" validate:"required,gt=0"`
	AcademicYear *string `json:"academic_year"`
	Notes        *string `json:"notes"`
}

// UpdateCommitmentRequest updates a pledge's mutable fields.
type UpdateCommitmentRequest struct {
	PledgedCount int     `json:"pledged_count" validate:"required,gt=0"`
	GivenCount   int     `json:"given_count" validate:"gte=0"`
	YearlyAmount float64 `json:"yearly_amount" validate:"required,gt=0"`
	AcademicYear *string `json:"academic_year"`
	Notes        *string `json:"notes"`
}

// CommitmentView is a commitment enriched with its derived quantities.
type CommitmentView struct {
	models.MemberCommitment
	RemainingCount     int     `json:"remaining_count"`
	TotalYearlyAmount  float64 `json:"total_yearly_amount"`
	TotalMonthlyAmount float64 `json:"total_monthly_amount"`
}

// CommitmentService manages member pledges. A member holds at most one
// commitment per term; remaining and total quantities are always derived.
type CommitmentService struct {
	repo          commitmentRepository
	members       commitmentMemberLookup
	validator     *validator.Validate
	logger        *zap.Logger
	monthsPerYear int
}

// NewCommitmentService creates a commitment service.
func NewCommitmentService(repo commitmentRepository, members commitmentMemberLookup, validate *validator.Validate, logger *zap.Logger, monthsPerYear int) *CommitmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if monthsPerYear <= 0 {
		monthsPerYear = len(models.ScholarshipMonths)
	}
	return &CommitmentService{repo: repo, members: members, validator: validate, logger: logger, monthsPerYear: monthsPerYear}
}

func (s *CommitmentService) view(c models.MemberCommitment) CommitmentView {
	return CommitmentView{
		MemberCommitment:   c,
		RemainingCount:     c.RemainingCount(),
		TotalYearlyAmount:  c.TotalYearlyAmount(),
		TotalMonthlyAmount: c.TotalMonthlyAmount(s.monthsPerYear),
	}
}

// ListByTerm returns all commitments of a term with derived totals.
func (s *CommitmentService) ListByTerm(ctx context.Context, termID string) ([]CommitmentView, error) {
	commitments, err := s.repo.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commitments")
	}
	views := make([]CommitmentView, 0, len(commitments))
	for _, c := range commitments {
		views = append(views, s.view(c))
	}
	return views, nil
}

// ListByMember returns a member's commitments across terms.
func (s *CommitmentService) ListByMember(ctx context.Context, memberID string) ([]CommitmentView, error) {
	commitments, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list member commitments")
	}
	views := make([]CommitmentView, 0, len(commitments))
	for _, c := range commitments {
		views = append(views, s.view(c))
	}
	return views, nil
}

// Get returns one commitment with derived totals.
func (s *CommitmentService) Get(ctx context.Context, id string) (*CommitmentView, error) {
	commitment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "commitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitment")
	}
	view := s.view(*commitment)
	return &view, nil
}

// Create records a new pledge, enforcing one per member per term.
func (s *CommitmentService) Create(ctx context.Context, req CreateCommitmentRequest) (*CommitmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commitment payload")
	}

	if _, err := s.members.FindByID(ctx, req.MemberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	exists, err := s.repo.ExistsForMemberAndTerm(ctx, req.MemberID, req.TermID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check commitment uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "member already has a commitment for this term")
	}

	commitment := &models.MemberCommitment{
		MemberID:     req.MemberID,
		TermID:       req.TermID,
		PledgedCount: req.PledgedCount,
		YearlyAmount: req.YearlyAmount,
		AcademicYear: req.AcademicYear,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, commitment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create commitment")
	}

	s.logger.Info("created commitment",
		zap.String("member_id", req.MemberID),
		zap.String("term_id", req.TermID),
		zap.Int("pledged", req.PledgedCount))

	view := s.view(*commitment)
	return &view, nil
}

// Update modifies a pledge. The realized count can never exceed the pledge.
func (s *CommitmentService) Update(ctx context.Context, id string, req UpdateCommitmentRequest) (*CommitmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commitment payload")
	}
	if req.GivenCount > req.PledgedCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, "given_count cannot exceed pledged_count")
	}

	commitment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "commitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitment")
	}

	commitment.PledgedCount = req.PledgedCount
	commitment.GivenCount = req.GivenCount
	commitment.YearlyAmount = req.YearlyAmount
	commitment.AcademicYear = req.AcademicYear
	commitment.Notes = req.Notes

	if err := s.repo.Update(ctx, commitment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update commitment")
	}

	view := s.view(*commitment)
	return &view, nil
}

// Delete removes a pledge.
func (s *CommitmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "commitment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete commitment")
	}
	return nil
}
