package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type memberRepository interface {
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error)
	FindByID(ctx context.Context, id string) (*models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id string) error
}

// MemberRequest carries member fields for create and update.
type MemberRequest struct {
	FullName            string     `json:"full_name" validate:"required"`
	Email               *string    `json:"email" validate:"omitempty,email"`
	Phone               *string    `json:"phone"`
	Role                *string    `json:"role"`
	Trustee             bool       `json:"trustee"`
	ExecutiveBoard      bool       `json:"executive_board"`
	AuditCommittee      bool       `json:"audit_committee"`
	ScholarshipProvider bool       `json:"scholarship_provider"`
	Status              string     `json:"status" validate:"required"`
	RoleStart           *time.Time `json:"role_start"`
	RoleEnd             *time.Time `json:"role_end"`
	Notes               *string    `json:"notes"`
}

// MemberService manages foundation members. Role facts live on the member
// itself; per-term pledges are the commitment service's concern.
type MemberService struct {
	repo      memberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMemberService creates a member service.
func NewMemberService(repo memberRepository, validate *validator.Validate, logger *zap.Logger) *MemberService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated members.
func (s *MemberService) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return members, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

// Create adds a new member.
func (s *MemberService) Create(ctx context.Context, req MemberRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}

	member := &models.Member{
		FullName:            req.FullName,
		Email:               req.Email,
		Phone:               req.Phone,
		Role:                req.Role,
		Trustee:             req.Trustee,
		ExecutiveBoard:      req.ExecutiveBoard,
		AuditCommittee:      req.AuditCommittee,
		ScholarshipProvider: req.ScholarshipProvider,
		Status:              req.Status,
		RoleStart:           req.RoleStart,
		RoleEnd:             req.RoleEnd,
		Notes:               req.Notes,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create member")
	}
	return member, nil
}

// Update modifies member fields.
func (s *MemberService) Update(ctx context.Context, id string, req MemberRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}

	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	member.FullName = req.FullName
	member.Email = req.Email
	member.Phone = req.Phone
	member.Role = req.Role
	member.Trustee = req.Trustee
	member.ExecutiveBoard = req.ExecutiveBoard
	member.AuditCommittee = req.AuditCommittee
	member.ScholarshipProvider = req.ScholarshipProvider
	member.Status = req.Status
	member.RoleStart = req.RoleStart
	member.RoleEnd = req.RoleEnd
	member.Notes = req.Notes

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update member")
	}
	return member, nil
}

// Delete removes a member.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete member")
	}
	return nil
}
