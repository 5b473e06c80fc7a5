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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentTermWriter interface {
	FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.StudentTermRecord, error)
	Create(ctx context.Context, record *models.StudentTermRecord) error
	Update(ctx context.Context, record *models.StudentTermRecord) error
}

type studentActiveTermLookup interface {
	FindActive(ctx context.Context) (*models.Term, error)
}

type studentTermConfigLookup interface {
	GetOrCreate(ctx context.Context, termID string) (*models.TermScholarshipConfig, error)
}

// CreateStudentRequest creates a student identity.
type CreateStudentRequest struct {
	FullName   string     `json:"full_name" validate:"required"`
	NationalID *string    `json:"national_id"`
	Email      *string    `json:"email" validate:"omitempty,email"`
	Phone      *string    `json:"phone"`
	BirthDate  *time.Time `json:"birth_date"`
}

// UpdateStudentRequest updates identity fields.
type UpdateStudentRequest struct {
	FullName   string     `json:"full_name" validate:"required"`
	NationalID *string    `json:"national_id"`
	Email      *string    `json:"email" validate:"omitempty,email"`
	Phone      *string    `json:"phone"`
	BirthDate  *time.Time `json:"birth_date"`
}

// AdmitStudentRequest enrolls a student into the active term.
type AdmitStudentRequest struct {
	ClassLevel    int      `json:"class_level" validate:"required,gt=0"`
	MonthlyAmount *float64 `json:"monthly_amount" validate:"omitempty,gt=0"`
	DonorName     *string  `json:"donor_name"`
	Department    *string  `json:"department"`
	University    *string  `json:"university"`
	Notes         *string  `json:"notes"`
}

// UpdateStudentTermRequest updates the student's record within one term.
type UpdateStudentTermRequest struct {
	MonthlyAmount float64  `json:"monthly_amount" validate:"required,gt=0"`
	ClassLevel    int      `json:"class_level" validate:"required,gt=0"`
	GPA           *float64 `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	DonorName     *string  `json:"donor_name"`
	Department    *string  `json:"department"`
	University    *string  `json:"university"`
	Notes         *string  `json:"notes"`
}

// StudentService manages student identity and per-term enrollment.
type StudentService struct {
	repo         studentRepository
	studentTerms studentTermWriter
	terms        studentActiveTermLookup
	termConfigs  studentTermConfigLookup
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewStudentService creates a student service.
func NewStudentService(repo studentRepository, studentTerms studentTermWriter, terms studentActiveTermLookup, termConfigs studentTermConfigLookup, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:         repo,
		studentTerms: studentTerms,
		terms:        terms,
		termConfigs:  termConfigs,
		validator:    validate,
		logger:       logger,
	}
}

// List returns paginated students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create adds a new student identity.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		Email:      req.Email,
		Phone:      req.Phone,
		BirthDate:  req.BirthDate,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies identity fields.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	student.FullName = req.FullName
	student.NationalID = req.NationalID
	student.Email = req.Email
	student.Phone = req.Phone
	student.BirthDate = req.BirthDate

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student identity.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// AdmitToActiveTerm enrolls the student into the currently active term with
// an active scholarship. The monthly amount falls back to the term's default.
func (s *StudentService) AdmitToActiveTerm(ctx context.Context, studentID string, req AdmitStudentRequest) (*models.StudentTermRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}

	if _, err := s.repo.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active term to admit into")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	if _, err := s.studentTerms.FindByStudentAndTerm(ctx, studentID, term.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in the active term")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	monthly := 0.0
	if req.MonthlyAmount != nil {
		monthly = *req.MonthlyAmount
	} else {
		cfg, err := s.termConfigs.GetOrCreate(ctx, term.ID)
		if err != nil {
			return nil, err
		}
		monthly = cfg.MonthlyAmount
	}

	start := term.StartDate
	record := &models.StudentTermRecord{
		StudentID:         studentID,
		TermID:            term.ID,
		ScholarshipActive: true,
		MonthlyAmount:     monthly,
		ScholarshipStart:  &start,
		ClassLevel:        req.ClassLevel,
		DonorName:         req.DonorName,
		Department:        req.Department,
		University:        req.University,
		Notes:             req.Notes,
	}
	if err := s.studentTerms.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	s.logger.Info("admitted student to term",
		zap.String("student_id", studentID),
		zap.String("term_id", term.ID),
		zap.Float64("monthly_amount", monthly))
	return record, nil
}

// GetTermRecord returns a student's record for one term.
func (s *StudentService) GetTermRecord(ctx context.Context, studentID, termID string) (*models.StudentTermRecord, error) {
	record, err := s.studentTerms.FindByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no record in this term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student term record")
	}
	return record, nil
}

// UpdateTermRecord modifies the student's per-term fields.
func (s *StudentService) UpdateTermRecord(ctx context.Context, studentID, termID string, req UpdateStudentTermRequest) (*models.StudentTermRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term record payload")
	}

	record, err := s.studentTerms.FindByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no record in this term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student term record")
	}

	record.MonthlyAmount = req.MonthlyAmount
	record.ClassLevel = req.ClassLevel
	record.GPA = req.GPA
	record.DonorName = req.DonorName
	record.Department = req.Department
	record.University = req.University
	record.Notes = req.Notes

	if err := s.studentTerms.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student term record")
	}
	return record, nil
}
