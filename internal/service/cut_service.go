package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/pkg/config"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type cutTermSource interface {
	FindActive(ctx context.Context) (*models.Term, error)
	FindNextAfter(ctx context.Context, after time.Time) (*models.Term, error)
}

type cutStudentTermSource interface {
	ListByTerm(ctx context.Context, termID string, onlyActive bool) ([]models.StudentTermRecord, error)
	ListByTermAndStudents(ctx context.Context, termID string, studentIDs []string) ([]models.StudentTermRecord, error)
}

type cutTranscriptSource interface {
	FindLatestByStudent(ctx context.Context, studentID string) (*models.Transcript, error)
}

type cutMeetingSource interface {
	FindByID(ctx context.Context, id string) (*models.Meeting, error)
	ListAbsentStudentIDs(ctx context.Context, meetingID string) ([]string, error)
}

type cutApplier interface {
	ApplyCut(ctx context.Context, studentID, termID, reason string, months []models.MonthYear, updatedBy *string) error
	Reinstate(ctx context.Context, studentID, termID string, months []models.MonthYear, updatedBy *string) error
}

type cutLedger interface {
	ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.MonthlyScholarshipStatus, error)
	InsertBatch(ctx context.Context, rows []models.MonthlyScholarshipStatus) error
	CutMonths(ctx context.Context, studentID, termID string, months []models.MonthYear, reason string, updatedBy *string) error
}

type cutConfigSource interface {
	GetOrCreate(ctx context.Context, termID string) (*models.TermScholarshipConfig, error)
}

// TranscriptCutAction describes one cut decided by the transcript check.
type TranscriptCutAction struct {
	StudentID string  `json:"student_id"`
	TermID    string  `json:"term_id"`
	GPA       float64 `json:"gpa"`
	Months    int     `json:"months"`
	Reason    string  `json:"reason"`
}

// TranscriptCheckResult summarizes one transcript check run.
type TranscriptCheckResult struct {
	TermID    string                `json:"term_id"`
	CheckedAt time.Time             `json:"checked_at"`
	MidTerm   bool                  `json:"mid_term"`
	Evaluated int                   `json:"evaluated"`
	Cuts      []TranscriptCutAction `json:"cuts"`
	Skipped   int                   `json:"skipped"`
}

// AbsenceCutAction describes one cut decided by the attendance check.
type AbsenceCutAction struct {
	StudentID string `json:"student_id"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
}

// AbsenceCheckResult summarizes one meeting attendance check run.
type AbsenceCheckResult struct {
	MeetingID string             `json:"meeting_id"`
	TermID    string             `json:"term_id"`
	CheckedAt time.Time          `json:"checked_at"`
	Absent    int                `json:"absent"`
	Cuts      []AbsenceCutAction `json:"cuts"`
	Skipped   int                `json:"skipped"`
}

// CutService runs the rule engine that cuts scholarships from transcripts and
// meeting attendance. Transcript failures during the October-May window cut
// the remaining months of the active term; failures surfacing in the summer
// gap cut the entire next term. Meeting absences deactivate the scholarship
// and cut the single month the meeting fell into.
type CutService struct {
	terms        cutTermSource
	studentTerms cutStudentTermSource
	transcripts  cutTranscriptSource
	meetings     cutMeetingSource
	cuts         cutApplier
	ledger       cutLedger
	configs      cutConfigSource
	logger       *zap.Logger
	rules        config.ScholarshipConfig
}

// NewCutService creates a cut service.
func NewCutService(terms cutTermSource, studentTerms cutStudentTermSource, transcripts cutTranscriptSource, meetings cutMeetingSource, cuts cutApplier, ledger cutLedger, configs cutConfigSource, logger *zap.Logger, rules config.ScholarshipConfig) *CutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CutService{
		terms:        terms,
		studentTerms: studentTerms,
		transcripts:  transcripts,
		meetings:     meetings,
		cuts:         cuts,
		ledger:       ledger,
		configs:      configs,
		logger:       logger,
		rules:        rules,
	}
}

// RunTranscriptCheck evaluates the latest transcript of every active
// scholarship holder in the active term against the passing GPA and applies
// the window-appropriate cuts.
func (s *CutService) RunTranscriptCheck(ctx context.Context, asOf time.Time) (*TranscriptCheckResult, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	records, err := s.studentTerms.ListByTerm(ctx, term.ID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scholarship holders")
	}

	window, err := s.resolveCutWindow(ctx, term, asOf)
	if err != nil {
		return nil, err
	}

	var nextAmount float64
	if window.nextTerm != nil {
		cfg, err := s.configs.GetOrCreate(ctx, window.nextTerm.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load next term config")
		}
		nextAmount = cfg.MonthlyAmount
	}

	result := &TranscriptCheckResult{
		TermID:    term.ID,
		CheckedAt: asOf,
		MidTerm:   window.midTerm,
	}

	for _, record := range records {
		transcript, err := s.transcripts.FindLatestByStudent(ctx, record.StudentID)
		if err != nil {
			if err == sql.ErrNoRows {
				result.Skipped++
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
		}

		result.Evaluated++
		if transcript.GPA >= s.rules.MinPassingGPA {
			continue
		}

		reason := fmt.Sprintf("GPA %.2f below required %.2f", transcript.GPA, s.rules.MinPassingGPA)
		action := TranscriptCutAction{
			StudentID: record.StudentID,
			GPA:       transcript.GPA,
			Reason:    reason,
		}

		if window.midTerm {
			// Remaining months of the active term are cut together with the
			// flag, in one transaction. In May the window is already empty and
			// only the flag flips.
			if len(window.months) > 0 {
				if err := s.ensureLedgerRows(ctx, record.StudentID, term.ID, record.MonthlyAmount, term.StartDate.Year()); err != nil {
					return nil, err
				}
			}
			if err := s.cuts.ApplyCut(ctx, record.StudentID, term.ID, reason, window.months, nil); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transcript cut")
			}
			action.TermID = term.ID
			action.Months = len(window.months)
		} else {
			// The flag always flips on the student's current record; the
			// ledger cut lands on the next term when one exists.
			if err := s.cuts.ApplyCut(ctx, record.StudentID, term.ID, reason, nil, nil); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transcript cut")
			}
			action.TermID = term.ID
			if window.nextTerm != nil {
				if err := s.ensureLedgerRows(ctx, record.StudentID, window.nextTerm.ID, nextAmount, window.nextTerm.StartDate.Year()); err != nil {
					return nil, err
				}
				if err := s.ledger.CutMonths(ctx, record.StudentID, window.nextTerm.ID, window.months, reason, nil); err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cut next term ledger")
				}
				action.TermID = window.nextTerm.ID
				action.Months = len(window.months)
			}
		}

		result.Cuts = append(result.Cuts, action)

		s.logger.Info("cut scholarship on transcript",
			zap.String("student_id", record.StudentID),
			zap.String("term_id", action.TermID),
			zap.Float64("gpa", transcript.GPA),
			zap.Int("months", action.Months))
	}

	return result, nil
}

type cutWindow struct {
	midTerm  bool
	nextTerm *models.Term
	months   []models.MonthYear
}

// resolveCutWindow decides which term and which months a transcript failure
// affects. During the October-May window only months strictly after asOf are
// cut; in the June-September gap the cut lands on the whole next term. A
// missing next term is logged and leaves only the flag flip to apply.
func (s *CutService) resolveCutWindow(ctx context.Context, term *models.Term, asOf time.Time) (cutWindow, error) {
	current := models.MonthYear{Month: asOf.Month(), Year: asOf.Year()}

	if models.IsScholarshipMonth(asOf.Month()) {
		var future []models.MonthYear
		for _, my := range models.TermMonths(term.StartDate.Year()) {
			if my.After(current) {
				future = append(future, my)
			}
		}
		return cutWindow{midTerm: true, months: future}, nil
	}

	next, err := s.terms.FindNextAfter(ctx, term.EndDate)
	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("no next term for end-of-term cuts, flag-only",
				zap.String("term_id", term.ID))
			return cutWindow{}, nil
		}
		return cutWindow{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load next term")
	}
	return cutWindow{nextTerm: next, months: models.TermMonths(next.StartDate.Year())}, nil
}

// ensureLedgerRows creates any missing month rows for the student's term so a
// cut always lands on persisted rows. Created rows default to paid.
func (s *CutService) ensureLedgerRows(ctx context.Context, studentID, termID string, amount float64, startYear int) error {
	existing, err := s.ledger.ListByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ledger rows")
	}

	present := make(map[models.MonthYear]bool, len(existing))
	for _, row := range existing {
		present[row.MonthYearKey()] = true
	}

	var missing []models.MonthlyScholarshipStatus
	for _, my := range models.TermMonths(startYear) {
		if present[my] {
			continue
		}
		missing = append(missing, models.MonthlyScholarshipStatus{
			StudentID: studentID,
			TermID:    termID,
			Month:     int(my.Month),
			Year:      my.Year,
			IsPaid:    true,
			Amount:    amount,
		})
	}

	if len(missing) == 0 {
		return nil
	}
	if err := s.ledger.InsertBatch(ctx, missing); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ledger rows")
	}
	return nil
}

// RunMeetingAbsenceCheck deactivates the scholarship of every absent student
// who holds one in the active term and cuts the meeting's month.
func (s *CutService) RunMeetingAbsenceCheck(ctx context.Context, meetingID string) (*AbsenceCheckResult, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}

	month := meeting.MeetingDate.Month()
	if !models.IsScholarshipMonth(month) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("meeting falls in %s, outside the scholarship months", month))
	}

	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	absentIDs, err := s.meetings.ListAbsentStudentIDs(ctx, meetingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absent students")
	}

	result := &AbsenceCheckResult{
		MeetingID: meetingID,
		TermID:    term.ID,
		CheckedAt: time.Now().UTC(),
		Absent:    len(absentIDs),
	}
	if len(absentIDs) == 0 {
		return result, nil
	}

	records, err := s.studentTerms.ListByTermAndStudents(ctx, term.ID, absentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student records")
	}

	target := models.MonthYear{Month: month, Year: models.CalendarYearFor(term.StartDate.Year(), month)}
	reason := fmt.Sprintf("absent from meeting on %s", meeting.MeetingDate.Format("2006-01-02"))

	for _, record := range records {
		if !record.ScholarshipActive {
			result.Skipped++
			continue
		}
		if err := s.ensureLedgerRows(ctx, record.StudentID, term.ID, record.MonthlyAmount, term.StartDate.Year()); err != nil {
			return nil, err
		}
		// Flag deactivation and the month cut commit together.
		if err := s.cuts.ApplyCut(ctx, record.StudentID, term.ID, reason, []models.MonthYear{target}, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cut absent student's month")
		}
		result.Cuts = append(result.Cuts, AbsenceCutAction{
			StudentID: record.StudentID,
			Month:     int(target.Month),
			Year:      target.Year,
		})
	}

	s.logger.Info("meeting absence check complete",
		zap.String("meeting_id", meetingID),
		zap.Int("absent", result.Absent),
		zap.Int("cuts", len(result.Cuts)))
	return result, nil
}

// ReinstateStudent undoes a cut: the student's scholarship is reactivated and
// the given term's still-cut future months restored to paid.
func (s *CutService) ReinstateStudent(ctx context.Context, studentID, termID string, updatedBy *string) error {
	term, err := s.terms.FindActive(ctx)
	if err != nil && err != sql.ErrNoRows {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}

	months := []models.MonthYear{}
	if term != nil && term.ID == termID {
		now := time.Now().UTC()
		current := models.MonthYear{Month: now.Month(), Year: now.Year()}
		for _, my := range models.TermMonths(term.StartDate.Year()) {
			if my.After(current) {
				months = append(months, my)
			}
		}
	}

	if err := s.cuts.Reinstate(ctx, studentID, termID, months, updatedBy); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reinstate scholarship")
	}

	s.logger.Info("reinstated scholarship",
		zap.String("student_id", studentID),
		zap.String("term_id", termID))
	return nil
}
