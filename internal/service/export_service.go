package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
	"github.com/noah-isme/burs-api/pkg/export"
)

type exportLedgerSource interface {
	ListTermLedger(ctx context.Context, termID string) ([]models.LedgerTermRow, error)
}

type exportFundingSource interface {
	TermFundingSummary(ctx context.Context, termID string) (*models.TermFundingSummary, error)
}

type exportCommitmentSource interface {
	ListByTerm(ctx context.Context, termID string) ([]CommitmentView, error)
}

// ExportService turns domain data into downloadable CSV and PDF documents.
type ExportService struct {
	ledger      exportLedgerSource
	funding     exportFundingSource
	commitments exportCommitmentSource
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService creates an export service.
func NewExportService(ledger exportLedgerSource, funding exportFundingSource, commitments exportCommitmentSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		ledger:      ledger,
		funding:     funding,
		commitments: commitments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// RenderTermLedger exports a term's ledger in the requested format.
func (s *ExportService) RenderTermLedger(ctx context.Context, termID string, format models.ReportFormat) ([]byte, string, error) {
	rows, err := s.ledger.ListTermLedger(ctx, termID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Month", "Year", "Status", "Reason", "Amount"},
	}
	for _, row := range rows {
		status := "paid"
		if !row.IsPaid {
			status = "cut"
		}
		reason := ""
		if row.CutReason != nil {
			reason = *row.CutReason
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student": row.StudentName,
			"Month":   time.Month(row.Month).String(),
			"Year":    fmt.Sprintf("%d", row.Year),
			"Status":  status,
			"Reason":  reason,
			"Amount":  fmt.Sprintf("%.2f", row.Amount),
		})
	}

	return s.render(dataset, "Scholarship Ledger", format, fmt.Sprintf("ledger-%s", termID))
}

// RenderFundingSummary exports a term's funding picture with its pledge rows.
func (s *ExportService) RenderFundingSummary(ctx context.Context, termID string, format models.ReportFormat) ([]byte, string, error) {
	summary, err := s.funding.TermFundingSummary(ctx, termID)
	if err != nil {
		return nil, "", err
	}
	commitments, err := s.commitments.ListByTerm(ctx, termID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Donors", "Value": fmt.Sprintf("%d", summary.DonorCount)},
			{"Metric": "Pledged slots", "Value": fmt.Sprintf("%d", summary.TotalPledgedCount)},
			{"Metric": "Pledged yearly", "Value": fmt.Sprintf("%.2f", summary.TotalPledgedYearly)},
			{"Metric": "Total paid", "Value": fmt.Sprintf("%.2f", summary.TotalPaid)},
			{"Metric": "Active scholars", "Value": fmt.Sprintf("%d", summary.ActiveScholars)},
			{"Metric": "Cut scholars", "Value": fmt.Sprintf("%d", summary.CutScholars)},
		},
	}
	for _, c := range commitments {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Metric": fmt.Sprintf("Pledge %s", c.MemberID),
			"Value":  fmt.Sprintf("%d slots, %.2f/yr, %d remaining", c.PledgedCount, c.TotalYearlyAmount, c.RemainingCount),
		})
	}

	return s.render(dataset, "Funding Summary", format, fmt.Sprintf("funding-%s", termID))
}

func (s *ExportService) render(dataset export.Dataset, title string, format models.ReportFormat, basename string) ([]byte, string, error) {
	switch format {
	case models.ReportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, basename + ".csv", nil
	case models.ReportFormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, basename + ".pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}
