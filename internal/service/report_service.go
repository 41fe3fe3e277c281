package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// ReportService handles disbursement report business logic, including linking
// child documents into a report.
type ReportService struct {
	reports  *repository.ReportRepository
	links    *repository.LinkRepository
	validate *validator.Validate
	log      *logger.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	reports *repository.ReportRepository,
	links *repository.LinkRepository,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		reports:  reports,
		links:    links,
		validate: validator.New(),
		log:      log,
	}
}

// CreateReportRequest creates a disbursement report in status open.
type CreateReportRequest struct {
	ReportNumber   string          `json:"report_number" validate:"required"`
	Description    *string         `json:"description"`
	AmountToPay    decimal.Decimal `json:"amount_to_pay"`
	ReviewerID     *int64          `json:"reviewer_id"`
	ReviewerManual *string         `json:"reviewer_manual"`
	ApproverID     *int64          `json:"approver_id"`
	ApproverManual *string         `json:"approver_manual"`
}

// Create validates and persists a new disbursement report.
func (s *ReportService) Create(ctx context.Context, req *CreateReportRequest) (*repository.DisbursementReport, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid disbursement report")
	}

	report := &repository.DisbursementReport{
		ReportNumber:   req.ReportNumber,
		Description:    req.Description,
		AmountToPay:    req.AmountToPay,
		Status:         StatusOpen,
		ReviewerID:     req.ReviewerID,
		ReviewerManual: req.ReviewerManual,
		ApproverID:     req.ApproverID,
		ApproverManual: req.ApproverManual,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create report")
	}

	s.log.Info().
		Int64("disbursement_report_id", report.ID).
		Str("report_number", report.ReportNumber).
		Msg("Disbursement report created")

	return report, nil
}

// Get retrieves one report.
func (s *ReportService) Get(ctx context.Context, id int64) (*repository.DisbursementReport, error) {
	return s.reports.GetByID(ctx, id)
}

// List lists reports with optional status filter.
func (s *ReportService) List(ctx context.Context, status *string, page, pageSize int) ([]*repository.DisbursementReport, int64, error) {
	return s.reports.List(ctx, status, pageSize, (page-1)*pageSize)
}

// LinkDocumentsRequest attaches child documents to a disbursement report.
type LinkDocumentsRequest struct {
	DocumentType string  `json:"document_type" validate:"required"`
	DocumentIDs  []int64 `json:"document_ids" validate:"required,min=1"`
}

// LinkDocuments attaches the given child documents to a report. The report
// must exist and still be editable.
func (s *ReportService) LinkDocuments(ctx context.Context, reportID int64, req *LinkDocumentsRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid link request")
	}

	link, ok := linkDescriptorFor(req.DocumentType)
	if !ok {
		return apperrors.InvalidInput("document_type", "cannot be linked to a disbursement report")
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report.Status != StatusOpen && report.Status != StatusSubmitted {
		return apperrors.Conflict("report can no longer be edited in status " + report.Status)
	}

	for _, docID := range req.DocumentIDs {
		if err := s.links.Link(ctx, link, reportID, docID); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to link document")
		}
	}

	s.log.Info().
		Int64("disbursement_report_id", reportID).
		Str("document_type", req.DocumentType).
		Int("count", len(req.DocumentIDs)).
		Msg("Documents linked to report")

	return nil
}

// UnlinkDocument detaches one child document from a report.
func (s *ReportService) UnlinkDocument(ctx context.Context, reportID int64, documentType string, documentID int64) error {
	link, ok := linkDescriptorFor(documentType)
	if !ok {
		return apperrors.InvalidInput("document_type", "cannot be linked to a disbursement report")
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report.Status != StatusOpen && report.Status != StatusSubmitted {
		return apperrors.Conflict("report can no longer be edited in status " + report.Status)
	}

	return s.links.Unlink(ctx, link, reportID, documentID)
}

// LinkedDocuments returns the IDs of child documents of one type attached to a
// report.
func (s *ReportService) LinkedDocuments(ctx context.Context, reportID int64, documentType string) ([]int64, error) {
	link, ok := linkDescriptorFor(documentType)
	if !ok {
		return nil, apperrors.InvalidInput("document_type", "cannot be linked to a disbursement report")
	}
	return s.links.LinkedIDs(ctx, link, reportID)
}

func linkDescriptorFor(documentType string) (repository.LinkDescriptor, bool) {
	for _, link := range repository.ReportLinkTables {
		if link.ChildType == documentType {
			return link, true
		}
	}
	return repository.LinkDescriptor{}, false
}
