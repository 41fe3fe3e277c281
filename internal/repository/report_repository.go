package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// DisbursementReport is a disbursement report header. Its linked documents
// live in the ReportLinkTables association tables.
type DisbursementReport struct {
	ID             int64           `json:"disbursement_report_id"`
	ReportNumber   string          `json:"report_number"`
	Description    *string         `json:"description,omitempty"`
	AmountToPay    decimal.Decimal `json:"amount_to_pay"`
	Status         string          `json:"status"`
	ReviewerID     *int64          `json:"reviewer_id,omitempty"`
	ReviewerManual *string         `json:"reviewer_manual,omitempty"`
	ApproverID     *int64          `json:"approver_id,omitempty"`
	ApproverManual *string         `json:"approver_manual,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ReportRepository handles disbursement report CRUD.
type ReportRepository struct {
	db database.Querier
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db database.Querier) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a disbursement report in status open.
func (r *ReportRepository) Create(ctx context.Context, report *DisbursementReport) error {
	query := `
		INSERT INTO disbursement_reports
		    (report_number, description, amount_to_pay, status,
		     reviewer_id, reviewer_manual, approver_id, approver_manual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING disbursement_report_id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		report.ReportNumber,
		report.Description,
		report.AmountToPay,
		report.Status,
		report.ReviewerID,
		report.ReviewerManual,
		report.ApproverID,
		report.ApproverManual,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
}

// GetByID retrieves a report by primary key.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*DisbursementReport, error) {
	query := `
		SELECT disbursement_report_id, report_number, description, amount_to_pay,
		       status, reviewer_id, reviewer_manual, approver_id, approver_manual,
		       approved_at, paid_at, created_at, updated_at
		FROM disbursement_reports
		WHERE disbursement_report_id = $1
	`

	report, err := r.scanReport(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("disbursement_report", id)
	}
	return report, err
}

// List returns reports, optionally filtered by status.
func (r *ReportRepository) List(ctx context.Context, status *string, limit, offset int) ([]*DisbursementReport, int64, error) {
	query := `
		SELECT disbursement_report_id, report_number, description, amount_to_pay,
		       status, reviewer_id, reviewer_manual, approver_id, approver_manual,
		       approved_at, paid_at, created_at, updated_at
		FROM disbursement_reports
	`
	countQuery := `SELECT COUNT(*) FROM disbursement_reports`

	var args []any
	if status != nil {
		query += " WHERE status = $1"
		countQuery += " WHERE status = $1"
		args = append(args, *status)
	}
	query += fmt.Sprintf(" ORDER BY disbursement_report_id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to count reports")
	}

	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list reports")
	}
	defer rows.Close()

	reports := make([]*DisbursementReport, 0)
	for rows.Next() {
		report, err := r.scanReport(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan report")
		}
		reports = append(reports, report)
	}
	return reports, total, rows.Err()
}

// ── scan helper ───────────────────────────────────────────────────────────────

type reportScanner interface {
	Scan(dest ...any) error
}

func (r *ReportRepository) scanReport(row reportScanner) (*DisbursementReport, error) {
	report := &DisbursementReport{}
	err := row.Scan(
		&report.ID,
		&report.ReportNumber,
		&report.Description,
		&report.AmountToPay,
		&report.Status,
		&report.ReviewerID,
		&report.ReviewerManual,
		&report.ApproverID,
		&report.ApproverManual,
		&report.ApprovedAt,
		&report.PaidAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return report, nil
}
