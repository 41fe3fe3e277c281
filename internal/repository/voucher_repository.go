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

// PaymentVoucher is a payment voucher header.
type PaymentVoucher struct {
	ID               int64           `json:"payment_voucher_id"`
	VoucherNumber    string          `json:"voucher_number"`
	PayeeContactID   *int64          `json:"payee_contact_id,omitempty"`
	Description      *string         `json:"description,omitempty"`
	AmountToPay      decimal.Decimal `json:"amount_to_pay"`
	Status           string          `json:"status"`
	ReviewerID       *int64          `json:"reviewer_id,omitempty"`
	ReviewerManual   *string         `json:"reviewer_manual,omitempty"`
	ApproverID       *int64          `json:"approver_id,omitempty"`
	ApproverManual   *string         `json:"approver_manual,omitempty"`
	PreparedBy       *int64          `json:"prepared_by,omitempty"`
	PreparedByManual *string         `json:"prepared_by_manual,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CheckVoucher is a check voucher header.
type CheckVoucher struct {
	ID             int64           `json:"check_voucher_id"`
	VoucherNumber  string          `json:"voucher_number"`
	CheckNumber    *string         `json:"check_number,omitempty"`
	BankAccountID  *int64          `json:"bank_account_id,omitempty"`
	PayeeContactID *int64          `json:"payee_contact_id,omitempty"`
	AmountToPay    decimal.Decimal `json:"amount_to_pay"`
	Status         string          `json:"status"`
	ReviewerID     *int64          `json:"reviewer_id,omitempty"`
	ReviewerManual *string         `json:"reviewer_manual,omitempty"`
	ApproverID     *int64          `json:"approver_id,omitempty"`
	ApproverManual *string         `json:"approver_manual,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// VoucherRepository handles payment and check voucher CRUD.
type VoucherRepository struct {
	db database.Querier
}

// NewVoucherRepository creates a new VoucherRepository.
func NewVoucherRepository(db database.Querier) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// CreatePayment inserts a payment voucher in status open.
func (r *VoucherRepository) CreatePayment(ctx context.Context, v *PaymentVoucher) error {
	query := `
		INSERT INTO payment_vouchers
		    (voucher_number, payee_contact_id, description, amount_to_pay,
		     status, reviewer_id, reviewer_manual, approver_id, approver_manual,
		     prepared_by, prepared_by_manual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING payment_voucher_id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		v.VoucherNumber,
		v.PayeeContactID,
		v.Description,
		v.AmountToPay,
		v.Status,
		v.ReviewerID,
		v.ReviewerManual,
		v.ApproverID,
		v.ApproverManual,
		v.PreparedBy,
		v.PreparedByManual,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// GetPayment retrieves a payment voucher by primary key.
func (r *VoucherRepository) GetPayment(ctx context.Context, id int64) (*PaymentVoucher, error) {
	query := `
		SELECT payment_voucher_id, voucher_number, payee_contact_id, description,
		       amount_to_pay, status,
		       reviewer_id, reviewer_manual, approver_id, approver_manual,
		       prepared_by, prepared_by_manual,
		       approved_at, paid_at, created_at, updated_at
		FROM payment_vouchers
		WHERE payment_voucher_id = $1
	`

	v, err := r.scanPayment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("payment_voucher", id)
	}
	return v, err
}

// ListPayments returns payment vouchers, optionally filtered by status.
func (r *VoucherRepository) ListPayments(ctx context.Context, status *string, limit, offset int) ([]*PaymentVoucher, int64, error) {
	query := `
		SELECT payment_voucher_id, voucher_number, payee_contact_id, description,
		       amount_to_pay, status,
		       reviewer_id, reviewer_manual, approver_id, approver_manual,
		       prepared_by, prepared_by_manual,
		       approved_at, paid_at, created_at, updated_at
		FROM payment_vouchers
	`
	countQuery := `SELECT COUNT(*) FROM payment_vouchers`

	var args []any
	if status != nil {
		query += " WHERE status = $1"
		countQuery += " WHERE status = $1"
		args = append(args, *status)
	}
	query += fmt.Sprintf(" ORDER BY payment_voucher_id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to count payment vouchers")
	}

	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list payment vouchers")
	}
	defer rows.Close()

	vouchers := make([]*PaymentVoucher, 0)
	for rows.Next() {
		v, err := r.scanPayment(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan payment voucher")
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, total, rows.Err()
}

// CreateCheck inserts a check voucher in status open.
func (r *VoucherRepository) CreateCheck(ctx context.Context, v *CheckVoucher) error {
	query := `
		INSERT INTO check_vouchers
		    (voucher_number, check_number, bank_account_id, payee_contact_id,
		     amount_to_pay, status,
		     reviewer_id, reviewer_manual, approver_id, approver_manual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING check_voucher_id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		v.VoucherNumber,
		v.CheckNumber,
		v.BankAccountID,
		v.PayeeContactID,
		v.AmountToPay,
		v.Status,
		v.ReviewerID,
		v.ReviewerManual,
		v.ApproverID,
		v.ApproverManual,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// GetCheck retrieves a check voucher by primary key.
func (r *VoucherRepository) GetCheck(ctx context.Context, id int64) (*CheckVoucher, error) {
	query := `
		SELECT check_voucher_id, voucher_number, check_number, bank_account_id,
		       payee_contact_id, amount_to_pay, status,
		       reviewer_id, reviewer_manual, approver_id, approver_manual,
		       approved_at, created_at, updated_at
		FROM check_vouchers
		WHERE check_voucher_id = $1
	`

	v := &CheckVoucher{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.VoucherNumber,
		&v.CheckNumber,
		&v.BankAccountID,
		&v.PayeeContactID,
		&v.AmountToPay,
		&v.Status,
		&v.ReviewerID,
		&v.ReviewerManual,
		&v.ApproverID,
		&v.ApproverManual,
		&v.ApprovedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("check_voucher", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get check voucher")
	}
	return v, nil
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type voucherScanner interface {
	Scan(dest ...any) error
}

func (r *VoucherRepository) scanPayment(row voucherScanner) (*PaymentVoucher, error) {
	v := &PaymentVoucher{}
	err := row.Scan(
		&v.ID,
		&v.VoucherNumber,
		&v.PayeeContactID,
		&v.Description,
		&v.AmountToPay,
		&v.Status,
		&v.ReviewerID,
		&v.ReviewerManual,
		&v.ApproverID,
		&v.ApproverManual,
		&v.PreparedBy,
		&v.PreparedByManual,
		&v.ApprovedAt,
		&v.PaidAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}
