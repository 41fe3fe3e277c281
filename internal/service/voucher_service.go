package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// VoucherService handles payment and check voucher business logic.
type VoucherService struct {
	vouchers *repository.VoucherRepository
	validate *validator.Validate
	log      *logger.Logger
}

// NewVoucherService creates a new VoucherService.
func NewVoucherService(vouchers *repository.VoucherRepository, log *logger.Logger) *VoucherService {
	return &VoucherService{
		vouchers: vouchers,
		validate: validator.New(),
		log:      log,
	}
}

// CreatePaymentVoucherRequest creates a payment voucher in status open.
type CreatePaymentVoucherRequest struct {
	VoucherNumber    string          `json:"voucher_number" validate:"required"`
	PayeeContactID   *int64          `json:"payee_contact_id"`
	Description      *string         `json:"description"`
	AmountToPay      decimal.Decimal `json:"amount_to_pay"`
	ReviewerID       *int64          `json:"reviewer_id"`
	ReviewerManual   *string         `json:"reviewer_manual"`
	ApproverID       *int64          `json:"approver_id"`
	ApproverManual   *string         `json:"approver_manual"`
	PreparedBy       *int64          `json:"prepared_by"`
	PreparedByManual *string         `json:"prepared_by_manual"`
}

// CreatePaymentVoucher validates and persists a new payment voucher.
func (s *VoucherService) CreatePaymentVoucher(ctx context.Context, req *CreatePaymentVoucherRequest) (*repository.PaymentVoucher, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid payment voucher")
	}
	if req.AmountToPay.Sign() <= 0 {
		return nil, apperrors.InvalidInput("amount_to_pay", "must be positive")
	}

	v := &repository.PaymentVoucher{
		VoucherNumber:    req.VoucherNumber,
		PayeeContactID:   req.PayeeContactID,
		Description:      req.Description,
		AmountToPay:      req.AmountToPay,
		Status:           StatusOpen,
		ReviewerID:       req.ReviewerID,
		ReviewerManual:   req.ReviewerManual,
		ApproverID:       req.ApproverID,
		ApproverManual:   req.ApproverManual,
		PreparedBy:       req.PreparedBy,
		PreparedByManual: req.PreparedByManual,
	}
	if err := s.vouchers.CreatePayment(ctx, v); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create payment voucher")
	}

	s.log.Info().
		Int64("payment_voucher_id", v.ID).
		Str("voucher_number", v.VoucherNumber).
		Msg("Payment voucher created")

	return v, nil
}

// GetPaymentVoucher retrieves one payment voucher.
func (s *VoucherService) GetPaymentVoucher(ctx context.Context, id int64) (*repository.PaymentVoucher, error) {
	return s.vouchers.GetPayment(ctx, id)
}

// ListPaymentVouchers lists payment vouchers with optional status filter.
func (s *VoucherService) ListPaymentVouchers(ctx context.Context, status *string, page, pageSize int) ([]*repository.PaymentVoucher, int64, error) {
	return s.vouchers.ListPayments(ctx, status, pageSize, (page-1)*pageSize)
}

// CreateCheckVoucherRequest creates a check voucher in status open.
type CreateCheckVoucherRequest struct {
	VoucherNumber  string          `json:"voucher_number" validate:"required"`
	CheckNumber    *string         `json:"check_number"`
	BankAccountID  *int64          `json:"bank_account_id"`
	PayeeContactID *int64          `json:"payee_contact_id"`
	AmountToPay    decimal.Decimal `json:"amount_to_pay"`
	ReviewerID     *int64          `json:"reviewer_id"`
	ReviewerManual *string         `json:"reviewer_manual"`
	ApproverID     *int64          `json:"approver_id"`
	ApproverManual *string         `json:"approver_manual"`
}

// CreateCheckVoucher validates and persists a new check voucher.
func (s *VoucherService) CreateCheckVoucher(ctx context.Context, req *CreateCheckVoucherRequest) (*repository.CheckVoucher, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid check voucher")
	}
	if req.AmountToPay.Sign() <= 0 {
		return nil, apperrors.InvalidInput("amount_to_pay", "must be positive")
	}

	v := &repository.CheckVoucher{
		VoucherNumber:  req.VoucherNumber,
		CheckNumber:    req.CheckNumber,
		BankAccountID:  req.BankAccountID,
		PayeeContactID: req.PayeeContactID,
		AmountToPay:    req.AmountToPay,
		Status:         StatusOpen,
		ReviewerID:     req.ReviewerID,
		ReviewerManual: req.ReviewerManual,
		ApproverID:     req.ApproverID,
		ApproverManual: req.ApproverManual,
	}
	if err := s.vouchers.CreateCheck(ctx, v); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create check voucher")
	}
	return v, nil
}

// GetCheckVoucher retrieves one check voucher.
func (s *VoucherService) GetCheckVoucher(ctx context.Context, id int64) (*repository.CheckVoucher, error) {
	return s.vouchers.GetCheck(ctx, id)
}
