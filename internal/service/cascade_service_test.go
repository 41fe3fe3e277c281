package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

func TestCascadeApprove_AllLinkedVouchers(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypePaymentVoucher, 1, StatusSubmitted, nil)
	f.addDocument(repository.DocTypePaymentVoucher, 2, StatusSubmitted, nil)
	f.addDocument(repository.DocTypePaymentVoucher, 3, StatusSubmitted, nil)
	f.links["disbursement_report_vouchers"] = []int64{1, 2, 3}
	svc := newCascadeService(f)

	ok := svc.CascadeApprove(context.Background(), 10, CascadeOptions{SetApprovedAt: true, ApproverID: ptrInt64(5)})

	require.True(t, ok)
	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, StatusApproved, f.status(repository.DocTypePaymentVoucher, id))
		written := f.columnWrites[key("payment_vouchers", id)]
		require.NotNil(t, written)
		assert.NotNil(t, written["approved_at"])
		assert.Equal(t, int64(5), written["approver_id"])
	}
	// One cascade log entry per voucher.
	assert.Len(t, f.logEntries, 3)
	for _, e := range f.logEntries {
		assert.Equal(t, "approved_by_cascade", e.Action)
		assert.Equal(t, int64(10), e.Payload["disbursement_report_id"])
	}
}

func TestCascadeApprove_Rerun(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypePaymentVoucher, 1, StatusSubmitted, nil)
	f.links["disbursement_report_vouchers"] = []int64{1}
	svc := newCascadeService(f)

	require.True(t, svc.CascadeApprove(context.Background(), 10, CascadeOptions{}))
	require.True(t, svc.CascadeApprove(context.Background(), 10, CascadeOptions{}))

	// The guard turns the second run into a no-op on status.
	assert.Equal(t, StatusApproved, f.status(repository.DocTypePaymentVoucher, 1))
	assert.Equal(t, 1, f.statusWrites["payment_vouchers/1"])
}

func TestCascadeApprove_SkipsFinalizedChildren(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypePaymentVoucher, 1, StatusPaid, nil)
	f.addDocument(repository.DocTypePaymentVoucher, 2, StatusOpen, nil)
	f.links["disbursement_report_vouchers"] = []int64{1, 2}
	svc := newCascadeService(f)

	require.True(t, svc.CascadeApprove(context.Background(), 10, CascadeOptions{}))

	// Paid stays paid; open gets approved.
	assert.Equal(t, StatusPaid, f.status(repository.DocTypePaymentVoucher, 1))
	assert.Equal(t, StatusApproved, f.status(repository.DocTypePaymentVoucher, 2))
}

func TestCascadeApprove_ScheduledPaymentsNarrowerStates(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypeScheduledPayment, 1, StatusSubmitted, nil)
	f.addDocument(repository.DocTypeScheduledPayment, 2, StatusForReview, nil)
	f.links["disbursement_report_scheduled_payments"] = []int64{1, 2}
	svc := newCascadeService(f)

	require.True(t, svc.CascadeApprove(context.Background(), 10, CascadeOptions{}))

	// Scheduled payments only move from open/submitted.
	assert.Equal(t, StatusApproved, f.status(repository.DocTypeScheduledPayment, 1))
	assert.Equal(t, StatusForReview, f.status(repository.DocTypeScheduledPayment, 2))
}

func TestCascadeApprove_SectionIsolation(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypeCheckVoucher, 1, StatusSubmitted, nil)
	f.links["disbursement_report_check_vouchers"] = []int64{1}
	// The payment voucher section blows up; the check voucher section must
	// still run.
	f.linksErr["disbursement_report_vouchers"] = errors.New("relation gone")
	svc := newCascadeService(f)

	ok := svc.CascadeApprove(context.Background(), 10, CascadeOptions{})

	require.True(t, ok)
	assert.Equal(t, StatusApproved, f.status(repository.DocTypeCheckVoucher, 1))
}

func TestCascadeReport_RefusedWhenReportNotApproved(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"submitted report", StatusSubmitted},
		{"open report", StatusOpen},
		{"paid report", StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore()
			f.addDocument(repository.DocTypeDisbursementReport, 10, tt.status, nil)
			f.addDocument(repository.DocTypePaymentVoucher, 1, StatusSubmitted, nil)
			f.links["disbursement_report_vouchers"] = []int64{1}
			svc := newCascadeService(f)

			_, err := svc.CascadeReport(context.Background(), 10, CascadeOptions{SetApprovedAt: true})

			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))
			// Nothing downstream moves on refusal.
			assert.Equal(t, StatusSubmitted, f.status(repository.DocTypePaymentVoucher, 1))
			assert.Equal(t, tt.status, f.status(repository.DocTypeDisbursementReport, 10))
			assert.Empty(t, f.statusWrites)
			assert.Empty(t, f.columnWrites)
		})
	}
}

func TestCascadeReport_RunsForApprovedReport(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypeDisbursementReport, 10, StatusApproved, nil)
	f.addDocument(repository.DocTypePaymentVoucher, 1, StatusSubmitted, nil)
	f.links["disbursement_report_vouchers"] = []int64{1}
	svc := newCascadeService(f)

	completed, err := svc.CascadeReport(context.Background(), 10, CascadeOptions{})

	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, StatusApproved, f.status(repository.DocTypePaymentVoucher, 1))
}

func TestCascadeReport_MissingReport(t *testing.T) {
	f := newFakeStore()
	svc := newCascadeService(f)

	_, err := svc.CascadeReport(context.Background(), 404, CascadeOptions{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestCascadeApprove_AllSectionsFail(t *testing.T) {
	f := newFakeStore()
	for _, link := range repository.ReportLinkTables {
		f.linksErr[link.Table] = errors.New("db down")
	}
	svc := newCascadeService(f)

	assert.False(t, svc.CascadeApprove(context.Background(), 10, CascadeOptions{}))
}

func TestCascadeApprove_MissingLinkTable(t *testing.T) {
	f := newFakeStore()
	f.linkTables["disbursement_report_scheduled_payments"] = false
	f.addDocument(repository.DocTypePaymentVoucher, 1, StatusSubmitted, nil)
	f.links["disbursement_report_vouchers"] = []int64{1}
	svc := newCascadeService(f)

	// A deployment without the scheduled-payments table is fine.
	require.True(t, svc.CascadeApprove(context.Background(), 10, CascadeOptions{}))
	assert.Equal(t, StatusApproved, f.status(repository.DocTypePaymentVoucher, 1))
}

func TestCascadeApprove_NoStampWithoutOption(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypePaymentVoucher, 1, StatusSubmitted, nil)
	f.links["disbursement_report_vouchers"] = []int64{1}
	svc := newCascadeService(f)

	require.True(t, svc.CascadeApprove(context.Background(), 10, CascadeOptions{SetApprovedAt: false}))

	assert.Equal(t, StatusApproved, f.status(repository.DocTypePaymentVoucher, 1))
	assert.Nil(t, f.columnWrites["payment_vouchers/1"])
	assert.Empty(t, f.logEntries)
}
