package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

func TestIsApprovalRequired(t *testing.T) {
	tests := []struct {
		name     string
		settings any
		docType  string
		want     bool
	}{
		{
			name:     "enabled for type",
			settings: map[string]any{"payment_voucher": true},
			docType:  repository.DocTypePaymentVoucher,
			want:     true,
		},
		{
			name:     "disabled for type",
			settings: map[string]any{"payment_voucher": false},
			docType:  repository.DocTypePaymentVoucher,
			want:     false,
		},
		{
			name:     "type absent from routes",
			settings: map[string]any{"check_voucher": true},
			docType:  repository.DocTypePaymentVoucher,
			want:     false,
		},
		{
			name:     "no settings at all",
			settings: nil,
			docType:  repository.DocTypePaymentVoucher,
			want:     false,
		},
		{
			name:     "malformed settings value",
			settings: "yes please",
			docType:  repository.DocTypePaymentVoucher,
			want:     false,
		},
		{
			name:     "numeric truthy toggle",
			settings: map[string]any{"payment_voucher": float64(1)},
			docType:  repository.DocTypePaymentVoucher,
			want:     true,
		},
		{
			name:     "string truthy toggle",
			settings: map[string]any{"payment_voucher": "true"},
			docType:  repository.DocTypePaymentVoucher,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore()
			if tt.settings != nil {
				f.settings[repository.SettingApprovalRoutes] = tt.settings
			}
			svc := newRoutingService(f)

			assert.Equal(t, tt.want, svc.IsApprovalRequired(context.Background(), tt.docType))
		})
	}
}

func TestIsApprovalRequired_SettingsStoreDown(t *testing.T) {
	f := newFakeStore()
	f.settingsErr = errors.New("connection refused")
	svc := newRoutingService(f)

	// Unreachable settings degrade to "no approval required".
	assert.False(t, svc.IsApprovalRequired(context.Background(), repository.DocTypePaymentVoucher))
}

func TestRouteDocument_NotRequired(t *testing.T) {
	f := newFakeStore()
	svc := newRoutingService(f)

	result := svc.RouteDocument(context.Background(), repository.DocTypePaymentVoucher, 1, nil)

	require.NotNil(t, result)
	assert.False(t, result.RequiresApproval)
	assert.Nil(t, result.Reviewer)
	assert.Nil(t, result.Approver)
	assert.Empty(t, result.Notes)
}

func TestRouteDocument_DocumentColumnsWin(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypePaymentVoucher)
	f.addDocument(repository.DocTypePaymentVoucher, 7, StatusOpen, repository.DocumentRow{
		"reviewer_id": int64(11),
		"approver_id": int64(22),
	})
	// Actor has defaults, but they must not override document columns.
	f.userDefault[5] = &repository.UserDefaults{
		UserID:     5,
		ReviewerID: ptrInt64(99),
		ApproverID: ptrInt64(98),
	}
	svc := newRoutingService(f)

	result := svc.RouteDocument(context.Background(), repository.DocTypePaymentVoucher, 7, ptrInt64(5))

	require.NotNil(t, result.Reviewer)
	require.NotNil(t, result.Approver)
	assert.Equal(t, int64(11), *result.Reviewer.ID)
	assert.Equal(t, int64(22), *result.Approver.ID)
	assert.Empty(t, result.Notes)
}

func TestRouteDocument_FallbackToUserDefaultsPerRole(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypePaymentVoucher)
	// Document names an approver but no reviewer.
	f.addDocument(repository.DocTypePaymentVoucher, 7, StatusOpen, repository.DocumentRow{
		"approver_id": int64(22),
	})
	f.userDefault[5] = &repository.UserDefaults{
		UserID:     5,
		ReviewerID: ptrInt64(99),
		ApproverID: ptrInt64(98),
	}
	svc := newRoutingService(f)

	result := svc.RouteDocument(context.Background(), repository.DocTypePaymentVoucher, 7, ptrInt64(5))

	// Reviewer falls back to the actor's default; the approver stays the
	// document's own.
	require.NotNil(t, result.Reviewer)
	require.NotNil(t, result.Approver)
	assert.Equal(t, int64(99), *result.Reviewer.ID)
	assert.Equal(t, int64(22), *result.Approver.ID)
}

func TestRouteDocument_ManualNameFallback(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypePaymentVoucher)
	f.addDocument(repository.DocTypePaymentVoucher, 7, StatusOpen, repository.DocumentRow{
		"reviewer_manual": "Jane Doe",
	})
	svc := newRoutingService(f)

	result := svc.RouteDocument(context.Background(), repository.DocTypePaymentVoucher, 7, nil)

	require.NotNil(t, result.Reviewer)
	assert.Nil(t, result.Reviewer.ID)
	assert.Equal(t, "Jane Doe", *result.Reviewer.Manual)
	// No approver anywhere: degraded with a note, not an error.
	assert.Nil(t, result.Approver)
	assert.Contains(t, result.Notes, noteNoApprover)
}

func TestRouteDocument_NumericStringBecomesID(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypePaymentVoucher)
	f.addDocument(repository.DocTypePaymentVoucher, 7, StatusOpen, repository.DocumentRow{
		"reviewer_manual": " 42 ",
	})
	svc := newRoutingService(f)

	result := svc.RouteDocument(context.Background(), repository.DocTypePaymentVoucher, 7, nil)

	require.NotNil(t, result.Reviewer)
	require.NotNil(t, result.Reviewer.ID)
	assert.Equal(t, int64(42), *result.Reviewer.ID)
}

func TestRouteDocument_MissingDocumentNeverErrors(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypePaymentVoucher)
	svc := newRoutingService(f)

	result := svc.RouteDocument(context.Background(), repository.DocTypePaymentVoucher, 404, nil)

	require.NotNil(t, result)
	assert.True(t, result.RequiresApproval)
	assert.Nil(t, result.Reviewer)
	assert.Nil(t, result.Approver)
	assert.Contains(t, result.Notes, noteNoReviewer)
	assert.Contains(t, result.Notes, noteNoApprover)
}

func TestRouteDocument_UnknownTypeNeverErrors(t *testing.T) {
	f := newFakeStore()
	f.settings[repository.SettingApprovalRoutes] = map[string]any{"purchase_order": true}
	svc := newRoutingService(f)

	result := svc.RouteDocument(context.Background(), "purchase_order", 1, nil)

	require.NotNil(t, result)
	assert.True(t, result.RequiresApproval)
	assert.Nil(t, result.Reviewer)
	assert.Nil(t, result.Approver)
}

func TestRouteReport_ThresholdNote(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypeDisbursementReport)
	f.settings[repository.SettingAmountThreshold] = "1000"
	f.addDocument(repository.DocTypeDisbursementReport, 3, StatusOpen, repository.DocumentRow{
		"approver_id":   int64(22),
		"amount_to_pay": "2500.50",
	})
	svc := newRoutingService(f)

	result := svc.RouteReport(context.Background(), 3, nil)

	assert.Contains(t, result.Notes, "Amount 2500.5 exceeds threshold 1000; require higher approver")
}

func TestRouteReport_UnderThresholdNoNote(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypeDisbursementReport)
	f.settings[repository.SettingAmountThreshold] = "1000"
	f.addDocument(repository.DocTypeDisbursementReport, 3, StatusOpen, repository.DocumentRow{
		"approver_id":   int64(22),
		"amount_to_pay": "999.99",
	})
	svc := newRoutingService(f)

	result := svc.RouteReport(context.Background(), 3, nil)

	for _, note := range result.Notes {
		assert.NotContains(t, note, "exceeds threshold")
	}
}

func TestRouteReport_NoThresholdConfigured(t *testing.T) {
	f := newFakeStore()
	f.enableRouting(repository.DocTypeDisbursementReport)
	f.addDocument(repository.DocTypeDisbursementReport, 3, StatusOpen, repository.DocumentRow{
		"approver_id":   int64(22),
		"amount_to_pay": "2500.50",
	})
	svc := newRoutingService(f)

	result := svc.RouteReport(context.Background(), 3, nil)

	for _, note := range result.Notes {
		assert.NotContains(t, note, "exceeds threshold")
	}
}

func TestRouteReport_AdvisoryFetchDegradationKeepsNote(t *testing.T) {
	f := newFakeStore()
	// Approval not required, so routing returns early and the advisory check
	// does its own fetch; that fetch failing must still surface as a note.
	f.fetchErr = errors.New("relation vanished")
	svc := newRoutingService(f)

	result := svc.RouteReport(context.Background(), 3, nil)

	require.NotNil(t, result)
	assert.False(t, result.RequiresApproval)
	assert.Contains(t, result.Notes, "document lookup degraded: relation vanished")
}

func TestApplyRouting(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypePaymentVoucher, 7, StatusOpen, nil)
	svc := newRoutingService(f)

	routing := &RoutingResult{
		RequiresApproval: true,
		Reviewer:         &Party{ID: ptrInt64(11)},
		Approver:         &Party{Manual: ptrString("Jane Doe")},
	}

	applied := svc.ApplyRouting(context.Background(), repository.DocTypePaymentVoucher, 7, routing)

	require.True(t, applied)
	written := f.columnWrites["payment_vouchers/7"]
	assert.Equal(t, int64(11), written["reviewer_id"])
	assert.Equal(t, "Jane Doe", written["approver_manual"])
}

func TestApplyRouting_TableWithoutRoutingColumns(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypePaymentVoucher, 7, StatusOpen, nil)
	// A deployment whose voucher table predates the routing columns.
	f.descriptors[repository.DocTypePaymentVoucher].Columns = map[string]bool{"status": true}
	svc := newRoutingService(f)

	routing := &RoutingResult{
		RequiresApproval: true,
		Reviewer:         &Party{ID: ptrInt64(11)},
		Approver:         &Party{ID: ptrInt64(22)},
	}

	applied := svc.ApplyRouting(context.Background(), repository.DocTypePaymentVoucher, 7, routing)

	assert.False(t, applied)
	assert.Empty(t, f.columnWrites)
}

func TestApplyRouting_NothingToWrite(t *testing.T) {
	f := newFakeStore()
	f.addDocument(repository.DocTypePaymentVoucher, 7, StatusOpen, nil)
	svc := newRoutingService(f)

	assert.False(t, svc.ApplyRouting(context.Background(), repository.DocTypePaymentVoucher, 7, &RoutingResult{}))
	assert.False(t, svc.ApplyRouting(context.Background(), repository.DocTypePaymentVoucher, 7, nil))
	assert.Empty(t, f.columnWrites)
}
