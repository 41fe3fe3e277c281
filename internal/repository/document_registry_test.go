package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		documentType string
		wantTable    string
		wantIDColumn string
	}{
		{"payment_voucher", "payment_vouchers", "payment_voucher_id"},
		{"check_voucher", "check_vouchers", "check_voucher_id"},
		{"disbursement_report", "disbursement_reports", "disbursement_report_id"},
		{"scheduled_payment", "scheduled_payments", "scheduled_payment_id"},
		// Unknown types pluralize.
		{"purchase_order", "purchase_orders", "purchase_order_id"},
		{"journal_entry", "journal_entrys", "journal_entry_id"},
	}

	for _, tt := range tests {
		t.Run(tt.documentType, func(t *testing.T) {
			table, idColumn := Locate(tt.documentType)
			assert.Equal(t, tt.wantTable, table)
			assert.Equal(t, tt.wantIDColumn, idColumn)
		})
	}
}

func TestDocumentDescriptor_HasColumn(t *testing.T) {
	desc := &DocumentDescriptor{
		Columns: map[string]bool{"status": true, "reviewer_id": true},
	}

	assert.True(t, desc.HasColumn("status"))
	assert.False(t, desc.HasColumn("approver_id"))

	// Nil column map behaves as column-less, not as a panic.
	empty := &DocumentDescriptor{}
	assert.False(t, empty.HasColumn("status"))
}
