package repository

import "time"

// ── Shared workflow types ────────────────────────────────────────────────────

// Known document types subject to the approval workflow.
const (
	DocTypePaymentVoucher     = "payment_voucher"
	DocTypeCheckVoucher       = "check_voucher"
	DocTypeDisbursementReport = "disbursement_report"
	DocTypeScheduledPayment   = "scheduled_payment"
)

// DocumentDescriptor is the static capability record for one document type:
// which table backs it, its primary-key column, and which optional columns the
// deployed schema actually carries. Resolved once and cached; callers branch on
// HasColumn instead of probing the catalog per query.
type DocumentDescriptor struct {
	Type     string
	Table    string
	IDColumn string
	Exists   bool
	Columns  map[string]bool
}

// HasColumn reports whether the backing table carries the named column.
func (d *DocumentDescriptor) HasColumn(name string) bool {
	return d.Columns[name]
}

// LinkDescriptor maps a disbursement report link table to the child document
// type it references.
type LinkDescriptor struct {
	Table       string
	ChildColumn string
	ChildType   string
}

// ReportLinkTables are the three report→child association tables, keyed by
// disbursement_report_id.
var ReportLinkTables = []LinkDescriptor{
	{Table: "disbursement_report_vouchers", ChildColumn: "payment_voucher_id", ChildType: DocTypePaymentVoucher},
	{Table: "disbursement_report_check_vouchers", ChildColumn: "check_voucher_id", ChildType: DocTypeCheckVoucher},
	{Table: "disbursement_report_scheduled_payments", ChildColumn: "scheduled_payment_id", ChildType: DocTypeScheduledPayment},
}

// DocumentRow is the loosely-typed routing view of a document: values for
// whichever routing-relevant columns the table carries, keyed by column name.
// Value types follow the driver (int64, string, float64, pgtype numerics, …);
// normalization happens in the routing service.
type DocumentRow map[string]any

// UserDefaults is a user's own workflow assignment, used as routing fallback
// when the document itself names no reviewer or approver.
type UserDefaults struct {
	UserID         int64
	ReviewerID     *int64
	ReviewerManual *string
	ApproverID     *int64
	ApproverManual *string
}

// ApprovalLogEntry is one immutable record in the approval log. Writes are
// best-effort; the log is an observability side channel, never a correctness
// dependency.
type ApprovalLogEntry struct {
	ID          int64          `json:"id"`
	EntityType  string         `json:"entity_type"`
	EntityID    int64          `json:"entity_id"`
	Action      string         `json:"action"` // submitted | approved_by_cascade | auto_approved_and_cascaded | approved_and_cascaded | marked_paid
	ActorUserID *int64         `json:"actor_user_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
