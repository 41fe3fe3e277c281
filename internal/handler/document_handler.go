package handler

import (
	"net/http"

	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/service"
)

// DocumentHandler handles CRUD HTTP requests for vouchers, reports, and
// master data.
type DocumentHandler struct {
	vouchers   *service.VoucherService
	reports    *service.ReportService
	masterdata *service.MasterDataService
	log        *logger.Logger
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(
	vouchers *service.VoucherService,
	reports *service.ReportService,
	masterdata *service.MasterDataService,
	log *logger.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		vouchers:   vouchers,
		reports:    reports,
		masterdata: masterdata,
		log:        log,
	}
}

// ── Payment vouchers ─────────────────────────────────────────────────────────

// CreatePaymentVoucher handles payment voucher creation.
func (h *DocumentHandler) CreatePaymentVoucher(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePaymentVoucherRequest
	if !decodeBody(w, r, &req) {
		return
	}

	voucher, err := h.vouchers.CreatePaymentVoucher(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, voucher)
}

// GetPaymentVoucher returns one payment voucher.
func (h *DocumentHandler) GetPaymentVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	voucher, err := h.vouchers.GetPaymentVoucher(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voucher)
}

// ListPaymentVouchers lists payment vouchers.
func (h *DocumentHandler) ListPaymentVouchers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	vouchers, total, err := h.vouchers.ListPaymentVouchers(r.Context(), optionalQuery(r, "status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payment_vouchers": vouchers,
		"total":            total,
		"page":             page,
		"page_size":        pageSize,
	})
}

// ── Check vouchers ───────────────────────────────────────────────────────────

// CreateCheckVoucher handles check voucher creation.
func (h *DocumentHandler) CreateCheckVoucher(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCheckVoucherRequest
	if !decodeBody(w, r, &req) {
		return
	}

	voucher, err := h.vouchers.CreateCheckVoucher(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, voucher)
}

// GetCheckVoucher returns one check voucher.
func (h *DocumentHandler) GetCheckVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	voucher, err := h.vouchers.GetCheckVoucher(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voucher)
}

// ── Disbursement reports ─────────────────────────────────────────────────────

// CreateReport handles disbursement report creation.
func (h *DocumentHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := h.reports.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// GetReport returns one disbursement report.
func (h *DocumentHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListReports lists disbursement reports.
func (h *DocumentHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	reports, total, err := h.reports.List(r.Context(), optionalQuery(r, "status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"disbursement_reports": reports,
		"total":                total,
		"page":                 page,
		"page_size":            pageSize,
	})
}

// LinkReportDocuments attaches child documents to a report.
func (h *DocumentHandler) LinkReportDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req service.LinkDocumentsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.reports.LinkDocuments(r.Context(), id, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ListReportDocuments returns the child document ids linked to a report.
func (h *DocumentHandler) ListReportDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	documentType := r.URL.Query().Get("document_type")

	ids, err := h.reports.LinkedDocuments(r.Context(), id, documentType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_type": documentType,
		"document_ids":  ids,
	})
}

// ── Contacts ─────────────────────────────────────────────────────────────────

// CreateContact handles contact creation.
func (h *DocumentHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req service.ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	contact, err := h.masterdata.CreateContact(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// GetContact returns one contact.
func (h *DocumentHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.masterdata.GetContact(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// ListContacts returns all contacts.
func (h *DocumentHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.masterdata.ListContacts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// UpdateContact updates a contact.
func (h *DocumentHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req service.ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	contact, err := h.masterdata.UpdateContact(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// ── Chart of accounts ────────────────────────────────────────────────────────

// CreateAccount handles account creation.
func (h *DocumentHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req service.AccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.masterdata.CreateAccount(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetAccount returns one account.
func (h *DocumentHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.masterdata.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListAccounts returns the chart of accounts.
func (h *DocumentHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	accounts, err := h.masterdata.ListAccounts(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
