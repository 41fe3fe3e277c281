package handler

import (
	"net/http"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/middleware"
	"github.com/ledgerline/be-acct-approvals/internal/service"
)

// WorkflowHandler handles approval workflow HTTP requests.
type WorkflowHandler struct {
	submissions *service.SubmissionService
	cascades    *service.CascadeService
	masterdata  *service.MasterDataService
	log         *logger.Logger
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(
	submissions *service.SubmissionService,
	cascades *service.CascadeService,
	masterdata *service.MasterDataService,
	log *logger.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{
		submissions: submissions,
		cascades:    cascades,
		masterdata:  masterdata,
		log:         log,
	}
}

// documentRef identifies one workflow document in request bodies.
type documentRef struct {
	DocumentType string `json:"document_type"`
	DocumentID   int64  `json:"document_id"`
}

func (ref *documentRef) valid(w http.ResponseWriter) bool {
	if ref.DocumentType == "" {
		writeError(w, apperrors.InvalidInput("document_type", "is required"))
		return false
	}
	if ref.DocumentID <= 0 {
		writeError(w, apperrors.InvalidInput("document_id", "must be a positive integer"))
		return false
	}
	return true
}

// PreviewRouting computes routing for a document without mutating it.
func (h *WorkflowHandler) PreviewRouting(w http.ResponseWriter, r *http.Request) {
	var req documentRef
	if !decodeBody(w, r, &req) || !req.valid(w) {
		return
	}

	routing := h.submissions.PreviewRouting(r.Context(), req.DocumentType, req.DocumentID, middleware.ActorFrom(r.Context()))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"routing": routing,
	})
}

// Submit routes a document and moves it into the review pipeline.
func (h *WorkflowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		documentRef
		Cascade bool `json:"cascade"`
	}
	if !decodeBody(w, r, &req) || !req.valid(w) {
		return
	}

	result, err := h.submissions.Submit(r.Context(), req.DocumentType, req.DocumentID,
		middleware.ActorFrom(r.Context()), service.SubmitOptions{Cascade: req.Cascade})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": result.Message,
		"status":  result.Status,
		"routing": result.Routing,
	})
}

// AutoApprove approves a document directly, cascading when it is a report.
func (h *WorkflowHandler) AutoApprove(w http.ResponseWriter, r *http.Request) {
	var req documentRef
	if !decodeBody(w, r, &req) || !req.valid(w) {
		return
	}

	result, err := h.submissions.AutoApprove(r.Context(), req.DocumentType, req.DocumentID, middleware.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": result.Message,
		"status":  result.Status,
		"routing": result.Routing,
	})
}

// CascadeReport re-runs the approval cascade for one disbursement report.
func (h *WorkflowHandler) CascadeReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := pathID(w, r)
	if !ok {
		return
	}

	actor := middleware.ActorFrom(r.Context())
	completed, err := h.cascades.CascadeReport(r.Context(), reportID, service.CascadeOptions{
		SetApprovedAt: true,
		ApproverID:    actor,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"completed": completed,
	})
}

// MarkPaid transitions an approved document to paid.
func (h *WorkflowHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req documentRef
	if !decodeBody(w, r, &req) || !req.valid(w) {
		return
	}

	if err := h.submissions.MarkPaid(r.Context(), req.DocumentType, req.DocumentID, middleware.ActorFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Document marked as paid",
	})
}

// ApprovalHistory returns the approval log for one document, oldest first.
func (h *WorkflowHandler) ApprovalHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	documentType := r.PathValue("type")
	if documentType == "" {
		writeError(w, apperrors.InvalidInput("type", "is required"))
		return
	}

	entries, err := h.submissions.ApprovalHistory(r.Context(), documentType, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entries": entries,
	})
}

// GetSetting returns one workflow setting.
func (h *WorkflowHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, apperrors.InvalidInput("key", "is required"))
		return
	}

	value, err := h.masterdata.GetSetting(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"key":     key,
		"value":   value,
	})
}

// PutSetting stores one workflow setting.
func (h *WorkflowHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, apperrors.InvalidInput("key", "is required"))
		return
	}

	var req struct {
		Value any `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.masterdata.PutSetting(r.Context(), key, req.Value); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
