package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// SubmitOptions controls submission behavior.
type SubmitOptions struct {
	// Cascade asks for immediate approval plus cascade when routing resolved
	// a numeric approver. Only meaningful for disbursement reports.
	Cascade bool
}

// SubmitResult is returned to the HTTP layer on workflow actions.
type SubmitResult struct {
	Message string         `json:"message"`
	Status  string         `json:"status"`
	Routing *RoutingResult `json:"routing"`
}

// SubmissionService composes routing, the transition guard and the cascade
// into the submit / auto-approve / mark-paid actions.
type SubmissionService struct {
	routing   *RoutingService
	guard     *TransitionService
	cascade   *CascadeService
	resolver  DocumentResolver
	documents DocumentStore
	logs      LogStore
	notifier  Notifier
	log       *logger.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	routing *RoutingService,
	guard *TransitionService,
	cascade *CascadeService,
	resolver DocumentResolver,
	documents DocumentStore,
	logs LogStore,
	notifier Notifier,
	log *logger.Logger,
) *SubmissionService {
	return &SubmissionService{
		routing:   routing,
		guard:     guard,
		cascade:   cascade,
		resolver:  resolver,
		documents: documents,
		logs:      logs,
		notifier:  notifier,
		log:       log,
	}
}

// PreviewRouting computes routing without touching the document. This is the
// read-only counterpart of Submit for the frontend's preview step.
func (s *SubmissionService) PreviewRouting(ctx context.Context, documentType string, documentID int64, actorUserID *int64) *RoutingResult {
	if documentType == repository.DocTypeDisbursementReport {
		return s.routing.RouteReport(ctx, documentID, actorUserID)
	}
	return s.routing.RouteDocument(ctx, documentType, documentID, actorUserID)
}

// Submit routes a document, persists the routing and advances its status:
// for_review when a reviewer resolved, else for_approval when an approver
// resolved, else submitted. With opts.Cascade and a resolved numeric
// approver, a disbursement report is instead approved immediately and the
// approval cascades to its linked documents.
func (s *SubmissionService) Submit(ctx context.Context, documentType string, documentID int64, actorUserID *int64, opts SubmitOptions) (*SubmitResult, error) {
	desc, err := s.resolver.Resolve(ctx, documentType)
	if err != nil {
		return nil, err
	}
	if _, err := s.documents.GetStatus(ctx, desc, documentID); err != nil {
		// Structural failure: the document must exist to be submitted.
		return nil, err
	}

	var routing *RoutingResult
	if documentType == repository.DocTypeDisbursementReport {
		routing = s.routing.RouteReport(ctx, documentID, actorUserID)
	} else {
		routing = s.routing.RouteDocument(ctx, documentType, documentID, actorUserID)
	}

	if !s.routing.ApplyRouting(ctx, documentType, documentID, routing) {
		s.log.Debug().
			Str("document_type", documentType).
			Int64("document_id", documentID).
			Msg("submit: routing not persisted (no applicable columns)")
	}

	if opts.Cascade &&
		documentType == repository.DocTypeDisbursementReport &&
		routing.Approver != nil && routing.Approver.ID != nil {
		return s.approveAndCascade(ctx, desc, documentID, routing, routing.Approver.ID, "approved_and_cascaded")
	}

	target := StatusSubmitted
	switch {
	case routing.Reviewer != nil:
		target = StatusForReview
	case routing.Approver != nil:
		target = StatusForApproval
	}

	outcome, err := s.guard.Transition(ctx, desc, documentID, target, nil)
	if err != nil {
		return nil, err
	}

	s.appendLog(ctx, &repository.ApprovalLogEntry{
		EntityType:  documentType,
		EntityID:    documentID,
		Action:      "submitted",
		ActorUserID: actorUserID,
		Payload: map[string]any{
			"target":     target,
			"transition": outcome.String(),
		},
	})
	s.notifier.PublishDocumentEvent("document_submitted", documentType, documentID, actorUserID, map[string]any{
		"status": target,
	})

	return &SubmitResult{
		Message: fmt.Sprintf("Document submitted; status set to %s", target),
		Status:  target,
		Routing: routing,
	}, nil
}

// AutoApprove forces a document to approved, stamps the approval and, for
// disbursement reports, cascades the approval to linked documents. This is
// the privileged path; authorization is the HTTP layer's concern.
func (s *SubmissionService) AutoApprove(ctx context.Context, documentType string, documentID int64, actorUserID *int64) (*SubmitResult, error) {
	desc, err := s.resolver.Resolve(ctx, documentType)
	if err != nil {
		return nil, err
	}
	if _, err := s.documents.GetStatus(ctx, desc, documentID); err != nil {
		return nil, err
	}

	return s.approveAndCascade(ctx, desc, documentID, nil, actorUserID, "auto_approved_and_cascaded")
}

// approveAndCascade is the shared approve-then-cascade tail of auto-approve
// and cascade-on-submit; approverID is the acting user for the former and the
// resolved approver for the latter.
func (s *SubmissionService) approveAndCascade(
	ctx context.Context,
	desc *repository.DocumentDescriptor,
	documentID int64,
	routing *RoutingResult,
	approverID *int64,
	action string,
) (*SubmitResult, error) {
	outcome, err := s.guard.Transition(ctx, desc, documentID, StatusApproved, nil)
	if err != nil {
		return nil, err
	}
	if outcome == TransitionNotAllowed {
		return nil, apperrors.Conflict(
			fmt.Sprintf("%s %d cannot be approved from its current status", desc.Type, documentID))
	}

	stamp := map[string]any{"approved_at": time.Now()}
	if approverID != nil {
		stamp["approver_id"] = *approverID
	}
	if _, err := s.documents.UpdateColumns(ctx, desc, documentID, stamp); err != nil {
		s.log.Warn().Err(err).
			Int64("document_id", documentID).
			Msg("approve: stamp failed")
	}

	cascaded := false
	if desc.Type == repository.DocTypeDisbursementReport {
		cascaded = s.cascade.CascadeApprove(ctx, documentID, CascadeOptions{
			SetApprovedAt: true,
			ApproverID:    approverID,
		})
	}

	s.appendLog(ctx, &repository.ApprovalLogEntry{
		EntityType:  desc.Type,
		EntityID:    documentID,
		Action:      action,
		ActorUserID: approverID,
		Payload: map[string]any{
			"transition": outcome.String(),
			"cascaded":   cascaded,
		},
	})
	s.notifier.PublishDocumentEvent("document_approved", desc.Type, documentID, approverID, map[string]any{
		"cascaded": cascaded,
	})
	if cascaded {
		s.notifier.PublishDocumentEvent("cascade_completed", desc.Type, documentID, approverID, nil)
	}

	message := "Document approved"
	if cascaded {
		message = "Document approved and linked documents cascaded"
	}
	return &SubmitResult{Message: message, Status: StatusApproved, Routing: routing}, nil
}

// MarkPaid transitions an approved document to paid. Any other current status
// is a conflict surfaced to the caller; marking an already-paid document is
// an idempotent no-op.
func (s *SubmissionService) MarkPaid(ctx context.Context, documentType string, documentID int64, actorUserID *int64) error {
	desc, err := s.resolver.Resolve(ctx, documentType)
	if err != nil {
		return err
	}

	outcome, err := s.guard.Transition(ctx, desc, documentID, StatusPaid, []string{StatusApproved})
	if err != nil {
		return err
	}

	switch outcome {
	case TransitionNotFound:
		return apperrors.NotFound(documentType, documentID)
	case TransitionNotAllowed:
		return apperrors.Conflict(
			fmt.Sprintf("%s %d must be approved before it can be marked paid", documentType, documentID))
	case TransitionAlreadyInState:
		return nil
	}

	if _, err := s.documents.UpdateColumns(ctx, desc, documentID, map[string]any{"paid_at": time.Now()}); err != nil {
		s.log.Warn().Err(err).
			Int64("document_id", documentID).
			Msg("mark paid: stamp failed")
	}

	s.appendLog(ctx, &repository.ApprovalLogEntry{
		EntityType:  documentType,
		EntityID:    documentID,
		Action:      "marked_paid",
		ActorUserID: actorUserID,
	})
	s.notifier.PublishDocumentEvent("document_marked_paid", documentType, documentID, actorUserID, nil)

	return nil
}

// ApprovalHistory returns the approval log trail for one document.
func (s *SubmissionService) ApprovalHistory(ctx context.Context, documentType string, documentID int64) ([]*repository.ApprovalLogEntry, error) {
	return s.logs.GetByEntity(ctx, documentType, documentID)
}

// appendLog writes a log entry and warns on failure (never returns an error).
func (s *SubmissionService) appendLog(ctx context.Context, entry *repository.ApprovalLogEntry) {
	if err := s.logs.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("entity_type", entry.EntityType).
			Int64("entity_id", entry.EntityID).
			Str("action", entry.Action).
			Msg("failed to write approval log entry")
	}
}
