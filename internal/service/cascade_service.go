package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// CascadeOptions controls the cascade's side effects on payment vouchers.
type CascadeOptions struct {
	SetApprovedAt bool
	ApproverID    *int64
}

// CascadeService propagates a disbursement report approval to every linked
// payment voucher, check voucher and scheduled payment.
//
// The cascade is deliberately best-effort and non-transactional: each link
// table is processed independently, every child goes through the idempotent
// transition guard, and re-running the cascade is a no-op. A crash mid-way
// leaves a partial cascade that the next run completes (at-least-once).
type CascadeService struct {
	resolver  DocumentResolver
	documents DocumentStore
	links     LinkStore
	guard     *TransitionService
	logs      LogStore
	log       *logger.Logger
}

// NewCascadeService creates a new CascadeService.
func NewCascadeService(
	resolver DocumentResolver,
	documents DocumentStore,
	links LinkStore,
	guard *TransitionService,
	logs LogStore,
	log *logger.Logger,
) *CascadeService {
	return &CascadeService{
		resolver:  resolver,
		documents: documents,
		links:     links,
		guard:     guard,
		logs:      logs,
		log:       log,
	}
}

// CascadeReport re-runs the cascade for an already approved report; this is
// the recovery path for a cascade that was interrupted mid-way. The report
// must be in status approved: cascading any other status would approve
// children of a report that never cleared approval itself.
func (s *CascadeService) CascadeReport(ctx context.Context, reportID int64, opts CascadeOptions) (bool, error) {
	desc, err := s.resolver.Resolve(ctx, repository.DocTypeDisbursementReport)
	if err != nil {
		return false, err
	}

	status, err := s.documents.GetStatus(ctx, desc, reportID)
	if err != nil {
		return false, err
	}
	if status != StatusApproved {
		return false, apperrors.Conflict(fmt.Sprintf(
			"disbursement_report %d must be approved before its approval can cascade", reportID))
	}

	return s.CascadeApprove(ctx, reportID, opts), nil
}

// CascadeApprove walks the report's link tables and approves every linked
// child document. A failure in one link-table section never aborts the
// others. Returns true when processing ran (regardless of how many children
// actually transitioned); false only when every section failed outright.
func (s *CascadeService) CascadeApprove(ctx context.Context, reportID int64, opts CascadeOptions) bool {
	failures := 0
	for _, link := range repository.ReportLinkTables {
		if err := s.cascadeSection(ctx, reportID, link, opts); err != nil {
			failures++
			s.log.Warn().Err(err).
				Str("link_table", link.Table).
				Int64("report_id", reportID).
				Msg("cascade: section failed")
		}
	}
	return failures < len(repository.ReportLinkTables)
}

func (s *CascadeService) cascadeSection(ctx context.Context, reportID int64, link repository.LinkDescriptor, opts CascadeOptions) error {
	exists, err := s.resolver.LinkTableExists(ctx, link.Table)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	desc, err := s.resolver.Resolve(ctx, link.ChildType)
	if err != nil {
		return err
	}
	if !desc.Exists {
		return nil
	}

	ids, err := s.links.LinkedIDs(ctx, link, reportID)
	if err != nil {
		return err
	}

	allowedFrom := DefaultAllowedFrom
	if link.ChildType == repository.DocTypeScheduledPayment {
		allowedFrom = ScheduledPaymentAllowedFrom
	}

	for _, id := range ids {
		outcome, err := s.guard.Transition(ctx, desc, id, StatusApproved, allowedFrom)
		if err != nil {
			s.log.Warn().Err(err).
				Str("child_type", link.ChildType).
				Int64("child_id", id).
				Msg("cascade: transition failed")
			continue
		}
		s.log.Debug().
			Str("child_type", link.ChildType).
			Int64("child_id", id).
			Str("outcome", outcome.String()).
			Msg("cascade: child processed")

		if link.ChildType == repository.DocTypePaymentVoucher && opts.SetApprovedAt {
			s.stampVoucherApproval(ctx, desc, reportID, id, opts, outcome)
		}
	}

	return nil
}

// stampVoucherApproval best-effort sets approved_at/approver_id on a payment
// voucher and records the cascade in the approval log. The stamp is not gated
// on the transition outcome: an already-approved voucher linked to a new
// report still gets its timestamp refreshed.
func (s *CascadeService) stampVoucherApproval(
	ctx context.Context,
	desc *repository.DocumentDescriptor,
	reportID, voucherID int64,
	opts CascadeOptions,
	outcome TransitionOutcome,
) {
	if outcome == TransitionNotFound {
		return
	}

	updates := map[string]any{"approved_at": time.Now()}
	if opts.ApproverID != nil {
		updates["approver_id"] = *opts.ApproverID
	}
	if _, err := s.documents.UpdateColumns(ctx, desc, voucherID, updates); err != nil {
		s.log.Warn().Err(err).
			Int64("voucher_id", voucherID).
			Msg("cascade: approval stamp failed")
	}

	s.appendLog(ctx, &repository.ApprovalLogEntry{
		EntityType:  repository.DocTypePaymentVoucher,
		EntityID:    voucherID,
		Action:      "approved_by_cascade",
		ActorUserID: opts.ApproverID,
		Payload: map[string]any{
			"disbursement_report_id": reportID,
			"transition":             outcome.String(),
		},
	})
}

// appendLog writes a log entry and warns on failure (never returns an error).
func (s *CascadeService) appendLog(ctx context.Context, entry *repository.ApprovalLogEntry) {
	if err := s.logs.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("entity_type", entry.EntityType).
			Int64("entity_id", entry.EntityID).
			Str("action", entry.Action).
			Msg("failed to write approval log entry")
	}
}
