package service

import (
	"context"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// Document statuses. The enum is open: unknown values may appear in data and
// are simply never in any allowedFrom set.
const (
	StatusOpen        = "open"
	StatusSubmitted   = "submitted"
	StatusForReview   = "for_review"
	StatusForApproval = "for_approval"
	StatusApproved    = "approved"
	StatusPaid        = "paid"
	StatusReleased    = "released"
)

// DefaultAllowedFrom is the standard set of states a document may leave on its
// way to approval.
var DefaultAllowedFrom = []string{StatusOpen, StatusSubmitted, StatusForReview, StatusForApproval}

// ScheduledPaymentAllowedFrom is narrower: scheduled payments have no review
// stage.
var ScheduledPaymentAllowedFrom = []string{StatusOpen, StatusSubmitted}

// TransitionOutcome says what the guard did, so callers can distinguish an
// applied transition from the idempotent no-op and from a refused one.
type TransitionOutcome int

const (
	TransitionApplied TransitionOutcome = iota
	TransitionAlreadyInState
	TransitionNotAllowed
	TransitionNotFound
)

func (o TransitionOutcome) String() string {
	switch o {
	case TransitionApplied:
		return "applied"
	case TransitionAlreadyInState:
		return "already_in_state"
	case TransitionNotAllowed:
		return "not_allowed"
	case TransitionNotFound:
		return "not_found"
	}
	return "unknown"
}

// TransitionService is the single status-transition guard. Submit,
// auto-approve, cascade and mark-paid all change status through it; it is the
// integrity gate that keeps the cascade from resurrecting finalized states.
type TransitionService struct {
	documents DocumentStore
	log       *logger.Logger
}

// NewTransitionService creates a new TransitionService.
func NewTransitionService(documents DocumentStore, log *logger.Logger) *TransitionService {
	return &TransitionService{documents: documents, log: log}
}

// Transition moves a document to desired when its current status is in
// allowedFrom (DefaultAllowedFrom when nil). A document already in the
// desired state is an idempotent no-op. The read and the write are separate
// statements; concurrent transitions are mitigated, not serialized.
func (s *TransitionService) Transition(
	ctx context.Context,
	desc *repository.DocumentDescriptor,
	id int64,
	desired string,
	allowedFrom []string,
) (TransitionOutcome, error) {
	if allowedFrom == nil {
		allowedFrom = DefaultAllowedFrom
	}

	current, err := s.documents.GetStatus(ctx, desc, id)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeNotFound {
			return TransitionNotFound, nil
		}
		return TransitionNotFound, err
	}

	if current == desired {
		return TransitionAlreadyInState, nil
	}

	allowed := false
	for _, from := range allowedFrom {
		if current == from {
			allowed = true
			break
		}
	}
	if !allowed {
		s.log.Debug().
			Str("table", desc.Table).
			Int64("id", id).
			Str("current", current).
			Str("desired", desired).
			Msg("transition refused")
		return TransitionNotAllowed, nil
	}

	if err := s.documents.SetStatus(ctx, desc, id, desired); err != nil {
		return TransitionNotAllowed, err
	}
	return TransitionApplied, nil
}
