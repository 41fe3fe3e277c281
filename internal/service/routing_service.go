package service

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// Routing candidate columns, in resolution order. The first non-empty value
// wins; the numeric id variants sort before the manual ones.
var (
	reviewerCandidateColumns = []string{"reviewer_id", "reviewer_manual", "reviewed_by", "reviewed_by_manual"}
	approverCandidateColumns = []string{"approver_id", "approver_manual", "approved_by", "approved_by_manual"}
)

const (
	noteNoReviewer = "No reviewer found for document; manual routing required"
	noteNoApprover = "No approver found for document; manual routing required"
)

// Party identifies a reviewer or approver: either a numeric user id or a
// free-text manual name, never both.
type Party struct {
	ID     *int64  `json:"id"`
	Manual *string `json:"manual"`
}

// RoutingResult is the outcome of routing one document. Routing never fails
// hard: degraded outcomes are reported through Notes so that submission is
// never blocked by routing ambiguity or transient schema issues.
type RoutingResult struct {
	RequiresApproval bool     `json:"requires_approval"`
	Reviewer         *Party   `json:"reviewer"`
	Approver         *Party   `json:"approver"`
	Notes            []string `json:"notes"`
}

// RoutingService resolves reviewer/approver assignment for documents.
type RoutingService struct {
	resolver  DocumentResolver
	documents DocumentStore
	users     UserStore
	settings  SettingsStore
	log       *logger.Logger
}

// NewRoutingService creates a new RoutingService.
func NewRoutingService(
	resolver DocumentResolver,
	documents DocumentStore,
	users UserStore,
	settings SettingsStore,
	log *logger.Logger,
) *RoutingService {
	return &RoutingService{
		resolver:  resolver,
		documents: documents,
		users:     users,
		settings:  settings,
		log:       log,
	}
}

// IsApprovalRequired reports whether the given document type is routed through
// the approval workflow, per the document_approval_route_settings setting.
// Absent or malformed settings mean no approval required.
func (s *RoutingService) IsApprovalRequired(ctx context.Context, documentType string) bool {
	required, _ := s.approvalRequired(ctx, documentType)
	return required
}

// approvalRequired additionally reports a degradation note when the settings
// store itself failed, so callers can tell "not configured" from "unreachable".
func (s *RoutingService) approvalRequired(ctx context.Context, documentType string) (bool, string) {
	value, err := s.settings.Get(ctx, repository.SettingApprovalRoutes)
	if err != nil {
		return false, fmt.Sprintf("approval route settings unavailable: %v", err)
	}
	routes, ok := value.(map[string]any)
	if !ok {
		return false, ""
	}
	return truthy(routes[documentType]), ""
}

// RouteDocument resolves the reviewer and approver for one document instance.
// It never returns an error; every failure along the way degrades to a note.
func (s *RoutingService) RouteDocument(ctx context.Context, documentType string, documentID int64, actorUserID *int64) *RoutingResult {
	result, _ := s.routeDocument(ctx, documentType, documentID, actorUserID)
	return result
}

func (s *RoutingService) routeDocument(ctx context.Context, documentType string, documentID int64, actorUserID *int64) (*RoutingResult, repository.DocumentRow) {
	result := &RoutingResult{Notes: []string{}}

	required, note := s.approvalRequired(ctx, documentType)
	if note != "" {
		result.Notes = append(result.Notes, note)
	}
	if !required {
		return result, nil
	}
	result.RequiresApproval = true

	row := s.fetchRowTolerant(ctx, documentType, documentID, result)

	reviewerRaw := firstCandidate(row, reviewerCandidateColumns)
	approverRaw := firstCandidate(row, approverCandidateColumns)

	// Fall back to the acting user's own workflow defaults, independently per
	// role: each side falls back only when its own candidate is empty.
	if actorUserID != nil && (reviewerRaw == nil || approverRaw == nil) {
		defaults, err := s.users.GetWorkflowDefaults(ctx, *actorUserID)
		if err != nil {
			result.Notes = append(result.Notes, fmt.Sprintf("user workflow defaults unavailable: %v", err))
		} else if defaults != nil {
			if reviewerRaw == nil {
				reviewerRaw = firstNonEmpty(defaults.ReviewerID, defaults.ReviewerManual)
			}
			if approverRaw == nil {
				approverRaw = firstNonEmpty(defaults.ApproverID, defaults.ApproverManual)
			}
		}
	}

	result.Reviewer = normalizeParty(reviewerRaw)
	result.Approver = normalizeParty(approverRaw)

	if result.Reviewer == nil {
		result.Notes = append(result.Notes, noteNoReviewer)
	}
	if result.Approver == nil {
		result.Notes = append(result.Notes, noteNoApprover)
	}

	return result, row
}

// RouteReport routes a disbursement report and enriches the result with an
// advisory note when the report amount exceeds the configured approval
// threshold. The note never blocks or alters the routing decision.
func (s *RoutingService) RouteReport(ctx context.Context, reportID int64, actorUserID *int64) *RoutingResult {
	result, row := s.routeDocument(ctx, repository.DocTypeDisbursementReport, reportID, actorUserID)

	// The advisory check reads the report row even when routing returned
	// early (approval not required).
	if row == nil {
		tmp := &RoutingResult{}
		row = s.fetchRowTolerant(ctx, repository.DocTypeDisbursementReport, reportID, tmp)
		result.Notes = append(result.Notes, tmp.Notes...)
	}

	amount, ok := toDecimal(row["amount_to_pay"])
	if !ok {
		return result
	}

	raw, err := s.settings.Get(ctx, repository.SettingAmountThreshold)
	if err != nil || raw == nil {
		return result
	}
	threshold, ok := toDecimal(raw)
	if !ok || threshold.Sign() <= 0 {
		return result
	}

	if amount.GreaterThan(threshold) {
		result.Notes = append(result.Notes, fmt.Sprintf(
			"Amount %s exceeds threshold %s; require higher approver", amount, threshold))
	}
	return result
}

// ApplyRouting persists the resolved reviewer/approver onto the document row,
// writing only columns the table carries. Returns false when nothing was
// written; never returns an error.
func (s *RoutingService) ApplyRouting(ctx context.Context, documentType string, documentID int64, routing *RoutingResult) bool {
	if routing == nil {
		return false
	}

	desc, err := s.resolver.Resolve(ctx, documentType)
	if err != nil {
		s.log.Warn().Err(err).Str("document_type", documentType).Msg("apply routing: descriptor resolution failed")
		return false
	}

	updates := map[string]any{}
	if routing.Reviewer != nil {
		if routing.Reviewer.ID != nil {
			updates["reviewer_id"] = *routing.Reviewer.ID
		}
		if routing.Reviewer.Manual != nil {
			updates["reviewer_manual"] = *routing.Reviewer.Manual
		}
	}
	if routing.Approver != nil {
		if routing.Approver.ID != nil {
			updates["approver_id"] = *routing.Approver.ID
		}
		if routing.Approver.Manual != nil {
			updates["approver_manual"] = *routing.Approver.Manual
		}
	}
	if len(updates) == 0 {
		return false
	}

	applied, err := s.documents.UpdateColumns(ctx, desc, documentID, updates)
	if err != nil {
		s.log.Warn().Err(err).
			Str("document_type", documentType).
			Int64("document_id", documentID).
			Msg("apply routing: update failed")
		return false
	}
	return applied
}

// fetchRowTolerant fetches the routing view of a document, degrading failures
// to notes. Absence of the row is not an error: routing continues with nulls.
func (s *RoutingService) fetchRowTolerant(ctx context.Context, documentType string, documentID int64, result *RoutingResult) repository.DocumentRow {
	desc, err := s.resolver.Resolve(ctx, documentType)
	if err != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("document lookup degraded: %v", err))
		return nil
	}
	row, err := s.documents.FetchRow(ctx, desc, documentID)
	if err != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("document lookup degraded: %v", err))
		return nil
	}
	return row
}

// ── value normalization ──────────────────────────────────────────────────────

// firstCandidate returns the first non-empty value among the named columns.
func firstCandidate(row repository.DocumentRow, columns []string) any {
	if row == nil {
		return nil
	}
	for _, col := range columns {
		if v, ok := row[col]; ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

// firstNonEmpty picks the id over the manual name from user defaults.
func firstNonEmpty(id *int64, manual *string) any {
	if id != nil {
		return *id
	}
	if manual != nil && strings.TrimSpace(*manual) != "" {
		return *manual
	}
	return nil
}

// normalizeParty maps a raw candidate value to a Party: numbers and numeric
// strings become an id, anything else a manual name, empties become nil.
func normalizeParty(v any) *Party {
	if isEmpty(v) {
		return nil
	}
	if id, ok := toInt64(v); ok {
		return &Party{ID: &id}
	}
	manual := strings.TrimSpace(fmt.Sprint(v))
	return &Party{Manual: &manual}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	case []byte:
		return toInt64(string(n))
	}
	return 0, false
}

// toDecimal converts driver values (numbers, numeric strings, pgtype
// numerics via driver.Valuer) to a decimal.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case []byte:
		return toDecimal(string(n))
	case driver.Valuer:
		val, err := n.Value()
		if err != nil {
			return decimal.Decimal{}, false
		}
		return toDecimal(val)
	}
	return decimal.Decimal{}, false
}

// truthy evaluates a decoded JSON settings value the way the route toggles
// are written: booleans as-is, numbers non-zero, strings non-empty.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	}
	return false
}
