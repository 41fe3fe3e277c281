package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// RoutingColumns are the optional columns the routing engine reads off a
// document row when the table carries them.
var RoutingColumns = []string{
	"status",
	"reviewer_id", "reviewer_manual", "reviewed_by", "reviewed_by_manual",
	"approver_id", "approver_manual", "approved_by", "approved_by_manual",
	"amount_to_pay",
}

// DocumentRepository performs descriptor-driven reads and writes against
// whichever document table a descriptor names. Queries touch only columns the
// descriptor says exist.
type DocumentRepository struct {
	db database.Querier
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db database.Querier) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FetchRow reads the routing-relevant columns of one document. A missing
// table or row yields (nil, nil): submission must not be blocked by schema
// drift, so absence is a soft outcome.
func (r *DocumentRepository) FetchRow(ctx context.Context, desc *DocumentDescriptor, id int64) (DocumentRow, error) {
	if !desc.Exists {
		return nil, nil
	}

	var selected []string
	for _, col := range RoutingColumns {
		if desc.HasColumn(col) {
			selected = append(selected, quoteIdent(col))
		}
	}
	if len(selected) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		strings.Join(selected, ", "), quoteIdent(desc.Table), quoteIdent(desc.IDColumn),
	)

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to fetch document row")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	values, err := rows.Values()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to decode document row")
	}

	row := make(DocumentRow, len(values))
	for i, field := range rows.FieldDescriptions() {
		row[string(field.Name)] = values[i]
	}
	return row, nil
}

// GetStatus returns the current status of a document.
func (r *DocumentRepository) GetStatus(ctx context.Context, desc *DocumentDescriptor, id int64) (string, error) {
	if !desc.Exists || !desc.HasColumn("status") {
		return "", apperrors.NotFound(desc.Type, id)
	}

	query := fmt.Sprintf(
		"SELECT status FROM %s WHERE %s = $1",
		quoteIdent(desc.Table), quoteIdent(desc.IDColumn),
	)

	var status string
	err := r.db.QueryRow(ctx, query, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NotFound(desc.Type, id)
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to read document status")
	}
	return status, nil
}

// SetStatus writes the status column of a document.
func (r *DocumentRepository) SetStatus(ctx context.Context, desc *DocumentDescriptor, id int64, status string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET status = $2 WHERE %s = $1",
		quoteIdent(desc.Table), quoteIdent(desc.IDColumn),
	)

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update document status")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(desc.Type, id)
	}
	return nil
}

// UpdateColumns writes the subset of updates whose columns the table actually
// carries. Returns false without touching the row when no column applies.
// Column order is sorted so the generated SQL is deterministic.
func (r *DocumentRepository) UpdateColumns(ctx context.Context, desc *DocumentDescriptor, id int64, updates map[string]any) (bool, error) {
	if !desc.Exists {
		return false, nil
	}

	applicable := make([]string, 0, len(updates))
	for col := range updates {
		if desc.HasColumn(col) {
			applicable = append(applicable, col)
		}
	}
	if len(applicable) == 0 {
		return false, nil
	}
	sort.Strings(applicable)

	setClauses := make([]string, 0, len(applicable))
	args := []any{id}
	for i, col := range applicable {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", quoteIdent(col), i+2))
		args = append(args, updates[col])
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $1",
		quoteIdent(desc.Table), strings.Join(setClauses, ", "), quoteIdent(desc.IDColumn),
	)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update document columns")
	}
	return tag.RowsAffected() > 0, nil
}

// quoteIdent quotes a SQL identifier. Table and column names originate from
// the static registry or from the pluralization fallback, never raw user SQL,
// but they still pass through the sanitizer before interpolation.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
