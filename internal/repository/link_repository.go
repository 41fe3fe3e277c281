package repository

import (
	"context"
	"fmt"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// LinkRepository reads and writes the disbursement-report association tables.
type LinkRepository struct {
	db database.Querier
}

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository(db database.Querier) *LinkRepository {
	return &LinkRepository{db: db}
}

// LinkedIDs returns the child document ids linked to a report through the
// given link table, ordered for deterministic cascade processing.
func (r *LinkRepository) LinkedIDs(ctx context.Context, link LinkDescriptor, reportID int64) ([]int64, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE disbursement_report_id = $1 ORDER BY %s",
		quoteIdent(link.ChildColumn), quoteIdent(link.Table), quoteIdent(link.ChildColumn),
	)

	rows, err := r.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to read report links")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan linked id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Link associates a child document with a report. Duplicate links are ignored.
func (r *LinkRepository) Link(ctx context.Context, link LinkDescriptor, reportID, childID int64) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (disbursement_report_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		quoteIdent(link.Table), quoteIdent(link.ChildColumn),
	)

	if _, err := r.db.Exec(ctx, query, reportID, childID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to link document to report")
	}
	return nil
}

// Unlink removes an association.
func (r *LinkRepository) Unlink(ctx context.Context, link LinkDescriptor, reportID, childID int64) error {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE disbursement_report_id = $1 AND %s = $2",
		quoteIdent(link.Table), quoteIdent(link.ChildColumn),
	)

	if _, err := r.db.Exec(ctx, query, reportID, childID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to unlink document from report")
	}
	return nil
}
