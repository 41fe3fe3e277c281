package repository

import (
	"context"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// SchemaRepository answers table/column existence questions from the
// information_schema catalog. It is consulted by the document registry at
// resolution time, not per routing call.
type SchemaRepository struct {
	db database.Querier
}

// NewSchemaRepository creates a new SchemaRepository.
func NewSchemaRepository(db database.Querier) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// TableExists reports whether a table is present in the current schema.
func (r *SchemaRepository) TableExists(ctx context.Context, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = current_schema()
			  AND table_name = $1
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, table).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to probe table existence")
	}
	return exists, nil
}

// TableColumns returns the set of column names a table carries. An empty set
// is returned for tables that do not exist.
func (r *SchemaRepository) TableColumns(ctx context.Context, table string) (map[string]bool, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = $1
	`

	rows, err := r.db.Query(ctx, query, table)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to probe table columns")
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan column name")
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
