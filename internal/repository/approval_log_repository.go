package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// ApprovalLogRepository appends and reads immutable approval log entries.
type ApprovalLogRepository struct {
	db database.Querier
}

// NewApprovalLogRepository creates a new ApprovalLogRepository.
func NewApprovalLogRepository(db database.Querier) *ApprovalLogRepository {
	return &ApprovalLogRepository{db: db}
}

// Append inserts one log entry. Append is the only mutation exposed.
func (r *ApprovalLogRepository) Append(ctx context.Context, entry *ApprovalLogEntry) error {
	var payloadJSON []byte
	if entry.Payload != nil {
		var err error
		payloadJSON, err = json.Marshal(entry.Payload)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to marshal log payload")
		}
	}

	query := `
		INSERT INTO approval_logs
		    (entity_type, entity_id, action, actor_user_id, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return r.db.QueryRow(ctx, query,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.ActorUserID,
		payloadJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// GetByEntity returns the log trail for one entity ordered oldest-first.
func (r *ApprovalLogRepository) GetByEntity(ctx context.Context, entityType string, entityID int64) ([]*ApprovalLogEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, actor_user_id, payload, created_at
		FROM approval_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get approval log")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func (r *ApprovalLogRepository) scanRows(rows pgx.Rows) ([]*ApprovalLogEntry, error) {
	var entries []*ApprovalLogEntry
	for rows.Next() {
		entry := &ApprovalLogEntry{}
		var payloadJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.ActorUserID,
			&payloadJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan log entry")
		}

		if payloadJSON != nil {
			if err := json.Unmarshal(payloadJSON, &entry.Payload); err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to unmarshal log payload")
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
