package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// UserRepository reads per-user workflow defaults used as routing fallback.
type UserRepository struct {
	db database.Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// GetWorkflowDefaults returns the user's own reviewer/approver assignment.
// A missing user yields (nil, nil); routing falls back to manual assignment.
func (r *UserRepository) GetWorkflowDefaults(ctx context.Context, userID int64) (*UserDefaults, error) {
	query := `
		SELECT user_id, reviewer_id, reviewer_manual, approver_id, approver_manual
		FROM users
		WHERE user_id = $1
	`

	defaults := &UserDefaults{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&defaults.UserID,
		&defaults.ReviewerID,
		&defaults.ReviewerManual,
		&defaults.ApproverID,
		&defaults.ApproverManual,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to read user workflow defaults")
	}
	return defaults, nil
}
