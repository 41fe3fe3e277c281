package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// Account is one entry in the chart of accounts.
type Account struct {
	ID          int64     `json:"account_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AccountType string    `json:"account_type"` // asset | liability | equity | income | expense
	ParentID    *int64    `json:"parent_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AccountRepository handles chart-of-accounts CRUD.
type AccountRepository struct {
	db database.Querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db database.Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts an account.
func (r *AccountRepository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (code, name, account_type, parent_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING account_id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query, a.Code, a.Name, a.AccountType, a.ParentID, a.IsActive).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID retrieves an account by primary key.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*Account, error) {
	query := `
		SELECT account_id, code, name, account_type, parent_id, is_active, created_at, updated_at
		FROM accounts
		WHERE account_id = $1
	`

	a := &Account{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Code, &a.Name, &a.AccountType, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("account", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get account")
	}
	return a, nil
}

// List returns accounts ordered by code, optionally active only.
func (r *AccountRepository) List(ctx context.Context, activeOnly bool) ([]*Account, error) {
	query := `
		SELECT account_id, code, name, account_type, parent_id, is_active, created_at, updated_at
		FROM accounts
	`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY code ASC"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list accounts")
	}
	defer rows.Close()

	accounts := make([]*Account, 0)
	for rows.Next() {
		a := &Account{}
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.AccountType, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan account")
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
