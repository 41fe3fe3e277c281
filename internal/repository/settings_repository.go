package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// Settings keys the workflow consumes.
const (
	SettingApprovalRoutes  = "document_approval_route_settings"
	SettingAmountThreshold = "approval_amount_threshold"
)

// pgUndefinedTable is the Postgres error code for a missing relation.
const pgUndefinedTable = "42P01"

// SettingsRepository reads and writes the generic key-value settings table.
type SettingsRepository struct {
	db database.Querier
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db database.Querier) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under key, decoded from JSON when it parses,
// otherwise as the raw string. A missing table or missing row is "not
// configured" and yields (nil, nil); only genuine store failures return an
// error, so callers can tell the two apart.
func (r *SettingsRepository) Get(ctx context.Context, key string) (any, error) {
	query := `
		SELECT setting_value
		FROM settings
		WHERE setting_key = $1
	`

	var raw string
	err := r.db.QueryRow(ctx, query, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to read setting")
	}

	return ParseSettingValue(raw), nil
}

// Put upserts a setting. Values that are not plain strings are stored as JSON.
func (r *SettingsRepository) Put(ctx context.Context, key string, value any) error {
	raw, ok := value.(string)
	if !ok {
		encoded, err := json.Marshal(value)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "failed to encode setting value")
		}
		raw = string(encoded)
	}

	query := `
		INSERT INTO settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value
	`

	if _, err := r.db.Exec(ctx, query, key, raw); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to write setting")
	}
	return nil
}

// ParseSettingValue decodes JSON when the stored text parses as JSON and
// returns the raw string otherwise.
func ParseSettingValue(raw string) any {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return decoded
	}
	return raw
}
