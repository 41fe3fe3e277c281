package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// MasterDataService handles contacts, chart of accounts, and workflow settings.
type MasterDataService struct {
	contacts *repository.ContactRepository
	accounts *repository.AccountRepository
	settings *repository.SettingsRepository
	validate *validator.Validate
	log      *logger.Logger
}

// NewMasterDataService creates a new MasterDataService.
func NewMasterDataService(
	contacts *repository.ContactRepository,
	accounts *repository.AccountRepository,
	settings *repository.SettingsRepository,
	log *logger.Logger,
) *MasterDataService {
	return &MasterDataService{
		contacts: contacts,
		accounts: accounts,
		settings: settings,
		validate: validator.New(),
		log:      log,
	}
}

// ── Contacts ─────────────────────────────────────────────────────────────────

// ContactRequest creates or updates a contact.
type ContactRequest struct {
	Name        string  `json:"name" validate:"required"`
	ContactType string  `json:"contact_type" validate:"required,oneof=payee supplier employee other"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
}

// CreateContact validates and persists a new contact.
func (s *MasterDataService) CreateContact(ctx context.Context, req *ContactRequest) (*repository.Contact, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid contact")
	}

	c := &repository.Contact{
		Name:        req.Name,
		ContactType: req.ContactType,
		Email:       req.Email,
		Phone:       req.Phone,
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create contact")
	}
	return c, nil
}

// GetContact retrieves one contact.
func (s *MasterDataService) GetContact(ctx context.Context, id int64) (*repository.Contact, error) {
	return s.contacts.GetByID(ctx, id)
}

// ListContacts returns all contacts.
func (s *MasterDataService) ListContacts(ctx context.Context) ([]*repository.Contact, error) {
	return s.contacts.List(ctx)
}

// UpdateContact validates and persists changes to a contact.
func (s *MasterDataService) UpdateContact(ctx context.Context, id int64, req *ContactRequest) (*repository.Contact, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid contact")
	}

	c, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	c.ContactType = req.ContactType
	c.Email = req.Email
	c.Phone = req.Phone

	if err := s.contacts.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ── Chart of accounts ────────────────────────────────────────────────────────

// AccountRequest creates an account.
type AccountRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	AccountType string `json:"account_type" validate:"required,oneof=asset liability equity income expense"`
	ParentID    *int64 `json:"parent_id"`
}

// CreateAccount validates and persists a new account.
func (s *MasterDataService) CreateAccount(ctx context.Context, req *AccountRequest) (*repository.Account, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid account")
	}

	a := &repository.Account{
		Code:        req.Code,
		Name:        req.Name,
		AccountType: req.AccountType,
		ParentID:    req.ParentID,
		IsActive:    true,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create account")
	}
	return a, nil
}

// GetAccount retrieves one account.
func (s *MasterDataService) GetAccount(ctx context.Context, id int64) (*repository.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// ListAccounts returns the chart of accounts.
func (s *MasterDataService) ListAccounts(ctx context.Context, activeOnly bool) ([]*repository.Account, error) {
	return s.accounts.List(ctx, activeOnly)
}

// ── Workflow settings ────────────────────────────────────────────────────────

// GetSetting returns a setting's parsed value, or nil when unset.
func (s *MasterDataService) GetSetting(ctx context.Context, key string) (any, error) {
	return s.settings.Get(ctx, key)
}

// PutSetting stores a setting value. Non-string values are stored as JSON.
func (s *MasterDataService) PutSetting(ctx context.Context, key string, value any) error {
	if key == "" {
		return apperrors.InvalidInput("key", "is required")
	}
	if err := s.settings.Put(ctx, key, value); err != nil {
		return err
	}

	s.log.Info().Str("setting_key", key).Msg("Setting updated")
	return nil
}
