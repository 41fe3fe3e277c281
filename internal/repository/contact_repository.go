package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/database"
)

// Contact is a payee or supplier contact.
type Contact struct {
	ID          int64      `json:"contact_id"`
	Name        string     `json:"name"`
	ContactType string     `json:"contact_type"` // payee | supplier | employee | other
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ContactRepository handles contact CRUD.
type ContactRepository struct {
	db database.Querier
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db database.Querier) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a contact.
func (r *ContactRepository) Create(ctx context.Context, c *Contact) error {
	query := `
		INSERT INTO contacts (name, contact_type, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING contact_id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query, c.Name, c.ContactType, c.Email, c.Phone).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a contact by primary key.
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*Contact, error) {
	query := `
		SELECT contact_id, name, contact_type, email, phone, created_at, updated_at
		FROM contacts
		WHERE contact_id = $1
	`

	c := &Contact{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.ContactType, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("contact", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get contact")
	}
	return c, nil
}

// List returns all contacts ordered by name.
func (r *ContactRepository) List(ctx context.Context) ([]*Contact, error) {
	query := `
		SELECT contact_id, name, contact_type, email, phone, created_at, updated_at
		FROM contacts
		ORDER BY name ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list contacts")
	}
	defer rows.Close()

	contacts := make([]*Contact, 0)
	for rows.Next() {
		c := &Contact{}
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactType, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Update persists changes to a contact.
func (r *ContactRepository) Update(ctx context.Context, c *Contact) error {
	query := `
		UPDATE contacts
		SET name = $2, contact_type = $3, email = $4, phone = $5, updated_at = NOW()
		WHERE contact_id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, c.ID, c.Name, c.ContactType, c.Email, c.Phone).
		Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("contact", c.ID)
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update contact")
	}
	return nil
}
