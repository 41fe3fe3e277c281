package service

import (
	"context"

	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// Store interfaces consumed by the workflow services. The repository package
// provides the real implementations; tests substitute in-memory fakes.

// DocumentResolver resolves document types to capability descriptors.
type DocumentResolver interface {
	Resolve(ctx context.Context, documentType string) (*repository.DocumentDescriptor, error)
	LinkTableExists(ctx context.Context, table string) (bool, error)
}

// DocumentStore reads and writes document rows through their descriptors.
type DocumentStore interface {
	FetchRow(ctx context.Context, desc *repository.DocumentDescriptor, id int64) (repository.DocumentRow, error)
	GetStatus(ctx context.Context, desc *repository.DocumentDescriptor, id int64) (string, error)
	SetStatus(ctx context.Context, desc *repository.DocumentDescriptor, id int64, status string) error
	UpdateColumns(ctx context.Context, desc *repository.DocumentDescriptor, id int64, updates map[string]any) (bool, error)
}

// LinkStore reads report→child associations.
type LinkStore interface {
	LinkedIDs(ctx context.Context, link repository.LinkDescriptor, reportID int64) ([]int64, error)
}

// SettingsStore reads workflow configuration values.
type SettingsStore interface {
	Get(ctx context.Context, key string) (any, error)
}

// UserStore reads per-user workflow defaults.
type UserStore interface {
	GetWorkflowDefaults(ctx context.Context, userID int64) (*repository.UserDefaults, error)
}

// LogStore appends and reads approval log entries.
type LogStore interface {
	Append(ctx context.Context, entry *repository.ApprovalLogEntry) error
	GetByEntity(ctx context.Context, entityType string, entityID int64) ([]*repository.ApprovalLogEntry, error)
}

// Notifier publishes approval events. Implementations must be non-blocking
// on failure; a nil-safe no-op implementation is acceptable.
type Notifier interface {
	PublishDocumentEvent(eventType, documentType string, documentID int64, actorUserID *int64, payload map[string]any)
}
