package repository

import (
	"context"
	"sync"
)

// knownDocumentTables is the fixed type → (table, id column) mapping for the
// document types the workflow understands natively.
var knownDocumentTables = map[string]struct {
	table    string
	idColumn string
}{
	DocTypePaymentVoucher:     {"payment_vouchers", "payment_voucher_id"},
	DocTypeCheckVoucher:       {"check_vouchers", "check_voucher_id"},
	DocTypeDisbursementReport: {"disbursement_reports", "disbursement_report_id"},
	DocTypeScheduledPayment:   {"scheduled_payments", "scheduled_payment_id"},
}

// DocumentRegistry resolves document types to capability descriptors.
// Descriptors are probed from information_schema once and cached, so routing
// calls never repeat catalog queries. Unknown types resolve through the
// pluralization fallback (<type>s / <type>_id) and are probed lazily.
type DocumentRegistry struct {
	schema *SchemaRepository

	mu          sync.RWMutex
	descriptors map[string]*DocumentDescriptor
	linkTables  map[string]bool
}

// NewDocumentRegistry creates a registry backed by the given schema probe.
func NewDocumentRegistry(schema *SchemaRepository) *DocumentRegistry {
	return &DocumentRegistry{
		schema:      schema,
		descriptors: make(map[string]*DocumentDescriptor),
		linkTables:  make(map[string]bool),
	}
}

// Locate maps a document type to its backing table and id column without
// touching the database. Unknown types fall back to <type>s / <type>_id.
func Locate(documentType string) (table, idColumn string) {
	if known, ok := knownDocumentTables[documentType]; ok {
		return known.table, known.idColumn
	}
	return documentType + "s", documentType + "_id"
}

// Load probes and caches descriptors for all known document types and the
// report link tables. Called once at startup; resolution failures for
// individual tables are not fatal here; the descriptor records absence.
func (reg *DocumentRegistry) Load(ctx context.Context) error {
	for docType := range knownDocumentTables {
		if _, err := reg.Resolve(ctx, docType); err != nil {
			return err
		}
	}
	for _, link := range ReportLinkTables {
		if _, err := reg.LinkTableExists(ctx, link.Table); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the cached descriptor for a document type, probing and
// caching it on first use.
func (reg *DocumentRegistry) Resolve(ctx context.Context, documentType string) (*DocumentDescriptor, error) {
	reg.mu.RLock()
	desc, ok := reg.descriptors[documentType]
	reg.mu.RUnlock()
	if ok {
		return desc, nil
	}

	table, idColumn := Locate(documentType)
	exists, err := reg.schema.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}

	columns := map[string]bool{}
	if exists {
		columns, err = reg.schema.TableColumns(ctx, table)
		if err != nil {
			return nil, err
		}
	}

	desc = &DocumentDescriptor{
		Type:     documentType,
		Table:    table,
		IDColumn: idColumn,
		Exists:   exists,
		Columns:  columns,
	}

	reg.mu.Lock()
	reg.descriptors[documentType] = desc
	reg.mu.Unlock()

	return desc, nil
}

// LinkTableExists reports (and caches) whether a report link table is present.
func (reg *DocumentRegistry) LinkTableExists(ctx context.Context, table string) (bool, error) {
	reg.mu.RLock()
	exists, ok := reg.linkTables[table]
	reg.mu.RUnlock()
	if ok {
		return exists, nil
	}

	exists, err := reg.schema.TableExists(ctx, table)
	if err != nil {
		return false, err
	}

	reg.mu.Lock()
	reg.linkTables[table] = exists
	reg.mu.Unlock()

	return exists, nil
}
