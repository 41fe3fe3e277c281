package service

import (
	"context"
	"fmt"

	"github.com/ledgerline/be-acct-approvals/internal/apperrors"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
)

// In-memory fakes backing the workflow service tests. One fakeStore instance
// plays every store role so a test sets up a single world and wires all
// services against it.

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", ServiceName: "test"})
}

type fakeDocument struct {
	Status string
	Row    repository.DocumentRow
}

type fakeStore struct {
	descriptors map[string]*repository.DocumentDescriptor
	linkTables  map[string]bool
	documents   map[string]map[int64]*fakeDocument
	links       map[string][]int64 // link table -> child ids for the report under test
	settings    map[string]any
	userDefault map[int64]*repository.UserDefaults
	logEntries  []*repository.ApprovalLogEntry
	events      []string

	// Per-call mutation counters keyed by "table/id".
	statusWrites map[string]int
	columnWrites map[string]map[string]any

	settingsErr error
	fetchErr    error
	linksErr    map[string]error
}

func newFakeStore() *fakeStore {
	f := &fakeStore{
		descriptors:  map[string]*repository.DocumentDescriptor{},
		linkTables:   map[string]bool{},
		documents:    map[string]map[int64]*fakeDocument{},
		links:        map[string][]int64{},
		settings:     map[string]any{},
		userDefault:  map[int64]*repository.UserDefaults{},
		statusWrites: map[string]int{},
		columnWrites: map[string]map[string]any{},
		linksErr:     map[string]error{},
	}
	for _, docType := range []string{
		repository.DocTypePaymentVoucher,
		repository.DocTypeCheckVoucher,
		repository.DocTypeDisbursementReport,
		repository.DocTypeScheduledPayment,
	} {
		table, idCol := repository.Locate(docType)
		f.descriptors[docType] = &repository.DocumentDescriptor{
			Type:     docType,
			Table:    table,
			IDColumn: idCol,
			Exists:   true,
			Columns: map[string]bool{
				"status":          true,
				"reviewer_id":     true,
				"reviewer_manual": true,
				"approver_id":     true,
				"approver_manual": true,
				"approved_at":     true,
				"paid_at":         true,
				"amount_to_pay":   true,
			},
		}
	}
	for _, link := range repository.ReportLinkTables {
		f.linkTables[link.Table] = true
	}
	return f
}

// addDocument seeds one document row. The row always carries status.
func (f *fakeStore) addDocument(docType string, id int64, status string, row repository.DocumentRow) {
	desc := f.descriptors[docType]
	if f.documents[desc.Table] == nil {
		f.documents[desc.Table] = map[int64]*fakeDocument{}
	}
	if row == nil {
		row = repository.DocumentRow{}
	}
	row["status"] = status
	f.documents[desc.Table][id] = &fakeDocument{Status: status, Row: row}
}

func (f *fakeStore) status(docType string, id int64) string {
	desc := f.descriptors[docType]
	doc := f.documents[desc.Table][id]
	if doc == nil {
		return ""
	}
	return doc.Status
}

func key(table string, id int64) string { return fmt.Sprintf("%s/%d", table, id) }

// ── DocumentResolver ─────────────────────────────────────────────────────────

func (f *fakeStore) Resolve(_ context.Context, documentType string) (*repository.DocumentDescriptor, error) {
	if desc, ok := f.descriptors[documentType]; ok {
		return desc, nil
	}
	table, idCol := repository.Locate(documentType)
	return &repository.DocumentDescriptor{Type: documentType, Table: table, IDColumn: idCol}, nil
}

func (f *fakeStore) LinkTableExists(_ context.Context, table string) (bool, error) {
	return f.linkTables[table], nil
}

// ── DocumentStore ────────────────────────────────────────────────────────────

func (f *fakeStore) FetchRow(_ context.Context, desc *repository.DocumentDescriptor, id int64) (repository.DocumentRow, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if !desc.Exists {
		return nil, nil
	}
	doc := f.documents[desc.Table][id]
	if doc == nil {
		return nil, nil
	}
	return doc.Row, nil
}

func (f *fakeStore) GetStatus(_ context.Context, desc *repository.DocumentDescriptor, id int64) (string, error) {
	doc := f.documents[desc.Table][id]
	if doc == nil {
		return "", apperrors.NotFound(desc.Type, id)
	}
	return doc.Status, nil
}

func (f *fakeStore) SetStatus(_ context.Context, desc *repository.DocumentDescriptor, id int64, status string) error {
	doc := f.documents[desc.Table][id]
	if doc == nil {
		return apperrors.NotFound(desc.Type, id)
	}
	doc.Status = status
	doc.Row["status"] = status
	f.statusWrites[key(desc.Table, id)]++
	return nil
}

func (f *fakeStore) UpdateColumns(_ context.Context, desc *repository.DocumentDescriptor, id int64, updates map[string]any) (bool, error) {
	doc := f.documents[desc.Table][id]
	if doc == nil {
		return false, nil
	}
	applied := false
	for col, val := range updates {
		if !desc.HasColumn(col) {
			continue
		}
		doc.Row[col] = val
		applied = true
		if f.columnWrites[key(desc.Table, id)] == nil {
			f.columnWrites[key(desc.Table, id)] = map[string]any{}
		}
		f.columnWrites[key(desc.Table, id)][col] = val
	}
	return applied, nil
}

// ── LinkStore ────────────────────────────────────────────────────────────────

func (f *fakeStore) LinkedIDs(_ context.Context, link repository.LinkDescriptor, _ int64) ([]int64, error) {
	if err := f.linksErr[link.Table]; err != nil {
		return nil, err
	}
	return f.links[link.Table], nil
}

// ── SettingsStore ────────────────────────────────────────────────────────────

func (f *fakeStore) Get(_ context.Context, setting string) (any, error) {
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	return f.settings[setting], nil
}

// ── UserStore ────────────────────────────────────────────────────────────────

func (f *fakeStore) GetWorkflowDefaults(_ context.Context, userID int64) (*repository.UserDefaults, error) {
	return f.userDefault[userID], nil
}

// ── LogStore ─────────────────────────────────────────────────────────────────

func (f *fakeStore) Append(_ context.Context, entry *repository.ApprovalLogEntry) error {
	f.logEntries = append(f.logEntries, entry)
	return nil
}

func (f *fakeStore) GetByEntity(_ context.Context, entityType string, entityID int64) ([]*repository.ApprovalLogEntry, error) {
	var out []*repository.ApprovalLogEntry
	for _, e := range f.logEntries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ── Notifier ─────────────────────────────────────────────────────────────────

func (f *fakeStore) PublishDocumentEvent(eventType, documentType string, documentID int64, _ *int64, _ map[string]any) {
	f.events = append(f.events, fmt.Sprintf("%s:%s:%d", eventType, documentType, documentID))
}

// ── wiring helpers ───────────────────────────────────────────────────────────

func newRoutingService(f *fakeStore) *RoutingService {
	return NewRoutingService(f, f, f, f, testLogger())
}

func newCascadeService(f *fakeStore) *CascadeService {
	log := testLogger()
	guard := NewTransitionService(f, log)
	return NewCascadeService(f, f, f, guard, f, log)
}

func newSubmissionService(f *fakeStore) *SubmissionService {
	log := testLogger()
	routing := NewRoutingService(f, f, f, f, log)
	guard := NewTransitionService(f, log)
	cascade := NewCascadeService(f, f, f, guard, f, log)
	return NewSubmissionService(routing, guard, cascade, f, f, f, f, log)
}

// enableRouting switches the approval route on for the given types.
func (f *fakeStore) enableRouting(docTypes ...string) {
	routes := map[string]any{}
	for _, t := range docTypes {
		routes[t] = true
	}
	f.settings[repository.SettingApprovalRoutes] = routes
}

func ptrInt64(v int64) *int64    { return &v }
func ptrString(v string) *string { return &v }
