package service

import (
	"context"
	"sync"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/store"
)

// mockContractStore records calls and returns configured responses.
type mockContractStore struct {
	mu    sync.Mutex
	calls []string

	list            func(ctx context.Context, orgID string, filter models.ContractFilter) ([]models.Contract, bool, error)
	get             func(ctx context.Context, orgID, contractID string) (*models.Contract, error)
	create          func(ctx context.Context, orgID string, req models.CreateContractRequest, actorID string, contentChange *models.ContentChange) (*models.Contract, *models.ContractVersion, error)
	updateDraft     func(ctx context.Context, orgID, contractID string, req models.UpdateContractRequest) (*models.Contract, error)
	applyTransition func(ctx context.Context, orgID string, w store.TransitionWrite) (*store.TransitionResult, error)
}

func (m *mockContractStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockContractStore) List(ctx context.Context, orgID string, filter models.ContractFilter) ([]models.Contract, bool, error) {
	m.record("List")
	return m.list(ctx, orgID, filter)
}

func (m *mockContractStore) Get(ctx context.Context, orgID, contractID string) (*models.Contract, error) {
	m.record("Get")
	return m.get(ctx, orgID, contractID)
}

func (m *mockContractStore) Create(ctx context.Context, orgID string, req models.CreateContractRequest, actorID string, contentChange *models.ContentChange) (*models.Contract, *models.ContractVersion, error) {
	m.record("Create")
	return m.create(ctx, orgID, req, actorID, contentChange)
}

func (m *mockContractStore) UpdateDraft(ctx context.Context, orgID, contractID string, req models.UpdateContractRequest) (*models.Contract, error) {
	m.record("UpdateDraft")
	return m.updateDraft(ctx, orgID, contractID, req)
}

func (m *mockContractStore) ApplyTransition(ctx context.Context, orgID string, w store.TransitionWrite) (*store.TransitionResult, error) {
	m.record("ApplyTransition")
	return m.applyTransition(ctx, orgID, w)
}

// mockApprovalStore records calls and returns configured responses.
type mockApprovalStore struct {
	mu    sync.Mutex
	calls []string

	getOpen        func(ctx context.Context, orgID, contractID string, typ models.ApprovalType) (*models.ApprovalRecord, error)
	listByContract func(ctx context.Context, orgID, contractID string) ([]models.ApprovalRecord, error)
}

func (m *mockApprovalStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockApprovalStore) GetOpen(ctx context.Context, orgID, contractID string, typ models.ApprovalType) (*models.ApprovalRecord, error) {
	m.record("GetOpen")
	return m.getOpen(ctx, orgID, contractID, typ)
}

func (m *mockApprovalStore) ListByContract(ctx context.Context, orgID, contractID string) ([]models.ApprovalRecord, error) {
	m.record("ListByContract")
	return m.listByContract(ctx, orgID, contractID)
}

// mockVersionStore covers both the append and read sides of version access.
type mockVersionStore struct {
	mu    sync.Mutex
	calls []string

	latest       func(ctx context.Context, orgID, contractID string) (*models.ContractVersion, error)
	append       func(ctx context.Context, orgID string, w store.VersionWrite) (*models.ContractVersion, *models.ChangeLogEntry, error)
	list         func(ctx context.Context, orgID string, q models.VersionListQuery) ([]models.ContractVersion, bool, error)
	get          func(ctx context.Context, orgID, contractID string, sequence int) (*models.ContractVersion, error)
	getChangelog func(ctx context.Context, orgID, contractID string, sequence int) (*models.ChangeLogEntry, error)
}

func (m *mockVersionStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockVersionStore) Latest(ctx context.Context, orgID, contractID string) (*models.ContractVersion, error) {
	m.record("Latest")
	return m.latest(ctx, orgID, contractID)
}

func (m *mockVersionStore) Append(ctx context.Context, orgID string, w store.VersionWrite) (*models.ContractVersion, *models.ChangeLogEntry, error) {
	m.record("Append")
	return m.append(ctx, orgID, w)
}

func (m *mockVersionStore) List(ctx context.Context, orgID string, q models.VersionListQuery) ([]models.ContractVersion, bool, error) {
	m.record("List")
	return m.list(ctx, orgID, q)
}

func (m *mockVersionStore) Get(ctx context.Context, orgID, contractID string, sequence int) (*models.ContractVersion, error) {
	m.record("Get")
	return m.get(ctx, orgID, contractID, sequence)
}

func (m *mockVersionStore) GetChangelog(ctx context.Context, orgID, contractID string, sequence int) (*models.ChangeLogEntry, error) {
	m.record("GetChangelog")
	return m.getChangelog(ctx, orgID, contractID, sequence)
}

// mockVersioning stands in for VersioningService in contract tests.
type mockVersioning struct {
	mu    sync.Mutex
	calls []int // expectedSequence of each call

	createVersionIfChanged func(ctx context.Context, orgID, contractID string, proposed models.Snapshot, business *models.UpdateContractRequest, actorID string, expectedSequence int) (*models.ContractVersion, *models.ChangeLogEntry, error)
}

func (m *mockVersioning) CreateVersionIfChanged(ctx context.Context, orgID, contractID string, proposed models.Snapshot, business *models.UpdateContractRequest, actorID string, expectedSequence int) (*models.ContractVersion, *models.ChangeLogEntry, error) {
	m.mu.Lock()
	m.calls = append(m.calls, expectedSequence)
	m.mu.Unlock()
	return m.createVersionIfChanged(ctx, orgID, contractID, proposed, business, actorID, expectedSequence)
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []AuditJob

	err error
}

func (m *mockAuditor) RecordAudit(ctx context.Context, orgID string, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, AuditJob{OrgID: orgID, Entry: entry})
	return m.err
}

func (m *mockAuditor) getCalls() []AuditJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]AuditJob, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// mockEnqueuer captures enqueued audit jobs synchronously.
type mockEnqueuer struct {
	mu   sync.Mutex
	jobs []*AuditJob
}

func (m *mockEnqueuer) Enqueue(job *AuditJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockEnqueuer) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Entry.Action
	}
	return out
}
