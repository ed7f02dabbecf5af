package api_test

import (
	"context"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/workflow"
)

// mockContractService implements api.ContractService for testing.
type mockContractService struct {
	listFn   func(ctx context.Context, orgID string, filter models.ContractFilter) ([]models.Contract, bool, error)
	getFn    func(ctx context.Context, orgID, contractID string) (*models.Contract, error)
	createFn func(ctx context.Context, orgID string, req models.CreateContractRequest, actorID string) (*models.Contract, error)
	updateFn func(ctx context.Context, orgID, contractID string, req models.UpdateContractRequest, actorID string) (*models.Contract, error)
}

func (m *mockContractService) ListContracts(ctx context.Context, orgID string, filter models.ContractFilter) ([]models.Contract, bool, error) {
	return m.listFn(ctx, orgID, filter)
}

func (m *mockContractService) GetContract(ctx context.Context, orgID, contractID string) (*models.Contract, error) {
	return m.getFn(ctx, orgID, contractID)
}

func (m *mockContractService) CreateContract(ctx context.Context, orgID string, req models.CreateContractRequest, actorID string) (*models.Contract, error) {
	return m.createFn(ctx, orgID, req, actorID)
}

func (m *mockContractService) UpdateContract(ctx context.Context, orgID, contractID string, req models.UpdateContractRequest, actorID string) (*models.Contract, error) {
	return m.updateFn(ctx, orgID, contractID, req, actorID)
}

// mockWorkflowService implements api.WorkflowService for testing. Review
// actions share recordFn, contract-only actions share actionFn; the action
// name is captured so tests can assert routing.
type mockWorkflowService struct {
	lastAction    string
	lastComment   *string
	lastEscalatee string
	recordFn      func(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, *models.ApprovalRecord, error)
	actionFn      func(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error)
	approvalsFn   func(ctx context.Context, orgID, contractID string) ([]models.ApprovalRecord, error)
}

func (m *mockWorkflowService) record(action string, ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error) {
	m.lastAction = action
	m.lastComment = comment
	return m.recordFn(ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) action(action string, ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error) {
	m.lastAction = action
	return m.actionFn(ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) Submit(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, *models.ApprovalRecord, error) {
	return m.record("submit", ctx, orgID, contractID, actorID, perms, nil)
}

func (m *mockWorkflowService) Approve(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error) {
	return m.record("approve", ctx, orgID, contractID, actorID, perms, comment)
}

func (m *mockWorkflowService) Reject(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error) {
	return m.record("reject", ctx, orgID, contractID, actorID, perms, comment)
}

func (m *mockWorkflowService) RequestRevision(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error) {
	return m.record("request_revision", ctx, orgID, contractID, actorID, perms, comment)
}

func (m *mockWorkflowService) ReturnToManager(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error) {
	return m.record("return_to_manager", ctx, orgID, contractID, actorID, perms, comment)
}

func (m *mockWorkflowService) Escalate(ctx context.Context, orgID, contractID, actorID, escalatedToUserID string, perms workflow.PermissionSet) (*models.Contract, error) {
	m.lastEscalatee = escalatedToUserID
	return m.action("escalate", ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) EscalateToLegalHead(ctx context.Context, orgID, contractID, actorID, legalHeadUserID string, perms workflow.PermissionSet, reason *string) (*models.Contract, error) {
	m.lastEscalatee = legalHeadUserID
	m.lastComment = reason
	return m.action("escalate_to_legal_head", ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) Send(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error) {
	return m.action("send", ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) UploadSigned(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error) {
	return m.action("upload_signed", ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) Activate(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error) {
	return m.action("activate", ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) Terminate(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error) {
	return m.action("terminate", ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) Expire(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error) {
	return m.action("expire", ctx, orgID, contractID, actorID, perms)
}

func (m *mockWorkflowService) ListApprovals(ctx context.Context, orgID, contractID string) ([]models.ApprovalRecord, error) {
	return m.approvalsFn(ctx, orgID, contractID)
}

// mockVersionService implements api.VersionService for testing.
type mockVersionService struct {
	listFn      func(ctx context.Context, orgID string, q models.VersionListQuery) ([]models.ContractVersion, bool, error)
	getFn       func(ctx context.Context, orgID, contractID string, sequence int) (*models.ContractVersion, error)
	changelogFn func(ctx context.Context, orgID, contractID string, sequence int) (*models.ChangeLogEntry, error)
	compareFn   func(ctx context.Context, orgID, contractID string, fromSeq, toSeq int) (*models.ChangeLogEntry, error)
}

func (m *mockVersionService) ListVersions(ctx context.Context, orgID string, q models.VersionListQuery) ([]models.ContractVersion, bool, error) {
	return m.listFn(ctx, orgID, q)
}

func (m *mockVersionService) GetVersion(ctx context.Context, orgID, contractID string, sequence int) (*models.ContractVersion, error) {
	return m.getFn(ctx, orgID, contractID, sequence)
}

func (m *mockVersionService) GetChangelog(ctx context.Context, orgID, contractID string, sequence int) (*models.ChangeLogEntry, error) {
	return m.changelogFn(ctx, orgID, contractID, sequence)
}

func (m *mockVersionService) CompareVersions(ctx context.Context, orgID, contractID string, fromSeq, toSeq int) (*models.ChangeLogEntry, error) {
	return m.compareFn(ctx, orgID, contractID, fromSeq, toSeq)
}

// mockAuditService implements api.AuditService for testing.
type mockAuditService struct {
	queryFn func(ctx context.Context, orgID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeFn func(ctx context.Context, orgID string, retentionDays int) (int, error)
}

func (m *mockAuditService) RecordAudit(_ context.Context, _ string, _ models.AuditEntry) error {
	return nil
}

func (m *mockAuditService) QueryAudit(ctx context.Context, orgID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, orgID, opts)
}

func (m *mockAuditService) PurgeOldEntries(ctx context.Context, orgID string, retentionDays int) (int, error) {
	return m.purgeFn(ctx, orgID, retentionDays)
}
