// Package domain defines the canonical service interfaces shared across
// adapter layers (REST handlers, CLI, client). Consumers should depend on
// these interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/workflow"
)

// ContractService defines contract create/read/update operations.
type ContractService interface {
	ListContracts(ctx context.Context, orgID string, filter models.ContractFilter) ([]models.Contract, bool, error)
	GetContract(ctx context.Context, orgID, contractID string) (*models.Contract, error)
	CreateContract(ctx context.Context, orgID string, req models.CreateContractRequest, actorID string) (*models.Contract, error)
	UpdateContract(ctx context.Context, orgID, contractID string, req models.UpdateContractRequest, actorID string) (*models.Contract, error)
}

// WorkflowService defines the approval workflow operations. Every method
// takes the actor's resolved permission set; the pure state machine checks
// membership, nothing here resolves permissions.
type WorkflowService interface {
	Submit(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, *models.ApprovalRecord, error)
	Approve(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error)
	Reject(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error)
	RequestRevision(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error)
	Escalate(ctx context.Context, orgID, contractID, actorID, escalatedToUserID string, perms workflow.PermissionSet) (*models.Contract, error)
	EscalateToLegalHead(ctx context.Context, orgID, contractID, actorID, legalHeadUserID string, perms workflow.PermissionSet, reason *string) (*models.Contract, error)
	ReturnToManager(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error)
	Send(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error)
	UploadSigned(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error)
	Activate(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error)
	Terminate(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error)
	Expire(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error)
	ListApprovals(ctx context.Context, orgID, contractID string) ([]models.ApprovalRecord, error)
}

// VersionService defines version history and changelog reads.
type VersionService interface {
	ListVersions(ctx context.Context, orgID string, q models.VersionListQuery) ([]models.ContractVersion, bool, error)
	GetVersion(ctx context.Context, orgID, contractID string, sequence int) (*models.ContractVersion, error)
	GetChangelog(ctx context.Context, orgID, contractID string, sequence int) (*models.ChangeLogEntry, error)
	CompareVersions(ctx context.Context, orgID, contractID string, fromSeq, toSeq int) (*models.ChangeLogEntry, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, orgID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, orgID string, retentionDays int) (int, error)
}

// Auditor is the minimal interface for recording audit entries.
// Used by services for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, orgID string, entry models.AuditEntry) error
}
