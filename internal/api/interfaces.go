package api

import "github.com/pactorhq/pactor/internal/domain"

// Handler dependencies are the canonical domain interfaces. Aliased here so
// handler constructors read naturally without re-declaring them.
type (
	// ContractService defines contract create/read/update operations.
	ContractService = domain.ContractService
	// WorkflowService defines the approval workflow operations.
	WorkflowService = domain.WorkflowService
	// VersionService defines version history and changelog reads.
	VersionService = domain.VersionService
	// AuditService defines audit log query and maintenance operations.
	AuditService = domain.AuditService
)
