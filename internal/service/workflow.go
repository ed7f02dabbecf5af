// Package service provides business logic between API handlers and data
// stores.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/domain"
	"github.com/pactorhq/pactor/internal/metrics"
	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/store"
	"github.com/pactorhq/pactor/internal/workflow"
)

// Compile-time check: *WorkflowService must satisfy domain.WorkflowService.
var _ domain.WorkflowService = (*WorkflowService)(nil)

// workflowContracts is the contract data access WorkflowService depends on.
type workflowContracts interface {
	Get(ctx context.Context, orgID, contractID string) (*models.Contract, error)
	ApplyTransition(ctx context.Context, orgID string, w store.TransitionWrite) (*store.TransitionResult, error)
}

// workflowApprovals is the approval data access WorkflowService depends on.
type workflowApprovals interface {
	GetOpen(ctx context.Context, orgID, contractID string, typ models.ApprovalType) (*models.ApprovalRecord, error)
	ListByContract(ctx context.Context, orgID, contractID string) ([]models.ApprovalRecord, error)
}

// WorkflowService orchestrates workflow actions end-to-end: it loads the
// contract and its open approval record, asks the pure state machine for
// the legal transition, applies it as one atomic write, and emits an
// audit event. The state machine decision and the write are separated by
// an unavoidable read-decide-write window; the CAS conditions inside
// ApplyTransition close it, so concurrent actors produce exactly one
// committed transition.
type WorkflowService struct {
	contracts   workflowContracts
	approvals   workflowApprovals
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewWorkflowService creates a WorkflowService.
func NewWorkflowService(
	contracts workflowContracts,
	approvals workflowApprovals,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
) *WorkflowService {
	return &WorkflowService{contracts: contracts, approvals: approvals, auditWorker: auditWorker, log: log}
}

// actOpts carries the per-action extras threaded into the transition write.
type actOpts struct {
	comment     *string
	escalatedTo *string
	setActed    bool
}

// act runs one workflow action: load, decide, apply, audit.
func (s *WorkflowService) act(
	ctx context.Context,
	orgID, contractID, actorID string,
	perms workflow.PermissionSet,
	action workflow.Action,
	opts actOpts,
) (*store.TransitionResult, error) {
	c, err := s.contracts.Get(ctx, orgID, contractID)
	if err != nil {
		return nil, err
	}

	var record *models.ApprovalRecord
	var view *workflow.ApprovalView

	if phase, ok := workflow.PhaseFor(c.Status); ok {
		record, err = s.approvals.GetOpen(ctx, orgID, contractID, phase)
		if err != nil {
			return nil, err
		}

		if record != nil {
			view = &workflow.ApprovalView{Type: record.Type, Status: record.Status}
		}
	}

	decision, err := workflow.Next(c.Status, action, perms, workflow.Input{
		FinanceRequired: c.FinanceRequired,
		Approval:        view,
	})
	if err != nil {
		return nil, err
	}

	w := store.TransitionWrite{
		ContractID:  contractID,
		Action:      string(action),
		FromStatus:  c.Status,
		ToStatus:    decision.NextStatus,
		OpenPhase:   decision.OpensPhase,
		ActorID:     actorID,
		Comment:     opts.comment,
		EscalatedTo: opts.escalatedTo,
	}

	if decision.RecordStatus != "" && record != nil {
		w.RecordID = record.ID
		w.RecordFrom = record.Status
		w.RecordTo = decision.RecordStatus
		w.SetActed = opts.setActed
		w.SetComment = opts.comment != nil
		w.ClearEscalatee = decision.ClearEscalat
	}

	result, err := s.contracts.ApplyTransition(ctx, orgID, w)
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(action), string(decision.NextStatus)).Inc()

	auditAsync(s.auditWorker, orgID, models.AuditEntry{
		Action:     "contract." + string(action),
		TargetType: "contract",
		TargetID:   contractID,
		Actor:      actorID,
		OldValue:   string(c.Status),
		NewValue:   string(decision.NextStatus),
		Detail:     auditDetail(opts),
	})

	return result, nil
}

func auditDetail(opts actOpts) map[string]any {
	var detail map[string]any

	if opts.comment != nil {
		detail = map[string]any{"comment": *opts.comment}
	}

	if opts.escalatedTo != nil {
		if detail == nil {
			detail = map[string]any{}
		}
		detail["escalated_to"] = *opts.escalatedTo
	}

	return detail
}

// Submit moves a draft contract into the legal approval phase, opening the
// LEGAL approval record.
func (s *WorkflowService) Submit(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet,
) (*models.Contract, *models.ApprovalRecord, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionSubmit, actOpts{})
	if err != nil {
		return nil, nil, err
	}

	return result.Contract, result.NewPending, nil
}

// Approve closes the current approval phase. From the legal phase it
// either opens the finance phase or approves the contract outright,
// depending on the contract's finance_required flag.
func (s *WorkflowService) Approve(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string,
) (*models.Contract, *models.ApprovalRecord, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionApprove,
		actOpts{comment: comment, setActed: true})
	if err != nil {
		return nil, nil, err
	}

	return result.Contract, result.Acted, nil
}

// Reject moves the contract to the terminal REJECTED state.
func (s *WorkflowService) Reject(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string,
) (*models.Contract, *models.ApprovalRecord, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionReject,
		actOpts{comment: comment, setActed: true})
	if err != nil {
		return nil, nil, err
	}

	return result.Contract, result.Acted, nil
}

// RequestRevision sends the contract back to DRAFT so the author can
// resume the edit/version cycle.
func (s *WorkflowService) RequestRevision(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string,
) (*models.Contract, *models.ApprovalRecord, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionRequestRevision,
		actOpts{comment: comment, setActed: true})
	if err != nil {
		return nil, nil, err
	}

	return result.Contract, result.Acted, nil
}

// Escalate reassigns the open legal approval to another approver without
// touching the contract's status.
func (s *WorkflowService) Escalate(
	ctx context.Context, orgID, contractID, actorID, escalatedToUserID string, perms workflow.PermissionSet,
) (*models.Contract, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionEscalate,
		actOpts{escalatedTo: &escalatedToUserID})
	if err != nil {
		return nil, err
	}

	return result.Contract, nil
}

// EscalateToLegalHead reassigns an already-escalated approval to the legal
// head. Status is untouched.
func (s *WorkflowService) EscalateToLegalHead(
	ctx context.Context, orgID, contractID, actorID, legalHeadUserID string, perms workflow.PermissionSet, reason *string,
) (*models.Contract, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionEscalateToLegalHead,
		actOpts{comment: reason, escalatedTo: &legalHeadUserID})
	if err != nil {
		return nil, err
	}

	return result.Contract, nil
}

// ReturnToManager reverses an escalation, reopening the approval record
// for the original approver.
func (s *WorkflowService) ReturnToManager(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string,
) (*models.Contract, *models.ApprovalRecord, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionReturnToManager,
		actOpts{comment: comment})
	if err != nil {
		return nil, nil, err
	}

	return result.Contract, result.Acted, nil
}

// Send marks the approved contract as sent to the counterparty.
func (s *WorkflowService) Send(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet,
) (*models.Contract, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionSend, actOpts{})
	if err != nil {
		return nil, err
	}

	return result.Contract, nil
}

// UploadSigned records receipt of the countersigned document.
func (s *WorkflowService) UploadSigned(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet,
) (*models.Contract, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionUploadSigned, actOpts{})
	if err != nil {
		return nil, err
	}

	return result.Contract, nil
}

// Activate brings a countersigned contract into force.
func (s *WorkflowService) Activate(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet,
) (*models.Contract, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionActivate, actOpts{})
	if err != nil {
		return nil, err
	}

	return result.Contract, nil
}

// Terminate ends an active contract.
func (s *WorkflowService) Terminate(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet,
) (*models.Contract, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionTerminate, actOpts{})
	if err != nil {
		return nil, err
	}

	return result.Contract, nil
}

// Expire marks an active contract expired. Intended for a scheduler
// adapter acting past the contract's end date.
func (s *WorkflowService) Expire(
	ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet,
) (*models.Contract, error) {
	result, err := s.act(ctx, orgID, contractID, actorID, perms, workflow.ActionExpire, actOpts{})
	if err != nil {
		return nil, err
	}

	return result.Contract, nil
}

// ListApprovals returns all approval records for a contract (pass-through).
func (s *WorkflowService) ListApprovals(
	ctx context.Context, orgID, contractID string,
) ([]models.ApprovalRecord, error) {
	return s.approvals.ListByContract(ctx, orgID, contractID)
}
