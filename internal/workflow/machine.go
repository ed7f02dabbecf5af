// Package workflow implements the contract approval state machine as a
// pure decision function. Given the contract's current status, the
// requested action, the actor's resolved permission set, and a view of the
// open approval record, Next returns either the transition to apply or a
// typed rejection. The package performs no I/O, which keeps the full
// transition table exhaustively unit-testable.
package workflow

import (
	"github.com/pactorhq/pactor/internal/models"
)

// Action is a workflow action an actor may request against a contract.
type Action string

// Workflow actions.
const (
	ActionSubmit              Action = "submit"
	ActionApprove             Action = "approve"
	ActionReject              Action = "reject"
	ActionRequestRevision     Action = "request_revision"
	ActionEscalate            Action = "escalate"
	ActionEscalateToLegalHead Action = "escalate_to_legal_head"
	ActionReturnToManager     Action = "return_to_manager"
	ActionSend                Action = "send"
	ActionUploadSigned        Action = "upload_signed"
	ActionActivate            Action = "activate"
	ActionTerminate           Action = "terminate"
	ActionExpire              Action = "expire"
)

// Permission strings checked by transition guards. The engine never
// resolves permissions itself; the set is computed upstream and passed in.
const (
	PermContractSubmit   = "contract:submit"
	PermContractEscalate = "contract:escalate"
	PermContractSend     = "contract:send_counterparty"
	PermContractUpload   = "contract:upload_signed"
	PermContractActivate = "contract:activate"
	PermContractClose    = "contract:terminate"
	PermLegalAct         = "approval:legal:act"
	PermLegalEscalate    = "approval:legal:escalate"
	PermFinanceAct       = "approval:finance:act"
)

// PermissionSet is the actor's resolved set of permission strings.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a PermissionSet from a list of permission strings.
func NewPermissionSet(perms ...string) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given permission.
func (s PermissionSet) Has(perm string) bool {
	_, ok := s[perm]
	return ok
}

// ApprovalView is the state-machine-relevant projection of the contract's
// open approval record, nil when no open record exists.
type ApprovalView struct {
	Type   models.ApprovalType
	Status models.ApprovalStatus
}

// Input carries the per-contract facts a decision depends on beyond the
// status itself.
type Input struct {
	FinanceRequired bool
	Approval        *ApprovalView
}

// Decision describes the transition to apply. NextStatus always holds the
// resulting contract status (possibly unchanged: escalation never moves
// the primary state machine). RecordStatus, when non-empty, is the new
// status for the open approval record; OpensPhase, when non-empty, means a
// new approval record of that type must be created in PENDING.
type Decision struct {
	NextStatus   models.Status
	RecordStatus models.ApprovalStatus
	OpensPhase   models.ApprovalType
	SetEscalatee bool // escalated_to_user_id is assigned
	Reassign     bool // escalated_to_user_id is reassigned (legal head)
	ClearEscalat bool // escalated_to_user_id is cleared
}

// recordReq states what the open approval record must look like for a
// rule to fire.
type recordReq int

const (
	recordNone      recordReq = iota // rule ignores the approval record
	recordOpen                       // open record of the phase's type (pending or escalated)
	recordPending                    // open record, strictly pending
	recordEscalated                  // open record, escalated
)

// rule is one row of the transition table.
type rule struct {
	perm    string
	record  recordReq
	resolve func(in Input) Decision
}

type transKey struct {
	status models.Status
	action Action
}

// PhaseFor maps an approval-pending status to the approval type whose
// open record gates it; ok is false for statuses outside the approval
// phases.
func PhaseFor(status models.Status) (models.ApprovalType, bool) {
	switch status {
	case models.StatusPendingLegal:
		return models.ApprovalLegal, true
	case models.StatusPendingFinance:
		return models.ApprovalFinance, true
	default:
		return "", false
	}
}

// phaseFor is PhaseFor with the legal default used by transition rules.
func phaseFor(status models.Status) models.ApprovalType {
	if status == models.StatusPendingFinance {
		return models.ApprovalFinance
	}
	return models.ApprovalLegal
}

// statusDecision returns a resolver that moves only the contract status.
func statusDecision(next models.Status) func(Input) Decision {
	return func(Input) Decision { return Decision{NextStatus: next} }
}

var transitions = map[transKey]rule{
	{models.StatusDraft, ActionSubmit}: {
		perm: PermContractSubmit,
		resolve: func(Input) Decision {
			return Decision{NextStatus: models.StatusPendingLegal, OpensPhase: models.ApprovalLegal}
		},
	},
	{models.StatusPendingLegal, ActionApprove}: {
		perm:   PermLegalAct,
		record: recordOpen,
		resolve: func(in Input) Decision {
			if in.FinanceRequired {
				return Decision{
					NextStatus:   models.StatusPendingFinance,
					RecordStatus: models.ApprovalApproved,
					OpensPhase:   models.ApprovalFinance,
				}
			}
			return Decision{NextStatus: models.StatusApproved, RecordStatus: models.ApprovalApproved}
		},
	},
	{models.StatusPendingFinance, ActionApprove}: {
		perm:   PermFinanceAct,
		record: recordOpen,
		resolve: func(Input) Decision {
			return Decision{NextStatus: models.StatusApproved, RecordStatus: models.ApprovalApproved}
		},
	},
	{models.StatusPendingLegal, ActionReject}: {
		perm:   PermLegalAct,
		record: recordOpen,
		resolve: func(Input) Decision {
			return Decision{NextStatus: models.StatusRejected, RecordStatus: models.ApprovalRejected}
		},
	},
	{models.StatusPendingFinance, ActionReject}: {
		perm:   PermFinanceAct,
		record: recordOpen,
		resolve: func(Input) Decision {
			return Decision{NextStatus: models.StatusRejected, RecordStatus: models.ApprovalRejected}
		},
	},
	{models.StatusPendingLegal, ActionRequestRevision}: {
		perm:   PermLegalAct,
		record: recordOpen,
		resolve: func(Input) Decision {
			return Decision{NextStatus: models.StatusDraft, RecordStatus: models.ApprovalRevisionRequested}
		},
	},
	{models.StatusPendingFinance, ActionRequestRevision}: {
		perm:   PermFinanceAct,
		record: recordOpen,
		resolve: func(Input) Decision {
			return Decision{NextStatus: models.StatusDraft, RecordStatus: models.ApprovalRevisionRequested}
		},
	},
	// Escalation never changes Contract.Status; it is modeled entirely at
	// the approval-record layer.
	{models.StatusPendingLegal, ActionEscalate}: {
		perm:   PermLegalEscalate,
		record: recordPending,
		resolve: func(Input) Decision {
			return Decision{
				NextStatus:   models.StatusPendingLegal,
				RecordStatus: models.ApprovalEscalated,
				SetEscalatee: true,
			}
		},
	},
	{models.StatusPendingLegal, ActionEscalateToLegalHead}: {
		perm:   PermContractEscalate,
		record: recordEscalated,
		resolve: func(Input) Decision {
			return Decision{
				NextStatus:   models.StatusPendingLegal,
				RecordStatus: models.ApprovalEscalated,
				Reassign:     true,
			}
		},
	},
	{models.StatusPendingLegal, ActionReturnToManager}: {
		perm:   PermLegalAct,
		record: recordEscalated,
		resolve: func(Input) Decision {
			return Decision{
				NextStatus:   models.StatusPendingLegal,
				RecordStatus: models.ApprovalPending,
				ClearEscalat: true,
			}
		},
	},
	{models.StatusApproved, ActionSend}: {
		perm:    PermContractSend,
		resolve: statusDecision(models.StatusSentToCounterparty),
	},
	{models.StatusSentToCounterparty, ActionUploadSigned}: {
		perm:    PermContractUpload,
		resolve: statusDecision(models.StatusCountersigned),
	},
	{models.StatusCountersigned, ActionActivate}: {
		perm:    PermContractActivate,
		resolve: statusDecision(models.StatusActive),
	},
	{models.StatusActive, ActionTerminate}: {
		perm:    PermContractClose,
		resolve: statusDecision(models.StatusTerminated),
	},
	{models.StatusActive, ActionExpire}: {
		perm:    PermContractClose,
		resolve: statusDecision(models.StatusExpired),
	},
}

// Next decides the transition for the requested action. It returns
// models.ErrForbidden when the guard permission is missing,
// models.ErrNoPendingApproval when the rule needs an open approval record
// that is absent or in the wrong sub-state, and *models.InvalidTransitionError
// when no rule exists for (status, action).
func Next(current models.Status, action Action, perms PermissionSet, in Input) (Decision, error) {
	r, ok := transitions[transKey{current, action}]
	if !ok {
		return Decision{}, &models.InvalidTransitionError{
			Status:  current,
			Action:  string(action),
			Allowed: AllowedActions(current),
		}
	}

	if !perms.Has(r.perm) {
		return Decision{}, models.ErrForbidden
	}

	if err := checkRecord(r.record, phaseFor(current), in.Approval); err != nil {
		return Decision{}, err
	}

	return r.resolve(in), nil
}

// checkRecord enforces the rule's approval-record requirement. This guards
// against double-submission races: once a concurrent request closes the
// record, the losing request sees no open record and fails cleanly.
func checkRecord(req recordReq, phase models.ApprovalType, view *ApprovalView) error {
	if req == recordNone {
		return nil
	}

	if view == nil || view.Type != phase || !view.Status.Open() {
		return models.ErrNoPendingApproval
	}

	switch req {
	case recordPending:
		if view.Status != models.ApprovalPending {
			return models.ErrNoPendingApproval
		}
	case recordEscalated:
		if view.Status != models.ApprovalEscalated {
			return models.ErrNoPendingApproval
		}
	}

	return nil
}

// AllowedActions lists the actions that have a rule from the given status,
// in stable order. Used for InvalidTransition error payloads.
func AllowedActions(status models.Status) []string {
	ordered := []Action{
		ActionSubmit, ActionApprove, ActionReject, ActionRequestRevision,
		ActionEscalate, ActionEscalateToLegalHead, ActionReturnToManager,
		ActionSend, ActionUploadSigned, ActionActivate, ActionTerminate, ActionExpire,
	}

	var allowed []string
	for _, a := range ordered {
		if _, ok := transitions[transKey{status, a}]; ok {
			allowed = append(allowed, string(a))
		}
	}

	return allowed
}

// RequiredPermission returns the guard permission for (status, action), or
// false when no such transition exists. Exposed for the "who may act"
// mapping in adapters.
func RequiredPermission(status models.Status, action Action) (string, bool) {
	r, ok := transitions[transKey{status, action}]
	if !ok {
		return "", false
	}
	return r.perm, true
}
