package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalType identifies which approval phase a record belongs to.
type ApprovalType string

// Approval phases.
const (
	ApprovalLegal   ApprovalType = "legal"
	ApprovalFinance ApprovalType = "finance"
)

// ApprovalStatus is the state of a single approval record. It is a small
// state machine of its own, independent of Contract.Status: escalation
// moves a record between PENDING and ESCALATED without touching the
// contract's primary state.
type ApprovalStatus string

// Approval record states. Pending and Escalated are the open states; at
// most one open record may exist per (contract, type).
const (
	ApprovalPending           ApprovalStatus = "pending"
	ApprovalEscalated         ApprovalStatus = "escalated"
	ApprovalApproved          ApprovalStatus = "approved"
	ApprovalRejected          ApprovalStatus = "rejected"
	ApprovalRevisionRequested ApprovalStatus = "revision_requested"
)

// Open reports whether the record still awaits a decision.
func (s ApprovalStatus) Open() bool {
	return s == ApprovalPending || s == ApprovalEscalated
}

// ApprovalRecord is one open or closed approval request of a given type
// against a contract.
type ApprovalRecord struct {
	ID                string         `json:"id"`
	OrgID             uuid.UUID      `json:"-"`
	ContractID        string         `json:"contract_id"`
	Type              ApprovalType   `json:"type"`
	Status            ApprovalStatus `json:"status"`
	ActedByUserID     *string        `json:"acted_by_user_id,omitempty"`
	ActedAt           *time.Time     `json:"acted_at,omitempty"`
	Comment           *string        `json:"comment,omitempty"`
	EscalatedToUserID *string        `json:"escalated_to_user_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
