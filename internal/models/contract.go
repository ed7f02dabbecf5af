// Package models defines data types for the contract lifecycle engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a contract. Transitions happen only
// through the workflow state machine; nothing else writes this field.
type Status string

// Contract lifecycle states.
const (
	StatusDraft              Status = "draft"
	StatusPendingLegal       Status = "pending_legal"
	StatusPendingFinance     Status = "pending_finance"
	StatusApproved           Status = "approved"
	StatusSentToCounterparty Status = "sent_to_counterparty"
	StatusCountersigned      Status = "countersigned"
	StatusActive             Status = "active"
	StatusRejected           Status = "rejected"
	StatusExpired            Status = "expired"
	StatusTerminated         Status = "terminated"
)

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusExpired || s == StatusTerminated
}

// Contract is the core business document being negotiated and approved.
type Contract struct {
	ID                string                `json:"id"`
	OrgID             uuid.UUID             `json:"-"`
	Reference         string                `json:"reference"`
	Title             string                `json:"title"`
	CounterpartyName  string                `json:"counterparty_name"`
	CounterpartyEmail string                `json:"counterparty_email,omitempty"`
	Amount            *float64              `json:"amount,omitempty"`
	StartDate         *time.Time            `json:"start_date,omitempty"`
	EndDate           *time.Time            `json:"end_date,omitempty"`
	Description       string                `json:"description,omitempty"`
	FieldData         map[string]FieldValue `json:"field_data"`
	AnnexureData      string                `json:"annexure_data"`
	Status            Status                `json:"status"`
	FinanceRequired   bool                  `json:"finance_required"`
	CurrentSequence   int                   `json:"current_sequence"`
	CreatedByUserID   string                `json:"created_by_user_id"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// CreateContractRequest is the payload for creating a new contract.
type CreateContractRequest struct {
	ID                string                `json:"id"`
	Reference         string                `json:"reference"`
	Title             string                `json:"title"`
	CounterpartyName  string                `json:"counterparty_name"`
	CounterpartyEmail string                `json:"counterparty_email,omitempty"`
	Amount            *float64              `json:"amount,omitempty"`
	StartDate         *time.Time            `json:"start_date,omitempty"`
	EndDate           *time.Time            `json:"end_date,omitempty"`
	Description       string                `json:"description,omitempty"`
	FieldData         map[string]FieldValue `json:"field_data,omitempty"`
	AnnexureData      string                `json:"annexure_data,omitempty"`
	FinanceRequired   *bool                 `json:"finance_required,omitempty"`
}

// Validate checks that required fields are present and within limits.
// If ID is empty, a UUID is auto-generated.
func (r *CreateContractRequest) Validate() error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	if len(r.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	if r.Reference == "" {
		return ErrMissingReference
	}

	if len(r.Reference) > 100 {
		return ErrFieldTooLong("reference", 100)
	}

	if r.Title == "" {
		return ErrMissingTitle
	}

	if len(r.Title) > 500 {
		return ErrFieldTooLong("title", 500)
	}

	if r.CounterpartyName == "" {
		return ErrMissingCounterparty
	}

	if len(r.AnnexureData) > maxAnnexureBytes {
		return ErrFieldTooLong("annexure_data", maxAnnexureBytes)
	}

	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return ErrInvalidDateRange
	}

	return nil
}

// maxAnnexureBytes caps the rich-text body size per contract.
const maxAnnexureBytes = 2 << 20 // 2 MB

// UpdateContractRequest is the payload for updating a draft contract.
// Nil pointer fields are left unchanged; FieldData and AnnexureData, when
// present, replace the tracked values and may trigger a new version.
type UpdateContractRequest struct {
	Title             *string               `json:"title,omitempty"`
	CounterpartyName  *string               `json:"counterparty_name,omitempty"`
	CounterpartyEmail *string               `json:"counterparty_email,omitempty"`
	Amount            *float64              `json:"amount,omitempty"`
	StartDate         *time.Time            `json:"start_date,omitempty"`
	EndDate           *time.Time            `json:"end_date,omitempty"`
	Description       *string               `json:"description,omitempty"`
	FieldData         map[string]FieldValue `json:"field_data,omitempty"`
	AnnexureData      *string               `json:"annexure_data,omitempty"`
	ExpectedSequence  int                   `json:"expected_sequence"`
}

// Validate checks UpdateContractRequest fields.
func (r *UpdateContractRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return ErrMissingTitle
	}

	if r.Title != nil && len(*r.Title) > 500 {
		return ErrFieldTooLong("title", 500)
	}

	if r.CounterpartyName != nil && *r.CounterpartyName == "" {
		return ErrMissingCounterparty
	}

	if r.AnnexureData != nil && len(*r.AnnexureData) > maxAnnexureBytes {
		return ErrFieldTooLong("annexure_data", maxAnnexureBytes)
	}

	if r.ExpectedSequence < 0 {
		return ErrInvalidSequence
	}

	return nil
}

// ContractFilter holds query parameters for contract listings.
type ContractFilter struct {
	Status       Status
	Counterparty string // substring match, case-insensitive
	Query        string // free-text match on title and reference
	Limit        int
	Offset       int
}
