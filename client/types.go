package client

import (
	"encoding/json"
	"time"
)

// FieldValue is a tagged union over the tracked field categories the
// server diffs structurally. Bare JSON strings and numbers are also
// accepted by the server, so simple payloads can skip the tagged form.
type FieldValue struct {
	Kind     string          `json:"kind,omitempty"`
	Text     string          `json:"text,omitempty"`
	Number   float64         `json:"number,omitempty"`
	Currency string          `json:"currency,omitempty"`
	Date     *time.Time      `json:"date,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Contract is the core business document being negotiated and approved.
type Contract struct {
	ID                string                `json:"id"`
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
	Status            string                `json:"status"`
	FinanceRequired   bool                  `json:"finance_required"`
	CurrentSequence   int                   `json:"current_sequence"`
	CreatedByUserID   string                `json:"created_by_user_id"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// CreateContractRequest is the payload for creating a contract.
type CreateContractRequest struct {
	ID                string                `json:"id,omitempty"`
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

// UpdateContractRequest is the payload for updating a draft contract.
// Nil pointer fields are left unchanged.
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
	ExpectedSequence  int                   `json:"expected_sequence,omitempty"`
}

// ContractListOptions holds filters for listing contracts.
type ContractListOptions struct {
	Status       string
	Counterparty string
	Query        string
	Limit        int
	Offset       int
}

// ApprovalRecord is one open or closed approval request.
type ApprovalRecord struct {
	ID                string     `json:"id"`
	ContractID        string     `json:"contract_id"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	ActedByUserID     *string    `json:"acted_by_user_id,omitempty"`
	ActedAt           *time.Time `json:"acted_at,omitempty"`
	Comment           *string    `json:"comment,omitempty"`
	EscalatedToUserID *string    `json:"escalated_to_user_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ActionResponse pairs the contract after a workflow transition with the
// approval record the transition touched, when there is one.
type ActionResponse struct {
	Contract *Contract       `json:"contract"`
	Approval *ApprovalRecord `json:"approval,omitempty"`
}

// ContractVersion is an immutable snapshot of a contract's body and
// tracked fields. Sequence numbers start at 1 and are gapless.
type ContractVersion struct {
	ID              string                `json:"id"`
	ContractID      string                `json:"contract_id"`
	Sequence        int                   `json:"sequence"`
	FieldData       map[string]FieldValue `json:"field_data"`
	AnnexureData    string                `json:"annexure_data"`
	CreatedByUserID string                `json:"created_by_user_id"`
	CreatedAt       time.Time             `json:"created_at"`
}

// FieldChange records one tracked field that differs between two versions.
type FieldChange struct {
	Field      string      `json:"field"`
	ChangeType string      `json:"change_type"`
	OldValue   *FieldValue `json:"old_value,omitempty"`
	NewValue   *FieldValue `json:"new_value,omitempty"`
}

// DiffStats aggregates line counts from the content diff.
type DiffStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// ContentChange records that the free-text body differs between two versions.
type ContentChange struct {
	ChangeType string    `json:"change_type"`
	DiffStats  DiffStats `json:"diff_stats"`
}

// ChangeLogEntry is the computed diff between two contract versions.
type ChangeLogEntry struct {
	ID            string         `json:"id"`
	ContractID    string         `json:"contract_id"`
	VersionID     string         `json:"version_id"`
	FromSequence  *int           `json:"from_sequence"`
	ToSequence    int            `json:"to_sequence"`
	FieldChanges  []FieldChange  `json:"field_changes"`
	ContentChange *ContentChange `json:"content_change,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Actor      string         `json:"actor,omitempty"`
	OldValue   string         `json:"old_value,omitempty"`
	NewValue   string         `json:"new_value,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOptions holds filters for querying the audit log.
type AuditQueryOptions struct {
	TargetType string
	TargetID   string
	Action     string
	Actor      string
	Since      *time.Time
	Limit      int
	Offset     int
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StatsResponse is the org statistics payload.
type StatsResponse struct {
	Contracts      int            `json:"contracts"`
	ByStatus       map[string]int `json:"by_status"`
	Versions       int            `json:"versions"`
	OpenApprovals  int            `json:"open_approvals"`
	AuditEntries30 int            `json:"audit_entries_30d"`
}
