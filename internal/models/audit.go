package models

import "time"

// AuditEntry represents a single audit log entry emitted for a
// state-changing operation.
type AuditEntry struct {
	ID         int64          `json:"id"`
	OrgID      string         `json:"-"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Actor      string         `json:"actor,omitempty"`
	OldValue   string         `json:"old_value,omitempty"`
	NewValue   string         `json:"new_value,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	TargetType string
	TargetID   string
	Action     string
	Actor      string
	Since      *time.Time
	Limit      int
	Offset     int
}
