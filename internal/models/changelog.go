package models

import "time"

// ChangeType classifies a single change within a changelog entry.
type ChangeType string

// Change classifications.
const (
	ChangeAdded           ChangeType = "added"
	ChangeModified        ChangeType = "modified"
	ChangeRemoved         ChangeType = "removed"
	ChangeContentModified ChangeType = "content_modified"
)

// FieldChange records one tracked field that differs between two versions.
type FieldChange struct {
	Field      string      `json:"field"`
	ChangeType ChangeType  `json:"change_type"`
	OldValue   *FieldValue `json:"old_value,omitempty"`
	NewValue   *FieldValue `json:"new_value,omitempty"`
}

// DiffStats aggregates line counts from the content diff.
type DiffStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// ContentChange records that the free-text body differs between two
// versions, with line-level insertion/deletion counts.
type ContentChange struct {
	ChangeType ChangeType `json:"change_type"`
	DiffStats  DiffStats  `json:"diff_stats"`
}

// ChangeLogEntry is the computed diff between two contract versions,
// persisted 1:1 with the "to" version. FromSequence is nil for version 1.
// Entries are derived data and never mutated after creation.
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

// Empty reports whether the entry records no changes at all.
func (e *ChangeLogEntry) Empty() bool {
	return len(e.FieldChanges) == 0 && e.ContentChange == nil
}
