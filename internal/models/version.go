package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractVersion is an immutable snapshot of a contract's body and tracked
// fields at a point in time. Rows are append-only; sequence numbers are
// monotonic and gapless per contract, starting at 1.
type ContractVersion struct {
	ID              string                `json:"id"`
	OrgID           uuid.UUID             `json:"-"`
	ContractID      string                `json:"contract_id"`
	Sequence        int                   `json:"sequence"`
	FieldData       map[string]FieldValue `json:"field_data"`
	AnnexureData    string                `json:"annexure_data"`
	CreatedByUserID string                `json:"created_by_user_id"`
	CreatedAt       time.Time             `json:"created_at"`
}

// Snapshot is the diffable payload of a version: the tracked structured
// fields plus the free-text body.
type Snapshot struct {
	FieldData    map[string]FieldValue `json:"field_data"`
	AnnexureData string                `json:"annexure_data"`
}

// Snapshot returns the diffable payload of the version.
func (v *ContractVersion) Snapshot() Snapshot {
	return Snapshot{FieldData: v.FieldData, AnnexureData: v.AnnexureData}
}

// VersionListQuery holds query parameters for version listings.
type VersionListQuery struct {
	ContractID string
	Limit      int
	Offset     int
}
