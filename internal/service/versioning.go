package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/diff"
	"github.com/pactorhq/pactor/internal/metrics"
	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/store"
)

// versioningStore is the data access VersioningService depends on.
type versioningStore interface {
	Latest(ctx context.Context, orgID, contractID string) (*models.ContractVersion, error)
	Append(ctx context.Context, orgID string, w store.VersionWrite) (*models.ContractVersion, *models.ChangeLogEntry, error)
}

// VersioningService decides when a new version must be snapshotted,
// computes the changelog through the diff engine, and persists both in one
// transaction via the version store.
type VersioningService struct {
	versions    versioningStore
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewVersioningService creates a VersioningService.
func NewVersioningService(versions versioningStore, auditWorker AuditEnqueuer, log *logrus.Logger) *VersioningService {
	return &VersioningService{versions: versions, auditWorker: auditWorker, log: log}
}

// CreateVersionIfChanged snapshots a new version when the proposed body or
// tracked fields differ from the latest stored snapshot. Identical
// proposals are an idempotent no-op returning (nil, nil, nil). The first
// write always creates version 1. expectedSequence is the caller's
// optimistic concurrency token; a stale token yields
// models.ErrVersionConflict without touching storage. business, when
// non-nil, carries plain business-column changes that must land in the
// same transaction as the version write.
func (s *VersioningService) CreateVersionIfChanged(
	ctx context.Context,
	orgID, contractID string,
	proposed models.Snapshot,
	business *models.UpdateContractRequest,
	actorID string,
	expectedSequence int,
) (*models.ContractVersion, *models.ChangeLogEntry, error) {
	latest, err := s.versions.Latest(ctx, orgID, contractID)
	if err != nil {
		return nil, nil, err
	}

	var fieldChanges []models.FieldChange
	var contentChange *models.ContentChange

	if latest != nil {
		if expectedSequence != latest.Sequence {
			metrics.VersionConflicts.Inc()
			return nil, nil, models.ErrVersionConflict
		}

		prev := latest.Snapshot()
		if !diff.Changed(prev, proposed) {
			return nil, nil, nil
		}

		fieldChanges, contentChange = diff.Compute(&prev, proposed)
	} else {
		if expectedSequence != 0 {
			metrics.VersionConflicts.Inc()
			return nil, nil, models.ErrVersionConflict
		}

		fieldChanges, contentChange = diff.Compute(nil, proposed)
	}

	version, entry, err := s.versions.Append(ctx, orgID, store.VersionWrite{
		ContractID:       contractID,
		ExpectedSequence: expectedSequence,
		FieldData:        proposed.FieldData,
		AnnexureData:     proposed.AnnexureData,
		FieldChanges:     fieldChanges,
		ContentChange:    contentChange,
		CreatedByUserID:  actorID,
		Business:         business,
	})
	if err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
		}
		return nil, nil, err
	}

	metrics.VersionsAppended.Inc()

	auditAsync(s.auditWorker, orgID, models.AuditEntry{
		Action:     "contract.version.create",
		TargetType: "contract_version",
		TargetID:   version.ID,
		Actor:      actorID,
		Detail: map[string]any{
			"contract_id":   contractID,
			"sequence":      version.Sequence,
			"field_changes": len(entry.FieldChanges),
		},
	})

	s.log.WithFields(logrus.Fields{
		"contract_id": contractID,
		"sequence":    version.Sequence,
	}).Debug("version.created")

	return version, entry, nil
}
