package service

import (
	"context"

	"github.com/pactorhq/pactor/internal/diff"
	"github.com/pactorhq/pactor/internal/domain"
	"github.com/pactorhq/pactor/internal/models"
)

// versionReadStore is the data access VersionService depends on.
type versionReadStore interface {
	List(ctx context.Context, orgID string, q models.VersionListQuery) ([]models.ContractVersion, bool, error)
	Get(ctx context.Context, orgID, contractID string, sequence int) (*models.ContractVersion, error)
	GetChangelog(ctx context.Context, orgID, contractID string, sequence int) (*models.ChangeLogEntry, error)
}

// Compile-time check: *VersionService must satisfy domain.VersionService.
var _ domain.VersionService = (*VersionService)(nil)

// VersionService serves version history and changelog reads.
type VersionService struct {
	versions versionReadStore
}

// NewVersionService creates a VersionService.
func NewVersionService(versions versionReadStore) *VersionService {
	return &VersionService{versions: versions}
}

// ListVersions returns a contract's versions, newest first.
func (s *VersionService) ListVersions(
	ctx context.Context, orgID string, q models.VersionListQuery,
) ([]models.ContractVersion, bool, error) {
	return s.versions.List(ctx, orgID, q)
}

// GetVersion returns one version by sequence number.
func (s *VersionService) GetVersion(
	ctx context.Context, orgID, contractID string, sequence int,
) (*models.ContractVersion, error) {
	return s.versions.Get(ctx, orgID, contractID, sequence)
}

// GetChangelog returns the stored changelog entry for a version.
func (s *VersionService) GetChangelog(
	ctx context.Context, orgID, contractID string, sequence int,
) (*models.ChangeLogEntry, error) {
	return s.versions.GetChangelog(ctx, orgID, contractID, sequence)
}

// CompareVersions recomputes the diff between any two stored versions.
// Unlike GetChangelog this is not limited to adjacent sequences; the
// result is derived on the fly and never persisted.
func (s *VersionService) CompareVersions(
	ctx context.Context, orgID, contractID string, fromSeq, toSeq int,
) (*models.ChangeLogEntry, error) {
	from, err := s.versions.Get(ctx, orgID, contractID, fromSeq)
	if err != nil {
		return nil, err
	}

	to, err := s.versions.Get(ctx, orgID, contractID, toSeq)
	if err != nil {
		return nil, err
	}

	prev := from.Snapshot()
	fieldChanges, contentChange := diff.Compute(&prev, to.Snapshot())

	return &models.ChangeLogEntry{
		ContractID:    contractID,
		VersionID:     to.ID,
		FromSequence:  &from.Sequence,
		ToSequence:    to.Sequence,
		FieldChanges:  fieldChanges,
		ContentChange: contentChange,
	}, nil
}
