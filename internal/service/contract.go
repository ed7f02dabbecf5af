package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/diff"
	"github.com/pactorhq/pactor/internal/domain"
	"github.com/pactorhq/pactor/internal/models"
)

// contractStore is the data access ContractService depends on.
type contractStore interface {
	List(ctx context.Context, orgID string, filter models.ContractFilter) ([]models.Contract, bool, error)
	Get(ctx context.Context, orgID, contractID string) (*models.Contract, error)
	Create(ctx context.Context, orgID string, req models.CreateContractRequest, actorID string, contentChange *models.ContentChange) (*models.Contract, *models.ContractVersion, error)
	UpdateDraft(ctx context.Context, orgID, contractID string, req models.UpdateContractRequest) (*models.Contract, error)
}

// contractVersioning snapshots contract bodies into the version history.
type contractVersioning interface {
	CreateVersionIfChanged(
		ctx context.Context,
		orgID, contractID string,
		proposed models.Snapshot,
		business *models.UpdateContractRequest,
		actorID string,
		expectedSequence int,
	) (*models.ContractVersion, *models.ChangeLogEntry, error)
}

// Compile-time check: *ContractService must satisfy domain.ContractService.
var _ domain.ContractService = (*ContractService)(nil)

// ContractService handles contract reads and draft-phase writes. Lifecycle
// transitions live in WorkflowService; this service never changes Status.
type ContractService struct {
	contracts   contractStore
	versioning  contractVersioning
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewContractService creates a ContractService.
func NewContractService(
	contracts contractStore,
	versioning contractVersioning,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
) *ContractService {
	return &ContractService{contracts: contracts, versioning: versioning, auditWorker: auditWorker, log: log}
}

// ListContracts returns contracts matching the filter plus a has-more flag.
func (s *ContractService) ListContracts(
	ctx context.Context, orgID string, filter models.ContractFilter,
) ([]models.Contract, bool, error) {
	return s.contracts.List(ctx, orgID, filter)
}

// GetContract returns a single contract by ID.
func (s *ContractService) GetContract(ctx context.Context, orgID, contractID string) (*models.Contract, error) {
	return s.contracts.Get(ctx, orgID, contractID)
}

// CreateContract inserts a new DRAFT contract and its version 1 snapshot
// in one transaction. Version 1 exists even when fields and body are empty
// so every later edit has a baseline to diff against; a failed create
// leaves no contract row behind.
func (s *ContractService) CreateContract(
	ctx context.Context, orgID string, req models.CreateContractRequest, actorID string,
) (*models.Contract, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, contentChange := diff.Compute(nil, models.Snapshot{
		FieldData:    req.FieldData,
		AnnexureData: req.AnnexureData,
	})

	c, _, err := s.contracts.Create(ctx, orgID, req, actorID, contentChange)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, orgID, models.AuditEntry{
		Action:     "contract.create",
		TargetType: "contract",
		TargetID:   c.ID,
		Actor:      actorID,
		Detail:     map[string]any{"reference": c.Reference},
	})

	return c, nil
}

// versionRetryBackoff bounds the automatic retry on concurrent edits.
func versionRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	return backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx)
}

// UpdateContract updates a DRAFT contract. A request that only touches
// plain business columns is a direct single-transaction write. A request
// that changes tracked fields or the body goes through the versioning
// service, which folds any business-column changes into the same
// transaction as the version append, so a rejected edit leaves nothing
// behind.
//
// ExpectedSequence > 0 is a strict optimistic token: a concurrent edit
// surfaces as models.ErrVersionConflict and the caller must reload.
// ExpectedSequence == 0 means the caller holds no token; the update is
// applied against the live sequence and retried with backoff when another
// writer lands first, since the payload replaces fields and body wholesale.
func (s *ContractService) UpdateContract(
	ctx context.Context, orgID, contractID string, req models.UpdateContractRequest, actorID string,
) (*models.Contract, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.FieldData == nil && req.AnnexureData == nil {
		c, err := s.contracts.UpdateDraft(ctx, orgID, contractID, req)
		if err != nil {
			return nil, err
		}

		auditAsync(s.auditWorker, orgID, models.AuditEntry{
			Action:     "contract.update",
			TargetType: "contract",
			TargetID:   contractID,
			Actor:      actorID,
		})

		return c, nil
	}

	c, err := s.contracts.Get(ctx, orgID, contractID)
	if err != nil {
		return nil, err
	}

	var version *models.ContractVersion

	op := func() error {
		expected := req.ExpectedSequence
		if expected == 0 {
			expected = c.CurrentSequence
		}

		proposed := models.Snapshot{FieldData: c.FieldData, AnnexureData: c.AnnexureData}
		if req.FieldData != nil {
			proposed.FieldData = req.FieldData
		}
		if req.AnnexureData != nil {
			proposed.AnnexureData = *req.AnnexureData
		}

		v, _, err := s.versioning.CreateVersionIfChanged(ctx, orgID, contractID, proposed, &req, actorID, expected)
		if err == nil {
			version = v
			return nil
		}

		if !errors.Is(err, models.ErrVersionConflict) || req.ExpectedSequence != 0 {
			return backoff.Permanent(err)
		}

		// Lost a race without holding a token: reload and reapply.
		c, err = s.contracts.Get(ctx, orgID, contractID)
		if err != nil {
			return backoff.Permanent(err)
		}

		return models.ErrVersionConflict
	}

	if err := backoff.Retry(op, versionRetryBackoff(ctx)); err != nil {
		return nil, err
	}

	if version == nil {
		// Snapshot unchanged; only the plain columns, if any, still apply.
		c, err = s.contracts.UpdateDraft(ctx, orgID, contractID, req)
		if err != nil {
			return nil, err
		}

		auditAsync(s.auditWorker, orgID, models.AuditEntry{
			Action:     "contract.update",
			TargetType: "contract",
			TargetID:   contractID,
			Actor:      actorID,
		})

		return c, nil
	}

	c, err = s.contracts.Get(ctx, orgID, contractID)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, orgID, models.AuditEntry{
		Action:     "contract.update",
		TargetType: "contract",
		TargetID:   contractID,
		Actor:      actorID,
		Detail:     map[string]any{"sequence": version.Sequence},
	})

	return c, nil
}
