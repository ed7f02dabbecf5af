package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/workflow"
)

// VersionStore handles the append-only contract version history and its
// changelog entries.
type VersionStore struct {
	Base
}

// NewVersionStore creates a new VersionStore.
func NewVersionStore(base Base) *VersionStore {
	return &VersionStore{Base: base}
}

// VersionWrite is the payload for appending one version snapshot together
// with its precomputed changelog.
type VersionWrite struct {
	ContractID       string
	ExpectedSequence int
	FieldData        map[string]models.FieldValue
	AnnexureData     string
	FieldChanges     []models.FieldChange
	ContentChange    *models.ContentChange
	CreatedByUserID  string

	// Business, when non-nil, folds the edit's plain business-column
	// changes into the same CAS UPDATE, so a draft edit that also bumps
	// the version lands all-or-nothing.
	Business *models.UpdateContractRequest
}

// Append snapshots a new version and persists its changelog entry in one
// transaction. The contract row's current_sequence acts as the optimistic
// concurrency token: the conditional UPDATE both validates
// ExpectedSequence and takes the row lock that serializes concurrent
// appends, keeping sequences monotonic and gapless. On a stale token the
// caller gets models.ErrVersionConflict and should reload and retry.
func (s *VersionStore) Append(
	ctx context.Context,
	orgID string,
	w VersionWrite,
) (*models.ContractVersion, *models.ChangeLogEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("appending version: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	fieldData, err := marshalFieldData(w.FieldData)
	if err != nil {
		return nil, nil, err
	}

	newSeq := w.ExpectedSequence + 1

	var setClauses []string
	var args []any

	if w.Business != nil {
		setClauses, args, _ = buildContractUpdateQuery(*w.Business)
	}

	idx := len(args) + 1
	setClauses = append(setClauses,
		fmt.Sprintf("field_data = $%d", idx),
		fmt.Sprintf("annexure_data = $%d", idx+1),
		fmt.Sprintf("current_sequence = $%d", idx+2),
		"updated_at = now()",
	)
	args = append(args, fieldData, w.AnnexureData, newSeq)

	query := fmt.Sprintf(`UPDATE contracts SET %s
		WHERE org_id = current_setting('app.org_id')::uuid AND id = $%d
			AND current_sequence = $%d AND status = $%d`,
		strings.Join(setClauses, ", "), idx+3, idx+4, idx+5)
	args = append(args, w.ContractID, w.ExpectedSequence, models.StatusDraft)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("advancing contract sequence: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return nil, nil, s.appendRejected(ctx, tx, w.ContractID)
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO contract_versions (id, org_id, contract_id, sequence, field_data, annexure_data, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+versionColumns,
		uuid.New().String(), orgID, w.ContractID, newSeq, fieldData, w.AnnexureData, w.CreatedByUserID,
	)

	v, err := scanVersion(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, nil, models.ErrVersionConflict
		}

		return nil, nil, fmt.Errorf("scanning created version: %w", err)
	}

	entry, err := insertChangelog(ctx, tx, v, w.FieldChanges, w.ContentChange)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing version append: %w", err)
	}

	s.notify("contract.version", orgID, w.ContractID, map[string]any{
		"sequence": v.Sequence,
	})

	return v, entry, nil
}

// appendRejected distinguishes the three reasons the sequence CAS can miss:
// missing contract, contract outside DRAFT, or a stale sequence token.
func (s *VersionStore) appendRejected(ctx context.Context, tx pgx.Tx, contractID string) error {
	var status models.Status
	var currentSeq int

	err := tx.QueryRow(ctx,
		`SELECT status, current_sequence FROM contracts
		WHERE org_id = current_setting('app.org_id')::uuid AND id = $1`,
		contractID,
	).Scan(&status, &currentSeq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrContractNotFound
		}

		return fmt.Errorf("checking contract for version append: %w", err)
	}

	if status != models.StatusDraft {
		return &models.InvalidTransitionError{
			Status:  status,
			Action:  "edit",
			Allowed: workflow.AllowedActions(status),
		}
	}

	return models.ErrVersionConflict
}

// insertChangelog persists the changelog entry tied to a freshly inserted
// version, within the same transaction.
func insertChangelog(
	ctx context.Context,
	tx pgx.Tx,
	v *models.ContractVersion,
	fieldChanges []models.FieldChange,
	contentChange *models.ContentChange,
) (*models.ChangeLogEntry, error) {
	if fieldChanges == nil {
		fieldChanges = []models.FieldChange{}
	}

	changesJSON, err := json.Marshal(fieldChanges)
	if err != nil {
		return nil, fmt.Errorf("marshalling field changes: %w", err)
	}

	var contentJSON []byte
	if contentChange != nil {
		contentJSON, err = json.Marshal(contentChange)
		if err != nil {
			return nil, fmt.Errorf("marshalling content change: %w", err)
		}
	}

	var fromSeq *int
	if v.Sequence > 1 {
		prev := v.Sequence - 1
		fromSeq = &prev
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO changelog_entries (id, org_id, contract_id, version_id, from_sequence, to_sequence, field_changes, content_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+changelogColumns,
		uuid.New().String(), v.OrgID, v.ContractID, v.ID, fromSeq, v.Sequence, changesJSON, contentJSON,
	)

	entry, err := scanChangelog(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning changelog entry: %w", err)
	}

	return entry, nil
}

// Latest returns the most recent version snapshot for a contract, or nil
// if no version exists yet.
func (s *VersionStore) Latest(ctx context.Context, orgID, contractID string) (*models.ContractVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("getting latest version: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	row := tx.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM contract_versions
		WHERE org_id = current_setting('app.org_id')::uuid AND contract_id = $1
		ORDER BY sequence DESC LIMIT 1`,
		contractID,
	)

	v, err := scanVersion(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("scanning latest version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing latest version query: %w", err)
	}

	return v, nil
}

// Get returns one version of a contract by sequence number.
func (s *VersionStore) Get(ctx context.Context, orgID, contractID string, sequence int) (*models.ContractVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	row := tx.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM contract_versions
		WHERE org_id = current_setting('app.org_id')::uuid AND contract_id = $1 AND sequence = $2`,
		contractID, sequence,
	)

	v, err := scanVersion(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}

		return nil, fmt.Errorf("scanning version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing version query: %w", err)
	}

	return v, nil
}

// List returns a contract's versions, newest first, with has_more pagination.
func (s *VersionStore) List(
	ctx context.Context,
	orgID string,
	q models.VersionListQuery,
) ([]models.ContractVersion, bool, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, false, fmt.Errorf("listing versions: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx,
		`SELECT `+versionColumns+` FROM contract_versions
		WHERE org_id = current_setting('app.org_id')::uuid AND contract_id = $1
		ORDER BY sequence DESC
		LIMIT $2 OFFSET $3`,
		q.ContractID, limit+1, offset,
	)
	if err != nil {
		return nil, false, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	versions, err := collectVersions(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(versions) > limit
	if hasMore {
		versions = versions[:limit]
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing version list: %w", err)
	}

	return versions, hasMore, nil
}

// GetChangelog returns the changelog entry tied to a version sequence.
func (s *VersionStore) GetChangelog(
	ctx context.Context,
	orgID, contractID string,
	sequence int,
) (*models.ChangeLogEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("getting changelog: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	row := tx.QueryRow(ctx,
		`SELECT `+changelogColumns+` FROM changelog_entries
		WHERE org_id = current_setting('app.org_id')::uuid AND contract_id = $1 AND to_sequence = $2`,
		contractID, sequence,
	)

	entry, err := scanChangelog(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}

		return nil, fmt.Errorf("scanning changelog: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing changelog query: %w", err)
	}

	return entry, nil
}
