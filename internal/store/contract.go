package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/workflow"
)

// ContractStore handles contract CRUD and workflow transition writes.
type ContractStore struct {
	Base
}

// NewContractStore creates a new ContractStore.
func NewContractStore(base Base) *ContractStore {
	return &ContractStore{Base: base}
}

// Create inserts a new contract in DRAFT together with its version 1
// snapshot and changelog entry, all in one transaction. A contract is
// therefore never observable without a baseline version, and a failure
// anywhere leaves no row behind for a retry to collide with.
// contentChange is the precomputed changelog payload for the initial body.
func (s *ContractStore) Create(
	ctx context.Context,
	orgID string,
	req models.CreateContractRequest,
	actorID string,
	contentChange *models.ContentChange,
) (*models.Contract, *models.ContractVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating contract: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	fieldData, err := marshalFieldData(req.FieldData)
	if err != nil {
		return nil, nil, err
	}

	financeRequired := true
	if req.FinanceRequired != nil {
		financeRequired = *req.FinanceRequired
	}

	query := `INSERT INTO contracts (id, org_id, reference, title, counterparty_name, counterparty_email,
			amount, start_date, end_date, description, field_data, annexure_data,
			status, finance_required, current_sequence, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15)
		RETURNING ` + contractColumns

	row := tx.QueryRow(ctx, query,
		req.ID, orgID, req.Reference, req.Title, req.CounterpartyName, req.CounterpartyEmail,
		req.Amount, req.StartDate, req.EndDate, req.Description, fieldData, req.AnnexureData,
		models.StatusDraft, financeRequired, actorID,
	)

	c, err := scanContract(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, nil, models.ErrDuplicateKey
		}

		return nil, nil, fmt.Errorf("scanning created contract: %w", err)
	}

	row = tx.QueryRow(ctx,
		`INSERT INTO contract_versions (id, org_id, contract_id, sequence, field_data, annexure_data, created_by_user_id)
		VALUES ($1, $2, $3, 1, $4, $5, $6)
		RETURNING `+versionColumns,
		uuid.New().String(), orgID, c.ID, fieldData, req.AnnexureData, actorID,
	)

	v, err := scanVersion(row.Scan)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning initial version: %w", err)
	}

	if _, err := insertChangelog(ctx, tx, v, nil, contentChange); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing create contract: %w", err)
	}

	return c, v, nil
}

// Get returns a single contract by ID.
func (s *ContractStore) Get(ctx context.Context, orgID, contractID string) (*models.Contract, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("getting contract: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	row := tx.QueryRow(ctx,
		`SELECT `+contractColumns+` FROM contracts
		WHERE org_id = current_setting('app.org_id')::uuid AND id = $1`,
		contractID,
	)

	c, err := scanContract(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrContractNotFound
		}

		return nil, fmt.Errorf("scanning contract: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing contract query: %w", err)
	}

	return c, nil
}

// List returns contracts matching the filter with has_more pagination.
func (s *ContractStore) List(
	ctx context.Context,
	orgID string,
	filter models.ContractFilter,
) ([]models.Contract, bool, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, false, fmt.Errorf("listing contracts: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := `SELECT ` + contractColumns + ` FROM contracts
		WHERE org_id = current_setting('app.org_id')::uuid`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Counterparty != "" {
		query += fmt.Sprintf(" AND counterparty_name ILIKE $%d", argIdx)
		args = append(args, "%"+filter.Counterparty+"%")
		argIdx++
	}

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR reference ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Query+"%")
		argIdx++
	}

	query += " ORDER BY updated_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying contracts: %w", err)
	}
	defer rows.Close()

	contracts, err := collectContracts(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(contracts) > limit
	if hasMore {
		contracts = contracts[:limit]
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing contract list: %w", err)
	}

	return contracts, hasMore, nil
}

// buildContractUpdateQuery constructs the SET clause for the plain business
// columns of UpdateDraft. Tracked field data and the annexure body go
// through the versioning path instead.
func buildContractUpdateQuery(req models.UpdateContractRequest) (setClauses []string, args []any, nextArg int) {
	setClauses = make([]string, 0, 7)
	args = make([]any, 0, 8)
	argIdx := 1

	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if req.Title != nil {
		add("title", *req.Title)
	}

	if req.CounterpartyName != nil {
		add("counterparty_name", *req.CounterpartyName)
	}

	if req.CounterpartyEmail != nil {
		add("counterparty_email", *req.CounterpartyEmail)
	}

	if req.Amount != nil {
		add("amount", *req.Amount)
	}

	if req.StartDate != nil {
		add("start_date", *req.StartDate)
	}

	if req.EndDate != nil {
		add("end_date", *req.EndDate)
	}

	if req.Description != nil {
		add("description", *req.Description)
	}

	return setClauses, args, argIdx
}

// UpdateDraft updates the plain business columns of a contract while it is
// in DRAFT. Callers that also change tracked fields or the body follow up
// with VersionStore.Append.
func (s *ContractStore) UpdateDraft(
	ctx context.Context,
	orgID, contractID string,
	req models.UpdateContractRequest,
) (*models.Contract, error) {
	setClauses, args, argIdx := buildContractUpdateQuery(req)
	if len(setClauses) == 0 {
		return s.Get(ctx, orgID, contractID)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("updating contract: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE contracts SET %s
		WHERE org_id = current_setting('app.org_id')::uuid AND id = $%d AND status = $%d
		RETURNING `+contractColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)
	args = append(args, contractID, models.StatusDraft)

	row := tx.QueryRow(ctx, query, args...)

	c, err := scanContract(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.notUpdatable(ctx, tx, contractID, "update")
		}

		return nil, fmt.Errorf("scanning updated contract: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing contract update: %w", err)
	}

	return c, nil
}

// notUpdatable distinguishes a missing contract from one outside DRAFT.
func (s *ContractStore) notUpdatable(ctx context.Context, tx pgx.Tx, contractID, action string) error {
	var status models.Status

	err := tx.QueryRow(ctx,
		`SELECT status FROM contracts
		WHERE org_id = current_setting('app.org_id')::uuid AND id = $1`,
		contractID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrContractNotFound
		}

		return fmt.Errorf("checking contract status: %w", err)
	}

	return &models.InvalidTransitionError{
		Status:  status,
		Action:  action,
		Allowed: workflow.AllowedActions(status),
	}
}

// TransitionWrite describes one workflow transition to apply atomically:
// the contract status CAS, the acted-on approval record CAS, and the
// next-phase record to open, if any.
type TransitionWrite struct {
	ContractID string
	Action     string
	FromStatus models.Status
	ToStatus   models.Status

	// Approval record being acted on; empty RecordID for record-less
	// transitions (submit, send, upload-signed, activate, terminate).
	RecordID   string
	RecordFrom models.ApprovalStatus
	RecordTo   models.ApprovalStatus
	SetActed   bool
	SetComment bool
	Comment    *string

	EscalatedTo    *string
	ClearEscalatee bool

	// OpenPhase, when non-empty, creates the next-phase record in PENDING.
	OpenPhase models.ApprovalType

	ActorID string
}

// TransitionResult is what a successfully applied transition produced.
type TransitionResult struct {
	Contract   *models.Contract
	Acted      *models.ApprovalRecord // record acted on, nil for record-less transitions
	NewPending *models.ApprovalRecord // next-phase record, nil unless a phase was opened
}

// ApplyTransition performs one workflow transition as a single atomic
// unit. Both the approval record and the contract status are updated with
// compare-and-swap conditions, so of two concurrent requests exactly one
// commits; the loser observes ErrNoPendingApproval or an
// InvalidTransitionError carrying the actual current status.
func (s *ContractStore) ApplyTransition(
	ctx context.Context,
	orgID string,
	w TransitionWrite,
) (*TransitionResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("applying transition: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	result := &TransitionResult{}

	if w.RecordID != "" {
		acted, err := actOnApproval(ctx, tx, w)
		if err != nil {
			return nil, err
		}

		result.Acted = acted
	}

	row := tx.QueryRow(ctx,
		`UPDATE contracts SET status = $1, updated_at = now()
		WHERE org_id = current_setting('app.org_id')::uuid AND id = $2 AND status = $3
		RETURNING `+contractColumns,
		w.ToStatus, w.ContractID, w.FromStatus,
	)

	c, err := scanContract(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.notUpdatable(ctx, tx, w.ContractID, w.Action)
		}

		return nil, fmt.Errorf("scanning transitioned contract: %w", err)
	}

	result.Contract = c

	if w.OpenPhase != "" {
		pending, err := openApproval(ctx, tx, orgID, w.ContractID, w.OpenPhase)
		if err != nil {
			return nil, err
		}

		result.NewPending = pending
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transition: %w", err)
	}

	s.notify("contract.transition", orgID, w.ContractID, map[string]any{
		"action": w.Action,
		"status": string(w.ToStatus),
	})

	return result, nil
}
