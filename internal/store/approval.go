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
)

// ApprovalStore handles approval record reads. Writes happen exclusively
// inside transition transactions (see ContractStore.ApplyTransition) via
// the package-level helpers below.
type ApprovalStore struct {
	Base
}

// NewApprovalStore creates a new ApprovalStore.
func NewApprovalStore(base Base) *ApprovalStore {
	return &ApprovalStore{Base: base}
}

// GetOpen returns the contract's open (pending or escalated) approval
// record of the given type, or nil if none exists. The approval phases are
// sequential, so at most one open record exists per contract.
func (s *ApprovalStore) GetOpen(
	ctx context.Context,
	orgID, contractID string,
	typ models.ApprovalType,
) (*models.ApprovalRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("getting open approval: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	row := tx.QueryRow(ctx,
		`SELECT `+approvalColumns+` FROM approval_records
		WHERE org_id = current_setting('app.org_id')::uuid
			AND contract_id = $1 AND type = $2 AND status IN ($3, $4)`,
		contractID, typ, models.ApprovalPending, models.ApprovalEscalated,
	)

	r, err := scanApproval(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("scanning approval record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing approval query: %w", err)
	}

	return r, nil
}

// ListByContract returns all approval records for a contract, newest first.
func (s *ApprovalStore) ListByContract(
	ctx context.Context,
	orgID, contractID string,
) ([]models.ApprovalRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx,
		`SELECT `+approvalColumns+` FROM approval_records
		WHERE org_id = current_setting('app.org_id')::uuid AND contract_id = $1
		ORDER BY created_at DESC`,
		contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying approvals: %w", err)
	}
	defer rows.Close()

	records := make([]models.ApprovalRecord, 0, 4)

	for rows.Next() {
		r, err := scanApproval(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning approval row: %w", err)
		}

		records = append(records, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating approval rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing approval list: %w", err)
	}

	return records, nil
}

// actOnApproval applies the transition's record update with a CAS on the
// record's expected current status. Zero rows means a concurrent request
// got there first.
func actOnApproval(ctx context.Context, tx pgx.Tx, w TransitionWrite) (*models.ApprovalRecord, error) {
	setClauses := []string{"status = $1", "updated_at = now()"}
	args := []any{w.RecordTo}
	argIdx := 2

	if w.SetActed {
		setClauses = append(setClauses,
			fmt.Sprintf("acted_by_user_id = $%d", argIdx),
			"acted_at = now()",
		)
		args = append(args, w.ActorID)
		argIdx++
	}

	if w.SetComment {
		setClauses = append(setClauses, fmt.Sprintf("comment = $%d", argIdx))
		args = append(args, w.Comment)
		argIdx++
	}

	switch {
	case w.EscalatedTo != nil:
		setClauses = append(setClauses, fmt.Sprintf("escalated_to_user_id = $%d", argIdx))
		args = append(args, *w.EscalatedTo)
		argIdx++
	case w.ClearEscalatee:
		setClauses = append(setClauses, "escalated_to_user_id = NULL")
	}

	query := fmt.Sprintf(`UPDATE approval_records SET %s
		WHERE id = $%d AND status = $%d
		RETURNING `+approvalColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)
	args = append(args, w.RecordID, w.RecordFrom)

	row := tx.QueryRow(ctx, query, args...)

	r, err := scanApproval(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNoPendingApproval
		}

		return nil, fmt.Errorf("scanning acted approval: %w", err)
	}

	return r, nil
}

// openApproval creates the next-phase approval record in PENDING. The
// partial unique index on open records backs the one-open-record-per-
// (contract, type) invariant; the contract row lock taken by the preceding
// status CAS makes a violation here a hard invariant breach, not a race.
func openApproval(
	ctx context.Context,
	tx pgx.Tx,
	orgID, contractID string,
	typ models.ApprovalType,
) (*models.ApprovalRecord, error) {
	row := tx.QueryRow(ctx,
		`INSERT INTO approval_records (id, org_id, contract_id, type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+approvalColumns,
		uuid.New().String(), orgID, contractID, typ, models.ApprovalPending,
	)

	r, err := scanApproval(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("opening approval record: %w", err)
	}

	return r, nil
}
