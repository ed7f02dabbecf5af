package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pactorhq/pactor/internal/models"
)

// AuditStore provides data access for the audit_log table.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// RecordAudit inserts an audit log entry.
func (s *AuditStore) RecordAudit(ctx context.Context, orgID string, entry models.AuditEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, orgID)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	var detailJSON []byte
	if entry.Detail != nil {
		detailJSON, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_log (org_id, action, target_type, target_id, actor, old_value, new_value, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		orgID, entry.Action, entry.TargetType, entry.TargetID, entry.Actor,
		entry.OldValue, entry.NewValue, detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing audit entry: %w", err)
	}

	return nil
}

// QueryAudit returns audit entries matching the given filters, newest
// first, with has_more pagination.
func (s *AuditStore) QueryAudit(
	ctx context.Context,
	orgID string,
	opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, orgID)
	if err != nil {
		return nil, false, fmt.Errorf("querying audit log: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var conditions []string
	var args []any
	argIdx := 1

	addFilter := func(clause string, value any) {
		conditions = append(conditions, clause+"$"+strconv.Itoa(argIdx))
		args = append(args, value)
		argIdx++
	}

	if opts.TargetType != "" {
		addFilter("target_type = ", opts.TargetType)
	}

	if opts.TargetID != "" {
		addFilter("target_id = ", opts.TargetID)
	}

	if opts.Action != "" {
		addFilter("action = ", opts.Action)
	}

	if opts.Actor != "" {
		addFilter("actor = ", opts.Actor)
	}

	if opts.Since != nil {
		addFilter("created_at >= ", *opts.Since)
	}

	query := `SELECT id, org_id, action, target_type, target_id, actor, old_value, new_value, detail, created_at
		FROM audit_log
		WHERE org_id = current_setting('app.org_id')::uuid`

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0, limit+1)

	for rows.Next() {
		var e models.AuditEntry
		var oldValue, newValue *string
		var detailJSON []byte

		if err := rows.Scan(
			&e.ID, &e.OrgID, &e.Action, &e.TargetType, &e.TargetID,
			&e.Actor, &oldValue, &newValue, &detailJSON, &e.CreatedAt,
		); err != nil {
			return nil, false, fmt.Errorf("scanning audit row: %w", err)
		}

		if oldValue != nil {
			e.OldValue = *oldValue
		}

		if newValue != nil {
			e.NewValue = *newValue
		}

		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				return nil, false, fmt.Errorf("unmarshalling audit detail: %w", err)
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating audit rows: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing audit query: %w", err)
	}

	return entries, hasMore, nil
}

// PurgeOldEntries deletes audit entries older than retentionDays.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, orgID string, retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention days must be at least 1")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, orgID)
	if err != nil {
		return 0, fmt.Errorf("purging audit log: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx,
		`DELETE FROM audit_log
		WHERE org_id = current_setting('app.org_id')::uuid
			AND created_at < now() - make_interval(days => $1)`,
		retentionDays,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting audit entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing audit purge: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
