// Package store provides focused, single-concern data access stores for
// the contract engine.
//
// Each store owns one domain (contracts, versions, approvals, audit) and
// embeds shared helpers (Pool, logger) via the Base struct. Stores never
// import each other — cross-domain writes that must be atomic live in
// package-level helpers called within one transaction (version.go).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// setOrg sets the organization context for RLS policies within a transaction.
func setOrg(ctx context.Context, tx pgx.Tx, orgID string) error {
	if _, err := uuid.Parse(orgID); err != nil {
		return fmt.Errorf("invalid organization ID format: %w", err)
	}

	_, err := tx.Exec(ctx, "SELECT set_config('app.org_id', $1, true)", orgID)
	if err != nil {
		return fmt.Errorf("setting organization context: %w", err)
	}

	return nil
}

// beginTx starts a read-write transaction and sets the organization context.
func (b *Base) beginTx(ctx context.Context, orgID string) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	if err := setOrg(ctx, tx, orgID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

// notify sends a pg_notify on the contract_events channel (best-effort,
// post-commit). The WebSocket hub picks these up via LISTEN.
func (b *Base) notify(eventType, orgID, contractID string, detail map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fields := map[string]any{
		"type":        eventType,
		"org_id":      orgID,
		"contract_id": contractID,
	}
	for k, v := range detail {
		fields[k] = v
	}

	payload, _ := json.Marshal(fields) //nolint:errcheck // static keys, cannot fail.
	if _, err := b.Pool.Exec(ctx, "SELECT pg_notify('contract_events', $1)", string(payload)); err != nil {
		b.Log.WithError(err).Warn("failed to send " + eventType + " notification")
	}
}

// beginReadTx starts a read-only transaction and sets the organization context.
func (b *Base) beginReadTx(ctx context.Context, orgID string) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	if err := setOrg(ctx, tx, orgID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}
