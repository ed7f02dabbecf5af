package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/dbpool"
	"github.com/pactorhq/pactor/internal/diff"
	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupTestBase creates a Base with a fresh test org, cleaned up after the test.
func setupTestBase(t *testing.T) (_ store.Base, _ string) {
	t.Helper()

	env := getTestEnv(t)
	orgID := uuid.New().String()
	ctx := context.Background()

	_, err := env.pool.Exec(ctx,
		"INSERT INTO organizations (id, name) VALUES ($1, $2)",
		orgID, fmt.Sprintf("test-org-%s", orgID[:8]),
	)
	if err != nil {
		t.Fatalf("creating test org: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		// Delete in dependency order: audit, changelog, versions, approvals, contracts, keys, users, org.
		env.pool.Exec(cleanCtx, "DELETE FROM audit_log WHERE org_id = $1", orgID)         //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM changelog_entries WHERE org_id = $1", orgID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM contract_versions WHERE org_id = $1", orgID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM approval_records WHERE org_id = $1", orgID)  //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM contracts WHERE org_id = $1", orgID)         //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM api_keys WHERE org_id = $1", orgID)          //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM users WHERE org_id = $1", orgID)             //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM organizations WHERE id = $1", orgID)         //nolint:errcheck // best-effort cleanup
	})

	base := store.Base{Pool: env.pool, Log: env.log}

	return base, orgID
}

// createDraft inserts a minimal draft contract and returns it.
func createDraft(t *testing.T, cs *store.ContractStore, orgID string) *models.Contract {
	t.Helper()

	req := models.CreateContractRequest{
		Reference:        "CT-" + uuid.New().String()[:8],
		Title:            "Test Contract",
		CounterpartyName: "Acme Corp",
		FieldData: map[string]models.FieldValue{
			"payment_terms": models.TextValue("net 30"),
		},
		AnnexureData: "initial body",
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	_, contentChange := diff.Compute(nil, models.Snapshot{
		FieldData:    req.FieldData,
		AnnexureData: req.AnnexureData,
	})

	c, _, err := cs.Create(context.Background(), orgID, req, "user-test", contentChange)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	return c
}
