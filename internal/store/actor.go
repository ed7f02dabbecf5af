package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/pactorhq/pactor/internal/dbpool"
)

// Actor is the resolved identity behind an API key: the organization it is
// scoped to, the acting user, and that user's permission strings. The core
// never resolves permissions beyond this lookup; it only checks membership
// in the returned set.
type Actor struct {
	OrgID       string
	UserID      string
	Permissions []string
}

// ActorStore handles API key → actor resolution.
type ActorStore struct {
	Pool *dbpool.Pool
}

// NewActorStore creates a new ActorStore.
func NewActorStore(pool *dbpool.Pool) *ActorStore {
	return &ActorStore{Pool: pool}
}

// GetActorByAPIKey looks up the actor behind an API key hash.
func (s *ActorStore) GetActorByAPIKey(ctx context.Context, apiKey string) (*Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	hash := sha256.Sum256([]byte(apiKey))
	apiKeyHash := hex.EncodeToString(hash[:])

	var actor Actor

	err := s.Pool.QueryRow(ctx,
		`SELECT k.org_id, k.user_id, k.permissions
		FROM api_keys k
		WHERE k.key_hash = $1 AND k.revoked_at IS NULL`,
		apiKeyHash,
	).Scan(&actor.OrgID, &actor.UserID, &actor.Permissions)
	if err != nil {
		return nil, fmt.Errorf("looking up actor by API key: %w", err)
	}

	return &actor, nil
}
