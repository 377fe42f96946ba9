package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openledger/backend/internal/domain/ledger"
)

// RedisPermissionGrants implements ledger.PermissionChecker against a Redis
// set per (tenant, actor). Grants live outside the token so they can be
// changed without reissuing it.
type RedisPermissionGrants struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisPermissionGrants creates a grant store on an existing Redis client
func NewRedisPermissionGrants(client *redis.Client) *RedisPermissionGrants {
	return &RedisPermissionGrants{
		client:    client,
		keyPrefix: "perm:grant:",
	}
}

// grantKey returns the Redis key holding an actor's grant set in a tenant
func (g *RedisPermissionGrants) grantKey(tenantID, actorID uuid.UUID) string {
	return g.keyPrefix + tenantID.String() + ":" + actorID.String()
}

// Grant adds a permission code to the actor's grant set
func (g *RedisPermissionGrants) Grant(ctx context.Context, actorID, tenantID uuid.UUID, code string) error {
	if err := g.client.SAdd(ctx, g.grantKey(tenantID, actorID), code).Err(); err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// Revoke removes a permission code from the actor's grant set
func (g *RedisPermissionGrants) Revoke(ctx context.Context, actorID, tenantID uuid.UUID, code string) error {
	if err := g.client.SRem(ctx, g.grantKey(tenantID, actorID), code).Err(); err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

// HasPermission checks membership in the actor's grant set
func (g *RedisPermissionGrants) HasPermission(ctx context.Context, actorID, tenantID uuid.UUID, code string) (bool, error) {
	ok, err := g.client.SIsMember(ctx, g.grantKey(tenantID, actorID), code).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check permission grant: %w", err)
	}
	return ok, nil
}

// Ensure RedisPermissionGrants implements ledger.PermissionChecker
var _ ledger.PermissionChecker = (*RedisPermissionGrants)(nil)

// InMemoryPermissionGrants provides an in-memory implementation for testing
// and single-instance deployments without Redis
type InMemoryPermissionGrants struct {
	mu     sync.RWMutex
	grants map[string]map[string]struct{} // tenant:actor -> set of codes
}

// NewInMemoryPermissionGrants creates an empty in-memory grant store
func NewInMemoryPermissionGrants() *InMemoryPermissionGrants {
	return &InMemoryPermissionGrants{
		grants: make(map[string]map[string]struct{}),
	}
}

func inMemoryGrantKey(tenantID, actorID uuid.UUID) string {
	return tenantID.String() + ":" + actorID.String()
}

// Grant adds a permission code to the actor's grant set
func (g *InMemoryPermissionGrants) Grant(_ context.Context, actorID, tenantID uuid.UUID, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := inMemoryGrantKey(tenantID, actorID)
	if g.grants[key] == nil {
		g.grants[key] = make(map[string]struct{})
	}
	g.grants[key][code] = struct{}{}
	return nil
}

// Revoke removes a permission code from the actor's grant set
func (g *InMemoryPermissionGrants) Revoke(_ context.Context, actorID, tenantID uuid.UUID, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.grants[inMemoryGrantKey(tenantID, actorID)], code)
	return nil
}

// HasPermission checks membership in the actor's grant set
func (g *InMemoryPermissionGrants) HasPermission(_ context.Context, actorID, tenantID uuid.UUID, code string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.grants[inMemoryGrantKey(tenantID, actorID)][code]
	return ok, nil
}

// Ensure InMemoryPermissionGrants implements ledger.PermissionChecker
var _ ledger.PermissionChecker = (*InMemoryPermissionGrants)(nil)
