package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/grant"
	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
)

// Compile-time interface check.
var _ grant.Cache = (*Redis)(nil)

// Redis caches role permission sets in Redis as JSON. Every tenant keeps a
// set of its cached keys so InvalidateTenant does not need to scan.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithKeyPrefix sets the namespace of every key. Defaults to "grant".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisLogger sets the logger used to report Redis failures.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis creates a Redis-backed cache.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    5 * time.Minute,
		prefix: "grant",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the cached permissions of a role. Redis errors count as a miss.
func (r *Redis) Get(ctx context.Context, tenantID string, roleID id.RoleID) ([]permission.Permission, bool) {
	payload, err := r.client.Get(ctx, r.roleKey(tenantID, roleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.warn("get", err)
		return nil, false
	}
	var perms []permission.Permission
	if err := json.Unmarshal(payload, &perms); err != nil {
		r.warn("decode", err)
		return nil, false
	}
	return perms, true
}

// Set stores the permissions of a role and records the key in the tenant
// index.
func (r *Redis) Set(ctx context.Context, tenantID string, roleID id.RoleID, perms []permission.Permission) {
	payload, err := json.Marshal(perms)
	if err != nil {
		r.warn("encode", err)
		return
	}
	key := r.roleKey(tenantID, roleID)
	index := r.tenantKey(tenantID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, r.ttl)
		pipe.SAdd(ctx, index, key)
		if r.ttl > 0 {
			pipe.Expire(ctx, index, r.ttl)
		}
		return nil
	})
	if err != nil {
		r.warn("set", err)
	}
}

// InvalidateRole removes the cached permissions of one role.
func (r *Redis) InvalidateRole(ctx context.Context, tenantID string, roleID id.RoleID) {
	key := r.roleKey(tenantID, roleID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, r.tenantKey(tenantID), key)
		return nil
	})
	if err != nil {
		r.warn("invalidate role", err)
	}
}

// InvalidateTenant removes every cached role of a tenant.
func (r *Redis) InvalidateTenant(ctx context.Context, tenantID string) {
	index := r.tenantKey(tenantID)
	keys, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		r.warn("invalidate tenant", err)
		return
	}
	if err := r.client.Del(ctx, append(keys, index)...).Err(); err != nil {
		r.warn("invalidate tenant", err)
	}
}

func (r *Redis) roleKey(tenantID string, roleID id.RoleID) string {
	return r.prefix + ":perms:" + tenantID + ":" + roleID.String()
}

func (r *Redis) tenantKey(tenantID string) string {
	return r.prefix + ":tenant:" + tenantID
}

func (r *Redis) warn(op string, err error) {
	r.logger.Warn("grant redis cache error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
