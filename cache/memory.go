// Package cache provides caching implementations for role permission sets.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xraph/grant"
	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
)

// Compile-time interface check.
var _ grant.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration and a size bound.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	perms     []permission.Permission
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cached roles.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the cached permissions of a role.
func (m *Memory) Get(_ context.Context, tenantID string, roleID id.RoleID) ([]permission.Permission, bool) {
	key := cacheKey(tenantID, roleID)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return clonePerms(e.perms), true
}

// Set stores the permissions of a role.
func (m *Memory) Set(_ context.Context, tenantID string, roleID id.RoleID, perms []permission.Permission) {
	key := cacheKey(tenantID, roleID)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		perms:     clonePerms(perms),
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateRole removes the cached permissions of one role.
func (m *Memory) InvalidateRole(_ context.Context, tenantID string, roleID id.RoleID) {
	m.mu.Lock()
	delete(m.entries, cacheKey(tenantID, roleID))
	m.mu.Unlock()
}

// InvalidateTenant removes all cached roles of a tenant.
func (m *Memory) InvalidateTenant(_ context.Context, tenantID string) {
	prefix := tenantID + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cacheKey(tenantID string, roleID id.RoleID) string {
	return tenantID + ":" + roleID.String()
}

func clonePerms(ps []permission.Permission) []permission.Permission {
	out := make([]permission.Permission, len(ps))
	for i := range ps {
		out[i] = ps[i].Clone()
	}
	return out
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes the entry closest to expiry. Must hold write lock.
func (m *Memory) evictOne() {
	var oldest string
	var at time.Time
	for k, e := range m.entries {
		if oldest == "" || e.expiresAt.Before(at) {
			oldest, at = k, e.expiresAt
		}
	}
	delete(m.entries, oldest)
}
