// Package memory provides an in-memory implementation of the grant composite
// store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
	"github.com/xraph/grant/store"
)

// Compile-time interface checks.
var (
	_ role.Store       = (*Store)(nil)
	_ permission.Store = (*Store)(nil)
	_ store.Store      = (*Store)(nil)
)

type permEntry struct {
	seq  uint64
	perm *permission.Permission
}

type roleEntry struct {
	seq  uint64
	role *role.Role
}

// Store is a thread-safe in-memory store for roles and permissions.
// Listings come back in insertion order.
type Store struct {
	mu  sync.RWMutex
	seq uint64

	roles       map[string]roleEntry
	permissions map[string]permEntry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:       make(map[string]roleEntry),
		permissions: make(map[string]permEntry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.roles[r.ID.String()] = roleEntry{seq: s.seq, role: copyRole(r)}
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return copyRole(e.role), nil
}

func (s *Store) GetRoleByCode(_ context.Context, tenantID, code string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.roles {
		if e.role.TenantID == tenantID && e.role.Code == code {
			return copyRole(e.role), nil
		}
	}
	return nil, fmt.Errorf("role code %q: %w", code, store.ErrNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.roles[r.ID.String()]
	if !ok {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	e.role = copyRole(r)
	s.roles[r.ID.String()] = e
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]roleEntry, 0, len(s.roles))
	for _, e := range s.roles {
		if filter.Matches(e.role) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]*role.Role, len(entries))
	for i, e := range entries {
		result[i] = copyRole(e.role)
	}
	return applyPagination(result, roleOpts(filter)), nil
}

func (s *Store) CountRoles(_ context.Context, filter *role.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.roles {
		if filter.Matches(e.role) {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermissions(_ context.Context, perms []*permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range perms {
		if p.ID.IsNil() {
			return fmt.Errorf("memory: permission %q has no id", p.Action)
		}
	}
	for _, p := range perms {
		s.seq++
		s.permissions[p.ID.String()] = permEntry{seq: s.seq, perm: copyPermission(p)}
	}
	return nil
}

func (s *Store) GetPermission(_ context.Context, permID id.PermissionID) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.permissions[permID.String()]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	return copyPermission(e.perm), nil
}

func (s *Store) UpdatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.permissions[p.ID.String()]
	if !ok {
		return fmt.Errorf("permission %s: %w", p.ID, store.ErrNotFound)
	}
	e.perm = copyPermission(p)
	s.permissions[p.ID.String()] = e
	return nil
}

func (s *Store) DeletePermissions(_ context.Context, permIDs []id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range permIDs {
		delete(s.permissions, pid.String())
	}
	return nil
}

func (s *Store) DeletePermissionsByRole(_ context.Context, roleIDs []id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make(map[string]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		owners[rid.String()] = struct{}{}
	}
	for k, e := range s.permissions {
		if e.perm.Role == nil {
			continue
		}
		if _, ok := owners[e.perm.Role.String()]; ok {
			delete(s.permissions, k)
		}
	}
	return nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]permEntry, 0, len(s.permissions))
	for _, e := range s.permissions {
		if filter.Matches(e.perm) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]*permission.Permission, len(entries))
	for i, e := range entries {
		result[i] = copyPermission(e.perm)
	}
	return applyPagination(result, permOpts(filter)), nil
}

func (s *Store) CountPermissions(_ context.Context, filter *permission.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.permissions {
		if filter.Matches(e.perm) {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyRole(r *role.Role) *role.Role {
	c := *r
	if r.Metadata != nil {
		c.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyPermission(p *permission.Permission) *permission.Permission {
	c := p.Clone()
	return &c
}

type pagOpts struct {
	limit  int
	offset int
}

func roleOpts(f *role.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func permOpts(f *permission.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset > 0 && p.offset >= len(items) {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
