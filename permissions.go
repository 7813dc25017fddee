package grant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
	"github.com/xraph/grant/store"
)

// CreatePermissions builds permissions from attrs, binds them to the role
// and stores them. Unknown conditions are pruned when the service is
// configured to do so. The stored permissions are returned sanitized.
func (s *Service) CreatePermissions(ctx context.Context, roleID id.RoleID, attrs []permission.Attributes) ([]permission.Sanitized, error) {
	r, err := s.writableRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	perms, err := s.build(r.ID, attrs)
	if err != nil {
		return nil, err
	}
	for i := range perms {
		perms[i].ID = id.NewPermissionID()
	}
	if len(perms) == 0 {
		return []permission.Sanitized{}, nil
	}

	if err := s.store.CreatePermissions(ctx, pointers(perms)); err != nil {
		return nil, fmt.Errorf("grant: create permissions: %w", err)
	}
	s.invalidate(ctx, r.TenantID, r.ID)
	s.logger.Debug("permissions created",
		slog.String("role_id", r.ID.String()),
		slog.Int("count", len(perms)),
	)
	if s.plugins != nil {
		s.plugins.EmitPermissionsCreated(ctx, r.ID, perms)
	}
	return permission.SanitizeAll(perms), nil
}

// AssignPermissions replaces the permission set of a role with attrs.
// Stored permissions equal to a requested one are kept with their IDs; the
// rest are deleted and the missing ones created.
func (s *Service) AssignPermissions(ctx context.Context, roleID id.RoleID, attrs []permission.Attributes) ([]permission.Sanitized, error) {
	r, err := s.writableRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	desired, err := s.build(r.ID, attrs)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ListPermissions(ctx, &permission.ListFilter{RoleID: r.ID.Ptr()})
	if err != nil {
		return nil, fmt.Errorf("grant: list role permissions: %w", err)
	}

	unmatched := make(map[string][]*permission.Permission, len(existing))
	for _, p := range existing {
		k := diffKey(*p)
		unmatched[k] = append(unmatched[k], p)
	}

	var created []permission.Permission
	result := make([]permission.Permission, len(desired))
	for i, p := range desired {
		k := diffKey(p)
		if bucket := unmatched[k]; len(bucket) > 0 {
			result[i] = *bucket[0]
			unmatched[k] = bucket[1:]
			continue
		}
		p.ID = id.NewPermissionID()
		result[i] = p
		created = append(created, p)
	}

	var stale []id.PermissionID
	for _, p := range existing {
		if bucket := unmatched[diffKey(*p)]; containsPermission(bucket, p.ID) {
			stale = append(stale, p.ID)
		}
	}

	// Create before delete: a failure leaves a superset of the grants.
	if len(created) > 0 {
		if err := s.store.CreatePermissions(ctx, pointers(created)); err != nil {
			return nil, fmt.Errorf("grant: create permissions: %w", err)
		}
	}
	if len(stale) > 0 {
		if err := s.store.DeletePermissions(ctx, stale); err != nil {
			s.invalidate(ctx, r.TenantID, r.ID)
			return nil, fmt.Errorf("grant: delete stale permissions: %w", err)
		}
	}
	s.invalidate(ctx, r.TenantID, r.ID)
	s.logger.Debug("permissions assigned",
		slog.String("role_id", r.ID.String()),
		slog.Int("created", len(created)),
		slog.Int("deleted", len(stale)),
		slog.Int("kept", len(result)-len(created)),
	)
	if s.plugins != nil {
		if len(stale) > 0 {
			s.plugins.EmitPermissionsDeleted(ctx, stale)
		}
		if len(created) > 0 {
			s.plugins.EmitPermissionsCreated(ctx, r.ID, created)
		}
	}
	return permission.SanitizeAll(result), nil
}

// RolePermissions returns the sanitized permissions of a role, oldest
// first. Results are served from the cache when one is configured;
// concurrent misses for the same role share a single store query.
func (s *Service) RolePermissions(ctx context.Context, roleID id.RoleID) ([]permission.Sanitized, error) {
	r, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if perms, ok := s.cache.Get(ctx, r.TenantID, r.ID); ok {
			return permission.SanitizeAll(perms), nil
		}
	}

	key := r.ID.String()
	ch := s.loads.DoChan(key, func() (any, error) {
		// The flight is shared, so one caller's cancellation must not fail
		// the others. Each caller still stops waiting on its own ctx.
		loadCtx := context.WithoutCancel(ctx)
		gen := s.generation(key)
		stored, err := s.store.ListPermissions(loadCtx, &permission.ListFilter{RoleID: r.ID.Ptr()})
		if err != nil {
			return nil, err
		}
		perms := values(stored)
		s.fill(loadCtx, r.TenantID, r.ID, gen, perms)
		return perms, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("grant: load role permissions: %w", res.Err)
		}
		return permission.SanitizeAll(res.Val.([]permission.Permission)), nil
	}
}

// FindPermissions lists permissions matching filter. Without a RoleID the
// search is restricted to the roles of the caller's tenant.
func (s *Service) FindPermissions(ctx context.Context, filter *permission.ListFilter) ([]permission.Sanitized, error) {
	f, err := s.scopedFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	perms, err := s.store.ListPermissions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("grant: list permissions: %w", err)
	}
	return permission.SanitizeAll(values(perms)), nil
}

// CountPermissions counts permissions matching filter, scoped like
// FindPermissions.
func (s *Service) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	f, err := s.scopedFilter(ctx, filter)
	if err != nil {
		return 0, err
	}
	n, err := s.store.CountPermissions(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("grant: count permissions: %w", err)
	}
	return n, nil
}

// DeletePermissions removes permissions by ID. IDs that do not exist are
// skipped; permissions of system roles are refused.
func (s *Service) DeletePermissions(ctx context.Context, permIDs ...id.PermissionID) error {
	owners := make(map[string]*role.Role)
	var ids []id.PermissionID
	for _, pid := range permIDs {
		p, r, err := s.ownedPermission(ctx, pid)
		if errors.Is(err, ErrPermissionNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if r != nil {
			if r.IsSystem {
				return ErrSystemRoleImmutable
			}
			owners[r.ID.String()] = r
		}
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.DeletePermissions(ctx, ids); err != nil {
		return fmt.Errorf("grant: delete permissions: %w", err)
	}
	for _, r := range owners {
		s.invalidate(ctx, r.TenantID, r.ID)
	}
	if s.plugins != nil {
		s.plugins.EmitPermissionsDeleted(ctx, ids)
	}
	return nil
}

// AddCondition attaches a registered condition to a stored permission.
func (s *Service) AddCondition(ctx context.Context, permID id.PermissionID, condition string) (permission.Sanitized, error) {
	if s.conditions != nil && !s.conditions.Has(condition) {
		return permission.Sanitized{}, fmt.Errorf("%w: %q", ErrConditionNotFound, condition)
	}
	return s.rewrite(ctx, permID, permission.AddConditionFunc(condition))
}

// RemoveCondition detaches a condition from a stored permission.
func (s *Service) RemoveCondition(ctx context.Context, permID id.PermissionID, condition string) (permission.Sanitized, error) {
	return s.rewrite(ctx, permID, permission.RemoveConditionFunc(condition))
}

// rewrite applies t to a stored permission and persists the result when it
// differs from the original.
func (s *Service) rewrite(ctx context.Context, permID id.PermissionID, t permission.Transform) (permission.Sanitized, error) {
	p, r, err := s.ownedPermission(ctx, permID)
	if err != nil {
		return permission.Sanitized{}, err
	}
	if r != nil && r.IsSystem {
		return permission.Sanitized{}, ErrSystemRoleImmutable
	}

	next := t(*p)
	if slices.Equal(p.Conditions, next.Conditions) {
		return permission.SanitizeFields(next), nil
	}
	if err := s.store.UpdatePermission(ctx, &next); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return permission.Sanitized{}, fmt.Errorf("%w: %s", ErrPermissionNotFound, permID)
		}
		return permission.Sanitized{}, fmt.Errorf("grant: update permission: %w", err)
	}
	if r != nil {
		s.invalidate(ctx, r.TenantID, r.ID)
	}
	if s.plugins != nil {
		s.plugins.EmitPermissionUpdated(ctx, &next)
	}
	return permission.SanitizeFields(next), nil
}

// build validates attrs and turns them into permissions bound to roleID,
// pruned when configured.
func (s *Service) build(roleID id.RoleID, attrs []permission.Attributes) ([]permission.Permission, error) {
	if err := permission.ValidateMany(attrs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPermission, err)
	}
	perms := permission.CreateMany(attrs)
	for i := range perms {
		perms[i].Role = roleID.Ptr()
		perms[i].ID = id.Nil
	}
	if prune := s.pruner(); prune != nil {
		perms = permission.Map(perms, prune)
	}
	return perms, nil
}

// writableRole loads a role of the caller's tenant and refuses system roles.
func (s *Service) writableRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	r, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.IsSystem {
		return nil, ErrSystemRoleImmutable
	}
	return r, nil
}

// ownedPermission loads a permission and its role, and checks that the
// role belongs to the caller's tenant. Unbound permissions are visible to
// unscoped callers only.
func (s *Service) ownedPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, *role.Role, error) {
	p, err := s.store.GetPermission(ctx, permID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, permID)
		}
		return nil, nil, fmt.Errorf("grant: get permission: %w", err)
	}
	scope := scopeFromContext(ctx)
	if p.Role == nil {
		if scope.tenantID != "" {
			return nil, nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, permID)
		}
		return p, nil, nil
	}
	r, err := s.GetRole(ctx, *p.Role)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, permID)
		}
		return nil, nil, err
	}
	return p, r, nil
}

func (s *Service) scopedFilter(ctx context.Context, filter *permission.ListFilter) (*permission.ListFilter, error) {
	f := permission.ListFilter{}
	if filter != nil {
		f = *filter
	}
	if f.RoleID != nil {
		if _, err := s.GetRole(ctx, *f.RoleID); err != nil {
			return nil, err
		}
		return &f, nil
	}
	tenant := scopeFromContext(ctx).tenantID
	if tenant == "" {
		return &f, nil
	}
	roles, err := s.store.ListRoles(ctx, &role.ListFilter{TenantID: tenant})
	if err != nil {
		return nil, fmt.Errorf("grant: list tenant roles: %w", err)
	}
	f.RoleIDs = make([]id.RoleID, 0, len(roles))
	for _, r := range roles {
		f.RoleIDs = append(f.RoleIDs, r.ID)
	}
	return &f, nil
}

// invalidate drops the cached permissions of a role. Loads that read the
// store before this call neither fill the cache nor serve later callers.
func (s *Service) invalidate(ctx context.Context, tenantID string, roleID id.RoleID) {
	s.expire(roleID)
	if s.cache != nil {
		s.cache.InvalidateRole(ctx, tenantID, roleID)
	}
}

// expire bumps the generation of a role and detaches any in-flight load.
func (s *Service) expire(roleID id.RoleID) {
	key := roleID.String()
	s.genMu.Lock()
	s.gens[key]++
	s.genMu.Unlock()
	s.loads.Forget(key)
}

func (s *Service) generation(key string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[key]
}

// fill caches perms unless the role was invalidated since gen was read.
func (s *Service) fill(ctx context.Context, tenantID string, roleID id.RoleID, gen uint64, perms []permission.Permission) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[roleID.String()] != gen {
		return
	}
	s.cache.Set(ctx, tenantID, roleID, perms)
}

// diffKey identifies a permission by content, ignoring its ID and role.
func diffKey(p permission.Permission) string {
	conds := append([]string(nil), p.Conditions...)
	slices.Sort(conds)
	data, err := json.Marshal(struct {
		Action           string         `json:"a"`
		ActionParameters map[string]any `json:"ap"`
		Subject          *string        `json:"s"`
		Properties       map[string]any `json:"p"`
		Conditions       []string       `json:"c"`
	}{p.Action, nonNilMap(p.ActionParameters), p.Subject, nonNilMap(p.Properties), conds})
	if err != nil {
		// Unencodable content never equals anything stored.
		return "!" + p.ID.String()
	}
	return string(data)
}

func nonNilMap[M ~map[string]any](m M) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func containsPermission(ps []*permission.Permission, pid id.PermissionID) bool {
	for _, p := range ps {
		if p.ID.String() == pid.String() {
			return true
		}
	}
	return false
}

func pointers(ps []permission.Permission) []*permission.Permission {
	out := make([]*permission.Permission, len(ps))
	for i := range ps {
		out[i] = &ps[i]
	}
	return out
}

func values(ps []*permission.Permission) []permission.Permission {
	out := make([]permission.Permission, len(ps))
	for i, p := range ps {
		out[i] = *p
	}
	return out
}
