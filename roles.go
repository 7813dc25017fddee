package grant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/role"
	"github.com/xraph/grant/store"
)

// CreateRole stores a new role in the caller's tenant. A missing code is
// derived from the name; codes are unique per tenant.
func (s *Service) CreateRole(ctx context.Context, r *role.Role) error {
	scope := scopeFromContext(ctx)
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRole)
	}
	if r.Code == "" {
		r.Code = CodeFromName(r.Name)
	}
	if r.Code == "" {
		return fmt.Errorf("%w: code is required when the name has no ASCII letters or digits", ErrInvalidRole)
	}
	if r.ID.IsNil() {
		r.ID = id.NewRoleID()
	}
	r.TenantID = scope.tenantID
	r.AppID = scope.appID
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.ensureUniqueCode(ctx, r.TenantID, r.Code, id.Nil); err != nil {
		return err
	}
	if err := s.store.CreateRole(ctx, r); err != nil {
		return fmt.Errorf("grant: create role: %w", err)
	}
	s.logger.Debug("role created",
		slog.String("role_id", r.ID.String()),
		slog.String("code", r.Code),
	)
	if s.plugins != nil {
		s.plugins.EmitRoleCreated(ctx, r)
	}
	return nil
}

// GetRole returns a role of the caller's tenant.
func (s *Service) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	r, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
		}
		return nil, fmt.Errorf("grant: get role: %w", err)
	}
	if !scopeFromContext(ctx).owns(r.TenantID) {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
	}
	return r, nil
}

// UpdateRole writes the mutable fields of r (name, code, description,
// metadata). System roles cannot be updated.
func (s *Service) UpdateRole(ctx context.Context, r *role.Role) error {
	existing, err := s.GetRole(ctx, r.ID)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return ErrSystemRoleImmutable
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRole)
	}
	if r.Code == "" {
		r.Code = existing.Code
	}
	if r.Code != existing.Code {
		if err := s.ensureUniqueCode(ctx, existing.TenantID, r.Code, r.ID); err != nil {
			return err
		}
	}

	r.TenantID = existing.TenantID
	r.AppID = existing.AppID
	r.IsSystem = existing.IsSystem
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateRole(ctx, r); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRoleNotFound, r.ID)
		}
		return fmt.Errorf("grant: update role: %w", err)
	}
	if s.plugins != nil {
		s.plugins.EmitRoleUpdated(ctx, r)
	}
	return nil
}

// DeleteRole removes a role together with its permissions.
func (s *Service) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	r, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return ErrSystemRoleImmutable
	}
	if err := s.store.DeletePermissionsByRole(ctx, []id.RoleID{roleID}); err != nil {
		return fmt.Errorf("grant: delete role permissions: %w", err)
	}
	if err := s.store.DeleteRole(ctx, roleID); err != nil {
		return fmt.Errorf("grant: delete role: %w", err)
	}
	s.invalidate(ctx, r.TenantID, roleID)
	s.logger.Debug("role deleted", slog.String("role_id", roleID.String()))
	if s.plugins != nil {
		s.plugins.EmitRoleDeleted(ctx, roleID)
	}
	return nil
}

// ListRoles returns the roles of the caller's tenant. The filter's
// TenantID is overridden by the scope.
func (s *Service) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	f := role.ListFilter{}
	if filter != nil {
		f = *filter
	}
	if t := scopeFromContext(ctx).tenantID; t != "" {
		f.TenantID = t
	}
	roles, err := s.store.ListRoles(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("grant: list roles: %w", err)
	}
	return roles, nil
}

// CountRoles counts the roles of the caller's tenant matching filter.
func (s *Service) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	f := role.ListFilter{}
	if filter != nil {
		f = *filter
	}
	if t := scopeFromContext(ctx).tenantID; t != "" {
		f.TenantID = t
	}
	n, err := s.store.CountRoles(ctx, &f)
	if err != nil {
		return 0, fmt.Errorf("grant: count roles: %w", err)
	}
	return n, nil
}

func (s *Service) ensureUniqueCode(ctx context.Context, tenantID, code string, self id.RoleID) error {
	other, err := s.store.GetRoleByCode(ctx, tenantID, code)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("grant: lookup role code: %w", err)
	case other.ID.String() == self.String():
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrDuplicateRoleCode, code)
	}
}

// CodeFromName derives a role code from a display name: lower-case ASCII
// letters and digits, every other run of characters collapsed into "-".
func CodeFromName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
