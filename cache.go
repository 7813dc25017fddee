package grant

import (
	"context"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
)

// Cache stores the full permission set of a role.
type Cache interface {
	// Get returns the cached permissions of a role, if available.
	Get(ctx context.Context, tenantID string, roleID id.RoleID) ([]permission.Permission, bool)

	// Set stores the permissions of a role.
	Set(ctx context.Context, tenantID string, roleID id.RoleID, perms []permission.Permission)

	// InvalidateRole removes the cached permissions of one role.
	InvalidateRole(ctx context.Context, tenantID string, roleID id.RoleID)

	// InvalidateTenant removes every cached entry for a tenant.
	InvalidateTenant(ctx context.Context, tenantID string)
}
