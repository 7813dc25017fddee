// Package plugin defines the plugin system for grant.
// Plugins are notified of lifecycle events (role created, permissions
// assigned, cleanup finished, etc.) and can react with logging, metrics,
// audit trails or cache warming.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleUpdated is called after a role is updated.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role and its permissions are deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// ──────────────────────────────────────────────────
// Permission lifecycle hooks
// ──────────────────────────────────────────────────

// PermissionsCreated is called after permissions are stored for a role.
type PermissionsCreated interface {
	OnPermissionsCreated(ctx context.Context, roleID id.RoleID, perms []permission.Permission) error
}

// PermissionsDeleted is called after permissions are removed.
type PermissionsDeleted interface {
	OnPermissionsDeleted(ctx context.Context, permIDs []id.PermissionID) error
}

// PermissionUpdated is called after a single permission is rewritten,
// for example when a condition is added or removed.
type PermissionUpdated interface {
	OnPermissionUpdated(ctx context.Context, p *permission.Permission) error
}

// PermissionsCleaned is called after a cleanup pass that changed data.
type PermissionsCleaned interface {
	OnPermissionsCleaned(ctx context.Context, report permission.CleanReport) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
