package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
)

// entry pairs a hook with the plugin name for logging.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	roleCreated        []entry[RoleCreated]
	roleUpdated        []entry[RoleUpdated]
	roleDeleted        []entry[RoleDeleted]
	permissionsCreated []entry[PermissionsCreated]
	permissionsDeleted []entry[PermissionsDeleted]
	permissionUpdated  []entry[PermissionUpdated]
	permissionsCleaned []entry[PermissionsCleaned]
	shutdown           []entry[Shutdown]
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, entry[RoleCreated]{name, h})
	}
	if h, ok := p.(RoleUpdated); ok {
		r.roleUpdated = append(r.roleUpdated, entry[RoleUpdated]{name, h})
	}
	if h, ok := p.(RoleDeleted); ok {
		r.roleDeleted = append(r.roleDeleted, entry[RoleDeleted]{name, h})
	}
	if h, ok := p.(PermissionsCreated); ok {
		r.permissionsCreated = append(r.permissionsCreated, entry[PermissionsCreated]{name, h})
	}
	if h, ok := p.(PermissionsDeleted); ok {
		r.permissionsDeleted = append(r.permissionsDeleted, entry[PermissionsDeleted]{name, h})
	}
	if h, ok := p.(PermissionUpdated); ok {
		r.permissionUpdated = append(r.permissionUpdated, entry[PermissionUpdated]{name, h})
	}
	if h, ok := p.(PermissionsCleaned); ok {
		r.permissionsCleaned = append(r.permissionsCleaned, entry[PermissionsCleaned]{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitRoleUpdated notifies all plugins that implement RoleUpdated.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleUpdated {
		if err := e.hook.OnRoleUpdated(ctx, rl); err != nil {
			r.logHookError("OnRoleUpdated", e.name, err)
		}
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	for _, e := range r.roleDeleted {
		if err := e.hook.OnRoleDeleted(ctx, roleID); err != nil {
			r.logHookError("OnRoleDeleted", e.name, err)
		}
	}
}

// EmitPermissionsCreated notifies all plugins that implement PermissionsCreated.
func (r *Registry) EmitPermissionsCreated(ctx context.Context, roleID id.RoleID, perms []permission.Permission) {
	for _, e := range r.permissionsCreated {
		if err := e.hook.OnPermissionsCreated(ctx, roleID, perms); err != nil {
			r.logHookError("OnPermissionsCreated", e.name, err)
		}
	}
}

// EmitPermissionsDeleted notifies all plugins that implement PermissionsDeleted.
func (r *Registry) EmitPermissionsDeleted(ctx context.Context, permIDs []id.PermissionID) {
	for _, e := range r.permissionsDeleted {
		if err := e.hook.OnPermissionsDeleted(ctx, permIDs); err != nil {
			r.logHookError("OnPermissionsDeleted", e.name, err)
		}
	}
}

// EmitPermissionUpdated notifies all plugins that implement PermissionUpdated.
func (r *Registry) EmitPermissionUpdated(ctx context.Context, p *permission.Permission) {
	for _, e := range r.permissionUpdated {
		if err := e.hook.OnPermissionUpdated(ctx, p); err != nil {
			r.logHookError("OnPermissionUpdated", e.name, err)
		}
	}
}

// EmitPermissionsCleaned notifies all plugins that implement PermissionsCleaned.
func (r *Registry) EmitPermissionsCleaned(ctx context.Context, report permission.CleanReport) {
	for _, e := range r.permissionsCleaned {
		if err := e.hook.OnPermissionsCleaned(ctx, report); err != nil {
			r.logHookError("OnPermissionsCleaned", e.name, err)
		}
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated to the caller.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
