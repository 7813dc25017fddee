package permission

import (
	"context"

	"github.com/xraph/grant/id"
)

// ListFilter contains filters for listing permissions.
type ListFilter struct {
	RoleID  *id.RoleID  `json:"role_id,omitempty"`
	RoleIDs []id.RoleID `json:"role_ids,omitempty"` // any of; nil means no restriction
	Action  string      `json:"action,omitempty"`   // exact or trailing-"*" pattern
	Subject *string     `json:"subject,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Offset  int         `json:"offset,omitempty"`
}

// Matches reports whether p satisfies every non-empty criterion of f,
// ignoring pagination.
func (f *ListFilter) Matches(p *Permission) bool {
	if f == nil {
		return true
	}
	if f.RoleID != nil && (p.Role == nil || p.Role.String() != f.RoleID.String()) {
		return false
	}
	if f.RoleIDs != nil && !containsRole(f.RoleIDs, p.Role) {
		return false
	}
	if f.Action != "" && !MatchAction(f.Action, p.Action) {
		return false
	}
	if f.Subject != nil && (p.Subject == nil || *p.Subject != *f.Subject) {
		return false
	}
	return true
}

// Store defines persistence operations for permissions.
type Store interface {
	// CreatePermissions persists new permissions. Each must carry an ID.
	CreatePermissions(ctx context.Context, perms []*Permission) error

	// GetPermission retrieves a permission by ID.
	GetPermission(ctx context.Context, permID id.PermissionID) (*Permission, error)

	// UpdatePermission persists changes to a permission.
	UpdatePermission(ctx context.Context, p *Permission) error

	// DeletePermissions removes permissions by ID. Unknown IDs are ignored.
	DeletePermissions(ctx context.Context, permIDs []id.PermissionID) error

	// DeletePermissionsByRole removes all permissions owned by the roles.
	DeletePermissionsByRole(ctx context.Context, roleIDs []id.RoleID) error

	// ListPermissions returns permissions matching the filter, oldest first.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Permission, error)

	// CountPermissions returns the number of permissions matching the filter.
	CountPermissions(ctx context.Context, filter *ListFilter) (int64, error)
}

func containsRole(ids []id.RoleID, r *id.RoleID) bool {
	if r == nil {
		return false
	}
	for _, v := range ids {
		if v.String() == r.String() {
			return true
		}
	}
	return false
}
