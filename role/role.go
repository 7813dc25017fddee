// Package role defines the admin Role entity and its store interface.
// A role owns a set of permissions; see package permission.
package role

import (
	"strings"
	"time"

	"github.com/xraph/grant/id"
)

// Role is an admin role that groups permissions.
type Role struct {
	ID          id.RoleID      `json:"id" db:"id"`
	TenantID    string         `json:"tenant_id" db:"tenant_id"`
	AppID       string         `json:"app_id" db:"app_id"`
	Name        string         `json:"name" db:"name"`
	Code        string         `json:"code" db:"code"`
	Description string         `json:"description,omitempty" db:"description"`
	IsSystem    bool           `json:"is_system" db:"is_system"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	Search   string `json:"search,omitempty"` // case-insensitive, name or code
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Matches reports whether r satisfies the filter, ignoring pagination.
func (f *ListFilter) Matches(r *Role) bool {
	if f == nil {
		return true
	}
	if f.TenantID != "" && r.TenantID != f.TenantID {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(strings.ToLower(r.Code), q) {
			return false
		}
	}
	return true
}
