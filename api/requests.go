package api

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string         `json:"name" validate:"required" description:"Role name"`
	Code        string         `json:"code,omitempty" validate:"omitempty,max=255" description:"Unique code within the tenant (derived from name when empty)"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        string         `json:"name,omitempty" description:"Role name"`
	Code        string         `json:"code,omitempty" validate:"omitempty,max=255" description:"Unique code within the tenant"`
	Description *string        `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Search string `query:"search" description:"Search by name or code"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// RolePermissionsRequest is the body for creating or replacing the
// permissions of a role. Each item carries the permission attributes
// (action, action_parameters, subject, properties, conditions).
type RolePermissionsRequest struct {
	RoleID      string           `path:"roleId" json:"-" description:"Role ID"`
	Permissions []map[string]any `json:"permissions" validate:"required" description:"Permission attributes"`
}

// GetPermissionRequest is the path parameter for a permission.
type GetPermissionRequest struct {
	PermissionID string `path:"permissionId" description:"Permission ID"`
}

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	RoleID  string `query:"role_id" description:"Filter by role"`
	Action  string `query:"action" description:"Filter by action (trailing * matches a prefix)"`
	Subject string `query:"subject" description:"Filter by subject"`
	Limit   int    `query:"limit" description:"Maximum results"`
	Offset  int    `query:"offset" description:"Results to skip"`
}

// AddConditionRequest is the body for attaching a condition.
type AddConditionRequest struct {
	PermissionID string `path:"permissionId" json:"-" description:"Permission ID"`
	Condition    string `json:"condition" validate:"required" description:"Registered condition ID"`
}

// RemoveConditionRequest is the path for detaching a condition.
type RemoveConditionRequest struct {
	PermissionID string `path:"permissionId" description:"Permission ID"`
	Condition    string `path:"condition" description:"Condition ID"`
}

// CleanPermissionsRequest is the (empty) body of a cleanup run.
type CleanPermissionsRequest struct{}

// ──────────────────────────────────────────────────
// Condition requests
// ──────────────────────────────────────────────────

// ListConditionsRequest holds query parameters for listing conditions.
type ListConditionsRequest struct {
	Category string `query:"category" description:"Filter by category"`
}
