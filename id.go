package grant

import "github.com/xraph/grant/id"

// RoleID identifies an admin role.
type RoleID = id.RoleID

// PermissionID identifies a permission.
type PermissionID = id.PermissionID
