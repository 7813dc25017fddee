package grant

import "errors"

var (
	// ErrRoleNotFound is returned when a role cannot be found in the
	// caller's tenant.
	ErrRoleNotFound = errors.New("grant: role not found")

	// ErrPermissionNotFound is returned when a permission cannot be found.
	ErrPermissionNotFound = errors.New("grant: permission not found")

	// ErrInvalidRole is returned when a role payload is incomplete.
	ErrInvalidRole = errors.New("grant: invalid role")

	// ErrInvalidPermission is returned when permission attributes fail
	// validation.
	ErrInvalidPermission = errors.New("grant: invalid permission")

	// ErrSystemRoleImmutable is returned when trying to modify a system role
	// or its permissions.
	ErrSystemRoleImmutable = errors.New("grant: system role cannot be modified")

	// ErrDuplicateRoleCode is returned when a role code is already used in
	// the tenant.
	ErrDuplicateRoleCode = errors.New("grant: role code already exists")

	// ErrConditionNotFound is returned when adding a condition that is not
	// registered.
	ErrConditionNotFound = errors.New("grant: condition not registered")
)
