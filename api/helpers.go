package api

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/xraph/forge"

	"github.com/xraph/grant"
	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, grant.ErrSystemRoleImmutable) {
		return forge.Forbidden(err.Error())
	}
	if errors.Is(err, grant.ErrInvalidRole) ||
		errors.Is(err, grant.ErrInvalidPermission) ||
		errors.Is(err, grant.ErrDuplicateRoleCode) ||
		errors.Is(err, grant.ErrConditionNotFound) ||
		errors.Is(err, permission.ErrInvalidAttributes) {
		return forge.BadRequest(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, grant.ErrRoleNotFound) ||
		errors.Is(err, grant.ErrPermissionNotFound)
}

// validateRequest runs the struct tags of a request body.
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return forge.BadRequest(err.Error())
	}
	return nil
}

func roleParam(ctx forge.Context) (id.RoleID, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	return roleID, nil
}

func permissionParam(ctx forge.Context) (id.PermissionID, error) {
	permID, err := id.ParsePermissionID(ctx.Param("permissionId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid permission ID: %v", err))
	}
	return permID, nil
}

// decodePermissions turns raw permission payloads into attributes. Unknown
// keys are dropped and client-supplied IDs and roles are ignored.
func decodePermissions(raw []map[string]any) ([]permission.Attributes, error) {
	attrs, err := permission.AttributesFromMaps(raw)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}
	for i := range attrs {
		attrs[i].ID = id.Nil
		attrs[i].Role = nil
	}
	return attrs, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
