package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.GET("/roles/:roleId/permissions", a.rolePermissions,
		forge.WithSummary("List role permissions"),
		forge.WithDescription("Returns the sanitized permissions of a role."),
		forge.WithOperationID("listRolePermissions"),
		forge.WithResponseSchema(http.StatusOK, "Role permissions", PermissionsResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/roles/:roleId/permissions", a.createPermissions,
		forge.WithSummary("Create role permissions"),
		forge.WithDescription("Adds permissions to a role. Unknown conditions are pruned."),
		forge.WithOperationID("createRolePermissions"),
		forge.WithRequestSchema(RolePermissionsRequest{}),
		forge.WithCreatedResponse(PermissionsResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:roleId/permissions", a.assignPermissions,
		forge.WithSummary("Replace role permissions"),
		forge.WithDescription("Replaces the permission set of a role. Unchanged permissions keep their IDs."),
		forge.WithOperationID("assignRolePermissions"),
		forge.WithRequestSchema(RolePermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role permissions", PermissionsResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permissions", a.listPermissions,
		forge.WithSummary("List permissions"),
		forge.WithDescription("Lists permissions of the caller's tenant with optional filters."),
		forge.WithOperationID("listPermissions"),
		forge.WithRequestSchema(ListPermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission list", ListResponse[permission.Sanitized]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/permissions/:permissionId", a.deletePermission,
		forge.WithSummary("Delete permission"),
		forge.WithDescription("Deletes a permission."),
		forge.WithOperationID("deletePermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/permissions/:permissionId/conditions", a.addCondition,
		forge.WithSummary("Add condition"),
		forge.WithDescription("Attaches a registered condition to a permission."),
		forge.WithOperationID("addPermissionCondition"),
		forge.WithRequestSchema(AddConditionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated permission", permission.Sanitized{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/permissions/:permissionId/conditions/:condition", a.removeCondition,
		forge.WithSummary("Remove condition"),
		forge.WithDescription("Detaches a condition from a permission."),
		forge.WithOperationID("removePermissionCondition"),
		forge.WithResponseSchema(http.StatusOK, "Updated permission", permission.Sanitized{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/permissions/clean", a.cleanPermissions,
		forge.WithSummary("Clean permissions"),
		forge.WithDescription("Deletes permissions of unregistered actions and strips unregistered conditions."),
		forge.WithOperationID("cleanPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Cleanup report", permission.CleanReport{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) rolePermissions(ctx forge.Context, _ *GetRoleRequest) (*PermissionsResponse, error) {
	roleID, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}

	perms, err := a.svc.RolePermissions(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PermissionsResponse{Permissions: perms}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) createPermissions(ctx forge.Context, req *RolePermissionsRequest) (*PermissionsResponse, error) {
	roleID, attrs, err := a.rolePermissionsInput(ctx, req)
	if err != nil {
		return nil, err
	}

	perms, err := a.svc.CreatePermissions(ctx.Context(), roleID, attrs)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PermissionsResponse{Permissions: perms}
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) assignPermissions(ctx forge.Context, req *RolePermissionsRequest) (*PermissionsResponse, error) {
	roleID, attrs, err := a.rolePermissionsInput(ctx, req)
	if err != nil {
		return nil, err
	}

	perms, err := a.svc.AssignPermissions(ctx.Context(), roleID, attrs)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PermissionsResponse{Permissions: perms}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) rolePermissionsInput(ctx forge.Context, req *RolePermissionsRequest) (id.RoleID, []permission.Attributes, error) {
	if err := validateRequest(req); err != nil {
		return id.Nil, nil, err
	}
	roleID, err := roleParam(ctx)
	if err != nil {
		return id.Nil, nil, err
	}
	attrs, err := decodePermissions(req.Permissions)
	if err != nil {
		return id.Nil, nil, err
	}
	return roleID, attrs, nil
}

func (a *API) listPermissions(ctx forge.Context, req *ListPermissionsRequest) (*ListResponse[permission.Sanitized], error) {
	filter := &permission.ListFilter{
		Action: req.Action,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}
	if req.RoleID != "" {
		roleID, err := id.ParseRoleID(req.RoleID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
		}
		filter.RoleID = &roleID
	}
	if req.Subject != "" {
		filter.Subject = &req.Subject
	}

	perms, err := a.svc.FindPermissions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	countFilter := *filter
	countFilter.Limit, countFilter.Offset = 0, 0
	total, err := a.svc.CountPermissions(ctx.Context(), &countFilter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[permission.Sanitized]{Items: perms, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) deletePermission(ctx forge.Context, _ *GetPermissionRequest) (*struct{}, error) {
	permID, err := permissionParam(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.svc.DeletePermissions(ctx.Context(), permID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) addCondition(ctx forge.Context, req *AddConditionRequest) (*permission.Sanitized, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	permID, err := permissionParam(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.svc.AddCondition(ctx.Context(), permID, req.Condition)
	if err != nil {
		return nil, mapError(err)
	}

	return &p, ctx.JSON(http.StatusOK, p)
}

func (a *API) removeCondition(ctx forge.Context, _ *RemoveConditionRequest) (*permission.Sanitized, error) {
	permID, err := permissionParam(ctx)
	if err != nil {
		return nil, err
	}
	cond := ctx.Param("condition")
	if cond == "" {
		return nil, forge.BadRequest("condition is required")
	}

	p, err := a.svc.RemoveCondition(ctx.Context(), permID, cond)
	if err != nil {
		return nil, mapError(err)
	}

	return &p, ctx.JSON(http.StatusOK, p)
}

func (a *API) cleanPermissions(ctx forge.Context, _ *CleanPermissionsRequest) (*permission.CleanReport, error) {
	report, err := a.svc.CleanPermissions(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	return &report, ctx.JSON(http.StatusOK, report)
}
