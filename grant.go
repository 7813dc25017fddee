// Package grant manages admin roles and the permissions they own.
//
// A permission pairs an action (for example
// "plugin::content-manager.explorer.read") with an optional subject, a set of
// properties such as the allowed fields or locales, and a list of condition
// identifiers. The Service persists roles and permissions through a
// store.Store, prunes references to conditions that are no longer
// registered, and serves a role's permissions from an optional Cache.
//
// Every operation is tenant-scoped via forge.Scope, or via WithTenant in
// standalone mode.
//
//	svc, err := grant.NewService(
//	    grant.WithStore(memory.New()),
//	    grant.WithConditions(conditions),
//	)
//	perms, err := svc.CreatePermissions(ctx, roleID, []permission.Attributes{
//	    {Action: "plugin::content-manager.explorer.read", Conditions: []string{"admin::is-creator"}},
//	})
package grant
