// Package api provides HTTP handlers for grant role and permission
// management.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/grant"
	"github.com/xraph/grant/condition"
)

// API wires all grant HTTP handlers together.
type API struct {
	svc        *grant.Service
	conditions *condition.Registry
	router     forge.Router
}

// New creates an API from a Service and a Forge router. conds backs the
// condition listing and may be nil.
func New(svc *grant.Service, conds *condition.Registry, router forge.Router) *API {
	return &API{svc: svc, conditions: conds, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("grant: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerRoleRoutes,
		a.registerPermissionRoutes,
		a.registerConditionRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
