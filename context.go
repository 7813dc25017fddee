package grant

import (
	"context"

	"github.com/xraph/forge"
)

type contextKey int

const (
	ctxKeyAppID contextKey = iota
	ctxKeyTenantID
)

// WithTenant returns a context with the given app and tenant IDs.
// Use this for standalone mode (without Forge).
func WithTenant(ctx context.Context, appID, tenantID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyAppID, appID)
	return context.WithValue(ctx, ctxKeyTenantID, tenantID)
}

// TenantFromContext returns the app and tenant the caller acts for. A
// forge.Scope wins over values set with WithTenant.
func TenantFromContext(ctx context.Context) (appID, tenantID string) {
	s := scopeFromContext(ctx)
	return s.appID, s.tenantID
}

type tenantScope struct {
	appID    string
	tenantID string
}

// owns reports whether a role stamped with tenantID is visible in the scope.
// An unscoped context sees every tenant.
func (s tenantScope) owns(tenantID string) bool {
	return s.tenantID == "" || s.tenantID == tenantID
}

func scopeFromContext(ctx context.Context) tenantScope {
	if fs, ok := forge.ScopeFrom(ctx); ok {
		return tenantScope{appID: fs.AppID(), tenantID: fs.OrgID()}
	}
	app, _ := ctx.Value(ctxKeyAppID).(string)
	tenant, _ := ctx.Value(ctxKeyTenantID).(string)
	return tenantScope{appID: app, tenantID: tenant}
}
