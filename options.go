package grant

import (
	"log/slog"

	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/plugin"
	"github.com/xraph/grant/store"
)

// Option is a functional option for the Service.
type Option func(*Service)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(svc *Service) { svc.store = s } }

// WithConditions sets the provider of registered conditions, usually a
// *condition.Registry.
func WithConditions(p permission.Provider) Option {
	return func(svc *Service) { svc.conditions = p }
}

// WithActions sets the provider of registered actions. When set,
// CleanPermissions deletes permissions whose action it does not know.
func WithActions(p permission.Provider) Option { return func(svc *Service) { svc.actions = p } }

// WithCache sets the role permission cache.
func WithCache(c Cache) Option { return func(svc *Service) { svc.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(svc *Service) { svc.logger = l } }

// WithConfig sets the service configuration.
func WithConfig(c Config) Option { return func(svc *Service) { svc.config = c } }

// WithPlugin registers a plugin with the service.
func WithPlugin(x plugin.Plugin) Option {
	return func(svc *Service) { svc.pending = append(svc.pending, x) }
}
