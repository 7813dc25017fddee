package extension

import (
	"log/slog"

	"github.com/xraph/grant"
	"github.com/xraph/grant/condition"
	"github.com/xraph/grant/plugin"
	"github.com/xraph/grant/store"
)

// ExtOption configures the grant Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.grantOpts = append(e.grantOpts, grant.WithStore(s))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithServiceOptions adds service-level options.
func WithServiceOptions(opts ...grant.Option) ExtOption {
	return func(e *Extension) {
		e.grantOpts = append(e.grantOpts, opts...)
	}
}

// WithConditions registers conditions in addition to those of
// Config.ConditionsFile.
func WithConditions(cs ...condition.Condition) ExtOption {
	return func(e *Extension) {
		e.conditions = append(e.conditions, cs...)
	}
}

// WithActions sets the registered admin actions. Cleanup deletes
// permissions whose action is not among them.
func WithActions(actions ...string) ExtOption {
	return func(e *Extension) {
		e.actions = append(e.actions, actions...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
