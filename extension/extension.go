// Package extension provides a Forge extension entry point for grant.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/grant"
	"github.com/xraph/grant/api"
	"github.com/xraph/grant/cache"
	"github.com/xraph/grant/condition"
	"github.com/xraph/grant/plugin"
	"github.com/xraph/grant/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "grant"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Admin role and permission management"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts grant as a Forge extension.
type Extension struct {
	config     Config
	svc        *grant.Service
	registry   *condition.Registry
	apiHandler *api.API
	logger     *slog.Logger
	grantOpts  []grant.Option
	conditions []condition.Condition
	actions    []string
	plugins    []plugin.Plugin
	redis      *redis.Client
}

// New creates a grant Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Service returns the underlying grant service.
func (e *Extension) Service() *grant.Service { return e.svc }

// Conditions returns the condition registry.
func (e *Extension) Conditions() *condition.Registry { return e.registry }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the service,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*grant.Service, error) {
		return e.svc, nil
	}); err != nil {
		return fmt.Errorf("grant: register service in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*condition.Registry, error) {
		return e.registry, nil
	}); err != nil {
		return fmt.Errorf("grant: register conditions in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	var injected store.Store
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		injected = s
	}
	if err := e.build(injected); err != nil {
		return err
	}

	e.apiHandler = api.New(e.svc, e.registry, fapp.Router())

	// Register HTTP routes unless disabled.
	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("grant: register routes: %w", err)
		}
	}

	return nil
}

// build assembles the condition registry, the cache and the service. A
// store resolved from the container is used unless an option sets one.
func (e *Extension) build(injected store.Store) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	reg, err := e.loadConditions()
	if err != nil {
		return err
	}
	e.registry = reg

	opts := make([]grant.Option, 0, len(e.grantOpts)+len(e.plugins)+6)
	opts = append(opts,
		grant.WithLogger(logger),
		grant.WithConditions(reg),
		grant.WithConfig(grant.Config{
			PruneConditionsOnWrite: e.config.PruneConditionsOnWrite,
			CleanupBatchSize:       e.config.CleanupBatchSize,
			CacheTTL:               e.config.CacheTTL,
		}),
	)
	if injected != nil {
		opts = append(opts, grant.WithStore(injected))
	}
	if len(e.actions) > 0 {
		opts = append(opts, grant.WithActions(condition.NewKeySet(e.actions...)))
	}
	if c := e.buildCache(logger); c != nil {
		opts = append(opts, grant.WithCache(c))
	}

	// User-provided options may override the store.
	opts = append(opts, e.grantOpts...)

	for _, x := range e.plugins {
		opts = append(opts, grant.WithPlugin(x))
	}

	svc, err := grant.NewService(opts...)
	if err != nil {
		return fmt.Errorf("grant: create service: %w", err)
	}
	e.svc = svc
	return nil
}

func (e *Extension) loadConditions() (*condition.Registry, error) {
	reg, err := condition.NewRegistry(e.conditions...)
	if err != nil {
		return nil, fmt.Errorf("grant: register conditions: %w", err)
	}
	if e.config.ConditionsFile == "" {
		return reg, nil
	}
	fromFile, err := condition.LoadFile(e.config.ConditionsFile)
	if err != nil {
		return nil, fmt.Errorf("grant: load conditions: %w", err)
	}
	if err := reg.RegisterMany(fromFile...); err != nil {
		return nil, fmt.Errorf("grant: register conditions: %w", err)
	}
	return reg, nil
}

func (e *Extension) buildCache(logger *slog.Logger) grant.Cache {
	if e.config.CacheTTL <= 0 {
		return nil
	}
	if e.config.RedisAddr != "" {
		e.redis = redis.NewClient(&redis.Options{Addr: e.config.RedisAddr})
		return cache.NewRedis(e.redis,
			cache.WithRedisTTL(e.config.CacheTTL),
			cache.WithRedisLogger(logger),
		)
	}
	opts := []cache.MemoryOption{cache.WithTTL(e.config.CacheTTL)}
	if e.config.CacheMaxSize > 0 {
		opts = append(opts, cache.WithMaxSize(e.config.CacheMaxSize))
	}
	return cache.NewMemory(opts...)
}

// Start runs migrations and the optional cleanup pass, then starts the
// service.
func (e *Extension) Start(ctx context.Context) error {
	if e.svc == nil {
		return errors.New("grant: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.svc.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("grant: migration failed: %w", err)
		}
	}

	if e.config.CleanOnStart {
		if _, err := e.svc.CleanPermissions(ctx); err != nil {
			return fmt.Errorf("grant: clean permissions: %w", err)
		}
	}

	return e.svc.Start(ctx)
}

// Stop gracefully shuts down the grant service.
func (e *Extension) Stop(ctx context.Context) error {
	if e.svc == nil {
		return nil
	}
	err := e.svc.Stop(ctx)
	if e.redis != nil {
		err = errors.Join(err, e.redis.Close())
	}
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.svc == nil {
		return errors.New("grant: extension not initialized")
	}
	if err := e.svc.Store().Ping(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		return e.redis.Ping(ctx).Err()
	}
	return nil
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all grant API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
