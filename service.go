package grant

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/plugin"
	"github.com/xraph/grant/store"
)

// Service is the role and permission management service. It applies the
// permission domain functions, persists the results and fires plugin hooks.
type Service struct {
	store      store.Store
	conditions permission.Provider
	actions    permission.Provider
	cache      Cache
	plugins    *plugin.Registry
	pending    []plugin.Plugin
	logger     *slog.Logger
	config     Config

	loads singleflight.Group
	genMu sync.Mutex
	gens  map[string]uint64
}

// NewService creates a grant Service with the given options.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{
		logger: slog.Default(),
		config: DefaultConfig(),
		gens:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		return nil, errors.New("grant: store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if len(s.pending) > 0 {
		s.plugins = plugin.NewRegistry(s.logger)
		for _, p := range s.pending {
			s.plugins.Register(p)
		}
		s.pending = nil
	}
	return s, nil
}

// Store returns the underlying composite store.
func (s *Service) Store() store.Store { return s.store }

// Plugins returns the plugin registry (may be nil).
func (s *Service) Plugins() *plugin.Registry { return s.plugins }

// Conditions returns the condition provider (may be nil).
func (s *Service) Conditions() permission.Provider { return s.conditions }

// Start performs any startup initialization.
func (s *Service) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown.
func (s *Service) Stop(ctx context.Context) error {
	if s.plugins != nil {
		s.plugins.EmitShutdown(ctx)
	}
	return nil
}

// pruner returns the transform applied to permissions before they are
// written, or nil when no pruning is configured.
func (s *Service) pruner() permission.Transform {
	if s.conditions == nil || !s.config.pruneOnWrite() {
		return nil
	}
	return permission.SanitizeConditionsFunc(s.conditions)
}
