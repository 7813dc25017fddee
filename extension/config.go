package extension

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig.
const EnvPrefix = "GRANT"

// Config holds the grant extension configuration.
// Fields can be set programmatically via Option functions, loaded from
// YAML configuration files (under "extensions.grant" or "grant" keys) or
// from GRANT_* environment variables with LoadConfig.
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes" envconfig:"DISABLE_ROUTES"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate" envconfig:"DISABLE_MIGRATE"`

	// ConditionsFile is a YAML file of conditions registered on start.
	ConditionsFile string `json:"conditions_file" mapstructure:"conditions_file" yaml:"conditions_file" envconfig:"CONDITIONS_FILE"`

	// CleanOnStart runs a permission cleanup pass after migrations.
	CleanOnStart bool `json:"clean_on_start" mapstructure:"clean_on_start" yaml:"clean_on_start" envconfig:"CLEAN_ON_START"`

	// PruneConditionsOnWrite drops unregistered conditions before
	// permissions are stored. Defaults to true.
	PruneConditionsOnWrite *bool `json:"prune_conditions_on_write" mapstructure:"prune_conditions_on_write" yaml:"prune_conditions_on_write" envconfig:"PRUNE_CONDITIONS_ON_WRITE"`

	// CleanupBatchSize is the page size of a cleanup pass.
	CleanupBatchSize int `json:"cleanup_batch_size" mapstructure:"cleanup_batch_size" yaml:"cleanup_batch_size" envconfig:"CLEANUP_BATCH_SIZE"`

	// CacheTTL enables the role permission cache. Zero disables it.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl" envconfig:"CACHE_TTL"`

	// CacheMaxSize bounds the in-memory cache.
	CacheMaxSize int `json:"cache_max_size" mapstructure:"cache_max_size" yaml:"cache_max_size" envconfig:"CACHE_MAX_SIZE"`

	// RedisAddr selects the Redis cache instead of the in-memory one.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr" envconfig:"REDIS_ADDR"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-" ignored:"true"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	prune := true
	return Config{
		PruneConditionsOnWrite: &prune,
		CleanupBatchSize:       100,
		CacheMaxSize:           10000,
	}
}

// LoadConfig returns DefaultConfig overridden by GRANT_* environment
// variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("grant: load config: %w", err)
	}
	return cfg, nil
}
