package grant

import "time"

// Config holds configuration for the grant Service.
type Config struct {
	// PruneConditionsOnWrite drops unregistered conditions from permissions
	// before they are stored. Requires a condition provider.
	// Defaults to true.
	PruneConditionsOnWrite *bool `json:"prune_conditions_on_write,omitempty"`

	// CleanupBatchSize is the page size used by CleanPermissions.
	// Defaults to 100.
	CleanupBatchSize int `json:"cleanup_batch_size,omitempty"`

	// CacheTTL is the time-to-live for cached role permissions.
	// Zero means no caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		PruneConditionsOnWrite: &t,
		CleanupBatchSize:       100,
	}
}

func (c Config) pruneOnWrite() bool { return c.PruneConditionsOnWrite == nil || *c.PruneConditionsOnWrite }

func (c Config) batchSize() int {
	if c.CleanupBatchSize <= 0 {
		return 100
	}
	return c.CleanupBatchSize
}
