package config

import "time"

// StatsCacheConfig defines how long computed feedback statistics are kept in
// Redis.  Entries are dropped whenever new feedback is stored, so the TTL only
// bounds staleness caused by writes that bypass the API.
type StatsCacheConfig struct {
	Enabled bool          `envconfig:"STATS_CACHE_ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"STATS_CACHE_TTL" default:"30s"`
	Prefix  string        `envconfig:"STATS_CACHE_PREFIX" default:"cache"`
}

// Key returns the Redis key that holds the cached statistics document.
func (c StatsCacheConfig) Key() string {
	return c.Prefix + ":feedback:stats"
}
