// internal/engine/recommendation/config.go
package recommendation

import "time"

type Config struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL: 60 * time.Second,
	}
}
