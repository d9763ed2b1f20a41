package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware. Redis is
// used when reachable; otherwise responses are cached in process up to
// LocalMaxBytes. KeyStrategy determines which parts of the request
// contribute to the cache key.
type CacheConfig struct {
	Enabled       bool          `envconfig:"CACHE_ENABLED" default:"true"`
	Methods       []string      `envconfig:"CACHE_METHODS" default:"GET"`
	TTL           time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	KeyStrategy   string        `envconfig:"CACHE_KEY_STRATEGY" default:"route_query"`
	Prefix        string        `envconfig:"CACHE_PREFIX" default:"cache"`
	MaxBodyBytes  int           `envconfig:"CACHE_MAX_BODY_BYTES" default:"1048576"`
	LocalMaxBytes int64         `envconfig:"CACHE_LOCAL_MAX_BYTES" default:"67108864"`
}

// Caches reports whether responses to method are cached.
func (c CacheConfig) Caches(method string) bool {
	for _, m := range c.Methods {
		if strings.EqualFold(strings.TrimSpace(m), method) {
			return true
		}
	}
	return false
}
