package repository

import (
	"time"

	"github.com/okian/dxrating/pkg/logger"
)

// Option applies a configuration option to the DatabaseCache.
type Option func(*DatabaseCache)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(c *DatabaseCache) {
		if interval > 0 {
			c.metricsUpdateInterval = interval
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *DatabaseCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPreload lists keys to build when the cache starts.
func WithPreload(keys ...Key) Option {
	return func(c *DatabaseCache) {
		c.preload = append(c.preload, keys...)
	}
}
