package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/dxrating/internal/domain/songdb"
	"github.com/okian/dxrating/pkg/logger"
	"github.com/okian/dxrating/pkg/metrics"
)

// DatabaseCache is an in-memory Store. Concurrent first requests for the
// same key share one build. Cached databases are frozen, so callers may
// read them without further locking.
type DatabaseCache struct {
	mu     sync.RWMutex
	byKey  map[Key]*songdb.Database
	build  Builder
	group  singleflight.Group
	logger logger.Logger

	preload               []Key
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	closed   bool
}

// NewDatabaseCache constructs a cache that fills itself with build. The
// background metrics loop runs until ctx is done or Close is called.
func NewDatabaseCache(ctx context.Context, build Builder, opts ...Option) *DatabaseCache {
	c := &DatabaseCache{
		byKey:                 make(map[Key]*songdb.Database),
		build:                 build,
		logger:                logger.Nop(),
		metricsUpdateInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, key := range c.preload {
		if _, err := c.Get(ctx, key); err != nil {
			c.logger.Warn(ctx, "failed to preload song database", logger.String("key", key.String()), logger.Error(err))
		}
	}

	c.stopChan = make(chan struct{})
	c.startMetricsUpdater(ctx)
	return c
}

// Get implements Store.Get. The shared build ignores caller
// cancellation; a caller whose ctx ends stops waiting with ctx.Err() while
// the build finishes for everyone else.
func (c *DatabaseCache) Get(ctx context.Context, key Key) (*songdb.Database, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if db, err := c.Peek(ctx, key); err == nil {
		return db, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		// another caller may have finished while we waited for the group
		if db, err := c.Peek(buildCtx, key); err == nil {
			return db, nil
		}
		start := time.Now()
		db, err := c.build(buildCtx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBuildFailed, key, err)
		}
		db.Freeze()

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		c.byKey[key] = db
		count := len(c.byKey)
		c.mu.Unlock()

		metrics.UpdateCachedDatabases(count)
		c.logger.Info(buildCtx, "song database cached",
			logger.String("key", key.String()),
			logger.Float64("build_ms", float64(time.Since(start).Microseconds())/1000),
		)
		return db, nil
	})

	select {
	case <-ctx.Done():
		c.logger.Debug(ctx, "stopped waiting for song database", logger.String("key", key.String()), logger.Error(ctx.Err()))
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug(ctx, "song database build shared", logger.String("key", key.String()))
		}
		return res.Val.(*songdb.Database), nil
	}
}

// Peek implements Store.Peek.
func (c *DatabaseCache) Peek(_ context.Context, key Key) (*songdb.Database, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	db, ok := c.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return db, nil
}

// Invalidate implements Store.Invalidate.
func (c *DatabaseCache) Invalidate(ctx context.Context, key Key) {
	c.mu.Lock()
	delete(c.byKey, key)
	count := len(c.byKey)
	c.mu.Unlock()
	c.group.Forget(key.String())
	metrics.UpdateCachedDatabases(count)
	c.logger.Debug(ctx, "song database invalidated", logger.String("key", key.String()))
}

// Count implements Store.Count.
func (c *DatabaseCache) Count(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

// Close stops the background loop and drops every cached database.
func (c *DatabaseCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.byKey = make(map[Key]*songdb.Database)
	c.mu.Unlock()

	close(c.stopChan)
	c.wg.Wait()
	metrics.UpdateCachedDatabases(0)
	return nil
}

// startMetricsUpdater starts a background goroutine that republishes cache
// metrics.
func (c *DatabaseCache) startMetricsUpdater(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			case <-ticker.C:
				c.updateMetrics(ctx)
			}
		}
	}()
}

func (c *DatabaseCache) updateMetrics(ctx context.Context) {
	c.mu.RLock()
	count := len(c.byKey)
	dx, std := 0, 0
	for _, db := range c.byKey {
		d, s := db.Len()
		dx += d
		std += s
	}
	c.mu.RUnlock()

	metrics.UpdateCachedDatabases(count)
	if count > 0 {
		metrics.UpdateSongCounts(dx/count, std/count)
	}
	c.logger.Debug(ctx, "repository metrics updated", logger.Int("cached", count))
}
