package rates

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cache memoizes another Source. The first call to Changes loads from the
// wrapped source; afterwards the cached records are returned until Refresh is
// called. The refresh policy is owned by the caller, either by calling Refresh
// directly or by scheduling it with ScheduleRefresh.
type Cache struct {
	source Source
	logger *zap.Logger

	mu      sync.RWMutex
	changes []Change
	loaded  bool
}

// NewCache constructs a Cache around the given source.
func NewCache(source Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{source: source, logger: logger}
}

// Changes returns the cached records, loading them on first use.
func (c *Cache) Changes() ([]Change, error) {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.changes, nil
	}
	c.mu.RUnlock()
	return c.Refresh()
}

// Refresh reloads from the wrapped source, replacing the cached records on
// success. On failure the previous records are kept.
func (c *Cache) Refresh() ([]Change, error) {
	changes, err := c.source.Changes()
	if err != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.loaded {
			return c.changes, nil
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = changes
	c.loaded = true
	return changes, nil
}

// ScheduleRefresh registers a periodic refresh on the given cron schedule
// spec, e.g. "@daily". The returned cron runner is started; the caller owns
// stopping it.
func (c *Cache) ScheduleRefresh(spec string) (*cron.Cron, error) {
	runner := cron.New()
	_, err := runner.AddFunc(spec, func() {
		if _, err := c.Refresh(); err != nil {
			c.logger.Warn("scheduled rate cache refresh failed",
				zap.String("op", "rates.Cache.ScheduleRefresh"),
				zap.Error(err),
			)
		} else {
			c.logger.Debug("refreshed rate cache",
				zap.String("op", "rates.Cache.ScheduleRefresh"),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	runner.Start()
	return runner, nil
}
