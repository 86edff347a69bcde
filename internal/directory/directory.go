// Package directory caches the activity directory fetched from the backend.
package directory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/activities-portal/internal/model"
)

// Lister fetches the full directory. *backend.Client satisfies it.
type Lister interface {
	ListActivities(ctx context.Context) (model.Directory, error)
}

// Cache holds the most recently fetched Directory. A refresh replaces it
// wholesale; a failed refresh leaves it untouched.
type Cache struct {
	mu     sync.RWMutex
	dir    model.Directory
	loaded bool
	lister Lister
	logger *slog.Logger
}

func New(lister Lister, logger *slog.Logger) *Cache {
	return &Cache{lister: lister, logger: logger}
}

// Refresh fetches the directory and replaces the cache with it. Concurrent
// refreshes are not coordinated: whichever finishes last wins.
func (c *Cache) Refresh(ctx context.Context) (model.Directory, error) {
	dir, err := c.lister.ListActivities(ctx)
	if err != nil {
		c.logger.Error("fetching activities", slog.String("error", err.Error()))
		return model.Directory{}, err
	}

	c.mu.Lock()
	c.dir = dir
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debug("activities refreshed", slog.Int("count", dir.Len()))
	return dir, nil
}

// Snapshot returns the cached directory and whether any refresh has
// succeeded yet.
func (c *Cache) Snapshot() (model.Directory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir, c.loaded
}

// Categories lists the distinct categories of the cached directory in
// first-appearance order.
func (c *Cache) Categories() []string {
	dir, _ := c.Snapshot()
	return dir.Categories()
}

// Targets lists every activity name in declaration order, for the signup
// dropdown.
func (c *Cache) Targets() []string {
	dir, _ := c.Snapshot()
	return dir.Names()
}
