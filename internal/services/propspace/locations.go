package propspace

import (
	"context"
	"sync"

	"propsync/internal/logger"
)

// preloadPageSize covers the provider's whole location table in one request.
const preloadPageSize = 1000

// LocationFetcher is the slice of the provider client the cache needs.
type LocationFetcher interface {
	SearchLocations(ctx context.Context, filter LocationFilter) ([]Location, error)
}

// LocationCache holds provider locations in memory for the process lifetime.
// The table is small and append-only on the provider side, so entries are
// never evicted. Misses that resolve to nothing are not cached, so a later
// preload or retry can still fill them in.
type LocationCache struct {
	fetcher LocationFetcher
	logger  *logger.Logger

	mu   sync.RWMutex
	byID map[int64]Location
}

func NewLocationCache(fetcher LocationFetcher, logger *logger.Logger) *LocationCache {
	return &LocationCache{
		fetcher: fetcher,
		logger:  logger,
		byID:    map[int64]Location{},
	}
}

// Resolve returns the location for id, fetching it from the provider on a
// cache miss. Returns (nil, nil) when the provider does not know the id.
func (c *LocationCache) Resolve(ctx context.Context, id int64) (*Location, error) {
	c.mu.RLock()
	loc, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return &loc, nil
	}

	locations, err := c.fetcher.SearchLocations(ctx, LocationFilter{ID: id})
	if err != nil {
		return nil, err
	}

	for _, l := range locations {
		if l.ID == id {
			c.mu.Lock()
			c.byID[id] = l
			c.mu.Unlock()
			found := l
			return &found, nil
		}
	}

	return nil, nil
}

// PreloadAll bulk-fetches the full location table so a bulk sync does not
// serialize on one lookup per listing.
func (c *LocationCache) PreloadAll(ctx context.Context) error {
	locations, err := c.fetcher.SearchLocations(ctx, LocationFilter{PerPage: preloadPageSize})
	if err != nil {
		return err
	}

	c.mu.Lock()
	for _, l := range locations {
		c.byID[l.ID] = l
	}
	c.mu.Unlock()

	c.logger.Info("Preloaded %d provider locations", len(locations))
	return nil
}

// Size reports how many locations are cached.
func (c *LocationCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
