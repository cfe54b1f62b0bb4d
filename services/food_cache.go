package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"golang.org/x/sync/singleflight"

	"foodwagen/models"
)

// ListKey identifies one cached list.
type ListKey struct {
	Search      string
	ServiceType models.ServiceType
}

// NewListKey trims the search term so "pasta" and " pasta " share an entry.
func NewListKey(search string, serviceType models.ServiceType) ListKey {
	return ListKey{Search: strings.TrimSpace(search), ServiceType: serviceType}
}

// ListResult is a cached list. Stale results are being refreshed in the
// background.
type ListResult struct {
	Items     []models.FoodItem
	FetchedAt time.Time
	Stale     bool
}

// ListFetcher loads a list from the source of truth.
type ListFetcher func(ctx context.Context, key ListKey) ([]models.FoodItem, error)

// FoodCacheConfig configures a FoodCache.
type FoodCacheConfig struct {
	Fetch ListFetcher
	Clock clock.Clock
	// StaleTime is how long a fetched list is served without a refresh.
	StaleTime time.Duration
	// GCTime is how long an unread entry is kept. Zero keeps entries forever.
	GCTime  time.Duration
	Metrics *Metrics
}

func (cfg FoodCacheConfig) Validate() error {
	if cfg.Fetch == nil {
		return errors.NotValidf("nil Fetch")
	}
	if cfg.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if cfg.StaleTime < 0 || cfg.GCTime < 0 {
		return errors.NotValidf("negative cache duration")
	}
	return nil
}

type generation struct {
	epoch, search uint64
}

type cacheEntry struct {
	items       []models.FoodItem
	fetchedAt   time.Time
	lastUsed    time.Time
	gen         generation
	invalidated bool
}

// FoodCache caches food lists with a freshness window. Concurrent loads of
// the same key share one fetch, and invalidated keys are refetched before
// they are served again.
type FoodCache struct {
	cfg   FoodCacheConfig
	group singleflight.Group

	mu       sync.Mutex
	entries  map[ListKey]*cacheEntry
	epoch    uint64
	nextGen  uint64
	searches map[string]uint64

	refreshing sync.WaitGroup
}

func NewFoodCache(cfg FoodCacheConfig) (*FoodCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &FoodCache{
		cfg:      cfg,
		entries:  make(map[ListKey]*cacheEntry),
		searches: make(map[string]uint64),
	}, nil
}

// Get returns the list for key. Fresh entries come straight from memory,
// stale ones are returned while a refresh runs, and missing or invalidated
// ones are fetched before returning.
func (c *FoodCache) Get(ctx context.Context, key ListKey) (ListResult, error) {
	c.mu.Lock()
	now := c.cfg.Clock.Now()
	c.sweepLocked(now)
	gen := c.generationLocked(key.Search)
	e, ok := c.entries[key]
	if ok && !e.invalidated && e.gen == gen {
		e.lastUsed = now
		res := ListResult{Items: copyItems(e.items), FetchedAt: e.fetchedAt}
		if now.Sub(e.fetchedAt) < c.cfg.StaleTime {
			c.mu.Unlock()
			c.cfg.Metrics.cacheLookup("hit")
			return res, nil
		}
		c.mu.Unlock()
		c.cfg.Metrics.cacheLookup("stale")
		res.Stale = true
		c.refreshInBackground(ctx, key, gen)
		return res, nil
	}
	c.mu.Unlock()
	c.cfg.Metrics.cacheLookup("miss")

	ch := c.group.DoChan(flightKey(key, gen), func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), key, gen)
	})
	select {
	case <-ctx.Done():
		return ListResult{}, errors.Trace(ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return ListResult{}, r.Err
		}
		res := r.Val.(ListResult)
		res.Items = copyItems(res.Items)
		return res, nil
	}
}

// Invalidate marks every list cached for search as needing a refetch,
// whatever its service type.
func (c *FoodCache) Invalidate(search string) {
	search = strings.TrimSpace(search)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextGen++
	c.searches[search] = c.nextGen
	for k, e := range c.entries {
		if k.Search == search {
			e.invalidated = true
		}
	}
	logger.Debugf("invalidated food lists for search %q", search)
}

// InvalidateAll marks every cached list as needing a refetch.
func (c *FoodCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for _, e := range c.entries {
		e.invalidated = true
	}
}

// Sweep evicts entries that have not been read within GCTime.
func (c *FoodCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.cfg.Clock.Now())
}

// Len reports how many lists are cached.
func (c *FoodCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Wait blocks until background refreshes started so far have finished.
func (c *FoodCache) Wait() {
	c.refreshing.Wait()
}

func (c *FoodCache) refreshInBackground(ctx context.Context, key ListKey, gen generation) {
	detached := context.WithoutCancel(ctx)
	c.refreshing.Add(1)
	go func() {
		defer c.refreshing.Done()
		_, err, _ := c.group.Do(flightKey(key, gen), func() (interface{}, error) {
			return c.load(detached, key, gen)
		})
		if err != nil {
			logger.Warningf("background refresh of %+v failed, keeping cached list: %v", key, err)
		}
	}()
}

// load fetches key and stores the result unless a newer one is already cached.
func (c *FoodCache) load(ctx context.Context, key ListKey, gen generation) (ListResult, error) {
	items, err := c.cfg.Fetch(ctx, key)
	c.cfg.Metrics.cacheRefresh(err)
	if err != nil {
		return ListResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.cfg.Clock.Now()
	current := c.generationLocked(key.Search)
	if prev, ok := c.entries[key]; !ok || !newerGeneration(prev.gen, gen) {
		c.entries[key] = &cacheEntry{
			items:       items,
			fetchedAt:   now,
			lastUsed:    now,
			gen:         gen,
			invalidated: gen != current,
		}
	}
	return ListResult{Items: items, FetchedAt: now}, nil
}

func (c *FoodCache) generationLocked(search string) generation {
	return generation{epoch: c.epoch, search: c.searches[search]}
}

func (c *FoodCache) sweepLocked(now time.Time) {
	if c.cfg.GCTime <= 0 {
		return
	}
	for k, e := range c.entries {
		if now.Sub(e.lastUsed) > c.cfg.GCTime {
			delete(c.entries, k)
		}
	}
}

func newerGeneration(a, b generation) bool {
	if a.epoch != b.epoch {
		return a.epoch > b.epoch
	}
	return a.search > b.search
}

func flightKey(key ListKey, gen generation) string {
	return fmt.Sprintf("%s\x00%s\x00%d\x00%d", key.Search, key.ServiceType, gen.epoch, gen.search)
}

func copyItems(items []models.FoodItem) []models.FoodItem {
	out := make([]models.FoodItem, len(items))
	copy(out, items)
	return out
}
