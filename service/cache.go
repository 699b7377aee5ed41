package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/model"
	"golang.org/x/sync/singleflight"
)

// QueryCache keeps recent contract listings keyed by their canonical query string.
// Identical concurrent fetches share one upstream call. Errors are never cached.
type QueryCache struct {
	fetcher    ContractFetcher
	entries    map[string]*cacheEntry
	mu         sync.RWMutex
	maxEntries int // 0 = unlimited
	ttl        time.Duration
	group      singleflight.Group
	now        func() time.Time
}

type cacheEntry struct {
	list      *ContractList
	createdAt time.Time
}

// NewQueryCache wraps fetcher. A non-positive TTL turns the cache into a pass-through.
func NewQueryCache(fetcher ContractFetcher, cfg *config.CacheConfig) *QueryCache {
	maxEntries := cfg.MaxEntries
	if maxEntries < 0 {
		maxEntries = 0
	}
	c := &QueryCache{
		fetcher:    fetcher,
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        cfg.TTL(),
		now:        time.Now,
	}
	slog.Info("query cache initialized", "max_entries", maxEntries, "ttl", c.ttl)
	return c
}

// FetchContracts serves from the cache when a fresh entry exists
func (c *QueryCache) FetchContracts(ctx context.Context, filters *model.FilterCriteria, limit *int) (*ContractList, error) {
	if c.ttl <= 0 {
		return c.fetcher.FetchContracts(ctx, filters, limit)
	}

	key := BuildQuery(filters, limit).Encode()
	if list := c.get(key); list != nil {
		return list, nil
	}

	// the shared call must outlive any single caller's cancellation
	ch := c.group.DoChan(key, func() (any, error) {
		list, err := c.fetcher.FetchContracts(context.WithoutCancel(ctx), filters, limit)
		if err != nil {
			return nil, err
		}
		c.put(key, list)
		return list, nil
	})

	select {
	case <-ctx.Done():
		return nil, &NetworkError{URL: "?" + key, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneList(res.Val.(*ContractList)), nil
	}
}

func (c *QueryCache) get(key string) *ContractList {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.createdAt) >= c.ttl {
		return nil
	}
	return cloneList(e.list)
}

func (c *QueryCache) put(key string, list *ContractList) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{list: list, createdAt: c.now()}
	c.cleanupIfNeeded()
}

// Invalidate drops every entry
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Count returns the number of entries, expired ones included
func (c *QueryCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupIfNeeded removes expired entries, then the oldest ones past maxEntries.
// Must be called with lock held
func (c *QueryCache) cleanupIfNeeded() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.entries, k)
		}
	}

	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].createdAt.Before(c.entries[keys[j]].createdAt)
	})

	removeCount := len(keys) - c.maxEntries
	for i := 0; i < removeCount; i++ {
		slog.Debug("evicting cached query", "query", keys[i])
		delete(c.entries, keys[i])
	}
}

func cloneList(l *ContractList) *ContractList {
	out := *l
	out.Contracts = make([]model.Contract, len(l.Contracts))
	copy(out.Contracts, l.Contracts)
	out.Summary.SimulatedFields = make([]string, len(l.Summary.SimulatedFields))
	copy(out.Summary.SimulatedFields, l.Summary.SimulatedFields)
	return &out
}
