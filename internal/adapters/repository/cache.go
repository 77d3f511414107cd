package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/scoretable/internal/domain/model"
	"github.com/okian/scoretable/pkg/logger"
	"github.com/okian/scoretable/pkg/metrics"
)

// snapshot is an immutable view of every loaded table. Readers load it
// without locking; writers copy it, modify the copy and publish.
type snapshot struct {
	tables    map[string]*model.Table
	gens      map[string]uint64 // load generation of each table
	published time.Time
}

// TableCache keeps one immutable table per category. Concurrent first loads
// of a category are coalesced into a single read of its file.
type TableCache struct {
	loader Loader
	logger logger.Logger

	group singleflight.Group
	gen   atomic.Uint64 // incremented as each load starts
	mu    sync.Mutex    // serializes publishers
	snap  atomic.Pointer[snapshot]
}

var _ Store = (*TableCache)(nil)

// NewTableCache creates an empty cache backed by loader.
func NewTableCache(loader Loader, opts ...Option) *TableCache {
	c := &TableCache{
		loader: loader,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.snap.Store(&snapshot{tables: map[string]*model.Table{}, gens: map[string]uint64{}, published: time.Now()})
	return c
}

// Get returns the cached table or loads it.
func (c *TableCache) Get(ctx context.Context, category string) (*model.Table, error) {
	if t, ok := c.Peek(category); ok {
		metrics.RecordCacheHit()
		return t, nil
	}
	metrics.RecordCacheMiss()

	v, err, shared := c.group.Do(category, func() (any, error) {
		// Another caller may have published while we waited for the group.
		if t, ok := c.Peek(category); ok {
			return t, nil
		}
		return c.load(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug(ctx, "coalesced table load", logger.String("category", category))
	}
	return v.(*model.Table), nil
}

// Reload rebuilds the table and swaps it in. On failure the previous table,
// if any, stays in place.
func (c *TableCache) Reload(ctx context.Context, category string) (*model.Table, error) {
	v, err, _ := c.group.Do("reload/"+category, func() (any, error) {
		return c.load(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Table), nil
}

// Peek returns the cached table without loading.
func (c *TableCache) Peek(category string) (*model.Table, bool) {
	t, ok := c.snap.Load().tables[category]
	return t, ok
}

// Evict drops a category from the cache. It reports whether it was present.
func (c *TableCache) Evict(category string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	if _, ok := cur.tables[category]; !ok {
		return false
	}
	next := make(map[string]*model.Table, len(cur.tables))
	gens := make(map[string]uint64, len(cur.gens))
	for k, t := range cur.tables {
		if k != category {
			next[k] = t
			gens[k] = cur.gens[k]
		}
	}
	c.publish(next, gens)
	return true
}

// Categories lists the loaded categories in name order.
func (c *TableCache) Categories() []string {
	tables := c.snap.Load().tables
	out := make([]string, 0, len(tables))
	for k := range tables {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached tables.
func (c *TableCache) Len() int {
	return len(c.snap.Load().tables)
}

// PublishedAt returns when the current snapshot was published.
func (c *TableCache) PublishedAt() time.Time {
	return c.snap.Load().published
}

func (c *TableCache) load(ctx context.Context, category string) (*model.Table, error) {
	gen := c.gen.Add(1)
	t, err := c.loader.Load(ctx, category)
	if err != nil {
		return nil, err
	}
	return c.store(ctx, category, t, gen), nil
}

// store publishes a copy of the current snapshot with t under category and
// returns the table now cached. A load that started before the cached
// table's load is stale and is dropped.
func (c *TableCache) store(ctx context.Context, category string, t *model.Table, gen uint64) *model.Table {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	if have, ok := cur.tables[category]; ok && cur.gens[category] > gen {
		c.logger.Debug(ctx, "stale table load dropped",
			logger.String("category", category), logger.String("table_id", t.ID.String()))
		return have
	}
	next := make(map[string]*model.Table, len(cur.tables)+1)
	gens := make(map[string]uint64, len(cur.gens)+1)
	for k, v := range cur.tables {
		next[k] = v
		gens[k] = cur.gens[k]
	}
	next[category] = t
	gens[category] = gen
	c.publish(next, gens)
	return t
}

// publish swaps in a new snapshot. Callers hold mu.
func (c *TableCache) publish(tables map[string]*model.Table, gens map[string]uint64) {
	now := time.Now()
	c.snap.Store(&snapshot{tables: tables, gens: gens, published: now})
	metrics.UpdateCachedTables(len(tables))
	metrics.UpdateCacheSnapshotLastUnix(float64(now.Unix()))
}
