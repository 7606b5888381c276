package schema

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache lazily loads and keeps table schemas. Concurrent loads of the same
// table share one round trip.
type Cache struct {
	inspector Inspector
	onLoad    func(s *Schema, previous *Schema)

	mu      sync.RWMutex
	tables  map[string]*Schema
	evicted map[string]*Schema
	group   singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// OnLoad registers a hook called after a schema is read from the database.
// previous is the schema dropped by the last Invalidate of the same table,
// or nil.
func OnLoad(fn func(s *Schema, previous *Schema)) CacheOption {
	return func(c *Cache) {
		c.onLoad = fn
	}
}

// NewCache returns an empty cache reading through i.
func NewCache(i Inspector, opts ...CacheOption) *Cache {
	c := &Cache{
		inspector: i,
		tables:    make(map[string]*Schema),
		evicted:   make(map[string]*Schema),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the schema of table, loading it on first use.
func (c *Cache) Get(ctx context.Context, table string) (*Schema, error) {
	c.mu.RLock()
	s, ok := c.tables[table]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}
	v, err, _ := c.group.Do(table, func() (any, error) {
		c.mu.RLock()
		s, ok := c.tables[table]
		c.mu.RUnlock()
		if ok {
			return s, nil
		}
		cols, err := c.inspector.Columns(ctx, table)
		if err != nil {
			return nil, err
		}
		s = New(table, cols)
		c.mu.Lock()
		c.tables[table] = s
		previous := c.evicted[table]
		delete(c.evicted, table)
		c.mu.Unlock()
		if c.onLoad != nil {
			c.onLoad(s, previous)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Schema), nil
}

// Invalidate drops the cached schema of table.
func (c *Cache) Invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.tables[table]; ok {
		c.evicted[table] = s
		delete(c.tables, table)
	}
}

// Clear drops every cached schema.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*Schema)
	c.evicted = make(map[string]*Schema)
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
