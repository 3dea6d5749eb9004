package options

import cmap "github.com/orcaman/concurrent-map/v2"

// Cache holds resolved options keyed by field key. Loaders run on their own
// goroutines during the open-time fan-out, so the backing map must tolerate
// concurrent writers. Entries live for one form-open lifecycle; Clear is
// called on re-open.
type Cache struct {
	entries cmap.ConcurrentMap[string, []Option]
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: cmap.New[[]Option]()}
}

// Put stores the resolved options for a field, replacing any prior entry.
func (c *Cache) Put(key string, opts []Option) {
	if c == nil || key == "" {
		return
	}
	c.entries.Set(key, opts)
}

// Get returns the cached options for a field. A missing entry yields nil,
// which renderers treat as an empty choice list.
func (c *Cache) Get(key string) []Option {
	if c == nil {
		return nil
	}
	opts, _ := c.entries.Get(key)
	return opts
}

// Has reports whether an entry exists for the field, empty lists included.
func (c *Cache) Has(key string) bool {
	if c == nil {
		return false
	}
	return c.entries.Has(key)
}

// Clear drops every entry. Invoked when the form re-opens so a new lifecycle
// starts from a cold cache.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.entries.Clear()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Count()
}
