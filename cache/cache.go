package cache

import (
	"context"
	"sort"
	"sync"
)

// Entry records a remote resource provisioned from one source identity.
type Entry struct {
	SourceID    string `json:"-"`
	RemoteID    string `json:"remote_id"`
	Fingerprint string `json:"fingerprint"`
}

// Cache maps source ids to provisioned remote resources. An entry exists
// only while the remote resource is believed to exist.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// Store loads and persists a Cache between runs.
type Store interface {
	Load(ctx context.Context) (*Cache, error)
	Save(ctx context.Context, c *Cache) error
}

func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// FromEntries builds a cache from a list of entries. Later duplicates win.
func FromEntries(entries ...Entry) *Cache {
	c := New()
	for _, e := range entries {
		c.entries[e.SourceID] = e
	}
	return c
}

func (c *Cache) Get(sourceID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[sourceID]
	return e, ok
}

// Put adds or replaces the entry for e.SourceID.
func (c *Cache) Put(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.SourceID] = e
}

func (c *Cache) Remove(sourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sourceID)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IDs returns every cached source id in ascending order.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns a copy of all entries ordered by source id.
func (c *Cache) Entries() []Entry {
	ids := c.IDs()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := c.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
