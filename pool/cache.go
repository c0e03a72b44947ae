package pool

import (
	"sync"

	"github.com/Shredder121/byte-buddy/describe"
)

// CacheProvider stores resolved descriptions between lookups.
type CacheProvider interface {
	Find(name string) (describe.TypeDescription, bool)
	Register(name string, td describe.TypeDescription) describe.TypeDescription
	Clear()
}

// SimpleCache is a concurrent map cache. The first registration for a
// name wins so concurrent resolvers agree on one description.
type SimpleCache struct {
	entries sync.Map
}

// NewSimpleCache creates an empty cache.
func NewSimpleCache() *SimpleCache {
	return &SimpleCache{}
}

func (c *SimpleCache) Find(name string) (describe.TypeDescription, bool) {
	v, ok := c.entries.Load(name)
	if !ok {
		return nil, false
	}
	return v.(describe.TypeDescription), true
}

func (c *SimpleCache) Register(name string, td describe.TypeDescription) describe.TypeDescription {
	actual, _ := c.entries.LoadOrStore(name, td)
	return actual.(describe.TypeDescription)
}

func (c *SimpleCache) Clear() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// NoOpCache caches nothing; every lookup re-reads the source.
type NoOpCache struct{}

func (NoOpCache) Find(string) (describe.TypeDescription, bool) { return nil, false }

func (NoOpCache) Register(_ string, td describe.TypeDescription) describe.TypeDescription {
	return td
}

func (NoOpCache) Clear() {}
