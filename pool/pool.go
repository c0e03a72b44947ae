package pool

import (
	"fmt"

	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// TypePool resolves descriptions from a byte source through a cache.
// It satisfies describe.TypeResolver, so pool-backed descriptions
// resolve their own hierarchy through the same pool.
type TypePool struct {
	source Source
	cache  CacheProvider
}

// New creates a pool over a source. A nil cache defaults to a simple
// concurrent cache.
func New(source Source, cache CacheProvider) *TypePool {
	if cache == nil {
		cache = NewSimpleCache()
	}
	return &TypePool{source: source, cache: cache}
}

// Describe resolves the named type, reading and decoding its class
// file on a cache miss.
func (p *TypePool) Describe(name string) (describe.TypeDescription, error) {
	if td, ok := p.cache.Find(name); ok {
		return td, nil
	}
	data, err := p.source.ClassFile(name)
	if err != nil {
		return nil, err
	}
	file, err := classfile.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("pool: decoding %s: %w", name, err)
	}
	if file.Name != name {
		return nil, fmt.Errorf("pool: source returned %s for %s", file.Name, name)
	}
	return p.cache.Register(name, describe.ForFile(file, p)), nil
}

// Clear drops every cached description.
func (p *TypePool) Clear() {
	p.cache.Clear()
}
