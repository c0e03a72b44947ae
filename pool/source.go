// Package pool resolves type descriptions from class file bytes
// without loading the classes. A pool combines a byte source with a
// cache and answers the same structural queries a loader-backed
// description would.
package pool

import (
	"errors"
	"fmt"

	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// ErrClassFileNotFound indicates the requested class file is unknown
// to a source.
var ErrClassFileNotFound = errors.New("pool: class file not found")

// Source locates raw class file bytes by binary name.
type Source interface {
	ClassFile(name string) ([]byte, error)
}

// SourceFn adapts a function to a Source.
type SourceFn func(name string) ([]byte, error)

func (f SourceFn) ClassFile(name string) ([]byte, error) { return f(name) }

// ForClassLoader serves the bytes of classes a loader hierarchy has
// already defined, walking the parent chain the way loading does.
func ForClassLoader(cl *loader.ClassLoader) Source {
	return SourceFn(func(name string) ([]byte, error) {
		for cur := cl; cur != nil; cur = cur.Parent() {
			if class, ok := cur.Defined(name); ok {
				return class.Bytes(), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrClassFileNotFound, name)
	})
}

// Explicit serves a fixed set of class files.
type Explicit struct {
	files map[string][]byte
}

// NewExplicit creates an explicit source over the given bytes.
func NewExplicit(files map[string][]byte) *Explicit {
	copied := make(map[string][]byte, len(files))
	for name, data := range files {
		copied[name] = data
	}
	return &Explicit{files: copied}
}

// ExplicitOf marshals the given files into an explicit source, a
// convenience for seeding well-known declarations.
func ExplicitOf(files ...*classfile.File) (*Explicit, error) {
	out := &Explicit{files: make(map[string][]byte, len(files))}
	for _, f := range files {
		data, err := classfile.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("pool: seeding %s: %w", f.Name, err)
		}
		out.files[f.Name] = data
	}
	return out, nil
}

// Add registers bytes under a name, replacing any prior entry.
func (e *Explicit) Add(name string, data []byte) {
	e.files[name] = data
}

func (e *Explicit) ClassFile(name string) ([]byte, error) {
	data, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassFileNotFound, name)
	}
	return data, nil
}

// Chain consults sources in order and returns the first hit. Errors
// other than a miss abort the lookup.
func Chain(sources ...Source) Source {
	return SourceFn(func(name string) ([]byte, error) {
		for _, s := range sources {
			data, err := s.ClassFile(name)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, ErrClassFileNotFound) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrClassFileNotFound, name)
	})
}
