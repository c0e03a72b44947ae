package agent

import (
	"fmt"

	"github.com/Shredder121/byte-buddy/bind"
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
	"github.com/Shredder121/byte-buddy/pool"
)

// BinaryLocator turns the raw bytes under transformation into a
// description with a resolver for its hierarchy. The class being
// transformed is not defined yet, so the in-flight bytes must
// short-circuit any lookup of its own name.
type BinaryLocator interface {
	Locate(cl *loader.ClassLoader, name string, data []byte) (describe.TypeDescription, *classfile.File, error)
}

// DefaultLocator resolves hierarchies through a type pool over the
// loader hierarchy, seeded with the binder's annotation declarations.
type DefaultLocator struct {
	// Extra sources consulted after the loader, such as a class file
	// store.
	Extra []pool.Source
}

func (l DefaultLocator) Locate(cl *loader.ClassLoader, name string, data []byte) (describe.TypeDescription, *classfile.File, error) {
	file, err := classfile.Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("agent: decoding %s: %w", name, err)
	}
	if file.Name != name {
		return nil, nil, fmt.Errorf("agent: bytes for %s declare %s", name, file.Name)
	}

	seeds, err := pool.ExplicitOf(bind.AnnotationTypes()...)
	if err != nil {
		return nil, nil, err
	}
	inFlight := pool.NewExplicit(map[string][]byte{name: data})

	sources := []pool.Source{inFlight, pool.ForClassLoader(cl)}
	sources = append(sources, l.Extra...)
	sources = append(sources, seeds)

	resolver := pool.New(pool.Chain(sources...), pool.NewSimpleCache())
	return describe.ForFile(file, resolver), file, nil
}
