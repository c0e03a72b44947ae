package loader

import (
	"fmt"
	"sync"

	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// Transformer intercepts class definitions. It receives the defining
// loader, the internal form of the type name, the previously linked class
// when the definition is a retransformation (nil on first load), the
// protection domain and the current class file bytes.
//
// The second result is the transformation marker: false means "no
// transformation" and the input bytes are kept as-is, regardless of the
// first result. This keeps nil-versus-empty ambiguity out of the
// boundary.
type Transformer interface {
	Transform(cl *ClassLoader, internalName string, redefined *Class, domain *ProtectionDomain, data []byte) ([]byte, bool)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(cl *ClassLoader, internalName string, redefined *Class, domain *ProtectionDomain, data []byte) ([]byte, bool)

// Transform implements Transformer.
func (f TransformerFunc) Transform(cl *ClassLoader, internalName string, redefined *Class, domain *ProtectionDomain, data []byte) ([]byte, bool) {
	return f(cl, internalName, redefined, domain, data)
}

// Registration is the handle returned for a registered transformer; the
// per-transformer settings hang off it.
type Registration struct {
	transformer    Transformer
	canRetransform bool
	nativePrefix   string
}

// Instrumentation is the facility transformers register with. Loaders
// attached via SetInstrumentation run the chain on every definition, in
// registration order.
type Instrumentation struct {
	mu           sync.RWMutex
	transformers []*Registration
}

// NewInstrumentation creates an empty facility.
func NewInstrumentation() *Instrumentation {
	return &Instrumentation{}
}

// AddTransformer registers a transformer and returns its registration
// handle. canRetransform controls whether Retransform may re-run this
// transformer over already-linked classes.
func (in *Instrumentation) AddTransformer(t Transformer, canRetransform bool) *Registration {
	in.mu.Lock()
	defer in.mu.Unlock()
	reg := &Registration{transformer: t, canRetransform: canRetransform}
	in.transformers = append(in.transformers, reg)
	return reg
}

// RemoveTransformer unregisters a transformer by its registration handle.
// Returns false when the handle is unknown.
func (in *Instrumentation) RemoveTransformer(reg *Registration) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, existing := range in.transformers {
		if existing == reg {
			in.transformers = append(in.transformers[:i], in.transformers[i+1:]...)
			return true
		}
	}
	return false
}

// SetNativeMethodPrefix records the native-method-name prefix for a
// registered transformer. An empty prefix disables prefixing.
func (in *Instrumentation) SetNativeMethodPrefix(reg *Registration, prefix string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, existing := range in.transformers {
		if existing == reg {
			existing.nativePrefix = prefix
			return nil
		}
	}
	return fmt.Errorf("loader: transformer not registered")
}

// NativeMethodPrefixes returns all non-empty prefixes in registration
// order.
func (in *Instrumentation) NativeMethodPrefixes() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	var prefixes []string
	for _, reg := range in.transformers {
		if reg.nativePrefix != "" {
			prefixes = append(prefixes, reg.nativePrefix)
		}
	}
	return prefixes
}

// transform runs the chain over the given bytes. Transformations compose:
// each transformer sees the output of the previous one.
func (in *Instrumentation) transform(cl *ClassLoader, name string, redefined *Class, domain *ProtectionDomain, data []byte) []byte {
	in.mu.RLock()
	chain := make([]*Registration, len(in.transformers))
	copy(chain, in.transformers)
	in.mu.RUnlock()

	internal := classfile.InternalName(name)
	for _, reg := range chain {
		if redefined != nil && !reg.canRetransform {
			continue
		}
		if out, transformed := reg.transformer.Transform(cl, internal, redefined, domain, data); transformed {
			data = out
		}
	}
	return data
}

// Retransform re-runs the retransformation-capable part of the chain over
// an already-linked class of the given loader and replaces its definition
// with the result.
func (in *Instrumentation) Retransform(cl *ClassLoader, name string) (*Class, error) {
	existing, ok := cl.Defined(name)
	if !ok {
		return nil, fmt.Errorf("loader %s: retransform %q: %w", cl.name, name, ErrClassNotFound)
	}
	data := in.transform(cl, name, existing, existing.domain, existing.bytes)
	return cl.redefine(name, data, existing.domain)
}
