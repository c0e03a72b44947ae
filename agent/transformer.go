package agent

import (
	"fmt"
	"sync"

	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/dynamic"
	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// Transformer rewrites a matched type through its builder.
type Transformer interface {
	Transform(b *dynamic.Builder, td describe.TypeDescription) *dynamic.Builder
}

// TransformerFn adapts a function to a Transformer.
type TransformerFn func(b *dynamic.Builder, td describe.TypeDescription) *dynamic.Builder

func (f TransformerFn) Transform(b *dynamic.Builder, td describe.TypeDescription) *dynamic.Builder {
	return f(b, td)
}

// entry is one matcher with its transformer pipeline; the first
// matching entry wins.
type entry struct {
	raw          RawMatcher
	transformers []Transformer
}

// ExecutingTransformer is the materialized agent. It implements the
// loader's raw transformer contract and never lets a failure escape;
// a class the agent cannot handle proceeds untransformed.
type ExecutingTransformer struct {
	entries       []entry
	ignored       []RawMatcher
	listener      Listener
	strategy      InitializationStrategy
	locator       BinaryLocator
	nameTransform dynamic.MethodNameTransformer

	// auxiliary type names currently being injected; their definition
	// re-enters the transformer chain and must pass through untouched.
	injecting sync.Map
}

// Transform runs the transformation state machine for one class.
func (t *ExecutingTransformer) Transform(cl *loader.ClassLoader, internalName string, redefined *loader.Class, domain *loader.ProtectionDomain, data []byte) (out []byte, transformed bool) {
	name := classfile.BinaryName(internalName)

	if _, injecting := t.injecting.LoadAndDelete(injectionKey{name: name, loader: cl}); injecting {
		return nil, false
	}

	defer t.listener.OnComplete(name, cl)
	defer func() {
		if r := recover(); r != nil {
			t.listener.OnError(name, cl, fmt.Errorf("agent: panic transforming %s: %v", name, r))
			out, transformed = nil, false
		}
	}()

	td, file, err := t.locator.Locate(cl, name, data)
	if err != nil {
		t.listener.OnError(name, cl, err)
		return nil, false
	}

	for _, ignore := range t.ignored {
		if ignore.Matches(td, cl, redefined) {
			t.listener.OnIgnored(name, cl)
			return nil, false
		}
	}

	matched, ok := t.match(td, cl, redefined)
	if !ok {
		t.listener.OnIgnored(name, cl)
		return nil, false
	}

	builder := dynamic.Rebase(file, td.Resolver(), t.nameTransform)
	for _, tr := range matched.transformers {
		builder = tr.Transform(builder, td)
	}
	builder = t.strategy.Apply(builder)

	unloaded, err := builder.Make()
	if err != nil {
		t.listener.OnError(name, cl, err)
		return nil, false
	}

	if err := t.injectAuxiliaries(cl, unloaded); err != nil {
		t.listener.OnError(name, cl, err)
		return nil, false
	}
	t.strategy.Register(name, cl, unloaded)

	t.listener.OnTransformation(name, cl)
	return unloaded.Bytes(), true
}

func (t *ExecutingTransformer) match(td describe.TypeDescription, cl *loader.ClassLoader, redefined *loader.Class) (entry, bool) {
	for _, e := range t.entries {
		if e.raw.Matches(td, cl, redefined) {
			return e, true
		}
	}
	return entry{}, false
}

// injectAuxiliaries defines the helper types before the owner's bytes
// are handed back. Injection re-enters this transformer, so each name
// is marked first.
func (t *ExecutingTransformer) injectAuxiliaries(cl *loader.ClassLoader, unloaded *dynamic.Unloaded) error {
	if len(unloaded.Auxiliaries()) == 0 {
		return nil
	}
	in := loader.NewInjector(cl, nil)
	for _, aux := range unloaded.Auxiliaries() {
		if _, defined := cl.Defined(aux.Name); defined {
			continue
		}
		key := injectionKey{name: aux.Name, loader: cl}
		t.injecting.Store(key, struct{}{})
		_, err := in.Inject(aux.Name, aux.Bytes)
		t.injecting.Delete(key) // cleared on observation; this catches unattached chains
		if err != nil {
			return fmt.Errorf("agent: injecting auxiliary %s: %w", aux.Name, err)
		}
	}
	return nil
}

type injectionKey struct {
	name   string
	loader *loader.ClassLoader
}
