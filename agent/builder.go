package agent

import (
	"github.com/Shredder121/byte-buddy/dynamic"
	"github.com/Shredder121/byte-buddy/loader"
)

// Builder assembles an agent. Builders are immutable; every With method
// returns a derived copy, so a configured builder can be shared and
// forked safely.
type Builder struct {
	entries       []entry
	ignored       []RawMatcher
	listener      Listener
	strategy      InitializationStrategy
	locator       BinaryLocator
	nameTransform dynamic.MethodNameTransformer
	retransform   bool
	nativePrefix  string
}

// Default returns a builder with self-initialization through the global
// nexus, a silent listener and the loader-chain binary locator.
func Default() *Builder {
	return &Builder{
		listener:      NoOpListener{},
		strategy:      NewSelfInjection(),
		locator:       &DefaultLocator{},
		nameTransform: dynamic.RandomSuffixing(),
	}
}

func (b *Builder) fork() *Builder {
	c := *b
	c.entries = append([]entry(nil), b.entries...)
	c.ignored = append([]RawMatcher(nil), b.ignored...)
	return &c
}

// WithListener adds a listener; existing listeners keep firing.
func (b *Builder) WithListener(l Listener) *Builder {
	c := b.fork()
	if _, silent := c.listener.(NoOpListener); silent {
		c.listener = l
	} else {
		c.listener = CompoundListener{c.listener, l}
	}
	return c
}

// WithInitializationStrategy replaces how generated initializers reach
// their loaded types.
func (b *Builder) WithInitializationStrategy(s InitializationStrategy) *Builder {
	c := b.fork()
	c.strategy = s
	return c
}

// DisableSelfInitialization drops generated initializers instead of
// registering them.
func (b *Builder) DisableSelfInitialization() *Builder {
	return b.WithInitializationStrategy(NoOpStrategy{})
}

// WithBinaryLocator replaces how class files are located and described.
func (b *Builder) WithBinaryLocator(l BinaryLocator) *Builder {
	c := b.fork()
	c.locator = l
	return c
}

// WithNameTransformer replaces the renaming applied to rebased methods.
func (b *Builder) WithNameTransformer(t dynamic.MethodNameTransformer) *Builder {
	c := b.fork()
	c.nameTransform = t
	return c
}

// AllowRetransformation registers the agent as retransformation capable,
// letting Instrumentation.Retransform re-run it over linked classes.
func (b *Builder) AllowRetransformation() *Builder {
	c := b.fork()
	c.retransform = true
	return c
}

// WithNativeMethodPrefix records the native-method-name prefix applied
// at installation.
func (b *Builder) WithNativeMethodPrefix(prefix string) *Builder {
	c := b.fork()
	c.nativePrefix = prefix
	return c
}

// Ignore excludes matching types before any entry is consulted.
func (b *Builder) Ignore(raw RawMatcher) *Builder {
	c := b.fork()
	c.ignored = append(c.ignored, raw)
	return c
}

// Type starts an entry for the matching types. The returned handle
// collects transformers; the first matching entry wins at runtime.
func (b *Builder) Type(raw RawMatcher) *Matched {
	return &Matched{parent: b, raw: raw}
}

// Matched is an in-progress entry. Transform appends to the pipeline and
// yields a builder that includes the completed entry.
type Matched struct {
	parent       *Builder
	raw          RawMatcher
	transformers []Transformer
}

// Transform appends a transformer to this entry and returns the builder
// with the entry included.
func (m *Matched) Transform(t Transformer) *Builder {
	transformers := append(append([]Transformer(nil), m.transformers...), t)
	c := m.parent.fork()
	c.entries = append(c.entries, entry{raw: m.raw, transformers: transformers})
	return c
}

// MakeRaw materializes the builder into its executing transformer.
func (b *Builder) MakeRaw() *ExecutingTransformer {
	c := b.fork()
	return &ExecutingTransformer{
		entries:       c.entries,
		ignored:       c.ignored,
		listener:      c.listener,
		strategy:      c.strategy,
		locator:       c.locator,
		nameTransform: c.nameTransform,
	}
}

// InstallOn materializes the agent and registers it with the
// instrumentation. The registration handle allows later removal.
func (b *Builder) InstallOn(in *loader.Instrumentation) (*loader.Registration, error) {
	reg := in.AddTransformer(b.MakeRaw(), b.retransform)
	if b.nativePrefix != "" {
		if err := in.SetNativeMethodPrefix(reg, b.nativePrefix); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
