package agent

import (
	"github.com/Shredder121/byte-buddy/dynamic"
	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/nexus"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// InitializationStrategy decides how a transformed type's live
// initializers reach the loaded class. The agent never loads classes
// itself, so the class file has to carry the initialization trigger.
type InitializationStrategy interface {
	// Apply prepares the builder before the type is assembled.
	Apply(b *dynamic.Builder) *dynamic.Builder

	// Register publishes the assembled type's initializers so they run
	// when the loader links the class.
	Register(name string, cl *loader.ClassLoader, u *dynamic.Unloaded)
}

// NoOpStrategy drops all initializers; transformed types load without
// any live state.
type NoOpStrategy struct{}

func (NoOpStrategy) Apply(b *dynamic.Builder) *dynamic.Builder { return b }

func (NoOpStrategy) Register(string, *loader.ClassLoader, *dynamic.Unloaded) {}

// SelfInjection marks transformed types as self initializing and
// parks their initializers in the nexus. Linking the class consumes
// the entry and runs the initializer exactly once.
type SelfInjection struct {
	Registry nexus.Registry
}

// NewSelfInjection creates the strategy over the process-wide nexus.
func NewSelfInjection() SelfInjection {
	return SelfInjection{Registry: nexus.Global}
}

func (s SelfInjection) Apply(b *dynamic.Builder) *dynamic.Builder {
	return b.WithFlags(classfile.FlagBootstrap)
}

func (s SelfInjection) Register(name string, cl *loader.ClassLoader, u *dynamic.Unloaded) {
	init, ok := u.Initializer(name)
	if !ok || !init.IsAlive() {
		return
	}
	s.Registry.Register(name, cl, init)
}
