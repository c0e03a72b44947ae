package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Shredder121/byte-buddy/nexus"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// ErrClassNotFound indicates no loader in the delegation chain defines
// the requested class.
var ErrClassNotFound = errors.New("class not found")

// ErrDuplicateClass indicates a definition for an already-defined name.
var ErrDuplicateClass = errors.New("duplicate class definition")

// TypeInitializer is the callback shape the linking step invokes for
// self-initializing classes whose initializer was parked in the nexus
// registry.
type TypeInitializer interface {
	OnLoad(c *Class) error
}

// ClassLoader is a parent-delegating registry of linked classes.
// All operations are safe for concurrent use.
type ClassLoader struct {
	parent *ClassLoader
	name   string

	mu      sync.RWMutex
	classes map[string]*Class

	instr *Instrumentation
}

// NewClassLoader creates a class loader delegating to parent.
// A nil parent makes this a bootstrap-level loader.
func NewClassLoader(name string, parent *ClassLoader) *ClassLoader {
	return &ClassLoader{
		parent:  parent,
		name:    name,
		classes: make(map[string]*Class),
	}
}

// Name returns the loader's diagnostic name.
func (cl *ClassLoader) Name() string {
	return cl.name
}

// Parent returns the parent loader, or nil for a bootstrap-level loader.
func (cl *ClassLoader) Parent() *ClassLoader {
	return cl.parent
}

// SetInstrumentation attaches an instrumentation facility to this loader.
// Definitions performed by this loader and its children run the
// facility's transformer chain.
func (cl *ClassLoader) SetInstrumentation(in *Instrumentation) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.instr = in
}

func (cl *ClassLoader) instrumentation() *Instrumentation {
	for cur := cl; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		in := cur.instr
		cur.mu.RUnlock()
		if in != nil {
			return in
		}
	}
	return nil
}

// Load resolves a class by binary name, delegating to the parent first.
func (cl *ClassLoader) Load(name string) (*Class, error) {
	if cl.parent != nil {
		if c, err := cl.parent.Load(name); err == nil {
			return c, nil
		}
	}
	cl.mu.RLock()
	c, ok := cl.classes[name]
	cl.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("loader %s: %q: %w", cl.name, name, ErrClassNotFound)
	}
	return c, nil
}

// Defined returns the class defined by this exact loader, without parent
// delegation.
func (cl *ClassLoader) Defined(name string) (*Class, bool) {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	c, ok := cl.classes[name]
	return c, ok
}

// DefinedNames returns the names of all classes defined by this loader.
func (cl *ClassLoader) DefinedNames() []string {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	names := make([]string, 0, len(cl.classes))
	for name := range cl.classes {
		names = append(names, name)
	}
	return names
}

// Define turns raw class file bytes into a linked class. The bytes first
// pass through the attached instrumentation facility's transformer chain;
// the resulting representation is decoded, its superclass resolved, the
// class registered and, for self-initializing class files, the pending
// nexus initializer consumed and invoked.
func (cl *ClassLoader) Define(name string, data []byte, domain *ProtectionDomain) (*Class, error) {
	if _, exists := cl.Defined(name); exists {
		return nil, fmt.Errorf("loader %s: %q: %w", cl.name, name, ErrDuplicateClass)
	}
	if in := cl.instrumentation(); in != nil {
		data = in.transform(cl, name, nil, domain, data)
	}
	return cl.link(name, data, domain)
}

// redefine replaces an existing definition with transformed bytes. Only
// the instrumentation facility's retransformation path uses it. If the
// replacement fails to link, the previous definition is restored.
func (cl *ClassLoader) redefine(name string, data []byte, domain *ProtectionDomain) (*Class, error) {
	cl.mu.Lock()
	previous, existed := cl.classes[name]
	delete(cl.classes, name)
	cl.mu.Unlock()

	c, err := cl.link(name, data, domain)
	if err != nil && existed {
		cl.mu.Lock()
		if _, taken := cl.classes[name]; !taken {
			cl.classes[name] = previous
		}
		cl.mu.Unlock()
	}
	return c, err
}

func (cl *ClassLoader) link(name string, data []byte, domain *ProtectionDomain) (*Class, error) {
	file, err := classfile.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("loader %s: define %q: %w", cl.name, name, err)
	}
	if file.Name != name {
		return nil, fmt.Errorf("loader %s: class file for %q declares name %q", cl.name, name, file.Name)
	}

	var super *Class
	if file.Superclass != "" {
		super, err = cl.Load(file.Superclass)
		if err != nil {
			return nil, fmt.Errorf("loader %s: define %q: superclass: %w", cl.name, name, err)
		}
		if super.file.Modifiers.Has(classfile.ModFinal) {
			return nil, fmt.Errorf("loader %s: define %q: superclass %s is final", cl.name, name, super.name)
		}
	}

	c := &Class{
		name:   name,
		file:   file,
		bytes:  data,
		loader: cl,
		super:  super,
		domain: domain,
	}

	cl.mu.Lock()
	if _, exists := cl.classes[name]; exists {
		cl.mu.Unlock()
		return nil, fmt.Errorf("loader %s: %q: %w", cl.name, name, ErrDuplicateClass)
	}
	cl.classes[name] = c
	cl.mu.Unlock()

	// Linking stands in for running the static initializer: this is the
	// moment a self-initializing class calls back into the nexus.
	if file.Flags&classfile.FlagBootstrap != 0 {
		if pending, ok := nexus.Consume(name, cl); ok {
			if initializer, ok := pending.(TypeInitializer); ok {
				if err := initializer.OnLoad(c); err != nil {
					return nil, fmt.Errorf("loader %s: initialize %q: %w", cl.name, name, err)
				}
			}
		}
	}

	return c, nil
}

// Injector defines raw class file bytes directly into a target loader,
// bypassing parent delegation. The runtime never requests auxiliary types
// on its own, so they are pushed in through this side door.
type Injector struct {
	loader *ClassLoader
	domain *ProtectionDomain
}

// NewInjector creates an injector for the given loader and protection
// domain.
func NewInjector(cl *ClassLoader, domain *ProtectionDomain) *Injector {
	return &Injector{loader: cl, domain: domain}
}

// Inject defines the named class from raw bytes. The definition still
// runs the instrumentation transformer chain, exactly like a regular
// load; agents guard against re-entrant transformation themselves.
func (in *Injector) Inject(name string, data []byte) (*Class, error) {
	return in.loader.Define(name, data, in.domain)
}
