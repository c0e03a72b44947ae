package dynamic

import (
	"fmt"

	"github.com/Shredder121/byte-buddy/loader"
)

// AuxiliaryType is a helper class a dynamic type depends on. Auxiliary
// types are injected before their owner so the owner never links
// against a missing helper.
type AuxiliaryType struct {
	Name  string
	Bytes []byte
}

// Unloaded is a fully assembled dynamic type that has not been defined
// in any loader yet. It can be loaded any number of times into
// different loaders; each load re-runs the alive initializers against
// the classes of that loader.
type Unloaded struct {
	name         string
	bytes        []byte
	auxiliaries  []AuxiliaryType
	initializers map[string]LoadedTypeInitializer
}

// Name returns the binary name of the primary type.
func (u *Unloaded) Name() string { return u.name }

// Bytes returns the class file bytes of the primary type.
func (u *Unloaded) Bytes() []byte { return u.bytes }

// Auxiliaries returns the auxiliary types in injection order.
func (u *Unloaded) Auxiliaries() []AuxiliaryType { return u.auxiliaries }

// Initializer returns the initializer registered for the named type.
func (u *Unloaded) Initializer(name string) (LoadedTypeInitializer, bool) {
	init, ok := u.initializers[name]
	return init, ok
}

// Load injects the auxiliary types in order, defines the primary type
// and runs every alive initializer against its class.
func (u *Unloaded) Load(cl *loader.ClassLoader) (*loader.Class, error) {
	in := loader.NewInjector(cl, nil)
	for _, aux := range u.auxiliaries {
		if _, defined := cl.Defined(aux.Name); defined {
			continue
		}
		class, err := in.Inject(aux.Name, aux.Bytes)
		if err != nil {
			return nil, fmt.Errorf("dynamic: injecting auxiliary %s: %w", aux.Name, err)
		}
		if err := u.initialize(aux.Name, class); err != nil {
			return nil, err
		}
	}
	class, err := in.Inject(u.name, u.bytes)
	if err != nil {
		return nil, fmt.Errorf("dynamic: loading %s: %w", u.name, err)
	}
	if err := u.initialize(u.name, class); err != nil {
		return nil, err
	}
	return class, nil
}

func (u *Unloaded) initialize(name string, class *loader.Class) error {
	init, ok := u.initializers[name]
	if !ok || !init.IsAlive() {
		return nil
	}
	if err := init.OnLoad(class); err != nil {
		return fmt.Errorf("dynamic: initializing %s: %w", name, err)
	}
	return nil
}
