// Package dynamic assembles new classes at runtime. A builder collects
// the shape of the type, interceptions and attributes, and produces an
// unloaded representation holding the class file bytes, any auxiliary
// types and the initializers to run on loading.
package dynamic

import (
	"fmt"

	"github.com/Shredder121/byte-buddy/loader"
)

// LoadedTypeInitializer runs against a class right after it was
// defined in a loader. Initializers carry live Go values into the
// loaded class, which the class file bytes themselves cannot express.
type LoadedTypeInitializer interface {
	// OnLoad receives the freshly defined class.
	OnLoad(c *loader.Class) error

	// IsAlive reports whether the initializer does any work. Dead
	// initializers are dropped instead of being registered.
	IsAlive() bool
}

// NoOpInitializer does nothing and reports dead.
type NoOpInitializer struct{}

func (NoOpInitializer) OnLoad(*loader.Class) error { return nil }
func (NoOpInitializer) IsAlive() bool              { return false }

// ForStaticField assigns a live value to a static field on load.
type ForStaticField struct {
	Field string
	Value any
}

func (i ForStaticField) OnLoad(c *loader.Class) error {
	if i.Field == "" {
		return fmt.Errorf("dynamic: static field initializer without a field name")
	}
	c.SetStatic(i.Field, i.Value)
	return nil
}

func (i ForStaticField) IsAlive() bool { return true }

// CompoundInitializer runs initializers in order, stopping at the
// first failure. It is alive when any part is.
type CompoundInitializer []LoadedTypeInitializer

func (c CompoundInitializer) OnLoad(class *loader.Class) error {
	for _, init := range c {
		if !init.IsAlive() {
			continue
		}
		if err := init.OnLoad(class); err != nil {
			return err
		}
	}
	return nil
}

func (c CompoundInitializer) IsAlive() bool {
	for _, init := range c {
		if init.IsAlive() {
			return true
		}
	}
	return false
}
