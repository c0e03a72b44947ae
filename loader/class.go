// Package loader models the runtime side of class generation: class
// loaders with parent delegation, definition of classes from raw class
// file bytes, direct byte-array injection, and the instrumentation
// facility that lets transformers intercept every definition.
//
// The loader links classes and tracks their metadata and static state;
// it does not interpret method bodies.
package loader

import (
	"fmt"
	"sync"

	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// Class is a linked class definition inside a class loader.
type Class struct {
	name   string
	file   *classfile.File
	bytes  []byte
	loader *ClassLoader
	super  *Class
	domain *ProtectionDomain

	mu      sync.RWMutex
	statics map[string]any
}

// Name returns the binary name of the class.
func (c *Class) Name() string {
	return c.name
}

// File returns the decoded class file backing this class.
// Callers must treat it as read-only.
func (c *Class) File() *classfile.File {
	return c.file
}

// Bytes returns the raw class file bytes the class was defined from.
func (c *Class) Bytes() []byte {
	return c.bytes
}

// Loader returns the defining class loader.
func (c *Class) Loader() *ClassLoader {
	return c.loader
}

// Superclass returns the linked superclass, or nil for the root class.
func (c *Class) Superclass() *Class {
	return c.super
}

// ProtectionDomain returns the protection domain the class was defined
// with, possibly nil.
func (c *Class) ProtectionDomain() *ProtectionDomain {
	return c.domain
}

// IsInterface reports whether the class is an interface type.
func (c *Class) IsInterface() bool {
	return c.file.Modifiers.Has(classfile.ModInterface)
}

// IsEnum reports whether the class is an enumeration type.
func (c *Class) IsEnum() bool {
	return c.file.Modifiers.Has(classfile.ModEnum)
}

// EnumConstants returns the enumeration constant names in ordinal order.
func (c *Class) EnumConstants() []string {
	return c.file.EnumConstants
}

// Ordinal returns the ordinal of an enumeration constant, or -1 if the
// class declares no such constant.
func (c *Class) Ordinal(constant string) int {
	for i, name := range c.file.EnumConstants {
		if name == constant {
			return i
		}
	}
	return -1
}

// IsAssignableFrom reports whether values of the other class can be
// treated as values of this class: the other class equals this class,
// has it in its superclass chain, or implements it as an interface.
func (c *Class) IsAssignableFrom(other *Class) bool {
	for cur := other; cur != nil; cur = cur.super {
		if cur == c {
			return true
		}
		for _, iface := range cur.file.Interfaces {
			if iface == c.name {
				return true
			}
			if resolved, err := cur.loader.Load(iface); err == nil && c.IsAssignableFrom(resolved) {
				return true
			}
		}
	}
	return false
}

// SetStatic stores a static field value on the class.
func (c *Class) SetStatic(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statics == nil {
		c.statics = make(map[string]any)
	}
	c.statics[name] = value
}

// Static returns a static field value previously stored on the class.
func (c *Class) Static(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.statics[name]
	return v, ok
}

// New creates an instance of the class. Abstract and interface classes
// cannot be instantiated.
func (c *Class) New() (*Instance, error) {
	if c.file.Modifiers.Has(classfile.ModAbstract) || c.IsInterface() {
		return nil, fmt.Errorf("loader: cannot instantiate %s", c.name)
	}
	return &Instance{class: c, fields: make(map[string]any)}, nil
}

// Instance is a plain object of a linked class. Field access is by name;
// the loader performs no bytecode interpretation.
type Instance struct {
	class  *Class
	fields map[string]any
}

// Class returns the instance's class.
func (i *Instance) Class() *Class {
	return i.class
}

// InstanceOf reports whether the instance's class is assignable to the
// given class.
func (i *Instance) InstanceOf(c *Class) bool {
	return c.IsAssignableFrom(i.class)
}

// ProtectionDomain carries the code source a class was defined under.
type ProtectionDomain struct {
	CodeSource string
}
