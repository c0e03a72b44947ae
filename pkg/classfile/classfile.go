// Package classfile defines the binary class file container: the data
// model for synthesized and rewritten types and its wire codec.
//
// The container payload is canonical CBOR framed by a small fixed header,
// so two encodings of the same file are byte-identical. Everything above
// this package treats class files as opaque blobs plus this decoded view.
package classfile

import "fmt"

// Modifiers is the bit set of declaration modifiers for types, methods
// and fields.
type Modifiers uint32

const (
	ModPublic     Modifiers = 1 << 0
	ModPrivate    Modifiers = 1 << 1
	ModProtected  Modifiers = 1 << 2
	ModStatic     Modifiers = 1 << 3
	ModFinal      Modifiers = 1 << 4
	ModAbstract   Modifiers = 1 << 5
	ModInterface  Modifiers = 1 << 6
	ModEnum       Modifiers = 1 << 7
	ModAnnotation Modifiers = 1 << 8
	ModSynthetic  Modifiers = 1 << 9
	ModNative     Modifiers = 1 << 10
)

// Has reports whether all bits of mask are set.
func (m Modifiers) Has(mask Modifiers) bool {
	return m&mask == mask
}

// File flags.
const (
	FlagNone uint32 = 0

	// FlagBootstrap marks a self-initializing class file: its static
	// initializer calls back into the process-wide initializer registry
	// when the runtime links the class.
	FlagBootstrap uint32 = 1 << 0

	// FlagDebugInfo indicates debug information is present.
	FlagDebugInfo uint32 = 1 << 1
)

// Well-known type and member names of the target runtime.
const (
	// ObjectClass is the root of the class hierarchy.
	ObjectClass = "lang.Object"

	StringClass = "lang.String"
	IntClass    = "lang.Int"
	FloatClass  = "lang.Float"
	BoolClass   = "lang.Bool"
	ArrayClass  = "lang.Array"

	// ClassClass is the reflective class reference type, used as the
	// declared type of annotation members that hold type references.
	ClassClass = "lang.Class"

	// InheritedAnnotation is the marker annotation type; annotation types
	// carrying it are visible through subclass hierarchies.
	InheritedAnnotation = "lang.annotation.Inherited"

	// ConstructorName is the reserved name of instance constructors.
	ConstructorName = "<init>"

	// StaticInitializerName is the reserved name of the per-type static
	// initializer.
	StaticInitializerName = "<clinit>"
)

// InternalName converts a binary type name ("pkg.Type") to internal form
// ("pkg/Type") as presented at the instrumentation boundary.
func InternalName(binary string) string {
	out := []byte(binary)
	for i, c := range out {
		if c == '.' {
			out[i] = '/'
		}
	}
	return string(out)
}

// BinaryName converts an internal type name back to binary form.
func BinaryName(internal string) string {
	out := []byte(internal)
	for i, c := range out {
		if c == '/' {
			out[i] = '.'
		}
	}
	return string(out)
}

// IsReservedMethodName reports whether the name is one of the reserved
// member names that user configuration must not claim.
func IsReservedMethodName(name string) bool {
	return name == ConstructorName || name == StaticInitializerName
}

// Validate checks internal consistency of a decoded file.
func (f *File) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("classfile: missing type name")
	}
	if f.Name != ObjectClass && !f.Modifiers.Has(ModInterface) && f.Superclass == "" {
		return fmt.Errorf("classfile: %s: missing superclass", f.Name)
	}
	if f.Modifiers.Has(ModEnum) && len(f.EnumConstants) == 0 {
		return fmt.Errorf("classfile: %s: enumeration without constants", f.Name)
	}
	seen := make(map[string]int, len(f.Methods))
	for i := range f.Methods {
		m := &f.Methods[i]
		if m.Name == "" {
			return fmt.Errorf("classfile: %s: method %d has no name", f.Name, i)
		}
		key := m.Key()
		if prior, dup := seen[key]; dup {
			return fmt.Errorf("classfile: %s: duplicate method %s (indices %d, %d)", f.Name, key, prior, i)
		}
		seen[key] = i
		if m.Code != nil {
			if err := m.Code.Validate(); err != nil {
				return fmt.Errorf("classfile: %s.%s: %w", f.Name, m.Name, err)
			}
		}
		if m.Modifiers.Has(ModAbstract) && m.Code != nil {
			return fmt.Errorf("classfile: %s.%s: abstract method carries code", f.Name, m.Name)
		}
	}
	return nil
}
