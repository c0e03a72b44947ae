package classfile

import (
	"fmt"
	"strings"

	"github.com/Shredder121/byte-buddy/pkg/bytecode"
)

// File is the decoded form of a single class file.
type File struct {
	FormatVersion uint32    `cbor:"1,keyasint"`
	Flags         uint32    `cbor:"2,keyasint"`
	Name          string    `cbor:"3,keyasint"`
	Superclass    string    `cbor:"4,keyasint,omitempty"`
	Interfaces    []string  `cbor:"5,keyasint,omitempty"`
	Modifiers     Modifiers `cbor:"6,keyasint"`

	Fields  []Field  `cbor:"7,keyasint,omitempty"`
	Methods []Method `cbor:"8,keyasint,omitempty"`

	// Annotations declared on the type itself, in declaration order.
	Annotations []Annotation `cbor:"9,keyasint,omitempty"`

	// EnumConstants lists constant names in ordinal order; only set for
	// enumeration types.
	EnumConstants []string `cbor:"10,keyasint,omitempty"`
}

// Field is a declared field.
type Field struct {
	Name        string       `cbor:"1,keyasint"`
	TypeName    string       `cbor:"2,keyasint"`
	Modifiers   Modifiers    `cbor:"3,keyasint"`
	Annotations []Annotation `cbor:"4,keyasint,omitempty"`
}

// Method is a declared method, constructor or static initializer.
// Annotation type members are represented as abstract methods carrying an
// optional Default value.
type Method struct {
	Name        string          `cbor:"1,keyasint"`
	Modifiers   Modifiers       `cbor:"2,keyasint"`
	ReturnType  string          `cbor:"3,keyasint,omitempty"`
	Parameters  []Parameter     `cbor:"4,keyasint,omitempty"`
	Annotations []Annotation    `cbor:"5,keyasint,omitempty"`
	Code        *bytecode.Chunk `cbor:"6,keyasint,omitempty"`
	Default     *Value          `cbor:"7,keyasint,omitempty"`
}

// Key returns the method's identity inside its declaring type: the name
// plus the arity. The target runtime dispatches by name and argument
// count, not by full descriptor.
func (m *Method) Key() string {
	return fmt.Sprintf("%s/%d", m.Name, len(m.Parameters))
}

// IsConstructor reports whether the method is an instance constructor.
func (m *Method) IsConstructor() bool {
	return m.Name == ConstructorName
}

// IsStaticInitializer reports whether the method is the static initializer.
func (m *Method) IsStaticInitializer() bool {
	return m.Name == StaticInitializerName
}

// Parameter is a declared method parameter.
type Parameter struct {
	Name        string       `cbor:"1,keyasint,omitempty"`
	TypeName    string       `cbor:"2,keyasint"`
	Annotations []Annotation `cbor:"3,keyasint,omitempty"`
}

// Annotation is one annotation occurrence: the annotation type plus an
// ordered list of explicitly stored property values. Properties omitted
// here fall back to the defaults declared by the annotation type.
type Annotation struct {
	TypeName string            `cbor:"1,keyasint"`
	Values   []AnnotationValue `cbor:"2,keyasint,omitempty"`
}

// Value returns the stored value for a property name.
func (a *Annotation) Value(name string) (Value, bool) {
	for i := range a.Values {
		if a.Values[i].Name == name {
			return a.Values[i].Value, true
		}
	}
	return Value{}, false
}

// AnnotationValue is a single named property of an annotation occurrence.
type AnnotationValue struct {
	Name  string `cbor:"1,keyasint"`
	Value Value  `cbor:"2,keyasint"`
}

// String renders the annotation in source-like form, for diagnostics.
func (a *Annotation) String() string {
	if len(a.Values) == 0 {
		return "@" + a.TypeName
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = v.Name + "=" + v.Value.String()
	}
	return "@" + a.TypeName + "(" + strings.Join(parts, ", ") + ")"
}
