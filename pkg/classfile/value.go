package classfile

import (
	"fmt"
	"strings"
)

// ValueKind identifies the type of an annotation property value.
type ValueKind uint8

const (
	KindBool ValueKind = iota + 1
	KindInt
	KindFloat
	KindString
	KindType       // a reference to a type, by binary name
	KindEnum       // an enumeration constant
	KindAnnotation // a nested annotation
	KindArray      // an ordered array of values of one kind
)

// String returns a human-readable name for ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindType:
		return "type"
	case KindEnum:
		return "enum"
	case KindAnnotation:
		return "annotation"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a typed annotation property value.
type Value struct {
	Kind       ValueKind   `cbor:"1,keyasint"`
	Bool       bool        `cbor:"2,keyasint,omitempty"`
	Int        int64       `cbor:"3,keyasint,omitempty"`
	Float      float64     `cbor:"4,keyasint,omitempty"`
	Str        string      `cbor:"5,keyasint,omitempty"`
	TypeName   string      `cbor:"6,keyasint,omitempty"`
	Enum       *EnumValue  `cbor:"7,keyasint,omitempty"`
	Annotation *Annotation `cbor:"8,keyasint,omitempty"`
	Array      []Value     `cbor:"9,keyasint,omitempty"`
}

// EnumValue references an enumeration constant by type and name.
type EnumValue struct {
	TypeName string `cbor:"1,keyasint"`
	Name     string `cbor:"2,keyasint"`
}

// BoolValue creates a boolean value.
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// IntValue creates an integer value.
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// FloatValue creates a float value.
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// StringValue creates a string value.
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// TypeValue creates a type reference value.
func TypeValue(name string) Value { return Value{Kind: KindType, TypeName: name} }

// EnumConstant creates an enumeration constant value.
func EnumConstant(typeName, name string) Value {
	return Value{Kind: KindEnum, Enum: &EnumValue{TypeName: typeName, Name: name}}
}

// AnnotationValueOf creates a nested annotation value.
func AnnotationValueOf(a Annotation) Value {
	return Value{Kind: KindAnnotation, Annotation: &a}
}

// ArrayValue creates an array value.
func ArrayValue(values ...Value) Value {
	return Value{Kind: KindArray, Array: values}
}

// Equal reports deep structural equality of two values.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindString:
		return v.Str == other.Str
	case KindType:
		return v.TypeName == other.TypeName
	case KindEnum:
		return v.Enum != nil && other.Enum != nil && *v.Enum == *other.Enum
	case KindAnnotation:
		return v.Annotation != nil && other.Annotation != nil &&
			annotationEqual(*v.Annotation, *other.Annotation)
	case KindArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func annotationEqual(a, b Annotation) bool {
	if a.TypeName != b.TypeName || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i].Name != b.Values[i].Name || !a.Values[i].Value.Equal(b.Values[i].Value) {
			return false
		}
	}
	return true
}

// String renders the value in source-like form.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindType:
		return v.TypeName
	case KindEnum:
		if v.Enum == nil {
			return "<enum?>"
		}
		return v.Enum.TypeName + "." + v.Enum.Name
	case KindAnnotation:
		if v.Annotation == nil {
			return "<annotation?>"
		}
		return v.Annotation.String()
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}
