package describe

import (
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// AnnotationList is an ordered collection of annotation descriptions.
// The zero value is the empty list.
type AnnotationList []AnnotationDescription

// Annotations wraps raw annotation metadata into a list resolved
// through the given resolver.
func Annotations(resolver TypeResolver, anns []classfile.Annotation) AnnotationList {
	if len(anns) == 0 {
		return nil
	}
	out := make(AnnotationList, len(anns))
	for i := range anns {
		out[i] = &annotationView{ann: &anns[i], resolver: resolver}
	}
	return out
}

// Explicit builds a list from already constructed descriptions,
// preserving their order.
func Explicit(descs ...AnnotationDescription) AnnotationList {
	if len(descs) == 0 {
		return nil
	}
	out := make(AnnotationList, len(descs))
	copy(out, descs)
	return out
}

// Size returns the number of annotations in the list.
func (l AnnotationList) Size() int { return len(l) }

// IsAnnotationPresent reports whether an annotation of the given type
// is contained in the list.
func (l AnnotationList) IsAnnotationPresent(typeName string) bool {
	return l.OfType(typeName) != nil
}

// OfType returns the first annotation of the given type, or nil when
// the list holds none.
func (l AnnotationList) OfType(typeName string) AnnotationDescription {
	for _, a := range l {
		if a.TypeName() == typeName {
			return a
		}
	}
	return nil
}

// Inherited keeps the annotations whose type carries the inheritance
// marker and whose type is not in the ignored set. Annotations whose
// type cannot be resolved are treated as not inheritable.
func (l AnnotationList) Inherited(ignored map[string]struct{}) AnnotationList {
	var out AnnotationList
	for _, a := range l {
		if _, skip := ignored[a.TypeName()]; skip {
			continue
		}
		td, err := a.Type()
		if err != nil {
			continue
		}
		if td.DeclaredAnnotations().IsAnnotationPresent(classfile.InheritedAnnotation) {
			out = append(out, a)
		}
	}
	return out
}

// Filter keeps the annotations the predicate accepts, preserving order.
func (l AnnotationList) Filter(pred func(AnnotationDescription) bool) AnnotationList {
	var out AnnotationList
	for _, a := range l {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}

// SubList returns the half-open range [from, to) of the list. The
// bounds follow slicing rules and panic when out of range.
func (l AnnotationList) SubList(from, to int) AnnotationList {
	return l[from:to]
}

// Equal reports whether two lists carry the same annotations in the
// same order: element-wise the same type name and the same stored
// properties. The backing of the descriptions does not matter.
func (l AnnotationList) Equal(other AnnotationList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i].TypeName() != other[i].TypeName() {
			return false
		}
		a, b := l[i].Values(), other[i].Values()
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j].Name != b[j].Name || !a[j].Value.Equal(b[j].Value) {
				return false
			}
		}
	}
	return true
}

// TypeNames returns the annotation type names in list order.
func (l AnnotationList) TypeNames() []string {
	out := make([]string, len(l))
	for i, a := range l {
		out[i] = a.TypeName()
	}
	return out
}

// AsLists wraps one annotation group per source element, preserving
// the positional correspondence between sources and their annotations.
func AsLists(resolver TypeResolver, groups [][]classfile.Annotation) []AnnotationList {
	out := make([]AnnotationList, len(groups))
	for i, g := range groups {
		out[i] = Annotations(resolver, g)
	}
	return out
}
