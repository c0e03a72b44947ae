// Package attr implements attribute appenders, the components that
// write annotations onto synthesized classes and methods. Appenders
// never remove existing attributes; they only add.
package attr

import (
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// ValueFilter decides which explicitly stored annotation properties an
// appender writes. Properties the filter drops fall back to the
// member's declared default on the reading side.
type ValueFilter interface {
	Retain(ann describe.AnnotationDescription, member string, value classfile.Value) bool
}

// FilterFn adapts a function to a ValueFilter.
type FilterFn func(ann describe.AnnotationDescription, member string, value classfile.Value) bool

func (f FilterFn) Retain(ann describe.AnnotationDescription, member string, value classfile.Value) bool {
	return f(ann, member, value)
}

// AppendDefaults retains every stored property, including those equal
// to the member's declared default.
func AppendDefaults() ValueFilter {
	return FilterFn(func(describe.AnnotationDescription, string, classfile.Value) bool {
		return true
	})
}

// SkipDefaults drops stored properties whose value equals the declared
// default of the annotation member. Properties whose declaration
// cannot be resolved are retained.
func SkipDefaults() ValueFilter {
	return FilterFn(func(ann describe.AnnotationDescription, member string, value classfile.Value) bool {
		td, err := ann.Type()
		if err != nil {
			return true
		}
		matches := td.DeclaredMethods().Named(member)
		if matches.Size() != 1 {
			return true
		}
		def, ok := matches[0].Default()
		if !ok {
			return true
		}
		return !value.Equal(def)
	})
}

// filter materializes one annotation description with the filter
// applied to its stored properties.
func filterAnnotation(ann describe.AnnotationDescription, vf ValueFilter) classfile.Annotation {
	out := classfile.Annotation{TypeName: ann.TypeName()}
	for _, av := range ann.Values() {
		if vf.Retain(ann, av.Name, av.Value) {
			out.Values = append(out.Values, av)
		}
	}
	return out
}
