package attr

import (
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// TypeAppender writes annotations onto a class under construction.
type TypeAppender interface {
	Apply(target *classfile.File, instrumented describe.TypeDescription)
}

// MethodAppender writes annotations onto a method under construction.
type MethodAppender interface {
	Apply(target *classfile.Method, method describe.MethodDescription)
}

// ---------------------------------------------------------------------------
// No-op
// ---------------------------------------------------------------------------

type noOpType struct{}

func (noOpType) Apply(*classfile.File, describe.TypeDescription) {}

type noOpMethod struct{}

func (noOpMethod) Apply(*classfile.Method, describe.MethodDescription) {}

// NoOpType returns the no-op type appender.
func NoOpType() TypeAppender { return noOpType{} }

// NoOpMethod returns the no-op method appender.
func NoOpMethod() MethodAppender { return noOpMethod{} }

// ---------------------------------------------------------------------------
// Explicit annotations
// ---------------------------------------------------------------------------

// ForAnnotations appends the given annotations to a type, skipping
// annotation types the target already carries.
func ForAnnotations(annotations describe.AnnotationList, vf ValueFilter) TypeAppender {
	return typeAppenderFn(func(target *classfile.File, _ describe.TypeDescription) {
		appendAnnotations(&target.Annotations, annotations, vf)
	})
}

// ForMethodAnnotations appends the given annotations to a method,
// skipping annotation types the target already carries.
func ForMethodAnnotations(annotations describe.AnnotationList, vf ValueFilter) MethodAppender {
	return methodAppenderFn(func(target *classfile.Method, _ describe.MethodDescription) {
		appendAnnotations(&target.Annotations, annotations, vf)
	})
}

// ---------------------------------------------------------------------------
// Instrumented element
// ---------------------------------------------------------------------------

// ForInstrumentedType copies the instrumented type's declared
// annotations onto the target, used when a rewritten class must retain
// its visible attributes.
func ForInstrumentedType(vf ValueFilter) TypeAppender {
	return typeAppenderFn(func(target *classfile.File, instrumented describe.TypeDescription) {
		appendAnnotations(&target.Annotations, instrumented.DeclaredAnnotations(), vf)
	})
}

// ForSuperType copies the inheritable annotations of the instrumented
// type's superclass chain onto the target.
func ForSuperType(vf ValueFilter) TypeAppender {
	return typeAppenderFn(func(target *classfile.File, instrumented describe.TypeDescription) {
		super, err := instrumented.Superclass()
		if err != nil || super == nil {
			return
		}
		inheritable := super.InheritedAnnotations().Inherited(nil)
		appendAnnotations(&target.Annotations, inheritable, vf)
	})
}

// ForInstrumentedMethod copies the intercepted method's declared
// annotations onto the target method.
func ForInstrumentedMethod(vf ValueFilter) MethodAppender {
	return methodAppenderFn(func(target *classfile.Method, method describe.MethodDescription) {
		appendAnnotations(&target.Annotations, method.DeclaredAnnotations(), vf)
	})
}

// ---------------------------------------------------------------------------
// Compound
// ---------------------------------------------------------------------------

// CompoundType applies type appenders in order.
func CompoundType(appenders ...TypeAppender) TypeAppender {
	return typeAppenderFn(func(target *classfile.File, instrumented describe.TypeDescription) {
		for _, a := range appenders {
			a.Apply(target, instrumented)
		}
	})
}

// CompoundMethod applies method appenders in order.
func CompoundMethod(appenders ...MethodAppender) MethodAppender {
	return methodAppenderFn(func(target *classfile.Method, method describe.MethodDescription) {
		for _, a := range appenders {
			a.Apply(target, method)
		}
	})
}

// ---------------------------------------------------------------------------

type typeAppenderFn func(*classfile.File, describe.TypeDescription)

func (f typeAppenderFn) Apply(t *classfile.File, i describe.TypeDescription) { f(t, i) }

type methodAppenderFn func(*classfile.Method, describe.MethodDescription)

func (f methodAppenderFn) Apply(t *classfile.Method, m describe.MethodDescription) { f(t, m) }

func appendAnnotations(dst *[]classfile.Annotation, src describe.AnnotationList, vf ValueFilter) {
	present := make(map[string]struct{}, len(*dst))
	for _, existing := range *dst {
		present[existing.TypeName] = struct{}{}
	}
	for _, ann := range src {
		if _, dup := present[ann.TypeName()]; dup {
			continue
		}
		*dst = append(*dst, filterAnnotation(ann, vf))
		present[ann.TypeName()] = struct{}{}
	}
}
