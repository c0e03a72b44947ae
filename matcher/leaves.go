package matcher

import (
	"path"
	"strings"

	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// NamedElement is anything with a name. Types, methods and parameters
// all qualify.
type NamedElement interface {
	Name() string
}

// ModifiedElement is anything carrying modifier flags.
type ModifiedElement interface {
	Modifiers() classfile.Modifiers
}

// AnnotatedElement is anything carrying declared annotations.
type AnnotatedElement interface {
	DeclaredAnnotations() describe.AnnotationList
}

// Named matches elements with exactly the given name.
func Named[T NamedElement](name string) Matcher[T] {
	return Fn[T](func(target T) bool { return target.Name() == name })
}

// NameStartsWith matches elements whose name has the given prefix.
func NameStartsWith[T NamedElement](prefix string) Matcher[T] {
	return Fn[T](func(target T) bool { return strings.HasPrefix(target.Name(), prefix) })
}

// NameEndsWith matches elements whose name has the given suffix.
func NameEndsWith[T NamedElement](suffix string) Matcher[T] {
	return Fn[T](func(target T) bool { return strings.HasSuffix(target.Name(), suffix) })
}

// NameGlob matches element names against a shell-style pattern. A
// malformed pattern matches nothing.
func NameGlob[T NamedElement](pattern string) Matcher[T] {
	return Fn[T](func(target T) bool {
		ok, err := path.Match(pattern, target.Name())
		return err == nil && ok
	})
}

// WithModifiers matches elements carrying every flag in the mask.
func WithModifiers[T ModifiedElement](mask classfile.Modifiers) Matcher[T] {
	return Fn[T](func(target T) bool { return target.Modifiers().Has(mask) })
}

// IsAnnotatedWith matches elements declaring an annotation of the
// given type.
func IsAnnotatedWith[T AnnotatedElement](typeName string) Matcher[T] {
	return Fn[T](func(target T) bool {
		return target.DeclaredAnnotations().IsAnnotationPresent(typeName)
	})
}

// ---------------------------------------------------------------------------
// Type matchers
// ---------------------------------------------------------------------------

// IsInterface matches interface types.
func IsInterface() Matcher[describe.TypeDescription] {
	return Fn[describe.TypeDescription](describe.TypeDescription.IsInterface)
}

// IsSubTypeOf matches types assignable to the named type. Unresolvable
// hierarchies do not match.
func IsSubTypeOf(name string) Matcher[describe.TypeDescription] {
	return Fn[describe.TypeDescription](func(td describe.TypeDescription) bool {
		target, err := td.Resolver().Describe(name)
		if err != nil {
			return false
		}
		ok, err := describe.IsAssignableFrom(target, td)
		return err == nil && ok
	})
}

// ---------------------------------------------------------------------------
// Method matchers
// ---------------------------------------------------------------------------

// DeclaredBy matches methods declared by the named type.
func DeclaredBy(typeName string) Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](func(md describe.MethodDescription) bool {
		return md.DeclaringTypeName() == typeName
	})
}

// TakesArguments matches methods with exactly the given arity.
func TakesArguments(count int) Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](func(md describe.MethodDescription) bool {
		return md.Parameters().Size() == count
	})
}

// TakesTypes matches methods whose parameter type names equal the given
// sequence.
func TakesTypes(names ...string) Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](func(md describe.MethodDescription) bool {
		params := md.Parameters()
		if params.Size() != len(names) {
			return false
		}
		for i, p := range params {
			if p.TypeName() != names[i] {
				return false
			}
		}
		return true
	})
}

// Returns matches methods with the given declared return type name.
// The empty string matches void methods.
func Returns(typeName string) Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](func(md describe.MethodDescription) bool {
		return md.ReturnTypeName() == typeName
	})
}

// IsConstructor matches constructors.
func IsConstructor() Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](describe.MethodDescription.IsConstructor)
}

// IsStaticInitializer matches static initializers.
func IsStaticInitializer() Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](describe.MethodDescription.IsStaticInitializer)
}

// IsOverridable matches methods a subclass may reimplement.
func IsOverridable() Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](describe.MethodDescription.IsOverridable)
}

// IsVirtual matches callable instance methods, excluding constructors
// and initializers.
func IsVirtual() Matcher[describe.MethodDescription] {
	return Fn[describe.MethodDescription](func(md describe.MethodDescription) bool {
		return !md.IsStatic() && !md.IsConstructor() && !md.IsStaticInitializer()
	})
}
