package describe

import (
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// MethodDescription is the read-only view of a method or constructor.
type MethodDescription interface {
	Name() string

	// Key returns the name/arity identity used for overload resolution.
	Key() string

	// DeclaringTypeName returns the binary name of the declaring class.
	DeclaringTypeName() string

	// DeclaringType resolves the declaring class description.
	DeclaringType() (TypeDescription, error)

	Modifiers() classfile.Modifiers
	ReturnTypeName() string

	// ReturnType resolves the return type; both results are nil for
	// void methods.
	ReturnType() (TypeDescription, error)

	Parameters() ParameterList
	DeclaredAnnotations() AnnotationList

	IsConstructor() bool
	IsStaticInitializer() bool
	IsStatic() bool
	IsAbstract() bool
	IsFinal() bool
	IsPrivate() bool

	// IsOverridable reports whether a subclass may provide its own
	// implementation of this method.
	IsOverridable() bool

	// Default returns the declared default value of an annotation
	// member, if any.
	Default() (classfile.Value, bool)

	Resolver() TypeResolver
}

// methodView backs both variants; they differ only in resolver.
type methodView struct {
	declaring string
	method    *classfile.Method
	resolver  TypeResolver
}

func (m *methodView) Name() string                   { return m.method.Name }
func (m *methodView) Key() string                    { return m.method.Key() }
func (m *methodView) DeclaringTypeName() string      { return m.declaring }
func (m *methodView) Modifiers() classfile.Modifiers { return m.method.Modifiers }
func (m *methodView) ReturnTypeName() string         { return m.method.ReturnType }
func (m *methodView) IsConstructor() bool            { return m.method.IsConstructor() }
func (m *methodView) IsStaticInitializer() bool      { return m.method.IsStaticInitializer() }
func (m *methodView) IsStatic() bool                 { return m.method.Modifiers.Has(classfile.ModStatic) }
func (m *methodView) IsAbstract() bool               { return m.method.Modifiers.Has(classfile.ModAbstract) }
func (m *methodView) IsFinal() bool                  { return m.method.Modifiers.Has(classfile.ModFinal) }
func (m *methodView) IsPrivate() bool                { return m.method.Modifiers.Has(classfile.ModPrivate) }
func (m *methodView) Resolver() TypeResolver         { return m.resolver }

func (m *methodView) DeclaringType() (TypeDescription, error) {
	return m.resolver.Describe(m.declaring)
}

func (m *methodView) ReturnType() (TypeDescription, error) {
	if m.method.ReturnType == "" {
		return nil, nil
	}
	return m.resolver.Describe(m.method.ReturnType)
}

func (m *methodView) Parameters() ParameterList {
	out := make(ParameterList, len(m.method.Parameters))
	for i := range m.method.Parameters {
		out[i] = &parameterView{
			owner:    m,
			param:    &m.method.Parameters[i],
			index:    i,
			resolver: m.resolver,
		}
	}
	return out
}

func (m *methodView) DeclaredAnnotations() AnnotationList {
	return Annotations(m.resolver, m.method.Annotations)
}

func (m *methodView) IsOverridable() bool {
	return !m.IsStatic() && !m.IsFinal() && !m.IsPrivate() &&
		!m.IsConstructor() && !m.IsStaticInitializer()
}

func (m *methodView) Default() (classfile.Value, bool) {
	if m.method.Default == nil {
		return classfile.Value{}, false
	}
	return *m.method.Default, true
}

// MethodFor creates a description of a single method declared by the
// named class, resolved through the given resolver.
func MethodFor(declaring string, method *classfile.Method, resolver TypeResolver) MethodDescription {
	return &methodView{declaring: declaring, method: method, resolver: resolver}
}

// MethodsEqual reports whether two descriptions name the same method of
// the same class, independent of backing variant.
func MethodsEqual(a, b MethodDescription) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.DeclaringTypeName() == b.DeclaringTypeName() && a.Key() == b.Key()
}

// ---------------------------------------------------------------------------
// Method lists
// ---------------------------------------------------------------------------

// MethodList is an ordered collection of method descriptions.
type MethodList []MethodDescription

// Size returns the number of methods in the list.
func (l MethodList) Size() int { return len(l) }

// Filter keeps the methods the predicate accepts, preserving order.
func (l MethodList) Filter(pred func(MethodDescription) bool) MethodList {
	var out MethodList
	for _, m := range l {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// Named keeps the methods with the given name.
func (l MethodList) Named(name string) MethodList {
	return l.Filter(func(m MethodDescription) bool { return m.Name() == name })
}

// Only returns the single element of the list and panics when the list
// does not hold exactly one method. Callers use it after a filter that
// is known to be unique.
func (l MethodList) Only() MethodDescription {
	if len(l) != 1 {
		panic("describe: expected exactly one method")
	}
	return l[0]
}
