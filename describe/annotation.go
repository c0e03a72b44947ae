package describe

import (
	"fmt"

	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// AnnotationDescription is the read-only view of one annotation
// occurrence. It exposes the raw stored properties; a typed view with
// default values filled in is obtained through Prepare.
type AnnotationDescription interface {
	// TypeName returns the binary name of the annotation class.
	TypeName() string

	// Type resolves the annotation class description.
	Type() (TypeDescription, error)

	// Values returns the explicitly stored properties in declaration
	// order.
	Values() []classfile.AnnotationValue

	// Value looks up an explicitly stored property by name.
	Value(name string) (classfile.Value, bool)

	// Prepare resolves the annotation class and produces the typed view,
	// validating every stored property against the declared members and
	// filling in declared defaults. Preparation fails when the class is
	// not an annotation, a stored property does not match a declared
	// member, or a member has neither a stored value nor a default.
	Prepare() (*Loadable, error)
}

type annotationView struct {
	ann      *classfile.Annotation
	resolver TypeResolver
}

func (a *annotationView) TypeName() string { return a.ann.TypeName }

func (a *annotationView) Type() (TypeDescription, error) {
	return a.resolver.Describe(a.ann.TypeName)
}

func (a *annotationView) Values() []classfile.AnnotationValue {
	return a.ann.Values
}

func (a *annotationView) Value(name string) (classfile.Value, bool) {
	return a.ann.Value(name)
}

// AnnotationFor creates a description of a single annotation occurrence
// resolved through the given resolver.
func AnnotationFor(ann *classfile.Annotation, resolver TypeResolver) AnnotationDescription {
	return &annotationView{ann: ann, resolver: resolver}
}

// ---------------------------------------------------------------------------
// Typed view
// ---------------------------------------------------------------------------

// Loadable is the prepared, typed view of an annotation. Every declared
// member is resolvable, either to a stored value or to its default.
// Accessors panic on unknown members or kind mismatches; preparation
// has already validated the annotation, so such access is a programming
// error.
type Loadable struct {
	typeName string
	members  map[string]classfile.Value
	order    []string
}

// TypeName returns the binary name of the annotation class.
func (l *Loadable) TypeName() string { return l.typeName }

// MemberNames returns the declared member names in declaration order.
func (l *Loadable) MemberNames() []string { return l.order }

// Get returns the resolved value of a declared member.
func (l *Loadable) Get(name string) classfile.Value {
	v, ok := l.members[name]
	if !ok {
		panic(fmt.Sprintf("describe: annotation %s has no member %q", l.typeName, name))
	}
	return v
}

func (l *Loadable) kind(name string, want classfile.ValueKind) classfile.Value {
	v := l.Get(name)
	if v.Kind != want {
		panic(fmt.Sprintf("describe: annotation %s member %q holds %v, not %v",
			l.typeName, name, v.Kind, want))
	}
	return v
}

// Bool returns a boolean member.
func (l *Loadable) Bool(name string) bool {
	return l.kind(name, classfile.KindBool).Bool
}

// Int returns an integer member.
func (l *Loadable) Int(name string) int64 {
	return l.kind(name, classfile.KindInt).Int
}

// Float returns a floating point member.
func (l *Loadable) Float(name string) float64 {
	return l.kind(name, classfile.KindFloat).Float
}

// String returns a string member.
func (l *Loadable) String(name string) string {
	return l.kind(name, classfile.KindString).Str
}

// TypeRef returns a class reference member as a binary name.
func (l *Loadable) TypeRef(name string) string {
	return l.kind(name, classfile.KindType).TypeName
}

// Enum returns an enumeration member as its type name and constant.
func (l *Loadable) Enum(name string) (string, string) {
	v := l.kind(name, classfile.KindEnum)
	if v.Enum == nil {
		return "", ""
	}
	return v.Enum.TypeName, v.Enum.Name
}

// Array returns an array member.
func (l *Loadable) Array(name string) []classfile.Value {
	return l.kind(name, classfile.KindArray).Array
}

func (a *annotationView) Prepare() (*Loadable, error) {
	td, err := a.Type()
	if err != nil {
		return nil, fmt.Errorf("describe: preparing @%s: %w", a.ann.TypeName, err)
	}
	if !td.IsAnnotation() {
		return nil, fmt.Errorf("describe: %s is not an annotation type", a.ann.TypeName)
	}

	declared := make(map[string]MethodDescription)
	var order []string
	for _, m := range td.DeclaredMethods() {
		if m.IsConstructor() || m.IsStaticInitializer() || m.IsStatic() {
			continue
		}
		declared[m.Name()] = m
		order = append(order, m.Name())
	}

	members := make(map[string]classfile.Value, len(declared))
	for _, av := range a.ann.Values {
		member, ok := declared[av.Name]
		if !ok {
			return nil, fmt.Errorf("describe: @%s declares no member %q", a.ann.TypeName, av.Name)
		}
		if err := checkMemberKind(a.resolver, member, av.Value); err != nil {
			return nil, fmt.Errorf("describe: @%s member %q: %w", a.ann.TypeName, av.Name, err)
		}
		members[av.Name] = av.Value
	}
	for name, member := range declared {
		if _, ok := members[name]; ok {
			continue
		}
		def, ok := member.Default()
		if !ok {
			return nil, fmt.Errorf("describe: @%s member %q has no value and no default",
				a.ann.TypeName, name)
		}
		members[name] = def
	}

	return &Loadable{typeName: a.ann.TypeName, members: members, order: order}, nil
}

// checkMemberKind verifies that a stored value matches the declared
// member's return type.
func checkMemberKind(resolver TypeResolver, member MethodDescription, v classfile.Value) error {
	want, err := kindForMemberType(resolver, member.ReturnTypeName())
	if err != nil {
		return err
	}
	if v.Kind != want {
		return fmt.Errorf("holds %v, declared as %v", v.Kind, want)
	}
	return nil
}

func kindForMemberType(resolver TypeResolver, typeName string) (classfile.ValueKind, error) {
	switch typeName {
	case classfile.BoolClass:
		return classfile.KindBool, nil
	case classfile.IntClass:
		return classfile.KindInt, nil
	case classfile.FloatClass:
		return classfile.KindFloat, nil
	case classfile.StringClass:
		return classfile.KindString, nil
	case classfile.ArrayClass:
		return classfile.KindArray, nil
	case classfile.ClassClass:
		return classfile.KindType, nil
	}
	td, err := resolver.Describe(typeName)
	if err != nil {
		return 0, fmt.Errorf("resolving member type %s: %w", typeName, err)
	}
	switch {
	case td.IsEnum():
		return classfile.KindEnum, nil
	case td.IsAnnotation():
		return classfile.KindAnnotation, nil
	}
	return 0, fmt.Errorf("unsupported annotation member type %s", typeName)
}
