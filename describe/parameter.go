package describe

import (
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// ParameterDescription is the read-only view of a method parameter.
type ParameterDescription interface {
	// Name returns the declared parameter name, which may be empty.
	Name() string

	// Index returns the zero-based position within the parameter list.
	Index() int

	TypeName() string

	// Type resolves the parameter type description.
	Type() (TypeDescription, error)

	// DeclaringMethod returns the method this parameter belongs to.
	DeclaringMethod() MethodDescription

	DeclaredAnnotations() AnnotationList
}

type parameterView struct {
	owner    MethodDescription
	param    *classfile.Parameter
	index    int
	resolver TypeResolver
}

func (p *parameterView) Name() string                       { return p.param.Name }
func (p *parameterView) Index() int                         { return p.index }
func (p *parameterView) TypeName() string                   { return p.param.TypeName }
func (p *parameterView) DeclaringMethod() MethodDescription { return p.owner }

func (p *parameterView) Type() (TypeDescription, error) {
	return p.resolver.Describe(p.param.TypeName)
}

func (p *parameterView) DeclaredAnnotations() AnnotationList {
	return Annotations(p.resolver, p.param.Annotations)
}

// ParameterList is an ordered collection of parameter descriptions.
type ParameterList []ParameterDescription

// Size returns the number of parameters.
func (l ParameterList) Size() int { return len(l) }

// TypeNames returns the declared type name of every parameter in order.
func (l ParameterList) TypeNames() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.TypeName()
	}
	return out
}
