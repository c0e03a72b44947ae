package bind

import (
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// Annotation types interpreted by the binder. Targets place these on
// their parameters and methods to steer how they are bound.
const (
	// ArgumentAnnotation binds a parameter to one positional source
	// argument; its value member names the source index.
	ArgumentAnnotation = "bind.Argument"

	// ThisAnnotation binds a parameter to the intercepted instance.
	ThisAnnotation = "bind.This"

	// AllArgumentsAnnotation binds a parameter to an array holding all
	// source arguments in order.
	AllArgumentsAnnotation = "bind.AllArguments"

	// IgnoreForBindingAnnotation excludes a target method from
	// candidacy altogether.
	IgnoreForBindingAnnotation = "bind.IgnoreForBinding"

	// BindingPriorityAnnotation assigns an explicit priority to a
	// target; higher values dominate ambiguity resolution.
	BindingPriorityAnnotation = "bind.BindingPriority"
)

// DefaultPriority is the priority of targets without an explicit
// BindingPriority annotation.
const DefaultPriority int64 = 1

// AnnotationTypes returns declarations of the binder's annotation
// types. Resolvers consulted during binding must know these types;
// loaders and pools that host delegation targets seed them from here.
func AnnotationTypes() []*classfile.File {
	marker := func(name string) *classfile.File {
		return &classfile.File{
			Name:       name,
			Superclass: classfile.ObjectClass,
			Modifiers:  classfile.ModPublic | classfile.ModAnnotation | classfile.ModAbstract,
		}
	}
	withValue := func(name, valueType string, def *classfile.Value) *classfile.File {
		f := marker(name)
		f.Methods = []classfile.Method{{
			Name:       "value",
			Modifiers:  classfile.ModPublic | classfile.ModAbstract,
			ReturnType: valueType,
			Default:    def,
		}}
		return f
	}
	priorityDefault := classfile.IntValue(DefaultPriority)
	return []*classfile.File{
		withValue(ArgumentAnnotation, classfile.IntClass, nil),
		marker(ThisAnnotation),
		marker(AllArgumentsAnnotation),
		marker(IgnoreForBindingAnnotation),
		withValue(BindingPriorityAnnotation, classfile.IntClass, &priorityDefault),
	}
}

// ---------------------------------------------------------------------------
// Binding construction
// ---------------------------------------------------------------------------

// Bind computes the binding of the intercepted source method to one
// candidate target. It returns Illegal whenever any target parameter
// cannot be filled or a type check fails; binding never returns an
// error, an unbindable target simply loses candidacy.
func Bind(source, target describe.MethodDescription) Binding {
	b := &methodBinding{
		source:   source,
		target:   target,
		tokens:   make(map[any]int),
		priority: priorityOf(target),
	}

	// Parameters without a binder annotation consume the next unbound
	// source argument in declaration order.
	nextDefault := 0

	for _, param := range target.Parameters() {
		pb, defaultUsed, ok := bindParameter(source, param, nextDefault)
		if !ok {
			return Illegal
		}
		if defaultUsed {
			nextDefault++
		}
		if pb.token != nil {
			if _, dup := b.tokens[pb.token]; dup {
				return Illegal
			}
			b.tokens[pb.token] = param.Index()
		}
		b.params = append(b.params, pb)
	}

	if !returnCompatible(source, target) {
		return Illegal
	}
	return b
}

func bindParameter(source describe.MethodDescription, param describe.ParameterDescription, nextDefault int) (parameterBinding, bool, bool) {
	annotations := param.DeclaredAnnotations()

	if ann := annotations.OfType(ArgumentAnnotation); ann != nil {
		loadable, err := ann.Prepare()
		if err != nil {
			return parameterBinding{}, false, false
		}
		index := int(loadable.Int("value"))
		pb, ok := bindArgument(source, param, index, ArgumentToken{Index: index})
		return pb, false, ok
	}

	if annotations.IsAnnotationPresent(ThisAnnotation) {
		if source.IsStatic() {
			return parameterBinding{}, false, false
		}
		if !assignable(param.TypeName(), source.DeclaringTypeName(), source.Resolver()) {
			return parameterBinding{}, false, false
		}
		return parameterBinding{
			token:      ThisToken{},
			sourceType: source.DeclaringTypeName(),
			emit: func(asm *bytecode.Assembler) {
				asm.Emit(bytecode.OpLoadThis)
			},
		}, false, true
	}

	if annotations.IsAnnotationPresent(AllArgumentsAnnotation) {
		if param.TypeName() != classfile.ArrayClass {
			return parameterBinding{}, false, false
		}
		count := source.Parameters().Size()
		return parameterBinding{
			token:      AllArgumentsToken{},
			sourceType: classfile.ArrayClass,
			emit: func(asm *bytecode.Assembler) {
				for i := 0; i < count; i++ {
					asm.EmitLoadArg(i)
				}
				asm.EmitNewArray(count)
			},
		}, false, true
	}

	pb, ok := bindArgument(source, param, nextDefault, ArgumentToken{Index: nextDefault})
	return pb, true, ok
}

func bindArgument(source describe.MethodDescription, param describe.ParameterDescription, index int, token any) (parameterBinding, bool) {
	sourceParams := source.Parameters()
	if index < 0 || index >= sourceParams.Size() {
		return parameterBinding{}, false
	}
	sourceType := sourceParams[index].TypeName()
	if !assignable(param.TypeName(), sourceType, source.Resolver()) {
		return parameterBinding{}, false
	}
	return parameterBinding{
		token:      token,
		sourceType: sourceType,
		emit: func(asm *bytecode.Assembler) {
			asm.EmitLoadArg(index)
		},
	}, true
}

func returnCompatible(source, target describe.MethodDescription) bool {
	if source.ReturnTypeName() == "" {
		// The source discards the result, every target return works.
		return true
	}
	if target.ReturnTypeName() == "" {
		return false
	}
	return assignable(source.ReturnTypeName(), target.ReturnTypeName(), target.Resolver())
}

// assignable reports whether a value of type sourceName satisfies
// targetName. Unresolvable hierarchies fail the check.
func assignable(targetName, sourceName string, resolver describe.TypeResolver) bool {
	if targetName == sourceName || targetName == classfile.ObjectClass {
		return true
	}
	target, err := resolver.Describe(targetName)
	if err != nil {
		return false
	}
	source, err := resolver.Describe(sourceName)
	if err != nil {
		return false
	}
	ok, err := describe.IsAssignableFrom(target, source)
	return err == nil && ok
}

func priorityOf(target describe.MethodDescription) int64 {
	ann := target.DeclaredAnnotations().OfType(BindingPriorityAnnotation)
	if ann == nil {
		return DefaultPriority
	}
	loadable, err := ann.Prepare()
	if err != nil {
		return DefaultPriority
	}
	return loadable.Int("value")
}
