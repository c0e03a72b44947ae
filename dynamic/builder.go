package dynamic

import (
	"errors"
	"fmt"

	"github.com/Shredder121/byte-buddy/attr"
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/matcher"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// Builder accumulates the shape of one dynamic type. Configuration
// errors are collected and surface from Make; intermediate calls never
// fail.
type Builder struct {
	kind     builderKind
	resolver describe.TypeResolver
	strategy ConstructorStrategy
	file     *classfile.File

	interceptions []interception
	typeAppenders []attr.TypeAppender
	initializers  map[string]LoadedTypeInitializer
	auxiliaries   []AuxiliaryType
	nameTransform MethodNameTransformer
	errs          []error
}

type interception struct {
	match matcher.Matcher[describe.MethodDescription]
	impl  Implementation
}

// Name renames the type under construction.
func (b *Builder) Name(name string) *Builder {
	b.file.Name = name
	return b
}

// Implement adds directly implemented interfaces.
func (b *Builder) Implement(interfaces ...string) *Builder {
	b.file.Interfaces = append(b.file.Interfaces, interfaces...)
	return b
}

// WithModifiers replaces the type modifiers.
func (b *Builder) WithModifiers(m classfile.Modifiers) *Builder {
	b.file.Modifiers = m
	return b
}

// DefineField adds a field declaration.
func (b *Builder) DefineField(name, typeName string, mods classfile.Modifiers) *Builder {
	b.file.Fields = append(b.file.Fields, classfile.Field{
		Name:      name,
		TypeName:  typeName,
		Modifiers: mods,
	})
	return b
}

// DefineMethod adds a method declaration verbatim.
func (b *Builder) DefineMethod(m classfile.Method) *Builder {
	b.file.Methods = append(b.file.Methods, m)
	return b
}

// DefineMember adds an annotation member with an optional default.
// Only meaningful on annotation builders.
func (b *Builder) DefineMember(name, typeName string, def *classfile.Value) *Builder {
	if b.kind != kindAnnotation {
		b.errs = append(b.errs, fmt.Errorf("dynamic: %s: members require an annotation type", b.file.Name))
		return b
	}
	b.file.Methods = append(b.file.Methods, classfile.Method{
		Name:       name,
		Modifiers:  classfile.ModPublic | classfile.ModAbstract,
		ReturnType: typeName,
		Default:    def,
	})
	return b
}

// WithFlags sets additional class file flags on the output.
func (b *Builder) WithFlags(flags uint32) *Builder {
	b.file.Flags |= flags
	return b
}

// Annotate appends type level annotations through an appender.
func (b *Builder) Annotate(appender attr.TypeAppender) *Builder {
	b.typeAppenders = append(b.typeAppenders, appender)
	return b
}

// Method registers an interception for every matched method. When
// several interceptions match one method the most recent registration
// wins.
func (b *Builder) Method(m matcher.Matcher[describe.MethodDescription]) *MethodInterception {
	return &MethodInterception{builder: b, match: m}
}

// MethodInterception pairs a matcher with its pending implementation.
type MethodInterception struct {
	builder *Builder
	match   matcher.Matcher[describe.MethodDescription]
}

// Intercept completes the interception with an implementation.
func (mi *MethodInterception) Intercept(impl Implementation) *Builder {
	mi.builder.interceptions = append(mi.builder.interceptions, interception{
		match: mi.match,
		impl:  impl,
	})
	return mi.builder
}

// RequireInitializer attaches an initializer to the primary type.
func (b *Builder) RequireInitializer(init LoadedTypeInitializer) *Builder {
	if !init.IsAlive() {
		return b
	}
	if b.initializers == nil {
		b.initializers = make(map[string]LoadedTypeInitializer)
	}
	if prior, ok := b.initializers[b.file.Name]; ok {
		b.initializers[b.file.Name] = CompoundInitializer{prior, init}
	} else {
		b.initializers[b.file.Name] = init
	}
	return b
}

// ---------------------------------------------------------------------------
// Assembly
// ---------------------------------------------------------------------------

// Make assembles the type and returns its unloaded representation. All
// configuration errors collected along the way surface here.
func (b *Builder) Make() (*Unloaded, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	switch b.kind {
	case kindSubclass:
		if err := b.assembleSubclass(); err != nil {
			return nil, err
		}
	case kindEnumeration:
		if len(b.file.EnumConstants) == 0 {
			return nil, fmt.Errorf("dynamic: enumeration %s needs at least one constant", b.file.Name)
		}
	case kindRebase:
		if err := b.assembleRebase(); err != nil {
			return nil, err
		}
	}

	if err := b.applyAppenders(); err != nil {
		return nil, err
	}

	data, err := classfile.Marshal(b.file)
	if err != nil {
		return nil, fmt.Errorf("dynamic: assembling %s: %w", b.file.Name, err)
	}
	return &Unloaded{
		name:         b.file.Name,
		bytes:        data,
		auxiliaries:  b.auxiliaries,
		initializers: b.initializers,
	}, nil
}

func (b *Builder) assembleSubclass() error {
	super, err := b.resolver.Describe(b.file.Superclass)
	if err != nil {
		return fmt.Errorf("dynamic: superclass of %s: %w", b.file.Name, err)
	}
	if super.IsFinal() {
		return fmt.Errorf("dynamic: cannot subclass final %s", super.Name())
	}
	if super.IsInterface() {
		return fmt.Errorf("dynamic: %s is an interface, implement it instead", super.Name())
	}

	if err := b.addConstructors(super); err != nil {
		return err
	}
	return b.interceptOverridable(super)
}

func (b *Builder) addConstructors(super describe.TypeDescription) error {
	switch b.strategy {
	case NoConstructors:
		return nil
	case DefaultConstructor:
		b.file.Methods = append(b.file.Methods, classfile.Method{
			Name:      classfile.ConstructorName,
			Modifiers: classfile.ModPublic,
			Code:      defaultConstructorChunk(),
		})
		return nil
	case ImitateSuperclass:
		ctors := super.DeclaredMethods().Filter(describe.MethodDescription.IsConstructor)
		for _, ctor := range ctors {
			if ctor.IsPrivate() {
				continue
			}
			params := make([]classfile.Parameter, ctor.Parameters().Size())
			for i, p := range ctor.Parameters() {
				params[i] = classfile.Parameter{Name: p.Name(), TypeName: p.TypeName()}
			}
			b.file.Methods = append(b.file.Methods, classfile.Method{
				Name:       classfile.ConstructorName,
				Modifiers:  classfile.ModPublic,
				Parameters: params,
				Code:       imitatingConstructorChunk(len(params)),
			})
		}
		return nil
	default:
		return fmt.Errorf("dynamic: unknown constructor strategy %d", b.strategy)
	}
}

// interceptOverridable walks the super hierarchy, collects every
// overridable method once by its key and generates an override for
// each one an interception matches.
func (b *Builder) interceptOverridable(super describe.TypeDescription) error {
	if len(b.interceptions) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var overridable describe.MethodList
	for cur := super; cur != nil; {
		for _, m := range cur.DeclaredMethods() {
			if _, dup := seen[m.Key()]; dup {
				continue
			}
			seen[m.Key()] = struct{}{}
			if m.IsOverridable() {
				overridable = append(overridable, m)
			}
		}
		next, err := cur.Superclass()
		if err != nil {
			return fmt.Errorf("dynamic: hierarchy of %s: %w", b.file.Name, err)
		}
		cur = next
	}

	for _, method := range overridable {
		impl, matched := b.implementationFor(method)
		if !matched {
			continue
		}
		generated, err := b.generate(method, impl)
		if err != nil {
			return err
		}
		b.file.Methods = append(b.file.Methods, generated)
	}
	return nil
}

// implementationFor picks the implementation of the most recent
// matching interception.
func (b *Builder) implementationFor(method describe.MethodDescription) (Implementation, bool) {
	for i := len(b.interceptions) - 1; i >= 0; i-- {
		if b.interceptions[i].match.Matches(method) {
			return b.interceptions[i].impl, true
		}
	}
	return nil, false
}

func (b *Builder) generate(method describe.MethodDescription, impl Implementation) (classfile.Method, error) {
	chunk, err := impl.Implement(method)
	if err != nil {
		return classfile.Method{}, fmt.Errorf("dynamic: implementing %s.%s: %w",
			b.file.Name, method.Name(), err)
	}
	params := make([]classfile.Parameter, method.Parameters().Size())
	for i, p := range method.Parameters() {
		params[i] = classfile.Parameter{Name: p.Name(), TypeName: p.TypeName()}
	}
	return classfile.Method{
		Name:       method.Name(),
		Modifiers:  method.Modifiers() &^ classfile.ModAbstract,
		ReturnType: method.ReturnTypeName(),
		Parameters: params,
		Code:       chunk,
	}, nil
}

func (b *Builder) applyAppenders() error {
	if len(b.typeAppenders) == 0 {
		return nil
	}
	instrumented, err := b.instrumentedDescription()
	if err != nil {
		return err
	}
	attr.CompoundType(b.typeAppenders...).Apply(b.file, instrumented)
	return nil
}

// instrumentedDescription exposes the type under construction to the
// appenders, with hierarchy queries resolved through the builder's
// resolver.
func (b *Builder) instrumentedDescription() (describe.TypeDescription, error) {
	return describe.ForFile(b.file, b.resolver), nil
}
