// Package describe provides a uniform, read-only structural view over
// classes, methods, parameters and annotations, independent of whether
// the underlying class is already linked in a loader or only exists as
// parsed class file metadata.
//
// Every description kind has a loaded-backed variant and a pool-backed
// variant; both must answer every query identically for the same class.
// Callers dispatch through the shared interfaces and never branch on
// which backing exists. Descriptions are immutable views and never
// mutate the class they mirror.
package describe

import (
	"fmt"
	"strings"

	"github.com/Shredder121/byte-buddy/loader"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// TypeResolver resolves binary type names to descriptions. The loaded
// variants resolve through a class loader, the pool variants through a
// type pool; the descriptions themselves are agnostic.
type TypeResolver interface {
	Describe(name string) (TypeDescription, error)
}

// TypeDescription is the read-only view of a class.
type TypeDescription interface {
	// Name returns the binary name.
	Name() string

	// SimpleName returns the name without its namespace.
	SimpleName() string

	Modifiers() classfile.Modifiers
	IsInterface() bool
	IsEnum() bool
	IsAnnotation() bool
	IsAbstract() bool
	IsFinal() bool

	// Superclass resolves the superclass description; both results are
	// nil for the root class.
	Superclass() (TypeDescription, error)

	// Interfaces resolves the directly implemented interfaces.
	Interfaces() ([]TypeDescription, error)

	// SuperclassName returns the declared superclass name without
	// resolving it; empty for the root class.
	SuperclassName() string

	// InterfaceNames returns the declared interface names.
	InterfaceNames() []string

	// DeclaredMethods lists methods declared by this exact type.
	DeclaredMethods() MethodList

	// DeclaredAnnotations lists annotations declared on the type.
	DeclaredAnnotations() AnnotationList

	// InheritedAnnotations lists the type's own annotations plus the
	// inheritable annotations of its superclass chain, nearest first.
	InheritedAnnotations() AnnotationList

	// EnumConstants returns constant names in ordinal order; empty for
	// non-enumeration types.
	EnumConstants() []string

	// Resolver returns the resolver descriptions derived from this one
	// should use.
	Resolver() TypeResolver
}

// ---------------------------------------------------------------------------
// Shared core over a decoded class file
// ---------------------------------------------------------------------------

// fileView implements every TypeDescription query over a decoded class
// file plus a resolver. Both backing variants embed it.
type fileView struct {
	file     *classfile.File
	resolver TypeResolver
}

func (v fileView) Name() string                   { return v.file.Name }
func (v fileView) Modifiers() classfile.Modifiers { return v.file.Modifiers }
func (v fileView) IsInterface() bool              { return v.file.Modifiers.Has(classfile.ModInterface) }
func (v fileView) IsEnum() bool                   { return v.file.Modifiers.Has(classfile.ModEnum) }
func (v fileView) IsAnnotation() bool             { return v.file.Modifiers.Has(classfile.ModAnnotation) }
func (v fileView) IsAbstract() bool               { return v.file.Modifiers.Has(classfile.ModAbstract) }
func (v fileView) IsFinal() bool                  { return v.file.Modifiers.Has(classfile.ModFinal) }
func (v fileView) SuperclassName() string         { return v.file.Superclass }
func (v fileView) InterfaceNames() []string       { return v.file.Interfaces }
func (v fileView) EnumConstants() []string        { return v.file.EnumConstants }
func (v fileView) Resolver() TypeResolver         { return v.resolver }

func (v fileView) SimpleName() string {
	name := v.file.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (v fileView) Superclass() (TypeDescription, error) {
	if v.file.Superclass == "" {
		return nil, nil
	}
	td, err := v.resolver.Describe(v.file.Superclass)
	if err != nil {
		return nil, fmt.Errorf("describe: superclass of %s: %w", v.file.Name, err)
	}
	return td, nil
}

func (v fileView) Interfaces() ([]TypeDescription, error) {
	if len(v.file.Interfaces) == 0 {
		return nil, nil
	}
	out := make([]TypeDescription, len(v.file.Interfaces))
	for i, name := range v.file.Interfaces {
		td, err := v.resolver.Describe(name)
		if err != nil {
			return nil, fmt.Errorf("describe: interface %s of %s: %w", name, v.file.Name, err)
		}
		out[i] = td
	}
	return out, nil
}

func (v fileView) DeclaredMethods() MethodList {
	out := make(MethodList, len(v.file.Methods))
	for i := range v.file.Methods {
		out[i] = &methodView{
			declaring: v.file.Name,
			method:    &v.file.Methods[i],
			resolver:  v.resolver,
		}
	}
	return out
}

func (v fileView) DeclaredAnnotations() AnnotationList {
	return Annotations(v.resolver, v.file.Annotations)
}

func (v fileView) InheritedAnnotations() AnnotationList {
	result := v.DeclaredAnnotations()
	ignored := make(map[string]struct{}, result.Size())
	for _, a := range result {
		ignored[a.TypeName()] = struct{}{}
	}
	super, err := v.Superclass()
	for err == nil && super != nil {
		inherited := super.DeclaredAnnotations().Inherited(ignored)
		for _, a := range inherited {
			result = append(result, a)
			ignored[a.TypeName()] = struct{}{}
		}
		super, err = super.Superclass()
	}
	return result
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

// PoolType is the pool-backed variant: a view over parsed class file
// metadata, resolved through a type pool.
type PoolType struct {
	fileView
}

// ForFile creates a pool-backed type description over a decoded file.
func ForFile(file *classfile.File, resolver TypeResolver) *PoolType {
	return &PoolType{fileView{file: file, resolver: resolver}}
}

// LoadedType is the loaded-backed variant: a view over a class linked in
// a class loader, resolved through that loader.
type LoadedType struct {
	fileView
	class *loader.Class
}

// OfClass creates a loaded-backed type description.
func OfClass(c *loader.Class) *LoadedType {
	return &LoadedType{
		fileView: fileView{file: c.File(), resolver: loaderResolver{cl: c.Loader()}},
		class:    c,
	}
}

// Class returns the linked class behind this description.
func (t *LoadedType) Class() *loader.Class {
	return t.class
}

// loaderResolver resolves names through a class loader's delegation
// chain.
type loaderResolver struct {
	cl *loader.ClassLoader
}

func (r loaderResolver) Describe(name string) (TypeDescription, error) {
	c, err := r.cl.Load(name)
	if err != nil {
		return nil, err
	}
	return OfClass(c), nil
}

// ResolverFor exposes a class loader as a TypeResolver.
func ResolverFor(cl *loader.ClassLoader) TypeResolver {
	return loaderResolver{cl: cl}
}

// ---------------------------------------------------------------------------
// Hierarchy queries
// ---------------------------------------------------------------------------

// IsAssignableFrom reports whether values of type source can be treated
// as values of type target, walking source's superclass chain and
// interfaces through the descriptions' resolvers.
func IsAssignableFrom(target, source TypeDescription) (bool, error) {
	if target.Name() == source.Name() || target.Name() == classfile.ObjectClass {
		return true, nil
	}
	cur := source
	for cur != nil {
		if cur.Name() == target.Name() {
			return true, nil
		}
		for _, ifaceName := range cur.InterfaceNames() {
			if ifaceName == target.Name() {
				return true, nil
			}
			iface, err := cur.Resolver().Describe(ifaceName)
			if err != nil {
				return false, err
			}
			if ok, err := IsAssignableFrom(target, iface); err != nil || ok {
				return ok, err
			}
		}
		super, err := cur.Superclass()
		if err != nil {
			return false, err
		}
		cur = super
	}
	return false, nil
}

// Equal reports whether two type descriptions describe the same class,
// independent of backing variant.
func Equal(a, b TypeDescription) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name() == b.Name()
}
