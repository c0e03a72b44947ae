package dynamic

import (
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// ConstructorStrategy decides which constructors a subclass receives.
type ConstructorStrategy int

const (
	// NoConstructors leaves the subclass without constructors. The type
	// cannot be instantiated directly; agents use this for marker and
	// placeholder types.
	NoConstructors ConstructorStrategy = iota

	// DefaultConstructor adds a single no-argument constructor calling
	// the no-argument super constructor, which must exist.
	DefaultConstructor

	// ImitateSuperclass mirrors every visible super constructor with a
	// forwarding implementation.
	ImitateSuperclass
)

func (s ConstructorStrategy) String() string {
	switch s {
	case NoConstructors:
		return "no-constructors"
	case DefaultConstructor:
		return "default-constructor"
	case ImitateSuperclass:
		return "imitate-superclass"
	default:
		return "unknown"
	}
}

type builderKind int

const (
	kindSubclass builderKind = iota
	kindInterface
	kindEnumeration
	kindAnnotation
	kindRebase
)

// Subclass starts a builder for a new class extending the named
// superclass. Constructors are produced according to the strategy.
func Subclass(resolver describe.TypeResolver, name, superName string, strategy ConstructorStrategy) *Builder {
	return &Builder{
		kind:     kindSubclass,
		resolver: resolver,
		strategy: strategy,
		file: &classfile.File{
			Name:       name,
			Superclass: superName,
			Modifiers:  classfile.ModPublic,
		},
	}
}

// Interface starts a builder for a new interface.
func Interface(resolver describe.TypeResolver, name string) *Builder {
	return &Builder{
		kind:     kindInterface,
		resolver: resolver,
		file: &classfile.File{
			Name:      name,
			Modifiers: classfile.ModPublic | classfile.ModInterface | classfile.ModAbstract,
		},
	}
}

// Enumeration starts a builder for a new enumeration with the given
// constants in ordinal order. Building fails without constants.
func Enumeration(resolver describe.TypeResolver, name string, constants ...string) *Builder {
	return &Builder{
		kind:     kindEnumeration,
		resolver: resolver,
		file: &classfile.File{
			Name:          name,
			Superclass:    classfile.ObjectClass,
			Modifiers:     classfile.ModPublic | classfile.ModFinal | classfile.ModEnum,
			EnumConstants: constants,
		},
	}
}

// Annotation starts a builder for a new annotation type. Members are
// added with DefineMember.
func Annotation(resolver describe.TypeResolver, name string) *Builder {
	return &Builder{
		kind:     kindAnnotation,
		resolver: resolver,
		file: &classfile.File{
			Name:       name,
			Superclass: classfile.ObjectClass,
			Modifiers:  classfile.ModPublic | classfile.ModAnnotation | classfile.ModAbstract,
		},
	}
}
