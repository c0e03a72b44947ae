package dynamic

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// MethodNameTransformer renames a rebased method's original
// implementation.
type MethodNameTransformer interface {
	Transform(name string) string
}

// TransformerFn adapts a function to a MethodNameTransformer.
type TransformerFn func(name string) string

func (f TransformerFn) Transform(name string) string { return f(name) }

// Suffixing appends an original-marker and the given seed to the
// method name. Reserved name brackets are stripped first.
func Suffixing(seed string) MethodNameTransformer {
	return TransformerFn(func(name string) string {
		return fmt.Sprintf("%s$original$%s", strings.Trim(name, "<>"), seed)
	})
}

// RandomSuffixing is Suffixing with a random seed, giving rebased
// names that cannot clash with user declarations across repeated
// rebasings.
func RandomSuffixing() MethodNameTransformer {
	return Suffixing(uuid.NewString()[:8])
}

// Prefixing prepends a fixed prefix to the method name.
func Prefixing(prefix string) MethodNameTransformer {
	return TransformerFn(func(name string) string {
		return prefix + strings.Trim(name, "<>")
	})
}

// Rebase starts a builder that rewrites an existing class in place.
// Intercepted methods keep their public slot with the new
// implementation while the original body moves to a renamed private
// method, so generated code can still reach it.
func Rebase(file *classfile.File, resolver describe.TypeResolver, transformer MethodNameTransformer) *Builder {
	copied := *file
	copied.Methods = append([]classfile.Method(nil), file.Methods...)
	copied.Annotations = append([]classfile.Annotation(nil), file.Annotations...)
	copied.Fields = append([]classfile.Field(nil), file.Fields...)
	return &Builder{
		kind:          kindRebase,
		resolver:      resolver,
		file:          &copied,
		nameTransform: transformer,
	}
}

func (b *Builder) assembleRebase() error {
	if b.nameTransform == nil {
		b.nameTransform = RandomSuffixing()
	}

	var rebasedConstructor bool
	rebased := make([]classfile.Method, 0, len(b.file.Methods))

	for i := range b.file.Methods {
		original := b.file.Methods[i]
		method := describe.MethodFor(b.file.Name, &b.file.Methods[i], b.resolver)
		impl, matched := b.implementationFor(method)
		if !matched || original.Code == nil {
			rebased = append(rebased, original)
			continue
		}

		movedName := b.nameTransform.Transform(original.Name)
		if oc, ok := impl.(originalCaller); ok {
			impl = ImplementationFn(func(m describe.MethodDescription) (*bytecode.Chunk, error) {
				return oc.implementRelocated(m, movedName)
			})
		}

		generated, err := b.generate(method, impl)
		if err != nil {
			return err
		}
		generated.Name = original.Name

		moved := original
		moved.Name = movedName
		moved.Modifiers = (original.Modifiers &^ classfile.ModPublic) |
			classfile.ModPrivate | classfile.ModSynthetic
		moved.Annotations = nil

		if original.IsConstructor() {
			rebasedConstructor = true
			generated.Name = classfile.ConstructorName
		}

		rebased = append(rebased, generated, moved)
	}
	b.file.Methods = rebased

	// A rebased constructor keeps both bodies reachable under the same
	// reserved name space; a placeholder type disambiguates the moved
	// variant the way an extra trailing parameter would.
	if rebasedConstructor {
		placeholder, err := placeholderType(b.file.Name)
		if err != nil {
			return err
		}
		b.auxiliaries = append(b.auxiliaries, placeholder)
	}
	return nil
}

// placeholderType assembles an empty marker class with a random name.
func placeholderType(owner string) (AuxiliaryType, error) {
	name := fmt.Sprintf("%s$placeholder$%s", owner, uuid.NewString()[:8])
	data, err := classfile.Marshal(&classfile.File{
		Name:       name,
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModSynthetic | classfile.ModFinal,
	})
	if err != nil {
		return AuxiliaryType{}, fmt.Errorf("dynamic: placeholder for %s: %w", owner, err)
	}
	return AuxiliaryType{Name: name, Bytes: data}, nil
}
