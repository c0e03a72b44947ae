package loader

import (
	"fmt"

	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// Bootstrap creates a bootstrap-level loader pre-populated with the core
// classes of the target runtime: the root object class, the primitive
// wrapper classes and the annotation marker types. Every other loader
// should delegate to one of these, directly or transitively.
func Bootstrap() *ClassLoader {
	cl := NewClassLoader("bootstrap", nil)
	for _, file := range coreClasses() {
		data, err := classfile.Marshal(file)
		if err != nil {
			panic(fmt.Sprintf("loader: marshal core class %s: %v", file.Name, err))
		}
		if _, err := cl.Define(file.Name, data, nil); err != nil {
			panic(fmt.Sprintf("loader: define core class %s: %v", file.Name, err))
		}
	}
	return cl
}

func coreClasses() []*classfile.File {
	object := &classfile.File{
		Name:      classfile.ObjectClass,
		Modifiers: classfile.ModPublic,
		Methods: []classfile.Method{
			{Name: classfile.ConstructorName, Modifiers: classfile.ModPublic, Code: emptyConstructor()},
			{Name: "equals", Modifiers: classfile.ModPublic, ReturnType: classfile.BoolClass,
				Parameters: []classfile.Parameter{{Name: "other", TypeName: classfile.ObjectClass}}},
			{Name: "hash", Modifiers: classfile.ModPublic, ReturnType: classfile.IntClass},
			{Name: "asString", Modifiers: classfile.ModPublic, ReturnType: classfile.StringClass},
		},
	}

	wrapper := func(name string) *classfile.File {
		return &classfile.File{
			Name:       name,
			Superclass: classfile.ObjectClass,
			Modifiers:  classfile.ModPublic | classfile.ModFinal,
		}
	}

	inherited := &classfile.File{
		Name:       classfile.InheritedAnnotation,
		Superclass: classfile.ObjectClass,
		Modifiers:  classfile.ModPublic | classfile.ModAnnotation | classfile.ModAbstract,
	}

	return []*classfile.File{
		object,
		wrapper(classfile.StringClass),
		wrapper(classfile.IntClass),
		wrapper(classfile.FloatClass),
		wrapper(classfile.BoolClass),
		wrapper(classfile.ArrayClass),
		wrapper(classfile.ClassClass),
		inherited,
	}
}

func emptyConstructor() *bytecode.Chunk {
	a := bytecode.NewAssembler(0)
	a.Emit(bytecode.OpReturnNil)
	return a.Chunk()
}
