package dynamic

import (
	"fmt"

	"github.com/Shredder121/byte-buddy/bind"
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
)

// Implementation produces the body of an intercepted method.
type Implementation interface {
	Implement(method describe.MethodDescription) (*bytecode.Chunk, error)
}

// ImplementationFn adapts a function to an Implementation.
type ImplementationFn func(method describe.MethodDescription) (*bytecode.Chunk, error)

func (f ImplementationFn) Implement(method describe.MethodDescription) (*bytecode.Chunk, error) {
	return f(method)
}

// Stub implements every method as an immediate nil return.
func Stub() Implementation {
	return ImplementationFn(func(method describe.MethodDescription) (*bytecode.Chunk, error) {
		asm := bytecode.NewAssembler(method.Parameters().Size())
		asm.Emit(bytecode.OpReturnNil)
		return asm.Chunk(), nil
	})
}

// SuperMethodCall forwards every invocation to the superclass
// implementation with the original arguments.
func SuperMethodCall() Implementation {
	return ImplementationFn(func(method describe.MethodDescription) (*bytecode.Chunk, error) {
		if method.IsStatic() {
			return nil, fmt.Errorf("dynamic: no super call for static %s", method.Name())
		}
		argc := method.Parameters().Size()
		asm := bytecode.NewAssembler(argc)
		asm.Emit(bytecode.OpLoadThis)
		for i := 0; i < argc; i++ {
			asm.EmitLoadArg(i)
		}
		asm.EmitInvoke(bytecode.OpInvokeSuper, method.Name(), argc)
		asm.Emit(bytecode.OpReturn)
		return asm.Chunk(), nil
	})
}

// originalCaller is the hook the rebasing assembly uses to hand an
// implementation the name of the relocated original body.
type originalCaller interface {
	implementRelocated(method describe.MethodDescription, movedName string) (*bytecode.Chunk, error)
}

// OriginalMethodCall forwards every invocation to the relocated
// original body with the original arguments. It only works while
// rebasing; plain subclassing has no relocated body to call.
func OriginalMethodCall() Implementation {
	return originalMethodCall{}
}

type originalMethodCall struct{}

func (originalMethodCall) Implement(method describe.MethodDescription) (*bytecode.Chunk, error) {
	return nil, fmt.Errorf("dynamic: %s has no relocated body outside a rebase", method.Name())
}

func (originalMethodCall) implementRelocated(method describe.MethodDescription, movedName string) (*bytecode.Chunk, error) {
	argc := method.Parameters().Size()
	asm := bytecode.NewAssembler(argc)
	if method.IsStatic() {
		for i := 0; i < argc; i++ {
			asm.EmitLoadArg(i)
		}
		asm.EmitInvoke(bytecode.OpInvokeStatic, movedName, argc)
	} else {
		asm.Emit(bytecode.OpLoadThis)
		for i := 0; i < argc; i++ {
			asm.EmitLoadArg(i)
		}
		asm.EmitInvoke(bytecode.OpInvoke, movedName, argc)
	}
	asm.Emit(bytecode.OpReturn)
	return asm.Chunk(), nil
}

// Delegation routes every intercepted method to the best matching
// method of the delegate type through the binder. A method no delegate
// can serve fails the build.
func Delegation(delegate describe.TypeDescription, resolvers ...bind.AmbiguityResolver) Implementation {
	processor := bind.NewProcessor(resolvers...)
	targets := delegate.DeclaredMethods()
	return ImplementationFn(func(method describe.MethodDescription) (*bytecode.Chunk, error) {
		binding, err := processor.Process(method, targets)
		if err != nil {
			return nil, fmt.Errorf("dynamic: delegating %s to %s: %w",
				method.Name(), delegate.Name(), err)
		}
		asm := bytecode.NewAssembler(method.Parameters().Size())
		binding.Apply(asm)
		return asm.Chunk(), nil
	})
}

// FixedValue implements every method as a constant return.
func FixedValue(v classfile.Value) Implementation {
	return ImplementationFn(func(method describe.MethodDescription) (*bytecode.Chunk, error) {
		asm := bytecode.NewAssembler(method.Parameters().Size())
		switch v.Kind {
		case classfile.KindBool:
			if v.Bool {
				asm.Emit(bytecode.OpConstTrue)
			} else {
				asm.EmitConst(bytecode.Constant{Kind: bytecode.ConstBool})
			}
		case classfile.KindInt:
			asm.EmitConst(bytecode.Int(v.Int))
		case classfile.KindFloat:
			asm.EmitConst(bytecode.Constant{Kind: bytecode.ConstFloat, Float: v.Float})
		case classfile.KindString:
			asm.EmitConst(bytecode.String(v.Str))
		default:
			return nil, fmt.Errorf("dynamic: unsupported fixed value kind %v", v.Kind)
		}
		asm.Emit(bytecode.OpReturn)
		return asm.Chunk(), nil
	})
}

// ---------------------------------------------------------------------------
// Constructor bodies
// ---------------------------------------------------------------------------

// defaultConstructorChunk calls the no-argument super constructor.
func defaultConstructorChunk() *bytecode.Chunk {
	asm := bytecode.NewAssembler(0)
	asm.Emit(bytecode.OpLoadThis)
	asm.EmitInvoke(bytecode.OpInvokeSuper, classfile.ConstructorName, 0)
	asm.Emit(bytecode.OpPop)
	asm.Emit(bytecode.OpReturnNil)
	return asm.Chunk()
}

// imitatingConstructorChunk forwards all arguments to the matching
// super constructor.
func imitatingConstructorChunk(argc int) *bytecode.Chunk {
	asm := bytecode.NewAssembler(argc)
	asm.Emit(bytecode.OpLoadThis)
	for i := 0; i < argc; i++ {
		asm.EmitLoadArg(i)
	}
	asm.EmitInvoke(bytecode.OpInvokeSuper, classfile.ConstructorName, argc)
	asm.Emit(bytecode.OpPop)
	asm.Emit(bytecode.OpReturnNil)
	return asm.Chunk()
}
