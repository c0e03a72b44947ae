// Package bind implements annotation driven method delegation: given an
// intercepted source method and a set of candidate target methods, it
// computes how each target's parameters are filled from the source
// invocation and selects the most appropriate target.
package bind

import (
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/pkg/bytecode"
)

// Binding describes how one target method is invoked in place of an
// intercepted source method. A binding is either valid or the Illegal
// singleton; only valid bindings may be inspected or applied.
type Binding interface {
	// IsValid reports whether the binding can be applied.
	IsValid() bool

	// Target returns the bound target method.
	Target() describe.MethodDescription

	// TargetParameterIndex returns the target parameter bound under the
	// given identification token.
	TargetParameterIndex(token any) (int, bool)

	// Apply emits the full delegation, loads for every target parameter
	// followed by the invocation and the return.
	Apply(asm *bytecode.Assembler)
}

// Illegal is the singleton non-binding. It reports invalid and panics
// on every other access; consulting an illegal binding's target is a
// programming error, not a recoverable condition.
var Illegal Binding = illegalBinding{}

type illegalBinding struct{}

func (illegalBinding) IsValid() bool { return false }

func (illegalBinding) Target() describe.MethodDescription {
	panic("bind: target of an illegal binding")
}

func (illegalBinding) TargetParameterIndex(any) (int, bool) {
	panic("bind: parameter index of an illegal binding")
}

func (illegalBinding) Apply(*bytecode.Assembler) {
	panic("bind: applying an illegal binding")
}

// ---------------------------------------------------------------------------

// parameterBinding is the resolved assignment of one target parameter.
type parameterBinding struct {
	// token identifies the binding for ambiguity resolution; nil for
	// anonymous assignments.
	token any

	// sourceType is the name of the value's type as seen by the source
	// method, used for specificity comparison.
	sourceType string

	emit func(asm *bytecode.Assembler)
}

// methodBinding is a valid binding of one target method.
type methodBinding struct {
	source   describe.MethodDescription
	target   describe.MethodDescription
	params   []parameterBinding
	tokens   map[any]int
	priority int64
}

func (b *methodBinding) IsValid() bool                      { return true }
func (b *methodBinding) Target() describe.MethodDescription { return b.target }

func (b *methodBinding) TargetParameterIndex(token any) (int, bool) {
	i, ok := b.tokens[token]
	return i, ok
}

func (b *methodBinding) Apply(asm *bytecode.Assembler) {
	if !b.target.IsStatic() {
		asm.Emit(bytecode.OpLoadThis)
	}
	for i := range b.params {
		b.params[i].emit(asm)
	}
	op := bytecode.OpInvoke
	if b.target.IsStatic() {
		op = bytecode.OpInvokeStatic
	}
	asm.EmitInvoke(op, b.target.Name(), len(b.params))
	asm.Emit(bytecode.OpReturn)
}

// ---------------------------------------------------------------------------
// Identification tokens
// ---------------------------------------------------------------------------

// ArgumentToken identifies a target parameter bound to one source
// argument.
type ArgumentToken struct {
	Index int
}

// ThisToken identifies a target parameter bound to the intercepted
// instance.
type ThisToken struct{}

// AllArgumentsToken identifies a target parameter bound to the packed
// source argument array.
type AllArgumentsToken struct{}
