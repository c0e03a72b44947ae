package bytecode

// StackSize describes the stack effect of an emitted instruction sequence:
// the net change in operand stack depth and the maximal depth reached
// relative to the sequence start.
type StackSize struct {
	Net int
	Max int
}

// Then combines two consecutive stack effects.
func (s StackSize) Then(next StackSize) StackSize {
	max := s.Max
	if s.Net+next.Max > max {
		max = s.Net + next.Max
	}
	return StackSize{Net: s.Net + next.Net, Max: max}
}

// Assembler emits instructions into a chunk while tracking the operand
// stack depth. The computed maximum is recorded on the chunk when work
// is finished.
type Assembler struct {
	chunk *Chunk
	depth int
	max   int
}

// NewAssembler creates an assembler targeting a fresh chunk with the
// given argument count.
func NewAssembler(argCount int) *Assembler {
	chunk := NewChunk()
	chunk.ArgCount = argCount
	return &Assembler{chunk: chunk}
}

// Chunk finalizes and returns the assembled chunk.
func (a *Assembler) Chunk() *Chunk {
	a.chunk.MaxStack = a.max
	return a.chunk
}

// Depth returns the current simulated stack depth.
func (a *Assembler) Depth() int {
	return a.depth
}

func (a *Assembler) track(effect int) {
	a.depth += effect
	if a.depth > a.max {
		a.max = a.depth
	}
}

func (a *Assembler) emitByte(b byte) {
	a.chunk.Code = append(a.chunk.Code, b)
}

func (a *Assembler) emitU16(v uint16) {
	a.chunk.Code = append(a.chunk.Code, byte(v>>8), byte(v))
}

// Emit writes an opcode without operands.
// Panics for opcodes that require operands; those have dedicated emitters.
func (a *Assembler) Emit(op Opcode) StackSize {
	info, ok := opTable[op]
	if !ok || info.operands != 0 {
		panic("bytecode.Assembler.Emit: opcode requires operands: " + op.String())
	}
	a.emitByte(byte(op))
	a.track(info.effect)
	return StackSize{Net: info.effect, Max: maxInt(info.effect, 0)}
}

// EmitConst pushes a constant pool entry.
func (a *Assembler) EmitConst(value Constant) StackSize {
	index := a.chunk.AddConstant(value)
	a.emitByte(byte(OpConst))
	a.emitU16(index)
	a.track(1)
	return StackSize{Net: 1, Max: 1}
}

// EmitLoadArg pushes the source argument at the given index.
func (a *Assembler) EmitLoadArg(index int) StackSize {
	if index < 0 || index > 0xFF {
		panic("bytecode.Assembler.EmitLoadArg: index out of range")
	}
	a.emitByte(byte(OpLoadArg))
	a.emitByte(byte(index))
	a.track(1)
	return StackSize{Net: 1, Max: 1}
}

// EmitIndexed writes an opcode taking a single u16 constant index operand
// (field access, instance creation, bootstrap).
func (a *Assembler) EmitIndexed(op Opcode, name string) StackSize {
	info, ok := opTable[op]
	if !ok || info.operands != 2 {
		panic("bytecode.Assembler.EmitIndexed: not an indexed opcode: " + op.String())
	}
	index := a.chunk.AddConstant(Name(name))
	a.emitByte(byte(op))
	a.emitU16(index)
	a.track(info.effect)
	return StackSize{Net: info.effect, Max: maxInt(info.effect, 0)}
}

// EmitInvoke writes an invocation opcode. The stack effect depends on the
// invocation kind: virtual forms consume the receiver and argc arguments,
// static forms only the arguments. Every form pushes one result.
func (a *Assembler) EmitInvoke(op Opcode, name string, argc int) StackSize {
	switch op {
	case OpInvoke, OpInvokeSuper, OpInvokeStatic, OpInvokeCtor:
	default:
		panic("bytecode.Assembler.EmitInvoke: not an invocation opcode: " + op.String())
	}
	if argc < 0 || argc > 0xFF {
		panic("bytecode.Assembler.EmitInvoke: argument count out of range")
	}
	index := a.chunk.AddConstant(Name(name))
	a.emitByte(byte(op))
	a.emitU16(index)
	a.emitByte(byte(argc))
	consumed := argc
	if op != OpInvokeStatic {
		consumed++ // the receiver
	}
	effect := 1 - consumed
	a.track(effect)
	return StackSize{Net: effect, Max: maxInt(effect, 0)}
}

// EmitNewArray pops count values and pushes an array holding them.
func (a *Assembler) EmitNewArray(count int) StackSize {
	if count < 0 || count > 0xFF {
		panic("bytecode.Assembler.EmitNewArray: count out of range")
	}
	a.emitByte(byte(OpNewArray))
	a.emitByte(byte(count))
	effect := 1 - count
	a.track(effect)
	return StackSize{Net: effect, Max: maxInt(effect, 0)}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
