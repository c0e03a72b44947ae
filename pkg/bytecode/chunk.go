package bytecode

import "fmt"

// ChunkVersion is the current chunk format version.
// Increment when making incompatible changes to the format.
const ChunkVersion uint16 = 1

// ConstKind identifies the type of a constant pool entry.
type ConstKind uint8

const (
	// ConstNil is the nil constant.
	ConstNil ConstKind = 0

	// ConstBool is a boolean constant.
	ConstBool ConstKind = 1

	// ConstInt is a 64-bit integer constant.
	ConstInt ConstKind = 2

	// ConstFloat is a 64-bit float constant.
	ConstFloat ConstKind = 3

	// ConstString is a string constant.
	ConstString ConstKind = 4

	// ConstName is a symbolic reference to a type, method or field by name.
	ConstName ConstKind = 5
)

// String returns a human-readable name for ConstKind.
func (k ConstKind) String() string {
	switch k {
	case ConstNil:
		return "nil"
	case ConstBool:
		return "bool"
	case ConstInt:
		return "int"
	case ConstFloat:
		return "float"
	case ConstString:
		return "string"
	case ConstName:
		return "name"
	default:
		return fmt.Sprintf("ConstKind(%d)", k)
	}
}

// Constant is a single constant pool entry.
type Constant struct {
	Kind  ConstKind `cbor:"1,keyasint"`
	Bool  bool      `cbor:"2,keyasint,omitempty"`
	Int   int64     `cbor:"3,keyasint,omitempty"`
	Float float64   `cbor:"4,keyasint,omitempty"`
	Str   string    `cbor:"5,keyasint,omitempty"`
}

// Name creates a symbolic name constant.
func Name(name string) Constant {
	return Constant{Kind: ConstName, Str: name}
}

// String creates a string constant.
func String(s string) Constant {
	return Constant{Kind: ConstString, Str: s}
}

// Int creates an integer constant.
func Int(i int64) Constant {
	return Constant{Kind: ConstInt, Int: i}
}

// Chunk represents compiled bytecode for a single method body.
// It is the fundamental unit of code that can be serialized inside a
// class file.
type Chunk struct {
	// Header
	Version uint16 `cbor:"1,keyasint"`

	// Code section
	Code []byte `cbor:"2,keyasint"`

	// Constant pool referenced by OpConst and the symbolic operands of
	// field and invocation opcodes.
	Constants []Constant `cbor:"3,keyasint,omitempty"`

	// Signature information
	ArgCount   int `cbor:"4,keyasint"`
	LocalCount int `cbor:"5,keyasint"`

	// MaxStack is the maximal operand stack depth reached by Code, as
	// computed by the assembler.
	MaxStack int `cbor:"6,keyasint"`
}

// NewChunk creates a new empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		Version: ChunkVersion,
		Code:    make([]byte, 0, 32),
	}
}

// AddConstant adds a constant to the pool and returns its index.
// If an equal constant already exists, returns the existing index.
func (c *Chunk) AddConstant(value Constant) uint16 {
	for i, existing := range c.Constants {
		if existing == value {
			return uint16(i)
		}
	}
	c.Constants = append(c.Constants, value)
	return uint16(len(c.Constants) - 1)
}

// GetConstant returns the constant at the given index.
// Panics if index is out of range.
func (c *Chunk) GetConstant(index int) Constant {
	if index < 0 || index >= len(c.Constants) {
		panic("bytecode.Chunk.GetConstant: index out of range")
	}
	return c.Constants[index]
}

// ConstantCount returns the number of constant pool entries.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// Validate checks structural well-formedness of the chunk: every opcode
// must be known, operands must not run past the end of the code section
// and constant indices must stay inside the pool.
func (c *Chunk) Validate() error {
	pc := 0
	for pc < len(c.Code) {
		op := Opcode(c.Code[pc])
		width := op.OperandWidth()
		if width < 0 {
			return fmt.Errorf("bytecode: unknown opcode 0x%02x at offset %d", byte(op), pc)
		}
		if pc+1+width > len(c.Code) {
			return fmt.Errorf("bytecode: truncated operands for %s at offset %d", op, pc)
		}
		switch op {
		case OpConst, OpGetField, OpPutField, OpGetStatic, OpPutStatic,
			OpInvoke, OpInvokeSuper, OpInvokeStatic, OpInvokeCtor,
			OpNewInstance, OpBootstrap:
			index := int(c.Code[pc+1])<<8 | int(c.Code[pc+2])
			if index >= len(c.Constants) {
				return fmt.Errorf("bytecode: constant index %d out of range for %s at offset %d", index, op, pc)
			}
		}
		pc += 1 + width
	}
	return nil
}
