package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop  Opcode = 0x00 // No operation
	OpPop  Opcode = 0x01 // Pop top of stack
	OpDup  Opcode = 0x02 // Duplicate top of stack
	OpSwap Opcode = 0x03 // Swap top two stack elements

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpConst     Opcode = 0x10 // Push constant from pool: OpConst <index:u16>
	OpConstNil  Opcode = 0x11 // Push nil
	OpConstTrue Opcode = 0x12 // Push true
	OpConstZero Opcode = 0x13 // Push integer 0

	// ========================================================================
	// Receiver and arguments (0x20-0x2F)
	// ========================================================================

	OpLoadThis   Opcode = 0x20 // Push the receiver
	OpLoadArg    Opcode = 0x21 // Push argument: OpLoadArg <index:u8>
	OpLoadLocal  Opcode = 0x22 // Push local variable: OpLoadLocal <slot:u8>
	OpStoreLocal Opcode = 0x23 // Pop and store to local: OpStoreLocal <slot:u8>

	// ========================================================================
	// Fields (0x30-0x3F)
	// ========================================================================

	OpGetField  Opcode = 0x30 // Pop receiver, push field value: OpGetField <name_index:u16>
	OpPutField  Opcode = 0x31 // Pop value and receiver, store field: OpPutField <name_index:u16>
	OpGetStatic Opcode = 0x32 // Push static field value: OpGetStatic <name_index:u16>
	OpPutStatic Opcode = 0x33 // Pop and store static field: OpPutStatic <name_index:u16>

	// ========================================================================
	// Invocation (0x40-0x4F)
	// ========================================================================

	OpInvoke       Opcode = 0x40 // Pop receiver and args, invoke virtually: OpInvoke <name_index:u16> <argc:u8>
	OpInvokeSuper  Opcode = 0x41 // Like OpInvoke but starts lookup in the superclass
	OpInvokeStatic Opcode = 0x42 // Pop args, invoke a static method: OpInvokeStatic <name_index:u16> <argc:u8>
	OpInvokeCtor   Opcode = 0x43 // Pop receiver and args, run a constructor: OpInvokeCtor <name_index:u16> <argc:u8>

	// ========================================================================
	// Aggregates (0x50-0x5F)
	// ========================================================================

	OpNewInstance Opcode = 0x50 // Push a fresh uninitialized instance: OpNewInstance <name_index:u16>
	OpNewArray    Opcode = 0x51 // Pop n values, push an array of them: OpNewArray <count:u8>

	// ========================================================================
	// Return (0x60-0x6F)
	// ========================================================================

	OpReturn    Opcode = 0x60 // Pop and return top of stack
	OpReturnNil Opcode = 0x61 // Return nil

	// ========================================================================
	// Bootstrap (0x70-0x7F)
	// ========================================================================

	// OpBootstrap calls back into the process-wide initializer registry for
	// the named type. It is only ever emitted into static initializers of
	// self-initializing class files.
	OpBootstrap Opcode = 0x70 // OpBootstrap <name_index:u16>
)

// opInfo describes the static shape of an opcode: mnemonic, operand width
// in bytes and net stack effect. Opcodes with a variable effect
// (invocations, array creation) are marked and resolved by the assembler
// from their operands.
type opInfo struct {
	name     string
	operands int
	effect   int
	variable bool
}

var opTable = map[Opcode]opInfo{
	OpNop:  {"nop", 0, 0, false},
	OpPop:  {"pop", 0, -1, false},
	OpDup:  {"dup", 0, 1, false},
	OpSwap: {"swap", 0, 0, false},

	OpConst:     {"const", 2, 1, false},
	OpConstNil:  {"const-nil", 0, 1, false},
	OpConstTrue: {"const-true", 0, 1, false},
	OpConstZero: {"const-zero", 0, 1, false},

	OpLoadThis:   {"load-this", 0, 1, false},
	OpLoadArg:    {"load-arg", 1, 1, false},
	OpLoadLocal:  {"load-local", 1, 1, false},
	OpStoreLocal: {"store-local", 1, -1, false},

	OpGetField:  {"get-field", 2, 0, false},
	OpPutField:  {"put-field", 2, -2, false},
	OpGetStatic: {"get-static", 2, 1, false},
	OpPutStatic: {"put-static", 2, -1, false},

	OpInvoke:       {"invoke", 3, 0, true},
	OpInvokeSuper:  {"invoke-super", 3, 0, true},
	OpInvokeStatic: {"invoke-static", 3, 0, true},
	OpInvokeCtor:   {"invoke-ctor", 3, 0, true},

	OpNewInstance: {"new-instance", 2, 1, false},
	OpNewArray:    {"new-array", 1, 0, true},

	OpReturn:    {"return", 0, -1, false},
	OpReturnNil: {"return-nil", 0, 0, false},

	OpBootstrap: {"bootstrap", 2, 0, false},
}

// String returns the mnemonic for the opcode.
func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("Opcode(0x%02x)", byte(op))
}

// OperandWidth returns the number of operand bytes following the opcode.
// Returns -1 for unknown opcodes.
func (op Opcode) OperandWidth() int {
	if info, ok := opTable[op]; ok {
		return info.operands
	}
	return -1
}

// IsValid reports whether the opcode is part of the instruction set.
func (op Opcode) IsValid() bool {
	_, ok := opTable[op]
	return ok
}
