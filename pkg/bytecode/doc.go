// Package bytecode defines the instruction set and code chunk format used
// by generated method bodies.
//
// A Chunk holds a flat code section plus a typed constant pool; symbolic
// references to types and members are pool entries, never inline strings.
// The Assembler is the only sanctioned way to produce code: it tracks the
// simulated operand stack so every chunk carries a trustworthy MaxStack,
// and it refuses structurally impossible emissions outright.
//
// The package deliberately knows nothing about classes or class files;
// those live in pkg/classfile.
package bytecode
