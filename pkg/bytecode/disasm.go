package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders the chunk's code section as human-readable text,
// one instruction per line. Used by the inspect command and in tests.
func Disassemble(c *Chunk) string {
	var b strings.Builder

	pc := 0
	for pc < len(c.Code) {
		op := Opcode(c.Code[pc])
		width := op.OperandWidth()
		if width < 0 || pc+1+width > len(c.Code) {
			fmt.Fprintf(&b, "%04d  <malformed 0x%02x>\n", pc, byte(op))
			break
		}
		fmt.Fprintf(&b, "%04d  %-14s", pc, op.String())
		switch width {
		case 1:
			fmt.Fprintf(&b, " %d", c.Code[pc+1])
		case 2:
			index := int(c.Code[pc+1])<<8 | int(c.Code[pc+2])
			fmt.Fprintf(&b, " %s", formatConstant(c, index))
		case 3:
			index := int(c.Code[pc+1])<<8 | int(c.Code[pc+2])
			fmt.Fprintf(&b, " %s argc=%d", formatConstant(c, index), c.Code[pc+3])
		}
		b.WriteByte('\n')
		pc += 1 + width
	}
	return b.String()
}

func formatConstant(c *Chunk, index int) string {
	if index < 0 || index >= len(c.Constants) {
		return fmt.Sprintf("#%d<invalid>", index)
	}
	k := c.Constants[index]
	switch k.Kind {
	case ConstNil:
		return fmt.Sprintf("#%d nil", index)
	case ConstBool:
		return fmt.Sprintf("#%d %t", index, k.Bool)
	case ConstInt:
		return fmt.Sprintf("#%d %d", index, k.Int)
	case ConstFloat:
		return fmt.Sprintf("#%d %g", index, k.Float)
	case ConstString:
		return fmt.Sprintf("#%d %q", index, k.Str)
	case ConstName:
		return fmt.Sprintf("#%d %s", index, k.Str)
	default:
		return fmt.Sprintf("#%d ?", index)
	}
}
