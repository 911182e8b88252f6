package stackvm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of code, one
// instruction per line, in the style of txscript's DisasmScript. It
// does not execute code: PUSH operand bytes are rendered as hex, and
// decoding stops (returning an error alongside whatever was
// disassembled so far) at the first structurally invalid instruction.
func Disassemble(code []byte) (string, error) {
	var b strings.Builder
	pc := 0
	for pc < len(code) {
		op := Opcode(code[pc])
		if !op.valid() {
			return b.String(), haltErr(pc, op, ErrUnknownOpcode)
		}
		if op == OpPUSH {
			if pc+1 >= len(code) {
				return b.String(), haltErr(pc, op, ErrTruncatedOperand)
			}
			n := int(code[pc+1])
			if pc+2+n > len(code) {
				return b.String(), haltErr(pc, op, ErrTruncatedOperand)
			}
			fmt.Fprintf(&b, "%04d: PUSH %x\n", pc, code[pc+2:pc+2+n])
			pc += 2 + n
			continue
		}
		fmt.Fprintf(&b, "%04d: %s\n", pc, op.String())
		pc++
	}
	return b.String(), nil
}
