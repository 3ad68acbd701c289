package asm

import (
	"strings"

	"github.com/hexaflex/cvm/arch"
	"github.com/hexaflex/cvm/devices/fffe/cpu"
)

// operand defines a classified instruction operand.
type operand struct {
	kind cpu.OperandKind
	reg  int    // Register code for Register and RIndirect operands.
	expr string // Value expression for Immediate and Indirect operands.
}

// parseOperand classifies the given operand text.
//
//	A         register
//	(A)       address held in a register
//	(expr)    absolute address
//	expr      literal value
func parseOperand(s string) operand {
	if code := arch.RegisterIndex(s); code > -1 {
		return operand{kind: cpu.Register, reg: code}
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if code := arch.RegisterIndex(inner); code > -1 {
			return operand{kind: cpu.RIndirect, reg: code}
		}
		return operand{kind: cpu.Indirect, expr: inner}
	}

	return operand{kind: cpu.Immediate, expr: s}
}

// addressMode returns the address mode selected by the given operands.
func addressMode(ops []operand) arch.AddressMode {
	if len(ops) == 1 {
		return arch.Immediate + arch.AddressMode(ops[0].kind)
	}
	return arch.AddressMode(ops[0].kind)*4 + arch.AddressMode(ops[1].kind)
}

// encodedLen returns the number of bytes the operand occupies.
// Literals occupy immWidth bytes.
func (o operand) encodedLen(immWidth int) int {
	switch o.kind {
	case cpu.Register, cpu.RIndirect:
		return 1
	case cpu.Indirect:
		return 4
	}
	return immWidth
}
