// Package arch defines the system's instruction set along with
// some related helper functions.
package arch

import "strings"

// Known opcodes. Opcodes from 61 through 255 are unassigned.
const (
	NOP = iota
	MOV
	CMP
	CMPS
	JMP
	JE
	JNE
	JG
	JGE
	JL
	JLE
	CALL
	CALLE
	CALLNE
	CALLG
	CALLGE
	CALLL
	CALLLE
	INTR
	RET
	IRET
	CLI
	STI
	INC
	DEC
	ADD
	SUB
	MUL
	DIV
	MOD
	NOT
	AND
	OR
	XOR
	SHL
	SHR
	PUSH
	POP
	PUSHA
	POPA
	ADDS
	SUBS
	MULS
	DIVS
	MODS
	NOTS
	ANDS
	ORS
	XORS
	SHLS
	SHRS
	MMSET
	MMCPY
	INB
	INW
	INQ
	OUTB
	OUTW
	OUTQ
	LDIDT
	HLT

	// OpcodeCount is the number of named opcodes.
	OpcodeCount
)

// OpcodeSpace is the size of the opcode dispatch space.
const OpcodeSpace = 256

var opcodeNames = [OpcodeCount]string{
	"NOP", "MOV", "CMP", "CMPS",
	"JMP", "JE", "JNE", "JG", "JGE", "JL", "JLE",
	"CALL", "CALLE", "CALLNE", "CALLG", "CALLGE", "CALLL", "CALLLE",
	"INTR",
	"RET", "IRET",
	"CLI", "STI",
	"INC", "DEC",
	"ADD", "SUB", "MUL", "DIV", "MOD",
	"NOT", "AND", "OR", "XOR", "SHL", "SHR",
	"PUSH", "POP", "PUSHA", "POPA",
	"ADDS", "SUBS", "MULS", "DIVS", "MODS",
	"NOTS", "ANDS", "ORS", "XORS", "SHLS", "SHRS",
	"MMSET", "MMCPY",
	"INB", "INW", "INQ",
	"OUTB", "OUTW", "OUTQ",
	"LDIDT",
	"HLT",
}

var opcodeIndex = func() map[string]int {
	m := make(map[string]int, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// Opcode returns the opcode for the given instruction name.
// Returns false if the name is not recognized.
func Opcode(name string) (int, bool) {
	op, ok := opcodeIndex[strings.ToUpper(name)]
	return op, ok
}

// Name returns the name for the given opcode.
// Returns false if the opcode is not recognized.
func Name(opcode int) (string, bool) {
	if opcode < 0 || opcode >= OpcodeCount {
		return "", false
	}
	return opcodeNames[opcode], true
}

// HasMode returns true if the instruction is followed by an addressing mode byte.
// Instructions without operands are encoded as a lone opcode byte.
func HasMode(opcode int) bool {
	switch opcode {
	case NOP, RET, IRET, CLI, STI, HLT, PUSHA, POPA:
		return false
	}
	return true
}
