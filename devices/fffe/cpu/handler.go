package cpu

import "github.com/hexaflex/cvm/arch"

// support defines whether an instruction accepts an address mode.
type support byte

const (
	implemented   support = iota // Mode is executed.
	unimplemented                // Mode is valid but not supported (yet).
	impossible                   // Mode can never be encoded for the instruction.
)

// modes is an instruction's address mode support matrix.
type modes [arch.AddressModeCount]support

// allModes returns a matrix with every mode set to s.
func allModes(s support) (m modes) {
	for i := range m {
		m[i] = s
	}
	return
}

// with returns a copy of m with the given modes set to s.
func (m modes) with(s support, list ...arch.AddressMode) modes {
	for _, mode := range list {
		m[mode] = s
	}
	return m
}

// lookup returns the support level for the given mode.
// Unknown modes are impossible.
func (m *modes) lookup(mode arch.AddressMode) support {
	if !mode.Valid() {
		return impossible
	}
	return m[mode]
}

// span returns all modes in [from, to].
func span(from, to arch.AddressMode) []arch.AddressMode {
	list := make([]arch.AddressMode, 0, to-from+1)
	for m := from; m <= to; m++ {
		list = append(list, m)
	}
	return list
}

// Frequently used mode groups.
var (
	unaryModes      = span(arch.Immediate, arch.RIndirect)
	literalDstModes = span(arch.ImmediateImmediate, arch.ImmediateRIndirect)
)

// handler defines an entry of the opcode dispatch table.
type handler struct {
	name  string                   // Mnemonic.
	modes modes                    // Address mode support.
	flags bool                     // Clear Flags before decoding?
	exec  func(*CPU, *Instruction) // Nil for unimplemented opcodes.
}

// newHandlerTable builds the opcode dispatch table. Every slot without an
// exec function faults as unimplemented.
func newHandlerTable() (t [arch.OpcodeSpace]handler) {
	for op := range t {
		t[op].name, _ = arch.Name(op)
	}

	set := func(op int, m modes, exec func(*CPU, *Instruction)) {
		t[op].modes = m
		t[op].exec = exec
	}

	// Relative jumps and calls only take an immediate target so far.
	branch := allModes(impossible).
		with(unimplemented, arch.Register, arch.Indirect, arch.RIndirect).
		with(implemented, arch.Immediate)

	set(arch.NOP, modes{}, (*CPU).opNOP)
	set(arch.MOV, allModes(unimplemented).
		with(impossible, unaryModes...).
		with(impossible, literalDstModes...).
		with(implemented,
			arch.RegisterImmediate, arch.RegisterRegister, arch.RegisterRIndirect,
			arch.IndirectImmediate, arch.IndirectRegister,
			arch.RIndirectImmediate, arch.RIndirectRegister, arch.RIndirectIndirect),
		(*CPU).opMOV)
	set(arch.CMP, allModes(unimplemented).
		with(impossible, unaryModes...).
		with(implemented, arch.RegisterImmediate, arch.IndirectImmediate, arch.RIndirectImmediate),
		(*CPU).opCMP)
	t[arch.CMP].flags = true

	set(arch.JMP, branch, (*CPU).opJMP)
	set(arch.JE, branch, (*CPU).opJE)
	set(arch.JNE, branch, (*CPU).opJNE)
	set(arch.JL, branch, (*CPU).opJL)
	set(arch.CALL, branch, (*CPU).opCALL)
	set(arch.CALLE, branch, (*CPU).opCALLE)
	set(arch.LDIDT, branch, (*CPU).opLDIDT)

	set(arch.RET, modes{}, (*CPU).opRET)
	set(arch.IRET, modes{}, (*CPU).opIRET)
	set(arch.CLI, modes{}, (*CPU).opCLI)
	set(arch.STI, modes{}, (*CPU).opSTI)
	set(arch.HLT, modes{}, (*CPU).opHLT)
	set(arch.PUSHA, modes{}, (*CPU).opPUSHA)
	set(arch.POPA, modes{}, (*CPU).opPOPA)

	set(arch.INC, allModes(impossible).
		with(unimplemented, span(arch.RegisterImmediate, arch.RIndirectRIndirect)...).
		with(unimplemented, arch.Indirect, arch.RIndirect).
		with(implemented, arch.Register),
		(*CPU).opINC)
	set(arch.ADD, allModes(unimplemented).
		with(implemented, arch.RegisterImmediate, arch.RegisterRegister),
		(*CPU).opADD)
	set(arch.MUL, allModes(unimplemented).
		with(implemented, arch.RegisterImmediate),
		(*CPU).opMUL)
	set(arch.OR, allModes(impossible).
		with(unimplemented, span(arch.RegisterRegister, arch.RIndirectRIndirect)...).
		with(implemented, arch.RegisterImmediate),
		(*CPU).opOR)
	set(arch.XOR, allModes(impossible).
		with(unimplemented, span(arch.RegisterImmediate, arch.RIndirectRIndirect)...).
		with(unimplemented, arch.Indirect, arch.RIndirect).
		with(implemented, arch.Register),
		(*CPU).opXOR)
	set(arch.SHL, allModes(impossible).
		with(unimplemented, span(arch.RegisterRegister, arch.RIndirectRIndirect)...).
		with(implemented, arch.RegisterImmediate),
		(*CPU).opSHL)

	set(arch.INB, allModes(unimplemented).
		with(implemented, arch.ImmediateImmediate, arch.ImmediateRegister, arch.ImmediateIndirect),
		(*CPU).opINB)
	set(arch.OUTB, allModes(unimplemented).
		with(implemented, arch.RegisterImmediate),
		(*CPU).opOUTB)

	return
}
