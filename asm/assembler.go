package asm

import (
	"encoding/binary"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hexaflex/cvm/arch"
	"github.com/hexaflex/cvm/devices/fffe/cpu"
)

// Instructions whose operands are preceded by a size byte.
var sizedOps = map[int]bool{
	arch.MOV: true,
	arch.CMP: true,
	arch.ADD: true,
	arch.MUL: true,
	arch.OR:  true,
}

// Instructions which take no size byte. Any instruction in neither set
// accepts an optional size suffix.
var unsizedOps = map[int]bool{
	arch.JMP: true, arch.JE: true, arch.JNE: true, arch.JL: true,
	arch.CALL: true, arch.CALLE: true, arch.LDIDT: true,
	arch.INC: true, arch.XOR: true, arch.SHL: true,
	arch.INB: true, arch.OUTB: true,
}

// assembler holds assembler context. It turns a list of statements into a program.
type assembler struct {
	prog      *Program
	symbols   map[string]int64 // Labels and constants.
	address   uint32           // Address at which the next statement is written.
	breakNext bool             // Set a breakpoint on the next emitted statement?
}

func newAssembler() *assembler {
	return &assembler{
		prog:    &Program{Symbols: make(map[string]uint32)},
		symbols: make(map[string]int64),
	}
}

// assemble compiles the given statements into a program.
func (a *assembler) assemble(list []*statement) (*Program, error) {
	if err := a.resolveLabels(list); err != nil {
		return nil, err
	}

	if err := a.compile(list); err != nil {
		return nil, err
	}

	return a.prog, nil
}

// resolveLabels computes the address of every label and evaluates constant
// definitions. Constants may refer to constants defined before them.
func (a *assembler) resolveLabels(list []*statement) error {
	a.address = 0

	for _, st := range list {
		if len(st.label) > 0 {
			if err := a.define(st.pos, st.label, int64(a.address)); err != nil {
				return err
			}
			a.prog.Symbols[strings.ToLower(st.label)] = a.address
		}

		if st.name == "const" {
			if err := a.defineConstant(st); err != nil {
				return err
			}
			continue
		}

		n, err := a.encodedLen(st)
		if err != nil {
			return err
		}
		a.address += uint32(n)
	}

	return nil
}

// defineConstant evaluates a constant definition of the form "const name = expr".
func (a *assembler) defineConstant(st *statement) error {
	if len(st.operands) != 1 {
		return newError(st.pos, "invalid constant definition; expected `const <name> = <value>`")
	}

	parts := strings.SplitN(st.operands[0], "=", 2)
	if len(parts) != 2 {
		return newError(st.pos, "invalid constant definition; expected `const <name> = <value>`")
	}

	name := strings.TrimSpace(parts[0])
	if !isSymbol(name) {
		return newError(st.pos, "invalid constant name %q", name)
	}

	v, err := evaluate(parts[1], a.address, a.resolve)
	if err != nil {
		return newError(st.pos, "%v", err)
	}

	return a.define(st.pos, name, v)
}

// define adds a symbol to the symbol table.
func (a *assembler) define(pos Position, name string, v int64) error {
	key := strings.ToLower(name)
	if _, ok := a.symbols[key]; ok {
		return newError(pos, "duplicate symbol %q", name)
	}
	a.symbols[key] = v
	return nil
}

// resolve finds the value of the given symbol.
func (a *assembler) resolve(name string) (int64, bool) {
	v, ok := a.symbols[strings.ToLower(name)]
	return v, ok
}

// compile encodes all statements.
func (a *assembler) compile(list []*statement) error {
	a.address = 0

	for _, st := range list {
		switch st.name {
		case "", "const":
			continue
		case "break":
			a.breakNext = true
			continue
		}

		code, err := a.encode(st)
		if err != nil {
			return err
		}

		a.emit(st.pos, code)
	}

	return nil
}

// emit appends the given code to the program.
func (a *assembler) emit(pos Position, code []byte) {
	if a.breakNext {
		a.prog.Breakpoints = append(a.prog.Breakpoints, a.address)
		a.breakNext = false
	}

	a.prog.Lines = append(a.prog.Lines, Line{Address: a.address, Size: len(code), Pos: pos})
	a.prog.Code = append(a.prog.Code, code...)
	a.address += uint32(len(code))
}

// encodedLen returns the byte size occupied by the given statement's compiled version.
func (a *assembler) encodedLen(st *statement) (int, error) {
	switch st.name {
	case "", "break":
		return 0, nil
	}

	if size, ok := dataDirective(st.name); ok {
		return encodedDataLen(st, size)
	}

	opcode, ops, err := a.decode(st)
	if err != nil {
		return 0, err
	}

	n := 1
	if arch.HasMode(opcode) {
		n++
	}
	if st.hasSize {
		n++
	}

	width := immWidth(opcode, st)
	for _, o := range ops {
		n += o.encodedLen(width)
	}

	return n, nil
}

// decode validates the mnemonic, size suffix and operand count of st.
func (a *assembler) decode(st *statement) (int, []operand, error) {
	opcode, ok := arch.Opcode(st.name)
	if !ok {
		return 0, nil, newError(st.pos, "unknown instruction %q", st.name)
	}

	switch {
	case sizedOps[opcode] && !st.hasSize:
		return 0, nil, newError(st.pos, "%s requires an operand size", st.name)
	case unsizedOps[opcode] && st.hasSize:
		return 0, nil, newError(st.pos, "%s does not take an operand size", st.name)
	case !arch.HasMode(opcode) && st.hasSize:
		return 0, nil, newError(st.pos, "%s does not take an operand size", st.name)
	}

	argc := len(st.operands)
	switch {
	case !arch.HasMode(opcode) && argc != 0:
		return 0, nil, newError(st.pos, "%s takes no operands", st.name)
	case arch.HasMode(opcode) && (argc < 1 || argc > 2):
		return 0, nil, newError(st.pos, "%s takes one or two operands; have %d", st.name, argc)
	}

	ops := make([]operand, argc)
	for i, v := range st.operands {
		ops[i] = parseOperand(v)
	}

	return opcode, ops, nil
}

// immWidth returns the byte size of literal operands for the given instruction.
func immWidth(opcode int, st *statement) int {
	if st.hasSize {
		return st.size.Bytes()
	}

	switch opcode {
	case arch.INB, arch.OUTB, arch.SHL:
		return 1
	}

	return 4
}

// encode encodes the given statement into its final binary form.
func (a *assembler) encode(st *statement) ([]byte, error) {
	if size, ok := dataDirective(st.name); ok {
		return a.encodeData(st, size)
	}

	opcode, ops, err := a.decode(st)
	if err != nil {
		return nil, err
	}

	out := []byte{byte(opcode)}

	if arch.HasMode(opcode) {
		out = append(out, byte(addressMode(ops)))
	}

	if st.hasSize {
		out = append(out, byte(st.size))
	}

	width := immWidth(opcode, st)

	for _, o := range ops {
		switch o.kind {
		case cpu.Register, cpu.RIndirect:
			out = append(out, byte(o.reg))

		case cpu.Indirect:
			v, err := a.value(st, o.expr, 4)
			if err != nil {
				return nil, err
			}
			out = binary.LittleEndian.AppendUint32(out, uint32(v))

		default:
			v, err := a.value(st, o.expr, width)
			if err != nil {
				return nil, err
			}
			out = writeData(out, v, width)
		}
	}

	return out, nil
}

// value evaluates expr and ensures it fits in n bytes.
func (a *assembler) value(st *statement, expr string, n int) (int64, error) {
	v, err := evaluate(expr, a.address, a.resolve)
	if err != nil {
		return 0, newError(st.pos, "%v", err)
	}

	if !fits(v, n) {
		return 0, newError(st.pos, "value %d does not fit in %d byte(s)", v, n)
	}

	return v, nil
}

// encodeData encodes the operands for the given data directive.
func (a *assembler) encodeData(st *statement, size int) ([]byte, error) {
	var out []byte

	for _, op := range st.operands {
		if strings.HasPrefix(op, "\"") {
			str, err := strconv.Unquote(op)
			if err != nil {
				return nil, newError(st.pos, "invalid string literal %s", op)
			}
			for _, r := range str {
				if !fits(int64(r), size) {
					return nil, newError(st.pos, "character %q does not fit in %d byte(s)", r, size)
				}
				out = writeData(out, int64(r), size)
			}
			continue
		}

		v, err := a.value(st, op, size)
		if err != nil {
			return nil, err
		}
		out = writeData(out, v, size)
	}

	return out, nil
}

// encodedDataLen computes the encoded length for the given data directive.
func encodedDataLen(st *statement, size int) (int, error) {
	var n int

	for _, op := range st.operands {
		if strings.HasPrefix(op, "\"") {
			str, err := strconv.Unquote(op)
			if err != nil {
				return 0, newError(st.pos, "invalid string literal %s", op)
			}
			n += utf8.RuneCountInString(str) * size
		} else {
			n += size
		}
	}

	return n, nil
}

// writeData appends v to out as a little endian value of the given byte size.
func writeData(out []byte, v int64, size int) []byte {
	switch size {
	case 1:
		return append(out, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return binary.LittleEndian.AppendUint32(out, uint32(v))
}

// dataDirective returns the byte size of the given data directive.
func dataDirective(name string) (int, bool) {
	switch name {
	case "d8":
		return 1, true
	case "d16":
		return 2, true
	case "d32":
		return 4, true
	}
	return 0, false
}
