package cpu

import (
	"fmt"
	"strings"

	"github.com/hexaflex/cvm/arch"
)

// OperandKind defines how an operand was encoded.
type OperandKind byte

// Known operand kinds.
const (
	Immediate OperandKind = iota // Literal value.
	Register                     // Register code.
	Indirect                     // Absolute memory address.
	RIndirect                    // Memory address held in a register.
)

// Operand defines decoded instruction operand data.
type Operand struct {
	Kind  OperandKind // Operand kind.
	Value uint32      // Literal value, register code or address, depending on Kind.
}

func (op Operand) String() string {
	switch op.Kind {
	case Register:
		return arch.RegisterName(int(op.Value))
	case Indirect:
		return fmt.Sprintf("($%08x)", op.Value)
	case RIndirect:
		return fmt.Sprintf("(%s)", arch.RegisterName(int(op.Value)))
	}
	return fmt.Sprintf("$%x", op.Value)
}

// Instruction defines decoded instruction data.
type Instruction struct {
	IP      uint32           // Instruction address.
	Opcode  int              // Instruction opcode.
	Mode    arch.AddressMode // Address mode, if HasMode is set.
	HasMode bool             // Was an address mode byte decoded?
	Size    arch.Size        // Operand size, if HasSize is set.
	HasSize bool             // Was a size byte decoded?
	Args    [3]Operand       // Decoded operands.
	Argc    int              // Number of decoded operands.
}

// reset prepares the instruction for decoding at the given address.
func (i *Instruction) reset(ip uint32) {
	*i = Instruction{IP: ip}
}

// push records a decoded operand.
func (i *Instruction) push(kind OperandKind, value uint32) {
	if i.Argc < len(i.Args) {
		i.Args[i.Argc] = Operand{Kind: kind, Value: value}
		i.Argc++
	}
}

// String returns a disassembly of the decoded instruction.
func (i *Instruction) String() string {
	var sb strings.Builder

	name, ok := arch.Name(i.Opcode)
	if !ok {
		name = fmt.Sprintf("$%02x", i.Opcode)
	}
	sb.WriteString(name)

	if i.HasSize {
		sb.WriteString(".")
		sb.WriteString(i.Size.String())
	}

	for j := 0; j < i.Argc; j++ {
		if j == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(i.Args[j].String())
	}

	return sb.String()
}

// next8 reads the next byte at the program counter and advances it.
func (c *CPU) next8() uint8 {
	v := c.read8(c.reg.PC)
	c.reg.PC++
	return v
}

// next32 reads the next 32-bit value at the program counter and advances it.
func (c *CPU) next32() uint32 {
	v := c.read32(c.reg.PC)
	c.reg.PC += 4
	return v
}

// fetchSize decodes an operand size byte.
func (c *CPU) fetchSize() arch.Size {
	in := &c.instr
	in.Size = arch.Size(c.next8())
	in.HasSize = true

	if !in.Size.Valid() {
		panic(NewError(in, ErrImpossible, "%s invalid operand size $%02x", c.name(in), byte(in.Size)))
	}

	return in.Size
}

// fetchReg decodes a register operand and returns its code.
func (c *CPU) fetchReg() int {
	code := int(c.next8())
	if code >= arch.RegisterCount {
		panic(&RegisterError{Code: code})
	}
	c.instr.push(Register, uint32(code))
	return code
}

// fetchRInd decodes a register-indirect operand and returns the register code.
func (c *CPU) fetchRInd() int {
	code := int(c.next8())
	if code >= arch.RegisterCount {
		panic(&RegisterError{Code: code})
	}
	c.instr.push(RIndirect, uint32(code))
	return code
}

// fetchAddr decodes an absolute address operand.
func (c *CPU) fetchAddr() uint32 {
	addr := c.next32()
	c.instr.push(Indirect, addr)
	return addr
}

// fetchImm decodes an immediate operand of the given size.
func (c *CPU) fetchImm(sz arch.Size) uint32 {
	var v uint32
	switch sz {
	case arch.Word:
		v = uint32(c.next8())
	case arch.DWord:
		v = uint32(c.read16(c.reg.PC))
		c.reg.PC += 2
	default:
		v = c.next32()
	}
	c.instr.push(Immediate, v)
	return v
}

// fetchImm8 decodes a single byte immediate operand.
func (c *CPU) fetchImm8() uint8 {
	v := c.next8()
	c.instr.push(Immediate, uint32(v))
	return v
}

// fetchTarget decodes a 32-bit immediate operand without consuming it.
// Branch instructions decide themselves whether to skip past it.
func (c *CPU) fetchTarget() uint32 {
	v := c.read32(c.reg.PC)
	c.instr.push(Immediate, v)
	return v
}
