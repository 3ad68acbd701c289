package cpu

import (
	"github.com/hexaflex/cvm/arch"
)

func (c *CPU) opNOP(*Instruction) {}

func (c *CPU) opMOV(in *Instruction) {
	sz := c.fetchSize()
	r := &c.reg

	switch in.Mode {
	case arch.RegisterImmediate:
		dst := c.fetchReg()
		r.Write(dst, c.fetchImm(sz))

	case arch.RegisterRegister:
		dst := c.fetchReg()
		src := c.fetchReg()
		mask := sz.Mask()
		r.Write(dst, r.Read(dst)&^mask|r.Read(src)&mask)

	case arch.RegisterRIndirect:
		dst := c.fetchReg()
		src := c.fetchRInd()
		r.Write(dst, c.load(sz, r.Read(src)))

	case arch.IndirectImmediate:
		addr := c.fetchAddr()
		c.store(sz, addr, c.fetchImm(sz))

	case arch.IndirectRegister:
		addr := c.fetchAddr()
		src := c.fetchReg()
		c.store(sz, addr, r.Read(src))

	case arch.RIndirectImmediate:
		dst := c.fetchRInd()
		c.store(sz, r.Read(dst), c.fetchImm(sz))

	case arch.RIndirectRegister:
		dst := c.fetchRInd()
		src := c.fetchReg()
		c.store(sz, r.Read(dst), r.Read(src))

	case arch.RIndirectIndirect:
		dst := c.fetchRInd()
		addr := c.fetchAddr()
		c.store(sz, r.Read(dst), c.load(sz, addr))
	}
}

func (c *CPU) opCMP(in *Instruction) {
	sz := c.fetchSize()

	var a, b uint32
	switch in.Mode {
	case arch.RegisterImmediate:
		a = c.reg.Read(c.fetchReg())
		b = c.fetchImm(sz)
	case arch.RIndirectImmediate:
		a = c.load(sz, c.reg.Read(c.fetchRInd()))
		b = c.fetchImm(sz)
	case arch.IndirectImmediate:
		a = c.load(sz, c.fetchAddr())
		b = c.fetchImm(sz)
	}

	c.reg.Flags = compare(a, b)
}

// compare returns the flags describing a-b.
func compare(a, b uint32) uint16 {
	var flags uint16

	d := int64(a) - int64(b)
	if d == 0 {
		flags |= arch.FlagZero
	}
	if d < 0 {
		flags |= arch.FlagUnderflow
	}
	if d > 0xffffffff {
		flags |= arch.FlagOverflow
	}
	if d%2 == 0 {
		flags |= arch.FlagParity
	}

	return flags
}

// branch jumps to the target operand if cond is true.
// Otherwise execution continues after the operand.
func (c *CPU) branch(cond bool) {
	target := c.fetchTarget()
	if cond {
		c.reg.PC = target
	} else {
		c.reg.PC += 4
	}
}

// call pushes the return address and jumps to the target operand
// if cond is true.
func (c *CPU) call(cond bool) {
	target := c.fetchTarget()
	c.reg.PC += 4
	if cond {
		c.pushQ(c.reg.PC)
		c.reg.PC = target
	}
}

func (c *CPU) opJMP(*Instruction)   { c.branch(true) }
func (c *CPU) opJE(*Instruction)    { c.branch(c.reg.Flags&arch.FlagZero != 0) }
func (c *CPU) opJNE(*Instruction)   { c.branch(c.reg.Flags&arch.FlagZero == 0) }
func (c *CPU) opJL(*Instruction)    { c.branch(c.reg.Flags&arch.FlagUnderflow != 0) }
func (c *CPU) opCALL(*Instruction)  { c.call(true) }
func (c *CPU) opCALLE(*Instruction) { c.call(c.reg.Flags&arch.FlagZero != 0) }

func (c *CPU) opRET(*Instruction) {
	c.reg.PC = c.popQ()
}

func (c *CPU) opIRET(*Instruction) {
	c.status = Status(c.popQ())
	c.reg.PC = c.popQ()
}

func (c *CPU) opCLI(*Instruction) { c.irq.enabled = false }
func (c *CPU) opSTI(*Instruction) { c.irq.enabled = true }

func (c *CPU) opINC(*Instruction) {
	dst := c.fetchReg()
	c.reg.Write(dst, c.reg.Read(dst)+1)
}

func (c *CPU) opADD(in *Instruction) {
	sz := c.fetchSize()
	dst := c.fetchReg()

	var v uint32
	if in.Mode == arch.RegisterRegister {
		v = c.reg.Read(c.fetchReg())
	} else {
		v = c.fetchImm(sz)
	}

	c.reg.Write(dst, c.reg.Read(dst)+v)
}

func (c *CPU) opMUL(*Instruction) {
	sz := c.fetchSize()
	dst := c.fetchReg()
	c.reg.Write(dst, c.reg.Read(dst)*c.fetchImm(sz))
}

func (c *CPU) opOR(*Instruction) {
	sz := c.fetchSize()
	dst := c.fetchReg()
	c.reg.Write(dst, c.reg.Read(dst)|c.fetchImm(sz))
}

// opXOR only knows the single register form, which clears the register.
func (c *CPU) opXOR(*Instruction) {
	c.reg.Write(c.fetchReg(), 0)
}

// opSHL shifts a register by an 8-bit literal. It has no size byte.
func (c *CPU) opSHL(*Instruction) {
	dst := c.fetchReg()
	n := c.fetchImm8()
	c.reg.Write(dst, c.reg.Read(dst)<<n)
}

// opINB delivers a byte to the handler attached to a port.
func (c *CPU) opINB(in *Instruction) {
	port := c.fetchImm8()

	var v uint8
	switch in.Mode {
	case arch.ImmediateImmediate:
		v = c.fetchImm8()
	case arch.ImmediateRegister:
		v = uint8(c.reg.Read(c.fetchReg()))
	case arch.ImmediateIndirect:
		v = c.read8(c.fetchAddr())
	}

	c.ports.InB(port, v)
}

// opOUTB requests a byte from the handler attached to a port.
func (c *CPU) opOUTB(*Instruction) {
	dst := c.fetchReg()
	port := c.fetchImm8()
	c.reg.Write(dst, uint32(c.ports.OutB(port)))
}

func (c *CPU) opLDIDT(*Instruction) {
	c.irq.table = c.fetchImm(arch.QWord)
	c.irq.loaded = true
}

func (c *CPU) opHLT(*Instruction) {
	c.status |= Halted
}

func (c *CPU) opPUSHA(*Instruction) { c.pushAll() }
func (c *CPU) opPOPA(*Instruction)  { c.popAll() }
