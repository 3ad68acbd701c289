package cpu

import "github.com/hexaflex/cvm/arch"

// The stack grows downward. A push first decrements SP by the value's
// width and then writes at SP. A pop reads at SP and then increments it.

func (c *CPU) pushW(v uint8) {
	c.reg.SP--
	c.write8(c.reg.SP, v)
}

func (c *CPU) pushD(v uint16) {
	c.reg.SP -= 2
	c.write16(c.reg.SP, v)
}

func (c *CPU) pushQ(v uint32) {
	c.reg.SP -= 4
	c.write32(c.reg.SP, v)
}

func (c *CPU) popW() uint8 {
	v := c.read8(c.reg.SP)
	c.reg.SP++
	return v
}

func (c *CPU) popD() uint16 {
	v := c.read16(c.reg.SP)
	c.reg.SP += 2
	return v
}

func (c *CPU) popQ() uint32 {
	v := c.read32(c.reg.SP)
	c.reg.SP += 4
	return v
}

// pushAll pushes the complete register set, each at its natural width:
// the general registers A through Z, Flags, Clocks, CS, DS, SS, PC, SP, BP.
func (c *CPU) pushAll() {
	r := &c.reg
	for i := range r.general {
		c.pushQ(r.Read(arch.General(i, arch.ViewFull)))
	}
	c.pushD(r.Flags)
	c.pushD(r.Clocks)
	c.pushQ(r.CS)
	c.pushQ(r.DS)
	c.pushQ(r.SS)
	c.pushQ(r.PC)
	c.pushQ(r.SP)
	c.pushQ(r.BP)
}

// popAll reverses pushAll. The saved SP and PC values are discarded:
// SP ends up where it was before pushAll and execution continues with
// the next instruction.
func (c *CPU) popAll() {
	r := &c.reg
	r.BP = c.popQ()
	c.popQ() // SP
	c.popQ() // PC
	r.SS = c.popQ()
	r.DS = c.popQ()
	r.CS = c.popQ()
	r.Clocks = c.popD()
	r.Flags = c.popD()
	for i := len(r.general) - 1; i >= 0; i-- {
		r.Write(arch.General(i, arch.ViewFull), c.popQ())
	}
}
