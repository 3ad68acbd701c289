package cpu

import "github.com/hexaflex/cvm/arch"

// DescriptorSize is the size of one interrupt descriptor in bytes.
const DescriptorSize = 4

// interrupts defines the interrupt controller state.
type interrupts struct {
	enabled bool   // Global interrupt enable (STI/CLI).
	pending bool   // Is an interrupt waiting to be serviced?
	line    uint8  // Line of the pending interrupt.
	table   uint32 // Descriptor table address.
	loaded  bool   // Has LDIDT been executed?
}

// Raise requests an interrupt on the given line. The request is dropped
// if interrupts are disabled. A pending request is replaced.
func (c *CPU) Raise(line uint8) {
	if !c.irq.enabled {
		return
	}
	c.irq.pending = true
	c.irq.line = line
}

// InterruptsEnabled returns true if interrupts are globally enabled.
func (c *CPU) InterruptsEnabled() bool {
	return c.irq.enabled
}

// Pending returns the pending interrupt line, if any.
func (c *CPU) Pending() (uint8, bool) {
	return c.irq.line, c.irq.pending
}

// DescriptorTable returns the descriptor table address and whether one
// has been loaded.
func (c *CPU) DescriptorTable() (uint32, bool) {
	return c.irq.table, c.irq.loaded
}

// ServiceInterrupt hands control to the handler of a pending interrupt.
//
// It clears the Halted bit, pushes PC followed by the status, and jumps
// to the address stored in the line's descriptor. IRET undoes this.
// Servicing without a loaded descriptor table is a double fault.
// Nothing happens once the CPU has faulted.
func (c *CPU) ServiceInterrupt() (err error) {
	if !c.irq.pending || !c.irq.enabled || c.status&Fault != 0 {
		return nil
	}

	in := &c.instr
	in.reset(c.reg.PC)
	in.Opcode = arch.INTR

	defer c.recoverFault(&err)

	c.irq.pending = false

	if !c.irq.loaded {
		c.status |= DFault
		return c.fault(NewError(in, ErrNoDescriptorTable, "interrupt %d raised without descriptor table", c.irq.line))
	}

	if c.status&Halted != 0 {
		c.status &^= Halted
	}

	addr := c.read32(c.irq.table + uint32(c.irq.line)*DescriptorSize)
	c.pushQ(c.reg.PC)
	c.pushQ(uint32(c.status))
	c.reg.PC = addr
	return nil
}
