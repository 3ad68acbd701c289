// Package cpu implements the CVM processor: memory bus, register file,
// port I/O table, interrupt controller and the instruction decoder.
package cpu

import (
	"log"
	"strings"

	"github.com/hexaflex/cvm/arch"
	"github.com/hexaflex/cvm/devices"
)

// Status defines the machine status bits.
type Status uint32

// Known status bits. Off is the absence of all bits.
const (
	Off         Status = 0
	On          Status = 1 << 0
	Halted      Status = 1 << 1
	Sleeping    Status = 1 << 2
	Hibernating Status = 1 << 3
	Breakpoint  Status = 1 << 4
	Fault       Status = 1 << 5
	DFault      Status = 1 << 6
	TFault      Status = 1 << 7
)

var statusNames = []string{"On", "Halted", "Sleeping", "Hibernating", "Breakpoint", "Fault", "DFault", "TFault"}

func (s Status) String() string {
	if s == Off {
		return "Off"
	}

	var names []string
	for i, name := range statusNames {
		if s&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// TraceFunc represents a callback handler for debug trace output.
type TraceFunc func(*Instruction)

// CPU implements the decoder/executor along with the state it operates on.
type CPU struct {
	reg       Registers                 // Register file.
	bus       *Bus                      // System memory.
	ports     Ports                     // Port I/O table.
	irq       interrupts                // Interrupt controller state.
	status    Status                    // Machine status.
	table     [arch.OpcodeSpace]handler // Opcode dispatch table.
	instr     Instruction               // Decoded instruction data.
	trace     TraceFunc                 // Handler for debug trace output.
	lastFault *Error                    // Most recent fault.
}

// New creates a new CPU with the given amount of RAM.
// Optionally with the given debug trace handler.
//
// The stack pointer starts at the end of RAM.
func New(memorySize uint32, trace TraceFunc) *CPU {
	if trace == nil {
		trace = func(*Instruction) { /* nop */ }
	}

	c := &CPU{
		bus:   NewBus(memorySize),
		trace: trace,
	}

	c.reg.SP = memorySize
	c.table = newHandlerTable()
	return c
}

// ID returns the cpu's device Id.
func (c *CPU) ID() devices.ID {
	return devices.NewID(devices.Builtin, devices.SerialCPU)
}

// Bus returns the system memory bus.
func (c *CPU) Bus() *Bus {
	return c.bus
}

// Ports returns the port I/O table.
func (c *CPU) Ports() *Ports {
	return &c.ports
}

// Registers returns the register file.
func (c *CPU) Registers() *Registers {
	return &c.reg
}

// Status returns the machine status.
func (c *CPU) Status() Status {
	return c.status
}

// SetStatus sets the given status bits.
func (c *CPU) SetStatus(s Status) {
	c.status |= s
}

// ClearStatus clears the given status bits.
func (c *CPU) ClearStatus(s Status) {
	c.status &^= s
}

// PowerOff clears all status bits.
func (c *CPU) PowerOff() {
	c.status = Off
}

// Running returns true if the CPU executes instructions: it is switched
// on, not halted and has not faulted.
func (c *CPU) Running() bool {
	return c.status&On != 0 && c.status&(Halted|Fault) == 0
}

// LastFault returns the most recent fault, or nil.
func (c *CPU) LastFault() *Error {
	return c.lastFault
}

// Step performs a single execution step: it fetches one opcode, decodes
// its operands and executes it.
//
// A fault sets the Fault and Halted status bits and is returned as an
// *Error. The program counter then points just past the bytes which were
// decoded before the fault was detected.
func (c *CPU) Step() (err error) {
	in := &c.instr
	in.reset(c.reg.PC)

	defer c.recoverFault(&err)

	in.Opcode = int(c.next8())
	h := &c.table[in.Opcode]

	if h.exec == nil {
		return c.fault(NewError(in, ErrUnimplemented, "opcode $%02x not implemented", in.Opcode))
	}

	if h.flags {
		c.reg.Flags = 0
	}

	if arch.HasMode(in.Opcode) {
		in.Mode = arch.AddressMode(c.next8())
		in.HasMode = true

		switch h.modes.lookup(in.Mode) {
		case unimplemented:
			return c.fault(NewError(in, ErrUnimplemented, "%s %s unimplemented", h.name, in.Mode))
		case impossible:
			return c.fault(NewError(in, ErrImpossible, "%s %s impossible", h.name, in.Mode))
		}
	}

	h.exec(c, in)
	c.trace(in)
	return nil
}

// fault records e and halts the machine.
func (c *CPU) fault(e *Error) error {
	c.lastFault = e
	c.status |= Fault | Halted
	log.Println(c.ID(), "fault:", e)
	return e
}

// recoverFault turns bus, register and decode panics raised while
// executing an instruction into a fault.
func (c *CPU) recoverFault(err *error) {
	x := recover()
	if x == nil {
		return
	}

	switch e := x.(type) {
	case *Error:
		*err = c.fault(e)
	case *BusError:
		*err = c.fault(NewError(&c.instr, ErrBus, "%s: %v", c.name(&c.instr), e))
	case *RegisterError:
		*err = c.fault(NewError(&c.instr, ErrRegister, "%s: %v", c.name(&c.instr), e))
	default:
		panic(x)
	}
}

// name returns the mnemonic of the given instruction.
func (c *CPU) name(in *Instruction) string {
	if name := c.table[in.Opcode&0xff].name; name != "" {
		return name
	}
	return "?"
}

func (c *CPU) read8(addr uint32) uint8 {
	v, err := c.bus.Read8(addr)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *CPU) read16(addr uint32) uint16 {
	v, err := c.bus.Read16(addr)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *CPU) read32(addr uint32) uint32 {
	v, err := c.bus.Read32(addr)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *CPU) write8(addr uint32, v uint8) {
	if err := c.bus.Write8(addr, v); err != nil {
		panic(err)
	}
}

func (c *CPU) write16(addr uint32, v uint16) {
	if err := c.bus.Write16(addr, v); err != nil {
		panic(err)
	}
}

func (c *CPU) write32(addr uint32, v uint32) {
	if err := c.bus.Write32(addr, v); err != nil {
		panic(err)
	}
}

// load reads a value of the given size from memory.
func (c *CPU) load(sz arch.Size, addr uint32) uint32 {
	switch sz {
	case arch.Word:
		return uint32(c.read8(addr))
	case arch.DWord:
		return uint32(c.read16(addr))
	}
	return c.read32(addr)
}

// store writes the low bits of v covered by the given size to memory.
func (c *CPU) store(sz arch.Size, addr, v uint32) {
	switch sz {
	case arch.Word:
		c.write8(addr, uint8(v))
	case arch.DWord:
		c.write16(addr, uint16(v))
	default:
		c.write32(addr, v)
	}
}
