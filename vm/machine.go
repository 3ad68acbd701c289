// Package vm composes the processor, the clock and the hardware units
// into a machine.
package vm

import (
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hexaflex/cvm/devices"
	"github.com/hexaflex/cvm/devices/fffe/clock"
	"github.com/hexaflex/cvm/devices/fffe/cpu"
)

// Config defines machine configuration.
type Config struct {
	MemorySize  uint32        // RAM size in bytes. 0 selects cpu.DefaultMemorySize.
	Rate        int           // Clock rate in Hz. 0 selects clock.DefaultRate.
	Trace       cpu.TraceFunc // Optional instruction trace handler.
	Breakpoints []uint32      // Addresses at which execution pauses.
	Manual      bool          // Do not start the clock; the caller invokes Tick.
}

// Machine defines a complete virtual machine.
//
// A single lock is held for the duration of every tick. Requests from
// other goroutines are queued and applied at the start of a tick.
type Machine struct {
	m           sync.Mutex
	config      Config
	cpu         *cpu.CPU
	clock       *clock.Clock
	devices     devices.Map
	commands    chan command
	keys        []uint8             // Keyboard queue.
	breakpoints map[uint32]struct{} // Breakpoint addresses.
	skipBreak   bool                // Step over the breakpoint at PC once.
	booted      bool
	stopped     bool // Devices shut down?
	shutdownErr error
}

var _ devices.Host = &Machine{}

// New creates a machine with the given configuration.
func New(config Config) *Machine {
	if config.MemorySize == 0 {
		config.MemorySize = cpu.DefaultMemorySize
	}

	m := &Machine{
		config:      config,
		cpu:         cpu.New(config.MemorySize, config.Trace),
		commands:    make(chan command, CommandQueueSize),
		breakpoints: make(map[uint32]struct{}),
	}

	m.clock = clock.New(config.Rate, m.tick)
	m.clock.Detach()

	for _, addr := range config.Breakpoints {
		m.breakpoints[addr] = struct{}{}
	}

	return m
}

// Connect attaches a hardware unit. Units which implement devices.Region
// are mapped on the bus. Returns false if a unit with the same ID is
// already connected.
func (m *Machine) Connect(dev devices.Device) bool {
	m.m.Lock()
	defer m.m.Unlock()

	if !m.devices.Connect(dev) {
		return false
	}

	if r, ok := dev.(devices.Region); ok {
		m.cpu.Bus().Map(r)
	}

	return true
}

// Boot starts all hardware units, switches the machine on, writes the
// default palette, loads the program image at address 0 and starts the
// clock.
func (m *Machine) Boot(image []byte) error {
	m.m.Lock()

	if m.booted {
		m.m.Unlock()
		return ErrBooted
	}

	bus := m.cpu.Bus()
	if uint64(len(image)) > uint64(bus.Size()) {
		m.m.Unlock()
		return errors.Wrapf(ErrImageTooLarge, "image is %d bytes; memory is %d bytes", len(image), bus.Size())
	}

	if err := m.devices.Startup(m); err != nil {
		m.m.Unlock()
		return err
	}

	m.booted = true
	m.cpu.SetStatus(cpu.On)

	for i, c := range DefaultPalette {
		if err := bus.Write32(PaletteAddr+uint32(i)*4, c); err != nil {
			m.abortBoot()
			m.m.Unlock()
			return errors.Wrap(err, "palette")
		}
	}

	if err := bus.Load(0, image); err != nil {
		m.abortBoot()
		m.m.Unlock()
		return errors.Wrap(err, "image")
	}

	m.m.Unlock()

	log.Println(m.cpu.ID(), "boot", len(image), "bytes")

	if !m.config.Manual {
		m.clock.Start()
	}

	return nil
}

// abortBoot undoes a partial boot so Boot may be called again.
func (m *Machine) abortBoot() {
	if err := m.devices.Shutdown(); err != nil {
		log.Println(m.cpu.ID(), "boot:", err)
	}
	m.cpu.Bus().UnmapAll()
	m.cpu.PowerOff()
	m.booted = false
}

// tick is the clock handler.
func (m *Machine) tick(time.Duration, uint64) {
	m.Tick()
}

// Tick performs one machine cycle: queued requests are applied, one
// instruction is executed unless the machine is halted, a pending
// interrupt is serviced and the machine shuts down if it was powered off.
func (m *Machine) Tick() {
	m.m.Lock()
	defer m.m.Unlock()

	if !m.booted || m.stopped {
		return
	}

	m.drain()

	c := m.cpu
	if c.Status()&cpu.Breakpoint != 0 {
		return
	}

	if c.Status()&cpu.On != 0 && c.Status()&cpu.Halted == 0 {
		if m.atBreakpoint() {
			return
		}

		// Faults are logged and recorded by the cpu.
		c.Step()
	}

	c.ServiceInterrupt()

	if c.Status() == cpu.Off {
		m.powerDown()
	}
}

// atBreakpoint returns true if execution reached a breakpoint.
// The machine is paused in that case.
func (m *Machine) atBreakpoint() bool {
	pc := m.cpu.Registers().PC

	if m.skipBreak {
		m.skipBreak = false
		return false
	}

	if _, ok := m.breakpoints[pc]; !ok {
		return false
	}

	log.Printf("%s breakpoint at $%08x", m.cpu.ID(), pc)
	m.cpu.SetStatus(cpu.Breakpoint)
	m.clock.Halt()
	m.devices.Pause()
	return true
}

// powerDown shuts down all devices and stops the clock.
// The machine lock must be held.
func (m *Machine) powerDown() {
	if m.stopped {
		return
	}

	m.stopped = true
	if m.booted {
		m.shutdownErr = m.devices.Shutdown()
	}
	m.cpu.SetStatus(cpu.Halted)
	m.clock.Stop()
}

// SetBreakpoint pauses execution whenever PC reaches addr.
func (m *Machine) SetBreakpoint(addr uint32) {
	m.m.Lock()
	m.breakpoints[addr] = struct{}{}
	m.m.Unlock()
}

// ClearBreakpoint removes the breakpoint at addr.
func (m *Machine) ClearBreakpoint(addr uint32) {
	m.m.Lock()
	delete(m.breakpoints, addr)
	m.m.Unlock()
}

// Pause suspends execution.
func (m *Machine) Pause() {
	m.m.Lock()
	defer m.m.Unlock()

	m.clock.Halt()
	m.devices.Pause()
}

// Resume continues execution after Pause or a breakpoint.
func (m *Machine) Resume() {
	m.m.Lock()
	defer m.m.Unlock()

	if m.cpu.Status()&cpu.Breakpoint != 0 {
		m.cpu.ClearStatus(cpu.Breakpoint)
		m.skipBreak = true
	}

	m.clock.Resume()
}

// Paused returns true if execution is suspended.
func (m *Machine) Paused() bool {
	return m.clock.Halted()
}

// Shutdown powers the machine off, shuts down all devices and stops
// the clock. It returns the device shutdown errors.
func (m *Machine) Shutdown() error {
	m.m.Lock()
	defer m.m.Unlock()

	m.cpu.PowerOff()
	m.powerDown()
	return m.shutdownErr
}

// Wait blocks until the clock has stopped.
func (m *Machine) Wait() {
	if m.config.Manual {
		return
	}

	m.m.Lock()
	booted := m.booted
	m.m.Unlock()

	if booted {
		m.clock.Wait()
	}
}

// Done returns a channel which is closed when the clock has stopped.
func (m *Machine) Done() <-chan struct{} {
	return m.clock.Done()
}

// Status returns the machine status.
func (m *Machine) Status() cpu.Status {
	m.m.Lock()
	defer m.m.Unlock()
	return m.cpu.Status()
}

// Registers returns a copy of the register file.
func (m *Machine) Registers() cpu.Registers {
	m.m.Lock()
	defer m.m.Unlock()
	return *m.cpu.Registers()
}

// LastFault returns the most recent cpu fault, or nil.
func (m *Machine) LastFault() *cpu.Error {
	m.m.Lock()
	defer m.m.Unlock()
	return m.cpu.LastFault()
}

// Read32 reads memory through the bus.
func (m *Machine) Read32(addr uint32) (uint32, error) {
	m.m.Lock()
	defer m.m.Unlock()
	return m.cpu.Bus().Read32(addr)
}

// Ticks returns the number of clock ticks so far.
func (m *Machine) Ticks() uint64 {
	return m.clock.Ticks()
}

// Frequency returns the measured clock rate in Hz.
func (m *Machine) Frequency() uint64 {
	return m.clock.Frequency()
}

// The port and region requests below are only valid while the devices
// start up, during which the machine lock is held.

// RequestPortInB implements devices.Host.
func (m *Machine) RequestPortInB(port uint8, fn func(uint8)) { m.cpu.Ports().SetInB(port, fn) }

// RequestPortInD implements devices.Host.
func (m *Machine) RequestPortInD(port uint8, fn func(uint16)) { m.cpu.Ports().SetInD(port, fn) }

// RequestPortInQ implements devices.Host.
func (m *Machine) RequestPortInQ(port uint8, fn func(uint32)) { m.cpu.Ports().SetInQ(port, fn) }

// RequestPortOutB implements devices.Host.
func (m *Machine) RequestPortOutB(port uint8, fn func() uint8) { m.cpu.Ports().SetOutB(port, fn) }

// RequestPortOutD implements devices.Host.
func (m *Machine) RequestPortOutD(port uint8, fn func() uint16) { m.cpu.Ports().SetOutD(port, fn) }

// RequestPortOutQ implements devices.Host.
func (m *Machine) RequestPortOutQ(port uint8, fn func() uint32) { m.cpu.Ports().SetOutQ(port, fn) }

// MapRegion implements devices.Host.
func (m *Machine) MapRegion(r devices.Region) { m.cpu.Bus().Map(r) }

// Interrupt queues an interrupt request.
func (m *Machine) Interrupt(line uint8) {
	m.post(command{kind: cmdInterrupt, line: line})
}

// KeyEvent queues a key press or release. It is added to the keyboard
// queue and raises the keyboard interrupt if interrupts are enabled by
// the time it is applied.
func (m *Machine) KeyEvent(down bool, code uint8) {
	m.post(command{kind: cmdKey, down: down, code: code})
}

// PowerOff queues a power off request.
func (m *Machine) PowerOff() {
	m.post(command{kind: cmdPowerOff})
}

// PopKey removes the oldest keyboard queue entry. Returns 0 if the queue
// is empty. It is called by port handlers, which run with the machine
// lock held.
func (m *Machine) PopKey() uint8 {
	if len(m.keys) == 0 {
		return 0
	}

	v := m.keys[0]
	m.keys = m.keys[1:]
	return v
}
