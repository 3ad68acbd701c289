package vm

import "log"

// CommandQueueSize is the capacity of the command queue.
const CommandQueueSize = 256

// KeyboardLine is the interrupt line raised for key events.
const KeyboardLine = 17

type commandKind byte

const (
	cmdInterrupt commandKind = iota
	cmdKey
	cmdPowerOff
)

// command is a request from outside the tick which is applied at the
// start of the next tick.
type command struct {
	kind commandKind
	line uint8 // Interrupt line.
	code uint8 // Key code.
	down bool  // Key pressed?
}

// post queues a command. It never blocks: a full queue drops the command.
func (m *Machine) post(cmd command) {
	select {
	case m.commands <- cmd:
	default:
		log.Println(m.cpu.ID(), "command queue full; dropping", cmd.kind)
	}
}

// drain applies all queued commands. The machine lock must be held.
func (m *Machine) drain() {
	for {
		select {
		case cmd := <-m.commands:
			m.apply(cmd)
		default:
			return
		}
	}
}

func (m *Machine) apply(cmd command) {
	c := m.cpu

	switch cmd.kind {
	case cmdInterrupt:
		c.Raise(cmd.line)

	case cmdKey:
		if !c.InterruptsEnabled() {
			return
		}

		state := uint8(0)
		if cmd.down {
			state = 1
		}

		m.keys = append(m.keys, state, cmd.code)
		c.Raise(KeyboardLine)

	case cmdPowerOff:
		c.PowerOff()
	}
}

func (k commandKind) String() string {
	switch k {
	case cmdInterrupt:
		return "interrupt"
	case cmdKey:
		return "key"
	case cmdPowerOff:
		return "poweroff"
	}
	return "?"
}
