package cpu

// PortCount is the number of addressable I/O ports.
const PortCount = 256

// Ports defines the port I/O table.
//
// In handlers receive values a program delivers to a port (INB and
// friends). Out handlers supply values a program requests from a port
// (OUTB and friends). There is one table per direction and width. Entries
// are installed by devices during startup.
type Ports struct {
	inB  [PortCount]func(uint8)
	inD  [PortCount]func(uint16)
	inQ  [PortCount]func(uint32)
	outB [PortCount]func() uint8
	outD [PortCount]func() uint16
	outQ [PortCount]func() uint32
}

// SetInB installs the 8-bit delivery handler for the given port.
func (p *Ports) SetInB(port uint8, fn func(uint8)) { p.inB[port] = fn }

// SetInD installs the 16-bit delivery handler for the given port.
func (p *Ports) SetInD(port uint8, fn func(uint16)) { p.inD[port] = fn }

// SetInQ installs the 32-bit delivery handler for the given port.
func (p *Ports) SetInQ(port uint8, fn func(uint32)) { p.inQ[port] = fn }

// SetOutB installs the 8-bit request handler for the given port.
func (p *Ports) SetOutB(port uint8, fn func() uint8) { p.outB[port] = fn }

// SetOutD installs the 16-bit request handler for the given port.
func (p *Ports) SetOutD(port uint8, fn func() uint16) { p.outD[port] = fn }

// SetOutQ installs the 32-bit request handler for the given port.
func (p *Ports) SetOutQ(port uint8, fn func() uint32) { p.outQ[port] = fn }

// InB delivers value to the given port. It is a no-op if nothing is
// attached to the port.
func (p *Ports) InB(port, value uint8) {
	if fn := p.inB[port]; fn != nil {
		fn(value)
	}
}

// InD delivers value to the given port.
func (p *Ports) InD(port uint8, value uint16) {
	if fn := p.inD[port]; fn != nil {
		fn(value)
	}
}

// InQ delivers value to the given port.
func (p *Ports) InQ(port uint8, value uint32) {
	if fn := p.inQ[port]; fn != nil {
		fn(value)
	}
}

// OutB requests a value from the given port. Returns 0 if nothing is
// attached to the port.
func (p *Ports) OutB(port uint8) uint8 {
	if fn := p.outB[port]; fn != nil {
		return fn()
	}
	return 0
}

// OutD requests a value from the given port.
func (p *Ports) OutD(port uint8) uint16 {
	if fn := p.outD[port]; fn != nil {
		return fn()
	}
	return 0
}

// OutQ requests a value from the given port.
func (p *Ports) OutQ(port uint8) uint32 {
	if fn := p.outQ[port]; fn != nil {
		return fn()
	}
	return 0
}
