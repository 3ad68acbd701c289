// Package testhost provides a devices.Host for exercising devices without
// a machine.
package testhost

import (
	"sync"

	"github.com/hexaflex/cvm/devices"
)

// Key records a keyboard event.
type Key struct {
	Down bool
	Code uint8
}

// Host records everything a device requests from its host.
type Host struct {
	m sync.Mutex

	InB  map[uint8]func(uint8)
	InD  map[uint8]func(uint16)
	InQ  map[uint8]func(uint32)
	OutB map[uint8]func() uint8
	OutD map[uint8]func() uint16
	OutQ map[uint8]func() uint32

	Regions    []devices.Region
	Interrupts []uint8
	Keys       []Key
	Queue      []uint8 // Keyboard queue drained by PopKey.
	Off        bool
}

var _ devices.Host = &Host{}

// New creates an empty host.
func New() *Host {
	return &Host{
		InB:  make(map[uint8]func(uint8)),
		InD:  make(map[uint8]func(uint16)),
		InQ:  make(map[uint8]func(uint32)),
		OutB: make(map[uint8]func() uint8),
		OutD: make(map[uint8]func() uint16),
		OutQ: make(map[uint8]func() uint32),
	}
}

func (h *Host) RequestPortInB(port uint8, fn func(uint8))    { h.InB[port] = fn }
func (h *Host) RequestPortInD(port uint8, fn func(uint16))   { h.InD[port] = fn }
func (h *Host) RequestPortInQ(port uint8, fn func(uint32))   { h.InQ[port] = fn }
func (h *Host) RequestPortOutB(port uint8, fn func() uint8)  { h.OutB[port] = fn }
func (h *Host) RequestPortOutD(port uint8, fn func() uint16) { h.OutD[port] = fn }
func (h *Host) RequestPortOutQ(port uint8, fn func() uint32) { h.OutQ[port] = fn }

// MapRegion records the region.
func (h *Host) MapRegion(r devices.Region) {
	h.Regions = append(h.Regions, r)
}

// Interrupt records the interrupt line.
func (h *Host) Interrupt(line uint8) {
	h.m.Lock()
	h.Interrupts = append(h.Interrupts, line)
	h.m.Unlock()
}

// KeyEvent records the key event and queues it for PopKey.
func (h *Host) KeyEvent(down bool, code uint8) {
	h.m.Lock()
	defer h.m.Unlock()

	h.Keys = append(h.Keys, Key{down, code})

	state := uint8(0)
	if down {
		state = 1
	}
	h.Queue = append(h.Queue, state, code)
}

// PopKey removes the oldest entry from the keyboard queue.
func (h *Host) PopKey() uint8 {
	h.m.Lock()
	defer h.m.Unlock()

	if len(h.Queue) == 0 {
		return 0
	}

	v := h.Queue[0]
	h.Queue = h.Queue[1:]
	return v
}

// PowerOff records the request.
func (h *Host) PowerOff() {
	h.m.Lock()
	h.Off = true
	h.m.Unlock()
}

// Events returns a copy of the recorded key events.
func (h *Host) Events() []Key {
	h.m.Lock()
	defer h.m.Unlock()
	return append([]Key(nil), h.Keys...)
}

// PoweredOff returns true if PowerOff was called.
func (h *Host) PoweredOff() bool {
	h.m.Lock()
	defer h.m.Unlock()
	return h.Off
}
