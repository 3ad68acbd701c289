package cpu

import (
	"github.com/hexaflex/cvm/devices"
)

// DefaultMemorySize is the RAM size of the reference configuration.
const DefaultMemorySize = 0xfffff

// Bus defines the system's memory bus: flat RAM plus an ordered list of
// memory mapped regions.
//
// Regions are consulted before RAM, in registration order. They must not
// overlap; this is not checked.
//
// 16- and 32-bit accesses which are not fully contained in a single region
// are split into two accesses of half the width at addr and addr+half,
// each of which is routed again. Values are little-endian.
type Bus struct {
	ram     []byte
	regions []devices.Region
}

// NewBus creates a bus with size bytes of RAM.
func NewBus(size uint32) *Bus {
	return &Bus{
		ram: make([]byte, size),
	}
}

// Size returns the RAM size in bytes.
func (b *Bus) Size() uint32 {
	return uint32(len(b.ram))
}

// Map registers the given region.
func (b *Bus) Map(r devices.Region) {
	b.regions = append(b.regions, r)
}

// UnmapAll removes every mapped region.
func (b *Bus) UnmapAll() {
	b.regions = nil
}

// Load writes p to the bus, starting at the given address.
func (b *Bus) Load(addr uint32, p []byte) error {
	for i, v := range p {
		if err := b.Write8(addr+uint32(i), v); err != nil {
			return err
		}
	}
	return nil
}

// route finds the region responsible for an n-byte access at addr.
// whole is true if the region covers the entire access.
func (b *Bus) route(addr, n uint32) (r devices.Region, whole bool) {
	for _, r := range b.regions {
		if devices.Contains(r, addr) {
			return r, uint64(addr-r.Base())+uint64(n) <= uint64(r.Size())
		}
	}
	return nil, false
}

// mapped returns true if any region overlaps [addr, addr+n).
func (b *Bus) mapped(addr, n uint32) bool {
	for _, r := range b.regions {
		base, end := uint64(r.Base()), uint64(r.Base())+uint64(r.Size())
		if uint64(addr) < end && base < uint64(addr)+uint64(n) {
			return true
		}
	}
	return false
}

// inRAM returns true if [addr, addr+n) lies inside RAM.
func (b *Bus) inRAM(addr, n uint32) bool {
	return uint64(addr)+uint64(n) <= uint64(len(b.ram))
}

// Read8 returns the 8-bit value at the given address.
func (b *Bus) Read8(addr uint32) (uint8, error) {
	if r, _ := b.route(addr, 1); r != nil {
		return r.Read8(addr, addr-r.Base()), nil
	}

	if !b.inRAM(addr, 1) {
		return 0, &BusError{Addr: addr, Width: 1}
	}

	return b.ram[addr], nil
}

// Read16 returns the 16-bit value at the given address.
func (b *Bus) Read16(addr uint32) (uint16, error) {
	if r, whole := b.route(addr, 2); whole {
		return r.Read16(addr, addr-r.Base()), nil
	}

	if !b.mapped(addr, 2) {
		if !b.inRAM(addr, 2) {
			return 0, &BusError{Addr: addr, Width: 2}
		}
		return uint16(b.ram[addr]) | uint16(b.ram[addr+1])<<8, nil
	}

	lo, err := b.Read8(addr)
	if err != nil {
		return 0, err
	}

	hi, err := b.Read8(addr + 1)
	if err != nil {
		return 0, err
	}

	return uint16(lo) | uint16(hi)<<8, nil
}

// Read32 returns the 32-bit value at the given address.
func (b *Bus) Read32(addr uint32) (uint32, error) {
	if r, whole := b.route(addr, 4); whole {
		return r.Read32(addr, addr-r.Base()), nil
	}

	if !b.mapped(addr, 4) {
		if !b.inRAM(addr, 4) {
			return 0, &BusError{Addr: addr, Width: 4}
		}
		m := b.ram[addr : addr+4]
		return uint32(m[0]) | uint32(m[1])<<8 | uint32(m[2])<<16 | uint32(m[3])<<24, nil
	}

	lo, err := b.Read16(addr)
	if err != nil {
		return 0, err
	}

	hi, err := b.Read16(addr + 2)
	if err != nil {
		return 0, err
	}

	return uint32(lo) | uint32(hi)<<16, nil
}

// Write8 sets the 8-bit value at the given address.
func (b *Bus) Write8(addr uint32, value uint8) error {
	if r, _ := b.route(addr, 1); r != nil {
		r.Write8(addr, addr-r.Base(), value)
		return nil
	}

	if !b.inRAM(addr, 1) {
		return &BusError{Addr: addr, Width: 1, Write: true}
	}

	b.ram[addr] = value
	return nil
}

// Write16 sets the 16-bit value at the given address.
func (b *Bus) Write16(addr uint32, value uint16) error {
	if r, whole := b.route(addr, 2); whole {
		r.Write16(addr, addr-r.Base(), value)
		return nil
	}

	if !b.mapped(addr, 2) {
		if !b.inRAM(addr, 2) {
			return &BusError{Addr: addr, Width: 2, Write: true}
		}
		b.ram[addr] = byte(value)
		b.ram[addr+1] = byte(value >> 8)
		return nil
	}

	if err := b.Write8(addr, byte(value)); err != nil {
		return err
	}

	return b.Write8(addr+1, byte(value>>8))
}

// Write32 sets the 32-bit value at the given address.
func (b *Bus) Write32(addr uint32, value uint32) error {
	if r, whole := b.route(addr, 4); whole {
		r.Write32(addr, addr-r.Base(), value)
		return nil
	}

	if !b.mapped(addr, 4) {
		if !b.inRAM(addr, 4) {
			return &BusError{Addr: addr, Width: 4, Write: true}
		}
		m := b.ram[addr : addr+4]
		m[0] = byte(value)
		m[1] = byte(value >> 8)
		m[2] = byte(value >> 16)
		m[3] = byte(value >> 24)
		return nil
	}

	if err := b.Write16(addr, uint16(value)); err != nil {
		return err
	}

	return b.Write16(addr+2, uint16(value>>16))
}
