package devices

// Region defines a memory mapped address range owned by a device.
//
// Each accessor receives both the absolute bus address and the address
// relative to the start of the region.
type Region interface {
	Base() uint32
	Size() uint32

	Read8(abs, rel uint32) uint8
	Read16(abs, rel uint32) uint16
	Read32(abs, rel uint32) uint32

	Write8(abs, rel uint32, value uint8)
	Write16(abs, rel uint32, value uint16)
	Write32(abs, rel uint32, value uint32)
}

// Span holds the address range of a region.
type Span struct {
	Start  uint32
	Length uint32
}

// Base returns the first address of the span.
func (s Span) Base() uint32 { return s.Start }

// Size returns the number of bytes covered by the span.
func (s Span) Size() uint32 { return s.Length }

// End returns the first address past the span.
func (s Span) End() uint32 { return s.Start + s.Length }

// Contains returns true if addr falls inside the span.
func (s Span) Contains(addr uint32) bool {
	return addr >= s.Start && addr-s.Start < s.Length
}

// Contains returns true if addr falls inside the region r.
func Contains(r Region, addr uint32) bool {
	return addr >= r.Base() && addr-r.Base() < r.Size()
}
