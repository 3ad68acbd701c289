package devices

import "fmt"

// ID identifies a device.
// The upper 16 bits hold the device manufacturer id.
// The lower 16 bits hold the device serial number.
type ID uint32

// Manufacturer id of the builtin hardware.
const Builtin = 0xfffe

// Serial numbers of the builtin hardware.
const (
	SerialCPU     = 0x0001
	SerialScreen  = 0x0002
	SerialGamepad = 0x0003
	SerialStorage = 0x0004
	SerialClock   = 0x0005
	SerialConsole = 0x0006
)

// NewID creates a new id with the given components.
func NewID(manufacturer, serial int) ID {
	return ID(manufacturer&0xffff)<<16 | ID(serial&0xffff)
}

// Manufacturer returns the manufacturer component of the Id.
func (id ID) Manufacturer() int {
	return int(id>>16) & 0xffff
}

// Serial returns the device serial number component of the Id.
func (id ID) Serial() int {
	return int(id) & 0xffff
}

func (id ID) String() string {
	return fmt.Sprintf("%04x:%04x", id.Manufacturer(), id.Serial())
}
