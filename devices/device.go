package devices

import (
	"log"

	"github.com/pkg/errors"
)

// Device represents a hardware unit attached to the machine.
// It interacts with a program through port I/O, memory mapped regions
// and interrupts.
type Device interface {
	// ID yields the manufacturer and serial number for the device.
	ID() ID

	// Startup initializes internal resources.
	//
	// The Host is the machine the device is attached to. A device claims
	// its I/O ports through it during startup and uses it later on to
	// raise interrupts and deliver keyboard events.
	Startup(Host) error

	// Shutdown cleans up internal resources.
	Shutdown() error

	// Pause is called when execution is suspended, for example when
	// a breakpoint is reached.
	Pause()
}

// Map contains a list of registered peripherals.
type Map []Device

// Connect adds the given device to the device map.
// Returns false if the device type is already present in the set.
func (dm *Map) Connect(dev Device) bool {
	if (*dm).Find(dev.ID()) > -1 {
		return false
	}

	*dm = append(*dm, dev)
	return true
}

// Startup initializes internal resources.
func (dm Map) Startup(h Host) error {
	var errorset ErrorSet

	for _, dev := range dm {
		log.Println(dev.ID(), "startup")
		if err := dev.Startup(h); err != nil {
			errorset.Append(errors.Wrapf(err, "%s", dev.ID()))
		}
	}

	return errorset.Err()
}

// Shutdown cleans up internal resources.
func (dm Map) Shutdown() error {
	var errorset ErrorSet

	for _, dev := range dm {
		log.Println(dev.ID(), "shutdown")
		if err := dev.Shutdown(); err != nil {
			errorset.Append(errors.Wrapf(err, "%s", dev.ID()))
		}
	}

	return errorset.Err()
}

// Pause notifies all devices that execution has been suspended.
func (dm Map) Pause() {
	for _, dev := range dm {
		dev.Pause()
	}
}

// Find returns the index for the device with the given id.
// Returns -1 if it can't be found.
func (dm Map) Find(id ID) int {
	for i, dev := range dm {
		if dev.ID() == id {
			return i
		}
	}
	return -1
}
