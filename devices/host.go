package devices

// Host is the machine side of the hardware unit contract.
type Host interface {
	// RequestPortInB installs the handler receiving 8-bit values
	// delivered to the given port by a program.
	RequestPortInB(port uint8, fn func(uint8))
	RequestPortInD(port uint8, fn func(uint16))
	RequestPortInQ(port uint8, fn func(uint32))

	// RequestPortOutB installs the handler supplying 8-bit values
	// a program requests from the given port.
	RequestPortOutB(port uint8, fn func() uint8)
	RequestPortOutD(port uint8, fn func() uint16)
	RequestPortOutQ(port uint8, fn func() uint32)

	// MapRegion registers a memory mapped region on the system bus.
	MapRegion(Region)

	// Interrupt raises the given interrupt line. It is dropped if
	// interrupts are disabled by the time the request is processed.
	Interrupt(line uint8)

	// KeyEvent reports a key press or release.
	KeyEvent(down bool, code uint8)

	// PopKey removes the oldest entry from the keyboard queue.
	// Returns 0 if the queue is empty. It must only be called from
	// within a port handler.
	PopKey() uint8

	// PowerOff requests machine shutdown.
	PowerOff()
}
