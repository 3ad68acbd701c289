// Package storage implements a block storage unit backed by an image file.
//
// The unit exposes a 512 byte window into its data. Ports select which
// part of the data the window shows: the window starts at
// sector*SectorSize + lane*LaneSize.
package storage

import (
	"log"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/hexaflex/cvm/devices"
)

// Storage geometry.
const (
	WindowSize  = 512
	SectorSize  = 256
	SectorCount = 256
	LaneSize    = SectorSize * SectorCount
	ImageSize   = WindowSize * SectorSize * SectorCount
)

// Base is the bus address of the storage window.
const Base = 0x70000

// Ports claimed by the unit.
const (
	PortSector = 0x10 // in: select sector.
	PortLane   = 0x11 // in: select lane.
	PortState  = 0x12 // out: device state.
)

// Known device states.
const (
	StateNoMedia = iota
	StateReady
	StateReadyWP
)

// Device defines a storage unit.
type Device struct {
	devices.Span
	m        sync.Mutex
	file     string // Backing file for the image data.
	data     []byte // Image data.
	sector   uint32 // Selected sector.
	lane     uint32 // Selected lane.
	readonly bool   // Discard writes?
}

var (
	_ devices.Device = &Device{}
	_ devices.Region = &Device{}
)

// New creates a storage unit for the given image file.
// An empty file name yields a blank, volatile image.
func New(file string, readonly bool) *Device {
	return &Device{
		Span:     devices.Span{Start: Base, Length: WindowSize},
		file:     file,
		readonly: readonly,
	}
}

// ID returns the device Id.
func (d *Device) ID() devices.ID {
	return devices.NewID(devices.Builtin, devices.SerialStorage)
}

// Startup loads the image file and claims the unit's ports.
// A missing file yields a blank image.
func (d *Device) Startup(h devices.Host) error {
	d.m.Lock()
	defer d.m.Unlock()

	d.sector = 0
	d.lane = 0

	data, err := readImage(d.file)
	if err != nil {
		return err
	}
	d.data = data

	h.RequestPortInB(PortSector, d.selectSector)
	h.RequestPortInB(PortLane, func(v uint8) { d.selectLane(uint16(v)) })
	h.RequestPortInD(PortLane, d.selectLane)
	h.RequestPortOutB(PortState, d.state)
	return nil
}

// Shutdown writes the image back to its file.
func (d *Device) Shutdown() error {
	d.m.Lock()
	defer d.m.Unlock()

	data := d.data
	d.data = nil

	if len(d.file) == 0 || d.readonly || data == nil {
		return nil
	}

	log.Println(d.ID(), "writing", d.file)
	return errors.Wrap(os.WriteFile(d.file, data, 0644), "storage")
}

// Pause does nothing. Writes reach the image immediately.
func (d *Device) Pause() {}

// readImage loads an image file. A missing file yields a blank image.
func readImage(file string) ([]byte, error) {
	if len(file) == 0 {
		return make([]byte, ImageSize), nil
	}

	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		log.Println(devices.NewID(devices.Builtin, devices.SerialStorage), "no image at", file)
		return make([]byte, ImageSize), nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "storage")
	}

	if len(data) != ImageSize {
		return nil, errors.Errorf("invalid image size; expected %d, have %d", ImageSize, len(data))
	}

	log.Println(devices.NewID(devices.Builtin, devices.SerialStorage), "read", file)
	return data, nil
}

// CreateImage writes a blank image to the given file.
func CreateImage(file string) error {
	return errors.Wrap(os.WriteFile(file, make([]byte, ImageSize), 0644), "storage")
}

func (d *Device) selectSector(v uint8) {
	d.m.Lock()
	d.sector = uint32(v)
	d.m.Unlock()
}

func (d *Device) selectLane(v uint16) {
	d.m.Lock()
	d.lane = uint32(v)
	d.m.Unlock()
}

func (d *Device) state() uint8 {
	d.m.Lock()
	defer d.m.Unlock()

	switch {
	case d.data == nil:
		return StateNoMedia
	case d.readonly:
		return StateReadyWP
	}
	return StateReady
}

// offset returns the image offset of the given window address.
// Returns false if it falls outside of the image.
func (d *Device) offset(rel, n uint32) (int, bool) {
	off := uint64(rel) + uint64(d.sector)*SectorSize + uint64(d.lane)*LaneSize
	if d.data == nil || off+uint64(n) > uint64(len(d.data)) {
		return 0, false
	}
	return int(off), true
}

// Read8 returns the byte at the given window address.
func (d *Device) Read8(_, rel uint32) uint8 {
	d.m.Lock()
	defer d.m.Unlock()

	if off, ok := d.offset(rel, 1); ok {
		return d.data[off]
	}
	return 0
}

// Read16 returns the big-endian value at the given window address.
func (d *Device) Read16(_, rel uint32) uint16 {
	d.m.Lock()
	defer d.m.Unlock()

	if off, ok := d.offset(rel, 2); ok {
		return uint16(d.data[off])<<8 | uint16(d.data[off+1])
	}
	return 0
}

// Read32 returns the big-endian value at the given window address.
func (d *Device) Read32(_, rel uint32) uint32 {
	d.m.Lock()
	defer d.m.Unlock()

	if off, ok := d.offset(rel, 4); ok {
		m := d.data[off : off+4]
		return uint32(m[0])<<24 | uint32(m[1])<<16 | uint32(m[2])<<8 | uint32(m[3])
	}
	return 0
}

// Write8 sets the byte at the given window address.
func (d *Device) Write8(_, rel uint32, v uint8) {
	d.m.Lock()
	defer d.m.Unlock()

	if off, ok := d.offset(rel, 1); ok && !d.readonly {
		d.data[off] = v
	}
}

// Write16 stores v big-endian at the given window address.
func (d *Device) Write16(_, rel uint32, v uint16) {
	d.m.Lock()
	defer d.m.Unlock()

	if off, ok := d.offset(rel, 2); ok && !d.readonly {
		d.data[off] = byte(v >> 8)
		d.data[off+1] = byte(v)
	}
}

// Write32 stores v big-endian at the given window address.
func (d *Device) Write32(_, rel uint32, v uint32) {
	d.m.Lock()
	defer d.m.Unlock()

	if off, ok := d.offset(rel, 4); ok && !d.readonly {
		m := d.data[off : off+4]
		m[0] = byte(v >> 24)
		m[1] = byte(v >> 16)
		m[2] = byte(v >> 8)
		m[3] = byte(v)
	}
}
