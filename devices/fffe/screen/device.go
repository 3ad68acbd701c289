// Package screen implements a text mode display with keyboard input.
//
// The display memory is mapped onto the bus. The first 1024 bytes hold a
// palette of 256 ARGB colours. They are followed by an 80x25 grid of
// character cells. Each cell is an attribute byte followed by a character
// byte. The attribute's low nibble selects the foreground colour and its
// high nibble selects the background colour. Writing a cell's character
// byte draws the cell.
package screen

import (
	"image"
	"log"
	"sync"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hexaflex/cvm/devices"
)

// Base is the bus address of the display memory.
const Base = 0xa0000

// Various display properties.
const (
	Columns      = 80                       // Character cells per row.
	Rows         = 25                       // Character rows.
	Stride       = Columns * 2              // Bytes per row of cells.
	CellWidth    = 8                        // Cell width in pixels.
	CellHeight   = 16                       // Cell height in pixels.
	Width        = Columns * CellWidth      // Display width in pixels.
	Height       = Rows * CellHeight        // Display height in pixels.
	PaletteSize  = 256                      // Number of palette colours.
	PaletteBytes = PaletteSize * 4          // Size of the palette in display memory.
	TextBytes    = Stride * Rows            // Size of the cell grid in display memory.
	MemorySize   = TextBytes + PaletteBytes // Size of the mapped display memory.
	baseline     = 13                       // Glyph baseline within a cell.
)

// Ports claimed by the display.
const (
	PortScale    = 0x00 // in: window scale factor.
	PortOpen     = 0x01 // in: 1 requests the display window.
	PortClear    = 0x02 // in: fill the display with a palette colour.
	PortKeyboard = 0x0a // out: pop the keyboard queue.
)

var face = basicfont.Face7x13

// Device defines a text mode display.
type Device struct {
	devices.Span
	m     sync.Mutex
	host  devices.Host
	mem   [MemorySize]byte       // Display memory.
	frame [Width * Height]uint32 // Rendered ARGB pixels.
	scale int                    // Requested window scale.
	open  bool                   // Was the window requested?
	dirty bool                   // Frame changed since the last Snapshot?
	gl    glState                // Presentation resources.
}

var (
	_ devices.Device = &Device{}
	_ devices.Region = &Device{}
)

// New creates a new display.
func New() *Device {
	return &Device{
		Span:  devices.Span{Start: Base, Length: MemorySize},
		scale: 1,
	}
}

// ID returns the device identifier.
func (d *Device) ID() devices.ID {
	return devices.NewID(devices.Builtin, devices.SerialScreen)
}

// Startup claims the display ports.
func (d *Device) Startup(h devices.Host) error {
	d.m.Lock()
	d.host = h
	d.dirty = true
	d.m.Unlock()

	h.RequestPortInB(PortScale, d.setScale)
	h.RequestPortInB(PortOpen, d.requestOpen)
	h.RequestPortInB(PortClear, d.clear)
	h.RequestPortOutB(PortKeyboard, h.PopKey)
	return nil
}

// Shutdown releases the host.
func (d *Device) Shutdown() error {
	d.m.Lock()
	d.host = nil
	d.open = false
	d.m.Unlock()
	return nil
}

// Pause does nothing. The display keeps showing its last frame.
func (d *Device) Pause() {}

// KeyEvent forwards a key press or release to the machine.
func (d *Device) KeyEvent(down bool, code uint8) {
	if h := d.currentHost(); h != nil {
		h.KeyEvent(down, code)
	}
}

// Close reports that the user closed the display. It powers off the machine.
func (d *Device) Close() {
	if h := d.currentHost(); h != nil {
		log.Println(d.ID(), "closed")
		h.PowerOff()
	}
}

func (d *Device) currentHost() devices.Host {
	d.m.Lock()
	defer d.m.Unlock()
	return d.host
}

// OpenRequested returns true once a program asked for the display window.
func (d *Device) OpenRequested() bool {
	d.m.Lock()
	defer d.m.Unlock()
	return d.open
}

// Scale returns the requested window scale factor.
func (d *Device) Scale() int {
	d.m.Lock()
	defer d.m.Unlock()
	return d.scale
}

// Snapshot copies the current frame into dst if it changed since the
// last call. Returns false if nothing changed.
func (d *Device) Snapshot(dst []uint32) bool {
	d.m.Lock()
	defer d.m.Unlock()

	if !d.dirty {
		return false
	}

	copy(dst, d.frame[:])
	d.dirty = false
	return true
}

// Pixel returns the ARGB colour at the given position.
func (d *Device) Pixel(x, y int) uint32 {
	d.m.Lock()
	defer d.m.Unlock()
	return d.frame[y*Width+x]
}

// Text returns the characters of the given cell row.
func (d *Device) Text(row int) string {
	d.m.Lock()
	defer d.m.Unlock()

	line := make([]byte, Columns)
	cells := d.mem[PaletteBytes+row*Stride:]
	for i := range line {
		line[i] = cells[i*2+1]
	}
	return string(line)
}

func (d *Device) setScale(v uint8) {
	if v == 0 {
		return
	}

	d.m.Lock()
	d.scale = int(v)
	d.m.Unlock()
}

func (d *Device) requestOpen(v uint8) {
	if v != 1 {
		return
	}

	d.m.Lock()
	d.open = true
	d.m.Unlock()
}

// clear fills the frame with palette colour n.
func (d *Device) clear(n uint8) {
	d.m.Lock()
	defer d.m.Unlock()

	c := d.color(n)
	for i := range d.frame {
		d.frame[i] = c
	}
	d.dirty = true
}

// color returns palette entry n.
func (d *Device) color(n uint8) uint32 {
	p := d.mem[int(n)*4:]
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

// drawCell renders the character cell starting at text offset pos.
func (d *Device) drawCell(pos int) {
	attr := d.mem[PaletteBytes+pos]
	ch := d.mem[PaletteBytes+pos+1]
	fg, bg := d.color(attr&0x0f), d.color(attr>>4)

	x0 := (pos % Stride) / 2 * CellWidth
	y0 := pos / Stride * CellHeight

	for y := y0; y < y0+CellHeight; y++ {
		row := d.frame[y*Width+x0 : y*Width+x0+CellWidth]
		for x := range row {
			row[x] = bg
		}
	}

	d.dirty = true

	if !printable(ch) {
		return
	}

	dr, mask, mp, _, ok := face.Glyph(fixed.P(x0, y0+baseline), rune(ch))
	if !ok {
		return
	}

	cell := image.Rect(x0, y0, x0+CellWidth, y0+CellHeight)
	dr = dr.Intersect(cell)

	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		for x := dr.Min.X; x < dr.Max.X; x++ {
			_, _, _, a := mask.At(mp.X+x-dr.Min.X, mp.Y+y-dr.Min.Y).RGBA()
			if a >= 0x8000 {
				d.frame[y*Width+x] = fg
			}
		}
	}
}

// Read8 returns the display memory byte at rel.
func (d *Device) Read8(_, rel uint32) uint8 {
	d.m.Lock()
	defer d.m.Unlock()
	return d.mem[rel]
}

// Read16 returns the little-endian display memory value at rel.
func (d *Device) Read16(_, rel uint32) uint16 {
	d.m.Lock()
	defer d.m.Unlock()
	return uint16(d.mem[rel]) | uint16(d.mem[rel+1])<<8
}

// Read32 returns the little-endian display memory value at rel.
func (d *Device) Read32(_, rel uint32) uint32 {
	d.m.Lock()
	defer d.m.Unlock()
	m := d.mem[rel : rel+4]
	return uint32(m[0]) | uint32(m[1])<<8 | uint32(m[2])<<16 | uint32(m[3])<<24
}

// Write8 sets the display memory byte at rel. Writing a cell's character
// byte draws the cell.
func (d *Device) Write8(_, rel uint32, v uint8) {
	d.m.Lock()
	defer d.m.Unlock()
	d.store(rel, v)
}

// Write16 stores v little-endian at rel.
func (d *Device) Write16(_, rel uint32, v uint16) {
	d.m.Lock()
	defer d.m.Unlock()
	d.store(rel, uint8(v))
	d.store(rel+1, uint8(v>>8))
}

// Write32 stores v little-endian at rel.
func (d *Device) Write32(_, rel uint32, v uint32) {
	d.m.Lock()
	defer d.m.Unlock()
	for i := uint32(0); i < 4; i++ {
		d.store(rel+i, uint8(v>>(8*i)))
	}
}

func (d *Device) store(rel uint32, v uint8) {
	d.mem[rel] = v

	if rel < PaletteBytes {
		return
	}

	if pos := int(rel - PaletteBytes); pos%2 == 1 {
		d.drawCell(pos - 1)
	}
}

// printable returns true if ch has a glyph.
func printable(ch uint8) bool {
	return ch >= 0x20 && ch < 0x7f || ch >= 0xa0
}
