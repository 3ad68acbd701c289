package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexaflex/cvm/devices/testhost"
)

const (
	black = 0xff000000
	white = 0xffffffff
	red   = 0xffcc6666
)

func startup(t *testing.T) (*Device, *testhost.Host) {
	t.Helper()

	d := New()
	h := testhost.New()
	require.NoError(t, d.Startup(h))

	d.Write32(Base, 0, black)
	d.Write32(Base+4, 4, white)
	d.Write32(Base+8, 8, red)
	return d, h
}

func TestPalette(t *testing.T) {
	d, h := startup(t)

	assert.Equal(t, uint32(white), d.Read32(Base+4, 4))
	assert.Equal(t, uint16(0x6666), d.Read16(Base+8, 8))
	assert.Equal(t, uint8(0xcc), d.Read8(Base+10, 10))

	h.InB[PortClear](2)
	assert.Equal(t, uint32(red), d.Pixel(0, 0))
	assert.Equal(t, uint32(red), d.Pixel(Width-1, Height-1))
}

func TestDrawCell(t *testing.T) {
	d, _ := startup(t)

	// Row 1, column 2: 'A', white on black.
	pos := uint32(PaletteBytes + Stride + 4)
	d.Write8(Base+pos, pos, 0x01)
	assert.Equal(t, 0, countPixels(d, 2, 1, white), "cell drawn before the character write")
	assert.Equal(t, uint8(0), d.Text(1)[2])

	d.Write8(Base+pos+1, pos+1, 'A')
	n := countPixels(d, 2, 1, white)
	assert.Greater(t, n, 10)
	assert.Less(t, n, CellWidth*CellHeight/2)
	assert.Equal(t, CellWidth*CellHeight-n, countPixels(d, 2, 1, black))

	// Neighbouring cells are untouched.
	assert.Equal(t, 0, countPixels(d, 1, 1, white))
	assert.Equal(t, 0, countPixels(d, 3, 1, white))

	assert.Equal(t, 'A', rune(d.Text(1)[2]))
}

func TestDrawCellWide(t *testing.T) {
	d, _ := startup(t)

	// A 16-bit write sets attribute and character at once: a space
	// on a red background.
	pos := uint32(PaletteBytes)
	d.Write16(Base+pos, pos, ' '<<8|0x20)
	assert.Equal(t, CellWidth*CellHeight, countPixels(d, 0, 0, red))
	assert.Equal(t, uint8(' '), d.Text(0)[0])

	// 'H' in white on red, written the way programs store cells.
	d.Write16(Base+pos+2, pos+2, 'H'<<8|0x21)
	assert.Greater(t, countPixels(d, 1, 0, white), 10)
	assert.Equal(t, "H", d.Text(0)[1:2])

	// Non-printable characters only draw the background.
	d.Write16(Base+pos, pos, 0x0101)
	assert.Equal(t, CellWidth*CellHeight, countPixels(d, 0, 0, black))
}

func TestPorts(t *testing.T) {
	d, h := startup(t)

	assert.False(t, d.OpenRequested())
	h.InB[PortOpen](2)
	assert.False(t, d.OpenRequested())
	h.InB[PortOpen](1)
	assert.True(t, d.OpenRequested())

	assert.Equal(t, 1, d.Scale())
	h.InB[PortScale](3)
	assert.Equal(t, 3, d.Scale())
	h.InB[PortScale](0)
	assert.Equal(t, 3, d.Scale())

	d.KeyEvent(true, 0x1e)
	d.KeyEvent(false, 0x1e)

	pop := h.OutB[PortKeyboard]
	assert.Equal(t, []uint8{1, 0x1e, 0, 0x1e, 0}, []uint8{pop(), pop(), pop(), pop(), pop()})
}

func TestClose(t *testing.T) {
	d, h := startup(t)
	d.Close()
	assert.True(t, h.PoweredOff())
}

func TestSnapshot(t *testing.T) {
	d, h := startup(t)

	frame := make([]uint32, Width*Height)
	assert.True(t, d.Snapshot(frame))
	assert.False(t, d.Snapshot(frame))

	h.InB[PortClear](1)
	assert.True(t, d.Snapshot(frame))
	assert.Equal(t, uint32(white), frame[Width*Height/2])
}

// countPixels counts the pixels of the given colour in a cell.
func countPixels(d *Device, col, row int, color uint32) int {
	var n int
	for y := row * CellHeight; y < (row+1)*CellHeight; y++ {
		for x := col * CellWidth; x < (col+1)*CellWidth; x++ {
			if d.Pixel(x, y) == color {
				n++
			}
		}
	}
	return n
}
