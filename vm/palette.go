package vm

// PaletteAddr is the bus address of the display palette.
const PaletteAddr = 0xa0000

// DefaultPalette holds the colours written to PaletteAddr during boot,
// as little-endian ARGB values.
var DefaultPalette = [16]uint32{
	0xff1d1f21, 0xff5f819d, 0xff8c9440, 0xff5e8d87,
	0xffa54242, 0xff85678f, 0xffde935f, 0xff707880,
	0xff81a2be, 0xffb5bd68, 0xff8abeb7, 0xffcc6666,
	0xffb294bb, 0xfff0c674, 0xffc5c8c6, 0xffffffff,
}
