package cpu

import (
	"github.com/hexaflex/cvm/arch"
)

// view locates a general register view within the register backing store.
type view struct {
	reg    uint8 // General register index.
	offset uint8 // Index of the lowest byte.
	width  uint8 // Number of bytes.
}

// views maps general register codes to their backing bytes.
// Bytes are stored little-endian: index 0 holds LL, index 3 holds HH.
var views = func() (v [arch.GeneralCount * arch.ViewCount]view) {
	layout := [arch.ViewCount]struct{ offset, width uint8 }{
		arch.ViewFull: {0, 4},
		arch.ViewH:    {2, 2},
		arch.ViewL:    {0, 2},
		arch.ViewHH:   {3, 1},
		arch.ViewHL:   {2, 1},
		arch.ViewLH:   {1, 1},
		arch.ViewLL:   {0, 1},
	}
	for i := 0; i < arch.GeneralCount; i++ {
		for j, l := range layout {
			v[arch.General(i, j)] = view{uint8(i), l.offset, l.width}
		}
	}
	return
}()

// Registers defines the architectural register state.
//
// Each general register is a 4-byte array. Its full, half and quarter
// views are computed byte ranges within that array, so they can never
// disagree.
type Registers struct {
	general [arch.GeneralCount][4]byte

	Flags  uint16
	Clocks uint16

	CS, DS, SS uint32
	PC, SP, BP uint32
}

// Read returns the value of the register with the given code,
// zero-extended to 32 bits. It panics with a *RegisterError if the code is
// unknown.
func (r *Registers) Read(code int) uint32 {
	if code >= 0 && code < len(views) {
		v := views[code]
		b := r.general[v.reg][v.offset : v.offset+v.width]

		var value uint32
		for i := len(b) - 1; i >= 0; i-- {
			value = value<<8 | uint32(b[i])
		}
		return value
	}

	switch code {
	case arch.Flags:
		return uint32(r.Flags)
	case arch.Clocks:
		return uint32(r.Clocks)
	case arch.CS:
		return r.CS
	case arch.DS:
		return r.DS
	case arch.SS:
		return r.SS
	case arch.PC:
		return r.PC
	case arch.SP:
		return r.SP
	case arch.BP:
		return r.BP
	}

	panic(&RegisterError{Code: code})
}

// Write sets the register with the given code. Narrow views only
// receive the low bits of value. It panics with a *RegisterError if the
// code is unknown.
func (r *Registers) Write(code int, value uint32) {
	if code >= 0 && code < len(views) {
		v := views[code]
		b := r.general[v.reg][v.offset : v.offset+v.width]

		for i := range b {
			b[i] = byte(value)
			value >>= 8
		}
		return
	}

	switch code {
	case arch.Flags:
		r.Flags = uint16(value)
	case arch.Clocks:
		r.Clocks = uint16(value)
	case arch.CS:
		r.CS = value
	case arch.DS:
		r.DS = value
	case arch.SS:
		r.SS = value
	case arch.PC:
		r.PC = value
	case arch.SP:
		r.SP = value
	case arch.BP:
		r.BP = value
	default:
		panic(&RegisterError{Code: code})
	}
}

// Width returns the width of the given register in bytes.
// Returns 0 if the code is unknown.
func Width(code int) int {
	switch {
	case code >= 0 && code < len(views):
		return int(views[code].width)
	case code == arch.Flags, code == arch.Clocks:
		return 2
	case code > arch.Clocks && code < arch.RegisterCount:
		return 4
	}
	return 0
}
