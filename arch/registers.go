package arch

import "strings"

// GeneralCount is the number of general purpose registers.
const GeneralCount = 10

// Views of a general purpose register. A register code is the code of the
// register's full view plus one of these offsets.
const (
	ViewFull = iota // All 32 bits.
	ViewH           // Upper 16 bits.
	ViewL           // Lower 16 bits.
	ViewHH          // Bits 24-31.
	ViewHL          // Bits 16-23.
	ViewLH          // Bits 8-15.
	ViewLL          // Bits 0-7.

	ViewCount
)

// Register codes of the general purpose registers' full views.
const (
	A = iota * ViewCount
	B
	C
	D
	E
	F
	W
	X
	Y
	Z
)

// Register codes of the special registers.
const (
	Flags = GeneralCount*ViewCount + iota
	Clocks
	CS
	DS
	SS
	PC
	SP
	BP

	// RegisterCount is the number of addressable register codes.
	RegisterCount
)

// Flags register bits.
const (
	FlagZero      = 1 << 0
	FlagUnderflow = 1 << 1
	FlagOverflow  = 1 << 2
	FlagParity    = 1 << 3
)

var (
	generalNames = [GeneralCount]string{"A", "B", "C", "D", "E", "F", "W", "X", "Y", "Z"}
	viewSuffix   = [ViewCount]string{"", "H", "L", "HH", "HL", "LH", "LL"}
	specialNames = [RegisterCount - Flags]string{"FLAGS", "CLOCKS", "CS", "DS", "SS", "PC", "SP", "BP"}
)

var registerNames = func() [RegisterCount]string {
	var names [RegisterCount]string
	for i, g := range generalNames {
		for v, s := range viewSuffix {
			names[i*ViewCount+v] = g + s
		}
	}
	for i, s := range specialNames {
		names[Flags+i] = s
	}
	return names
}()

var registerIndex = func() map[string]int {
	m := make(map[string]int, RegisterCount)
	for code, name := range registerNames {
		m[name] = code
	}
	return m
}()

// IsRegister returns true if the given name represents a known register.
func IsRegister(name string) bool {
	return RegisterIndex(name) > -1
}

// RegisterIndex returns the code for the given register.
// Returns -1 if the name is not recognized.
func RegisterIndex(name string) int {
	if code, ok := registerIndex[strings.ToUpper(name)]; ok {
		return code
	}
	return -1
}

// RegisterName returns the name associated with the given register code.
// Returns "" if the code is not recognized.
func RegisterName(code int) string {
	if code < 0 || code >= RegisterCount {
		return ""
	}
	return registerNames[code]
}

// General returns the register code for view v of general register index i.
func General(i, v int) int {
	return i*ViewCount + v
}
