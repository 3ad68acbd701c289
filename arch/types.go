package arch

import (
	"strings"
)

// Size defines an operand width as encoded in an instruction's size byte.
//
// Note that the names follow this system's own convention: a word is a single
// byte, a dword two bytes and a qword four bytes.
type Size byte

// Known operand sizes.
const (
	Word  Size = 0
	DWord Size = 1
	QWord Size = 2
)

// Bytes returns the number of bytes covered by the size.
// Returns 0 if the size is not recognized.
func (s Size) Bytes() int {
	switch s {
	case Word:
		return 1
	case DWord:
		return 2
	case QWord:
		return 4
	}
	return 0
}

// Valid returns true if s is a known size.
func (s Size) Valid() bool {
	return s.Bytes() > 0
}

// Mask returns a bit mask covering the size.
func (s Size) Mask() uint32 {
	switch s {
	case Word:
		return 0xff
	case DWord:
		return 0xffff
	}
	return 0xffffffff
}

func (s Size) String() string {
	switch s {
	case Word:
		return "WORD"
	case DWord:
		return "DWORD"
	case QWord:
		return "QWORD"
	}
	return "INVALID"
}

// ParseSize returns the size matching the given name.
// Returns false if no match was found.
func ParseSize(name string) (Size, bool) {
	switch strings.ToUpper(name) {
	case "WORD":
		return Word, true
	case "DWORD":
		return DWord, true
	case "QWORD":
		return QWord, true
	}
	return 0, false
}
