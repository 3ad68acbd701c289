package asm

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Line maps an emitted statement to its source.
type Line struct {
	Address uint32   // Address of the first byte.
	Size    int      // Number of emitted bytes.
	Pos     Position // Source position.
}

// Program defines a compiled program image along with its symbols.
type Program struct {
	Code        []byte            // Image data, loaded at address 0.
	Symbols     map[string]uint32 // Label addresses by lower case name.
	Breakpoints []uint32          // Addresses marked with "break".
	Lines       []Line            // Source context per emitted statement.
}

// Find returns the source line covering the given address.
// Returns nil if there is none.
func (p *Program) Find(addr uint32) *Line {
	i := sort.Search(len(p.Lines), func(i int) bool {
		return p.Lines[i].Address+uint32(p.Lines[i].Size) > addr
	})

	if i < len(p.Lines) && p.Lines[i].Address <= addr {
		return &p.Lines[i]
	}

	return nil
}

// String returns a human-readable dump of the program.
func (p *Program) String() string {
	var sb strings.Builder

	if len(p.Symbols) > 0 {
		names := make([]string, 0, len(p.Symbols))
		for name := range p.Symbols {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return p.Symbols[names[i]] < p.Symbols[names[j]]
		})

		fmt.Fprintf(&sb, "Symbols (%d):\n", len(names))
		for _, name := range names {
			fmt.Fprintf(&sb, " %08x %s\n", p.Symbols[name], name)
		}
	}

	if len(p.Breakpoints) > 0 {
		fmt.Fprintf(&sb, "Breakpoints (%d):\n", len(p.Breakpoints))
		for _, addr := range p.Breakpoints {
			fmt.Fprintf(&sb, " %08x\n", addr)
		}
	}

	if len(p.Code) > 0 {
		fmt.Fprintf(&sb, "Code:\n")
		fmt.Fprintf(&sb, "%s\n", hex.Dump(p.Code))
	}

	return sb.String()
}
