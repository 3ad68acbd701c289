package main

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/hexaflex/cvm/devices/fffe/cpu"
)

// tracePrinter prints instruction trace data. Output can be toggled
// while the machine runs.
type tracePrinter struct {
	enabled atomic.Bool
}

func newTracePrinter(enabled bool) *tracePrinter {
	var tp tracePrinter
	tp.enabled.Store(enabled)
	return &tp
}

// Toggle enables or disables trace output.
func (tp *tracePrinter) Toggle() {
	tp.enabled.Store(!tp.enabled.Load())
}

// Print writes the given instruction to stdout if tracing is enabled.
func (tp *tracePrinter) Print(i *cpu.Instruction) {
	if !tp.enabled.Load() {
		return
	}
	fmt.Println(formatTrace(i))
}

// formatTrace returns the trace line for the given instruction.
func formatTrace(i *cpu.Instruction) string {
	var sb strings.Builder
	sb.Grow(80)

	fmt.Fprintf(&sb, "%08x  %s", i.IP, i)
	if i.HasMode {
		pad(&sb, 48)
		fmt.Fprintf(&sb, " ; %s", i.Mode)
	}

	return sb.String()
}

// pad padds sb with spaces until it reaches the given size.
var pad = func() func(*strings.Builder, int) {
	set := strings.Repeat(" ", 80)
	return func(sb *strings.Builder, size int) {
		if sb.Len() >= size {
			return
		}
		if size > len(set) {
			size = len(set)
		}
		sb.WriteString(set[:size-sb.Len()])
	}
}()
