package cpu

import (
	"fmt"

	"github.com/pkg/errors"
)

// Fault kinds. Every *Error has one of these as its cause.
var (
	ErrUnimplemented     = errors.New("unimplemented")
	ErrImpossible        = errors.New("impossible")
	ErrBus               = errors.New("bus error")
	ErrRegister          = errors.New("invalid register")
	ErrNoDescriptorTable = errors.New("no interrupt descriptor table")
)

// Error defines a runtime fault.
type Error struct {
	*Instruction
	Kind error
	Msg  string
}

// NewError creates a new, formatted fault for the given instruction.
// The instruction is copied, so the error remains valid after the
// next execution step.
func NewError(instr *Instruction, kind error, f string, argv ...interface{}) *Error {
	in := *instr
	return &Error{
		Instruction: &in,
		Kind:        kind,
		Msg:         fmt.Sprintf(f, argv...),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%08x: %s", e.IP, e.Msg)
}

// Cause returns the fault kind.
func (e *Error) Cause() error { return e.Kind }

// Unwrap returns the fault kind.
func (e *Error) Unwrap() error { return e.Kind }

// BusError is returned for accesses outside of RAM which are not claimed
// by any memory mapped region.
type BusError struct {
	Addr  uint32
	Width int
	Write bool
}

func (e *BusError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	return fmt.Sprintf("%d-byte %s out of bounds at $%08x", e.Width, op, e.Addr)
}

// Cause returns ErrBus.
func (e *BusError) Cause() error { return ErrBus }

// Unwrap returns ErrBus.
func (e *BusError) Unwrap() error { return ErrBus }

// RegisterError is raised when an unknown register code is used.
type RegisterError struct {
	Code int
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("unknown register code $%02x", e.Code)
}

// Cause returns ErrRegister.
func (e *RegisterError) Cause() error { return ErrRegister }

// Unwrap returns ErrRegister.
func (e *RegisterError) Unwrap() error { return ErrRegister }
