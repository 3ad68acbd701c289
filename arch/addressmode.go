package arch

// AddressMode defines instruction addressing modes.
//
// Two-operand modes combine a destination kind with a source kind. The
// operand kinds are an immediate literal, a register, an absolute memory
// address (Indirect) and a memory address held in a register (RIndirect).
type AddressMode byte

// Known address modes.
const (
	ImmediateImmediate AddressMode = iota
	ImmediateRegister
	ImmediateIndirect
	ImmediateRIndirect
	RegisterImmediate
	RegisterRegister
	RegisterIndirect
	RegisterRIndirect
	IndirectImmediate
	IndirectRegister
	IndirectIndirect
	IndirectRIndirect
	RIndirectImmediate
	RIndirectRegister
	RIndirectIndirect
	RIndirectRIndirect
	Immediate
	Register
	Indirect
	RIndirect

	// AddressModeCount is the number of valid address modes.
	AddressModeCount
)

var addressModeNames = [AddressModeCount]string{
	"Immediate Immediate",
	"Immediate Register",
	"Immediate Indirect",
	"Immediate RegisterIndirect",
	"Register Immediate",
	"Register Register",
	"Register Indirect",
	"Register RegisterIndirect",
	"Indirect Immediate",
	"Indirect Register",
	"Indirect Indirect",
	"Indirect RegisterIndirect",
	"RegisterIndirect Immediate",
	"RegisterIndirect Register",
	"RegisterIndirect Indirect",
	"RegisterIndirect RegisterIndirect",
	"Immediate",
	"Register",
	"Indirect",
	"RegisterIndirect",
}

// Valid returns true if m is a known address mode.
func (m AddressMode) Valid() bool {
	return m < AddressModeCount
}

// Unary returns true for the single-operand modes.
func (m AddressMode) Unary() bool {
	return m >= Immediate && m < AddressModeCount
}

// ImmediateDestination returns true for two-operand modes whose first
// operand is a literal.
func (m AddressMode) ImmediateDestination() bool {
	return m <= ImmediateRIndirect
}

func (m AddressMode) String() string {
	if !m.Valid() {
		return "Invalid"
	}
	return addressModeNames[m]
}
