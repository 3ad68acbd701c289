package cpu

import (
	"bytes"
	"testing"

	"github.com/hexaflex/cvm/arch"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMemorySize = 0x10000

func TestNOP(t *testing.T) {
	//   NOP
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.NOP)
	ct.emit(arch.HLT)

	ct.want[arch.PC] = 2
	c := runTest(t, ct)
	assert.Equal(t, On|Halted, c.Status())
}

func TestMOVRegisterImmediate(t *testing.T) {
	//   MOV.QWORD A, $12345678
	//   MOV.WORD  BLL, $ff
	//   MOV.DWORD CH, $abcd
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(0x12345678))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.Word, reg(arch.General(1, arch.ViewLL)), uint8(0xff))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.DWord, reg(arch.General(2, arch.ViewH)), uint16(0xabcd))
	ct.emit(arch.HLT)

	ct.want[arch.A] = 0x12345678
	ct.want[arch.B] = 0xff
	ct.want[arch.C] = 0xabcd0000
	ct.want[arch.PC] = 8 + 5 + 6 + 1
	runTest(t, ct)
}

func TestMOVRegisterRegister(t *testing.T) {
	//   MOV.QWORD A, $11223344
	//   MOV.QWORD B, $aabbccdd
	//   MOV.WORD  A, B
	//   MOV.QWORD C, B
	//   MOV.DWORD D, A
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(0x11223344))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(0xaabbccdd))
	ct.emit(arch.MOV, arch.RegisterRegister, arch.Word, reg(arch.A), reg(arch.B))
	ct.emit(arch.MOV, arch.RegisterRegister, arch.QWord, reg(arch.C), reg(arch.B))
	ct.emit(arch.MOV, arch.RegisterRegister, arch.DWord, reg(arch.D), reg(arch.A))
	ct.emit(arch.HLT)

	ct.want[arch.A] = 0x112233dd
	ct.want[arch.B] = 0xaabbccdd
	ct.want[arch.C] = 0xaabbccdd
	ct.want[arch.D] = 0x33dd
	runTest(t, ct)
}

func TestMOVMemory(t *testing.T) {
	//   MOV.QWORD ($1000), $cafebabe
	//   MOV.QWORD A, $1000
	//   MOV.DWORD B, (A)
	//   MOV.WORD  (A), $11
	//   MOV.QWORD C, $2000
	//   MOV.QWORD (C), ($1000)
	//   MOV.DWORD ($3000), B
	//   MOV.QWORD D, $3000
	//   MOV.QWORD (D), C
	//   MOV.QWORD E, (D)
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.IndirectImmediate, arch.QWord, uint32(0x1000), uint32(0xcafebabe))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(0x1000))
	ct.emit(arch.MOV, arch.RegisterRIndirect, arch.DWord, reg(arch.B), reg(arch.A))
	ct.emit(arch.MOV, arch.RIndirectImmediate, arch.Word, reg(arch.A), uint8(0x11))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.C), uint32(0x2000))
	ct.emit(arch.MOV, arch.RIndirectIndirect, arch.QWord, reg(arch.C), uint32(0x1000))
	ct.emit(arch.MOV, arch.IndirectRegister, arch.DWord, uint32(0x3000), reg(arch.B))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.D), uint32(0x3000))
	ct.emit(arch.MOV, arch.RIndirectRegister, arch.QWord, reg(arch.D), reg(arch.C))
	ct.emit(arch.MOV, arch.RegisterRIndirect, arch.QWord, reg(arch.E), reg(arch.D))
	ct.emit(arch.HLT)

	ct.want[arch.A] = 0x1000
	ct.want[arch.B] = 0xbabe
	ct.want[arch.E] = 0x2000
	c := runTest(t, ct)

	assert.Equal(t, uint32(0xcafeba11), peek32(t, c, 0x1000))
	assert.Equal(t, uint32(0xcafeba11), peek32(t, c, 0x2000))
	assert.Equal(t, uint32(0x2000), peek32(t, c, 0x3000))
}

func TestMOVImmediateDestination(t *testing.T) {
	//   MOV ImmediateRegister
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.ImmediateRegister)
	ct.emit(arch.HLT)

	ct.want[arch.PC] = 2
	c := runTest(t, ct)

	assert.Equal(t, On|Halted|Fault, c.Status())
	require.NotNil(t, c.LastFault())
	assert.Equal(t, ErrImpossible, errors.Cause(c.LastFault()))
}

func TestCMP(t *testing.T) {
	for _, tc := range []struct {
		a, b uint32
		want uint16
	}{
		{5, 5, arch.FlagZero | arch.FlagParity},
		{3, 5, arch.FlagUnderflow | arch.FlagParity},
		{5, 3, arch.FlagParity},
		{6, 3, 0},
		{0, 0xffffffff, arch.FlagUnderflow},
	} {
		//   MOV.QWORD A, $a
		//   CMP.QWORD A, $b
		//   HLT

		ct := newCodeTest()
		ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), tc.a)
		ct.emit(arch.CMP, arch.RegisterImmediate, arch.QWord, reg(arch.A), tc.b)
		ct.emit(arch.HLT)

		ct.want[arch.Flags] = uint32(tc.want)
		runTest(t, ct)
	}
}

func TestCMPMemory(t *testing.T) {
	//   MOV.WORD  ($100), $7
	//   MOV.QWORD A, $100
	//   CMP.WORD  (A), $7
	//   JNE       fail
	//   CMP.WORD  ($100), $8
	//   JL        done
	// fail:
	//   MOV.QWORD B, $1
	// done:
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.IndirectImmediate, arch.Word, uint32(0x100), uint8(7))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(0x100))
	ct.emit(arch.CMP, arch.RIndirectImmediate, arch.Word, reg(arch.A), uint8(7))
	fail := ct.emitJump(arch.JNE)
	ct.emit(arch.CMP, arch.IndirectImmediate, arch.Word, uint32(0x100), uint8(8))
	done := ct.emitJump(arch.JL)
	ct.label(fail)
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(1))
	ct.label(done)
	ct.emit(arch.HLT)

	ct.want[arch.B] = 0
	ct.want[arch.Flags] = arch.FlagUnderflow
	runTest(t, ct)
}

func TestCMPClearsFlagsOnFault(t *testing.T) {
	//   MOV.QWORD A, $5
	//   CMP.QWORD A, $5
	//   CMP Register
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(5))
	ct.emit(arch.CMP, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(5))
	ct.emit(arch.CMP, arch.Register)
	ct.emit(arch.HLT)

	ct.want[arch.Flags] = 0
	c := runTest(t, ct)
	assert.NotZero(t, c.Status()&Fault)
}

func TestJMP(t *testing.T) {
	//   JMP skip
	//   MOV.QWORD A, $1
	// skip:
	//   JE   skip2   ; not taken
	//   MOV.QWORD B, $2
	// skip2:
	//   HLT

	ct := newCodeTest()
	skip := ct.emitJump(arch.JMP)
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(1))
	ct.label(skip)
	skip2 := ct.emitJump(arch.JE)
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(2))
	ct.label(skip2)
	ct.emit(arch.HLT)

	ct.want[arch.A] = 0
	ct.want[arch.B] = 2
	runTest(t, ct)
}

func TestCALLRET(t *testing.T) {
	//   CALL fn
	//   MOV.QWORD B, $2
	//   HLT
	// fn:
	//   MOV.QWORD A, $1
	//   RET

	ct := newCodeTest()
	fn := ct.emitJump(arch.CALL)
	ret := uint32(ct.program.Len())
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(2))
	ct.emit(arch.HLT)
	ct.label(fn)
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(1))
	ct.emit(arch.RET)

	ct.want[arch.A] = 1
	ct.want[arch.B] = 2
	ct.want[arch.SP] = testMemorySize
	ct.want[arch.PC] = ret + 8 + 1
	runTest(t, ct)
}

func TestCALLE(t *testing.T) {
	//   CMP.WORD ALL, $1   ; not equal
	//   CALLE fn
	//   HLT
	// fn:
	//   MOV.QWORD A, $1
	//   RET

	ct := newCodeTest()
	ct.emit(arch.CMP, arch.RegisterImmediate, arch.Word, reg(arch.General(0, arch.ViewLL)), uint8(1))
	fn := ct.emitJump(arch.CALLE)
	ct.emit(arch.HLT)
	ct.label(fn)
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(1))
	ct.emit(arch.RET)

	ct.want[arch.A] = 0
	ct.want[arch.SP] = testMemorySize
	ct.want[arch.PC] = 5 + 6 + 1
	runTest(t, ct)
}

func TestArithmetic(t *testing.T) {
	//   MOV.QWORD A, $10
	//   INC       A
	//   ADD.QWORD A, $5
	//   MOV.QWORD B, $3
	//   ADD.QWORD B, A
	//   MUL.QWORD B, $2
	//   OR.QWORD  B, $100
	//   SHL       B, $4
	//   MOV.QWORD C, $ff
	//   INC       CLL
	//   MOV.QWORD D, $ffff
	//   XOR       D
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(10))
	ct.emit(arch.INC, arch.Register, reg(arch.A))
	ct.emit(arch.ADD, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(5))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(3))
	ct.emit(arch.ADD, arch.RegisterRegister, arch.QWord, reg(arch.B), reg(arch.A))
	ct.emit(arch.MUL, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(2))
	ct.emit(arch.OR, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(0x100))
	ct.emit(arch.SHL, arch.RegisterImmediate, reg(arch.B), uint8(4))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.C), uint32(0xff))
	ct.emit(arch.INC, arch.Register, reg(arch.General(2, arch.ViewLL)))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.D), uint32(0xffff))
	ct.emit(arch.XOR, arch.Register, reg(arch.D))
	ct.emit(arch.HLT)

	ct.want[arch.A] = 16
	ct.want[arch.B] = (0x100 | 38) << 4
	ct.want[arch.C] = 0
	ct.want[arch.D] = 0
	runTest(t, ct)
}

func TestArithmeticWraparound(t *testing.T) {
	//   MOV.QWORD A, $ffffffff
	//   ADD.QWORD A, $2
	//   MOV.QWORD B, $1234ffff
	//   INC       BL
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(0xffffffff))
	ct.emit(arch.ADD, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(2))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.B), uint32(0x1234ffff))
	ct.emit(arch.INC, arch.Register, reg(arch.General(1, arch.ViewL)))
	ct.emit(arch.HLT)

	ct.want[arch.A] = 1
	ct.want[arch.B] = 0x12340000
	ct.want[arch.Flags] = 0
	runTest(t, ct)
}

func TestPUSHAPOPA(t *testing.T) {
	//   MOV.QWORD A, $1
	//   MOV.QWORD Z, $26
	//   MOV.QWORD BP, $77
	//   PUSHA
	//   MOV.QWORD A, $0
	//   MOV.QWORD Z, $0
	//   MOV.QWORD BP, $0
	//   POPA
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(1))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.Z), uint32(26))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.BP), uint32(77))
	ct.emit(arch.PUSHA)
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(0))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.Z), uint32(0))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.BP), uint32(0))
	ct.emit(arch.POPA)
	ct.emit(arch.HLT)

	ct.want[arch.A] = 1
	ct.want[arch.Z] = 26
	ct.want[arch.BP] = 77
	ct.want[arch.SP] = testMemorySize
	ct.want[arch.PC] = 6*8 + 2 + 1
	runTest(t, ct)
}

func TestStack(t *testing.T) {
	c := New(testMemorySize, nil)

	c.pushW(0x11)
	assert.Equal(t, uint32(testMemorySize-1), c.reg.SP)
	c.pushD(0x2233)
	assert.Equal(t, uint32(testMemorySize-3), c.reg.SP)
	c.pushQ(0x44556677)
	assert.Equal(t, uint32(testMemorySize-7), c.reg.SP)
	assert.Equal(t, uint32(0x44556677), peek32(t, c, testMemorySize-7))

	assert.Equal(t, uint32(0x44556677), c.popQ())
	assert.Equal(t, uint16(0x2233), c.popD())
	assert.Equal(t, uint8(0x11), c.popW())
	assert.Equal(t, uint32(testMemorySize), c.reg.SP)
}

func TestStackOverflow(t *testing.T) {
	//   MOV.QWORD SP, $2
	//   CALL fn
	// fn:
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.SP), uint32(2))
	fn := ct.emitJump(arch.CALL)
	ct.label(fn)
	ct.emit(arch.HLT)

	c := runTest(t, ct)
	assert.NotZero(t, c.Status()&Fault)
	assert.Equal(t, ErrBus, errors.Cause(c.LastFault()))
}

func TestUnimplementedOpcode(t *testing.T) {
	for _, op := range []int{arch.CMPS, arch.SUB, arch.MMCPY, arch.INTR, arch.HLT + 1, 0xff} {
		c := New(testMemorySize, nil)
		require.NoError(t, c.bus.Load(0, []byte{byte(op), 0x11, 0x22}))
		c.SetStatus(On)

		err := c.Step()
		require.Error(t, err)
		assert.Equal(t, ErrUnimplemented, errors.Cause(err))
		assert.Equal(t, On|Halted|Fault, c.Status())
		assert.Equal(t, uint32(1), c.reg.PC, "opcode $%02x", op)
		assert.Equal(t, op, c.LastFault().Opcode)
		assert.Equal(t, uint32(0), c.LastFault().IP)
	}
}

func TestUnimplementedMode(t *testing.T) {
	c := New(testMemorySize, nil)
	require.NoError(t, c.bus.Load(0, []byte{arch.MOV, byte(arch.IndirectIndirect), 2, 0, 0, 0, 0}))
	c.SetStatus(On)

	err := c.Step()
	assert.Equal(t, ErrUnimplemented, errors.Cause(err))
	assert.Equal(t, uint32(2), c.reg.PC)
	assert.Equal(t, arch.IndirectIndirect, c.LastFault().Mode)
}

func TestImpossibleMode(t *testing.T) {
	for _, program := range [][]byte{
		{arch.MOV, byte(arch.Immediate)},
		{arch.JMP, byte(arch.RegisterRegister)},
		{arch.INC, byte(arch.Immediate)},
		{arch.XOR, byte(arch.ImmediateRegister)},
		{arch.ADD, 20},
		{arch.OUTB, 0xff},
	} {
		c := New(testMemorySize, nil)
		require.NoError(t, c.bus.Load(0, program))
		c.SetStatus(On)

		err := c.Step()
		assert.Equal(t, ErrImpossible, errors.Cause(err), "program %x", program)
		assert.Equal(t, uint32(2), c.reg.PC)
		assert.False(t, c.Running())
	}
}

func TestInvalidSize(t *testing.T) {
	c := New(testMemorySize, nil)
	require.NoError(t, c.bus.Load(0, []byte{arch.MOV, byte(arch.RegisterImmediate), 3, 0, 0}))
	c.SetStatus(On)

	err := c.Step()
	assert.Equal(t, ErrImpossible, errors.Cause(err))
	assert.Equal(t, uint32(3), c.reg.PC)
}

func TestInvalidRegister(t *testing.T) {
	c := New(testMemorySize, nil)
	require.NoError(t, c.bus.Load(0, []byte{arch.INC, byte(arch.Register), arch.RegisterCount}))
	c.SetStatus(On)

	err := c.Step()
	assert.Equal(t, ErrRegister, errors.Cause(err))
	assert.NotZero(t, c.Status()&Fault)
}

func TestPorts(t *testing.T) {
	//   INB  $10, $2a
	//   MOV.QWORD A, $1234
	//   INB  $11, A
	//   MOV.WORD ($100), $7
	//   INB  $12, ($100)
	//   OUTB B, $20
	//   OUTB C, $21
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.INB, arch.ImmediateImmediate, uint8(0x10), uint8(0x2a))
	ct.emit(arch.MOV, arch.RegisterImmediate, arch.QWord, reg(arch.A), uint32(0x1234))
	ct.emit(arch.INB, arch.ImmediateRegister, uint8(0x11), reg(arch.A))
	ct.emit(arch.MOV, arch.IndirectImmediate, arch.Word, uint32(0x100), uint8(7))
	ct.emit(arch.INB, arch.ImmediateIndirect, uint8(0x12), uint32(0x100))
	ct.emit(arch.OUTB, arch.RegisterImmediate, reg(arch.B), uint8(0x20))
	ct.emit(arch.OUTB, arch.RegisterImmediate, reg(arch.C), uint8(0x21))
	ct.emit(arch.HLT)

	received := make(map[uint8]uint8)
	var outs int
	ct.setup = func(c *CPU) {
		for _, port := range []uint8{0x10, 0x11, 0x12} {
			port := port
			c.Ports().SetInB(port, func(v uint8) { received[port] = v })
		}
		c.Ports().SetOutB(0x20, func() uint8 {
			outs++
			return 0x99
		})
	}

	ct.want[arch.B] = 0x99
	ct.want[arch.C] = 0
	runTest(t, ct)

	assert.Equal(t, map[uint8]uint8{0x10: 0x2a, 0x11: 0x34, 0x12: 7}, received)
	assert.Equal(t, 1, outs)
}

func TestSTICLI(t *testing.T) {
	//   STI
	//   HLT

	ct := newCodeTest()
	ct.emit(arch.STI)
	ct.emit(arch.HLT)
	c := runTest(t, ct)
	assert.True(t, c.InterruptsEnabled())

	c.Raise(3)
	line, ok := c.Pending()
	assert.True(t, ok)
	assert.Equal(t, uint8(3), line)

	c.irq = interrupts{}
	c.Raise(3)
	_, ok = c.Pending()
	assert.False(t, ok)
}

func TestInstructionString(t *testing.T) {
	ct := newCodeTest()
	ct.emit(arch.MOV, arch.RegisterRIndirect, arch.DWord, reg(arch.General(0, arch.ViewL)), reg(arch.B))
	ct.emit(arch.HLT)

	var lines []string
	c := New(testMemorySize, func(in *Instruction) {
		lines = append(lines, in.String())
	})
	require.NoError(t, c.bus.Load(0, ct.program.Bytes()))
	c.SetStatus(On)
	require.NoError(t, c.Step())
	require.NoError(t, c.Step())

	assert.Equal(t, []string{"MOV.DWORD AL, (B)", "HLT"}, lines)
}

// runTest loads the program at address 0 and executes it until the CPU
// halts. Registers listed in ct.want are checked afterwards.
func runTest(t *testing.T, ct *codeTest) *CPU {
	t.Helper()

	c := New(testMemorySize, func(in *Instruction) {
		t.Logf("%08x %s", in.IP, in)
	})

	require.NoError(t, c.bus.Load(0, ct.program.Bytes()))
	if ct.setup != nil {
		ct.setup(c)
	}

	c.SetStatus(On)

	for i := 0; i < 1000 && c.Running(); i++ {
		if err := c.Step(); err != nil {
			t.Logf("step: %v", err)
		}
	}

	require.False(t, c.Running(), "program did not halt")

	for code, want := range ct.want {
		assert.Equalf(t, want, c.reg.Read(code), "register %s", arch.RegisterName(code))
	}

	return c
}

func peek32(t *testing.T, c *CPU, addr uint32) uint32 {
	t.Helper()
	v, err := c.bus.Read32(addr)
	require.NoError(t, err)
	return v
}

// reg marks an operand as a register code.
type reg int

type codeTest struct {
	program bytes.Buffer
	want    map[int]uint32
	setup   func(*CPU)
	fixups  map[int]int
}

func newCodeTest() *codeTest {
	return &codeTest{
		want:   make(map[int]uint32),
		fixups: make(map[int]int),
	}
}

// emit appends an instruction. Operands are encoded by their type:
// modes, sizes, register codes and uint8 values as single bytes,
// uint16 and uint32 values little-endian.
func (ct *codeTest) emit(opcode int, args ...interface{}) {
	w := &ct.program
	w.WriteByte(byte(opcode))

	for _, v := range args {
		switch v := v.(type) {
		case arch.AddressMode:
			w.WriteByte(byte(v))
		case arch.Size:
			w.WriteByte(byte(v))
		case reg:
			w.WriteByte(byte(v))
		case uint8:
			w.WriteByte(v)
		case uint16:
			w.Write([]byte{byte(v), byte(v >> 8)})
		case uint32:
			w.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
		default:
			panic("unsupported operand type")
		}
	}
}

// emitJump appends a branch instruction with an immediate target which is
// filled in by label. It returns the label's id.
func (ct *codeTest) emitJump(opcode int) int {
	ct.emit(opcode, arch.Immediate, uint32(0))
	id := len(ct.fixups)
	ct.fixups[id] = ct.program.Len() - 4
	return id
}

// label points the branch with the given id at the current address.
func (ct *codeTest) label(id int) {
	addr := uint32(ct.program.Len())
	b := ct.program.Bytes()[ct.fixups[id]:]
	b[0] = byte(addr)
	b[1] = byte(addr >> 8)
	b[2] = byte(addr >> 16)
	b[3] = byte(addr >> 24)
}
