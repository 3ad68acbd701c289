package vm

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexaflex/cvm/arch"
	"github.com/hexaflex/cvm/devices"
	"github.com/hexaflex/cvm/devices/fffe/cpu"
)

// testDevice claims the keyboard port and records its life cycle.
type testDevice struct {
	startErr error
	started  bool
	stopped  bool
	paused   int
}

func (d *testDevice) ID() devices.ID { return devices.NewID(0x1234, 1) }

func (d *testDevice) Startup(h devices.Host) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	h.RequestPortOutB(0x0a, h.PopKey)
	return nil
}

func (d *testDevice) Shutdown() error {
	d.stopped = true
	return nil
}

func (d *testDevice) Pause() { d.paused++ }

// testRegion is a device with a memory mapped register.
type testRegion struct {
	testDevice
	devices.Span
	value uint32
}

func (r *testRegion) ID() devices.ID                { return devices.NewID(0x1234, 2) }
func (r *testRegion) Read8(_, rel uint32) uint8     { return uint8(r.value >> (8 * rel)) }
func (r *testRegion) Read16(_, rel uint32) uint16   { return uint16(r.value >> (8 * rel)) }
func (r *testRegion) Read32(_, _ uint32) uint32     { return r.value }
func (r *testRegion) Write8(_, _ uint32, v uint8)   { r.value = uint32(v) }
func (r *testRegion) Write16(_, _ uint32, v uint16) { r.value = uint32(v) }
func (r *testRegion) Write32(_, _ uint32, v uint32) { r.value = v }

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func movQ(code int, v uint32) []byte {
	return append([]byte{arch.MOV, byte(arch.RegisterImmediate), byte(arch.QWord), byte(code)}, le32(v)...)
}

func program(parts ...[]byte) []byte {
	var p []byte
	for _, b := range parts {
		p = append(p, b...)
	}
	return p
}

func boot(t *testing.T, image []byte, devs ...devices.Device) *Machine {
	t.Helper()

	m := New(Config{Manual: true})
	for _, dev := range devs {
		require.True(t, m.Connect(dev))
	}
	require.NoError(t, m.Boot(image))
	return m
}

func ticks(m *Machine, n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

func TestBoot(t *testing.T) {
	dev := &testDevice{}
	m := boot(t, program(movQ(arch.A, 5), []byte{arch.HLT}), dev)

	assert.True(t, dev.started)
	assert.Equal(t, cpu.On, m.Status())

	for i, want := range DefaultPalette {
		v, err := m.Read32(PaletteAddr + uint32(i)*4)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	ticks(m, 2)
	assert.Equal(t, cpu.On|cpu.Halted, m.Status())

	regs := m.Registers()
	assert.Equal(t, uint32(5), regs.Read(arch.A))
	assert.Equal(t, uint32(9), regs.PC)

	assert.ErrorIs(t, m.Boot(nil), ErrBooted)
}

func TestBootErrors(t *testing.T) {
	m := New(Config{MemorySize: 16, Manual: true})
	err := m.Boot(make([]byte, 17))
	assert.Equal(t, ErrImageTooLarge, errors.Cause(err))

	m = New(Config{Manual: true})
	m.Connect(&testDevice{startErr: errors.New("broken")})
	assert.Error(t, m.Boot(nil))
	assert.Equal(t, cpu.Off, m.Status())
}

func TestBootRollback(t *testing.T) {
	dev := &testDevice{}
	m := New(Config{MemorySize: 0x1000, Manual: true})
	require.True(t, m.Connect(dev))

	err := m.Boot(nil)
	require.Error(t, err)
	assert.NotEqual(t, ErrBooted, errors.Cause(err))
	assert.True(t, dev.stopped)
	assert.Equal(t, cpu.Off, m.Status())

	dev.stopped = false
	err = m.Boot(nil)
	require.Error(t, err)
	assert.NotEqual(t, ErrBooted, errors.Cause(err))
	assert.True(t, dev.stopped)
}

func TestConnect(t *testing.T) {
	r := &testRegion{Span: devices.Span{Start: 0x50000, Length: 4}}

	m := New(Config{Manual: true})
	assert.True(t, m.Connect(r))
	assert.False(t, m.Connect(r))

	image := []byte{arch.MOV, byte(arch.IndirectImmediate), byte(arch.QWord)}
	image = append(image, le32(0x50000)...)
	image = append(image, le32(0xcafe)...)
	image = append(image, arch.HLT)
	require.NoError(t, m.Boot(image))

	ticks(m, 2)
	assert.Equal(t, uint32(0xcafe), r.value)
	assert.True(t, r.started)
}

func TestPowerOff(t *testing.T) {
	dev := &testDevice{}
	m := boot(t, []byte{arch.NOP, arch.HLT}, dev)

	m.Tick()
	m.PowerOff()
	m.Tick()

	assert.Equal(t, cpu.Halted, m.Status())
	assert.True(t, dev.stopped)
	assert.Equal(t, uint32(1), m.Registers().PC)

	m.Tick()
	assert.Equal(t, uint32(1), m.Registers().PC)
	assert.NoError(t, m.Shutdown())
}

// keyboardProgram enables interrupts and halts. The keyboard handler
// pops two bytes off the keyboard queue into A and B.
func keyboardProgram() []byte {
	const table, handler = 0x100, 0x40

	image := make([]byte, table+4*(KeyboardLine+1))
	copy(image, program(
		[]byte{arch.LDIDT, byte(arch.Immediate)}, le32(table),
		[]byte{arch.STI, arch.HLT},
	))
	copy(image[handler:], []byte{
		arch.OUTB, byte(arch.RegisterImmediate), arch.A, 0x0a,
		arch.OUTB, byte(arch.RegisterImmediate), arch.B, 0x0a,
		arch.HLT,
	})
	copy(image[table+4*KeyboardLine:], le32(handler))
	return image
}

func TestKeyboard(t *testing.T) {
	m := boot(t, keyboardProgram(), &testDevice{})

	ticks(m, 3)
	require.Equal(t, uint32(8), m.Registers().PC)

	m.KeyEvent(true, 0x1e)
	m.Tick()
	assert.Equal(t, uint32(0x40), m.Registers().PC)

	ticks(m, 3)
	regs := m.Registers()
	assert.Equal(t, uint32(1), regs.Read(arch.A))
	assert.Equal(t, uint32(0x1e), regs.Read(arch.B))
	assert.Equal(t, cpu.On|cpu.Halted, m.Status())
}

func TestKeyboardDisabled(t *testing.T) {
	m := boot(t, []byte{arch.HLT}, &testDevice{})

	m.KeyEvent(true, 0x1e)
	m.Tick()
	assert.Equal(t, uint8(0), m.PopKey())
}

func TestInterrupt(t *testing.T) {
	image := keyboardProgram()
	copy(image[0x100+4*3:], le32(0x80))
	copy(image[0x80:], program(movQ(arch.C, 7), []byte{arch.IRET}))

	m := boot(t, image)
	ticks(m, 3)

	m.Interrupt(3)
	m.Tick()
	assert.Equal(t, uint32(0x80), m.Registers().PC)

	ticks(m, 2)
	regs := m.Registers()
	assert.Equal(t, uint32(7), regs.Read(arch.C))
	assert.Equal(t, uint32(8), regs.PC)
	assert.Equal(t, uint32(cpu.DefaultMemorySize), regs.SP)
}

func TestBreakpoint(t *testing.T) {
	dev := &testDevice{}
	m := New(Config{Manual: true, Breakpoints: []uint32{2}})
	m.Connect(dev)
	require.NoError(t, m.Boot([]byte{arch.NOP, arch.NOP, arch.NOP, arch.HLT}))

	ticks(m, 4)
	assert.Equal(t, uint32(2), m.Registers().PC)
	assert.Equal(t, cpu.On|cpu.Breakpoint, m.Status())
	assert.Equal(t, 1, dev.paused)
	assert.True(t, m.Paused())

	m.Resume()
	assert.False(t, m.Paused())
	ticks(m, 2)
	assert.Equal(t, uint32(4), m.Registers().PC)
	assert.Equal(t, cpu.On|cpu.Halted, m.Status())
}

func TestFault(t *testing.T) {
	m := boot(t, []byte{arch.NOP, arch.SUB})

	ticks(m, 3)
	assert.Equal(t, cpu.On|cpu.Halted|cpu.Fault, m.Status())
	require.NotNil(t, m.LastFault())
	assert.Equal(t, uint32(1), m.LastFault().IP)
	assert.Equal(t, cpu.ErrUnimplemented, errors.Cause(m.LastFault()))
}

func TestClock(t *testing.T) {
	dev := &testDevice{}
	m := New(Config{Rate: 100000})
	m.Connect(dev)

	// Loop until interrupted by a power off request.
	require.NoError(t, m.Boot([]byte{arch.JMP, byte(arch.Immediate), 0, 0, 0, 0}))
	require.Eventually(t, func() bool { return m.Ticks() > 100 }, 5*time.Second, time.Millisecond)

	m.PowerOff()

	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("machine did not stop")
	}

	m.Wait()
	assert.True(t, dev.stopped)
	assert.Equal(t, cpu.Halted, m.Status())
}
