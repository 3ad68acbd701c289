// Package console implements a headless terminal: keyboard input is read
// from a byte stream and a program writes characters to an output port.
package console

import (
	"bufio"
	"io"
	"log"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/hexaflex/cvm/devices"
)

// PortOutput receives characters to print.
const PortOutput = 0x20

// Escape is the input byte (Ctrl-]) which powers off the machine.
const Escape = 0x1d

// Device defines a console unit.
type Device struct {
	m      sync.Mutex
	in     io.Reader
	out    *bufio.Writer
	host   devices.Host
	term   *os.File    // Terminal in raw mode, if any.
	state  *term.State // Terminal state to restore at shutdown.
	closed bool
}

var _ devices.Device = &Device{}

// New creates a console reading key strokes from r and printing to w.
func New(r io.Reader, w io.Writer) *Device {
	return &Device{
		in:  r,
		out: bufio.NewWriter(w),
	}
}

// NewTerminal creates a console reading from the terminal in and printing
// to out. If in is a terminal, it is switched to raw mode during startup,
// so that every key stroke is delivered immediately.
func NewTerminal(in, out *os.File) *Device {
	d := New(in, out)
	if term.IsTerminal(int(in.Fd())) {
		d.term = in
	}
	return d
}

// ID returns the device identifier.
func (d *Device) ID() devices.ID {
	return devices.NewID(devices.Builtin, devices.SerialConsole)
}

// Startup claims the output port and starts reading input.
func (d *Device) Startup(h devices.Host) error {
	d.m.Lock()
	defer d.m.Unlock()

	if d.term != nil {
		state, err := term.MakeRaw(int(d.term.Fd()))
		if err != nil {
			return errors.Wrap(err, "console")
		}
		d.state = state
	}

	d.host = h
	d.closed = false
	h.RequestPortInB(PortOutput, d.print)

	go d.poll()
	return nil
}

// Shutdown flushes pending output and restores the terminal.
func (d *Device) Shutdown() error {
	d.m.Lock()
	defer d.m.Unlock()

	d.closed = true
	d.host = nil

	err := d.out.Flush()
	if d.state != nil {
		if rerr := term.Restore(int(d.term.Fd()), d.state); err == nil {
			err = rerr
		}
		d.state = nil
	}

	return errors.Wrap(err, "console")
}

// Pause flushes pending output.
func (d *Device) Pause() {
	d.m.Lock()
	d.out.Flush()
	d.m.Unlock()
}

// print writes a character. Output is flushed at line ends.
func (d *Device) print(v uint8) {
	d.m.Lock()
	defer d.m.Unlock()

	if v == '\n' && d.state != nil {
		d.out.WriteByte('\r')
	}

	d.out.WriteByte(v)

	if v == '\n' || d.out.Buffered() >= 256 {
		d.out.Flush()
	}
}

// poll turns input bytes into key presses and releases until the input
// ends or the device shuts down.
func (d *Device) poll() {
	var buf [1]byte

	for {
		_, err := d.in.Read(buf[:])

		d.m.Lock()
		h, closed := d.host, d.closed
		d.m.Unlock()

		if closed || h == nil {
			return
		}

		if err != nil {
			if err != io.EOF {
				log.Println(d.ID(), err)
			}
			return
		}

		if buf[0] == Escape {
			h.PowerOff()
			return
		}

		h.KeyEvent(true, buf[0])
		h.KeyEvent(false, buf[0])
	}
}
