// Package gp14 implements the gp14 gamepad. Button presses reach a
// program as key events and through two status ports.
package gp14

import (
	"log"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/hexaflex/cvm/devices"
)

// ButtonCount is the number of gamepad buttons.
const ButtonCount = 16

// KeyBase is the key code of button 0. Button n is reported as KeyBase+n.
const KeyBase = 0xe0

// Ports claimed by the gamepad.
const (
	PortButtonsLow  = 0x0b // out: pressed state of buttons 0-7.
	PortButtonsHigh = 0x0c // out: pressed state of buttons 8-15.
)

// Button Ids.
const (
	ButtonA           = glfw.ButtonA
	ButtonB           = glfw.ButtonB
	ButtonX           = glfw.ButtonX
	ButtonY           = glfw.ButtonY
	ButtonUp          = glfw.ButtonDpadUp
	ButtonRight       = glfw.ButtonDpadRight
	ButtonDown        = glfw.ButtonDpadDown
	ButtonLeft        = glfw.ButtonDpadLeft
	ButtonLT          = glfw.ButtonLeftThumb
	ButtonRT          = glfw.ButtonRightThumb
	ButtonLeftBumper  = glfw.ButtonLeftBumper
	ButtonRightBumper = glfw.ButtonRightBumper
	ButtonBack        = glfw.ButtonBack
	ButtonStart       = glfw.ButtonStart
)

// Device defines the gamepad.
type Device struct {
	m           sync.Mutex
	host        devices.Host
	joy         glfw.Joystick
	pressed     uint16 // Button state bits.
	initialized bool
	detect      bool // Use glfw joystick detection?
}

var _ devices.Device = &Device{}

// New creates a new device.
func New() *Device {
	return &Device{detect: true}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return devices.NewID(devices.Builtin, devices.SerialGamepad)
}

// Startup claims the status ports and detects any connected gamepad.
// glfw must be initialized.
func (d *Device) Startup(h devices.Host) error {
	d.m.Lock()
	d.host = h
	d.pressed = 0
	d.m.Unlock()

	h.RequestPortOutB(PortButtonsLow, func() uint8 { return uint8(d.buttons()) })
	h.RequestPortOutB(PortButtonsHigh, func() uint8 { return uint8(d.buttons() >> 8) })

	if !d.detect {
		return nil
	}

	glfw.SetJoystickCallback(d.configure)

	for joy := glfw.Joystick1; joy <= glfw.JoystickLast; joy++ {
		if joy.Present() && joy.IsGamepad() {
			d.configure(joy, glfw.Connected)
			break
		}
	}

	return nil
}

// Shutdown stops joystick detection.
func (d *Device) Shutdown() error {
	if d.detect {
		glfw.SetJoystickCallback(nil)
	}

	d.m.Lock()
	d.host = nil
	d.m.Unlock()
	return nil
}

// Pause does nothing.
func (d *Device) Pause() {}

// Update polls the gamepad. It must be called from the main thread.
func (d *Device) Update() {
	if !d.initialized {
		return
	}

	state := d.joy.GetGamepadState()
	if state == nil {
		return
	}

	var pressed uint16
	for btn, action := range state.Buttons {
		if action == glfw.Press && btn < ButtonCount {
			pressed |= 1 << uint(btn)
		}
	}

	d.apply(pressed)
}

// apply stores the new button state and reports every change as a key
// event.
func (d *Device) apply(pressed uint16) {
	d.m.Lock()
	changed := d.pressed ^ pressed
	d.pressed = pressed
	h := d.host
	d.m.Unlock()

	if h == nil || changed == 0 {
		return
	}

	for btn := 0; btn < ButtonCount; btn++ {
		if changed&(1<<uint(btn)) != 0 {
			h.KeyEvent(pressed&(1<<uint(btn)) != 0, uint8(KeyBase+btn))
		}
	}
}

func (d *Device) buttons() uint16 {
	d.m.Lock()
	defer d.m.Unlock()
	return d.pressed
}

// configure is called whenever a joystick is connected or disconnected from the system.
func (d *Device) configure(joy glfw.Joystick, event glfw.PeripheralEvent) {
	d.initialized = event == glfw.Connected && joy.IsGamepad()
	d.joy = joy

	if d.initialized {
		log.Println(d.ID(), "gamepad connected")
	} else {
		log.Println(d.ID(), "gamepad disconnected")
	}

	d.apply(0)
}
