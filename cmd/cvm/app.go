package main

import (
	"log"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.2-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"golang.org/x/text/message"

	"github.com/hexaflex/cvm/devices/fffe/gp14"
	"github.com/hexaflex/cvm/devices/fffe/screen"
	"github.com/hexaflex/cvm/vm"
)

// App defines application context.
type App struct {
	config       *Config          // Application configuration.
	window       *glfw.Window     // OpenGL/GLFW context.
	machine      *vm.Machine      // VM with program to be run.
	display      *screen.Device   // Virtual display peripheral.
	gamepad      *gp14.Device     // Virtual gamepad peripheral.
	trace        *tracePrinter    // Instruction trace output.
	printer      *message.Printer // Locale aware formatting.
	titleUpdated time.Time        // Value used to periodically update window title.
	lastRendered time.Time        // Last time a frame was rendered.
}

// NewApp creates a new application instance using the given configuration.
func NewApp(config *Config) *App {
	var a App
	a.config = config
	a.display = screen.New()
	a.gamepad = gp14.New()
	a.trace = newTracePrinter(config.PrintTrace)
	a.printer = newPrinter()
	return &a
}

// Run runs the application and does not return until the machine
// powers off or an error occured during initialization.
func (a *App) Run() error {
	err := glfw.Init()
	if err != nil {
		return errors.Wrapf(err, "glfw.Init failed")
	}

	defer a.dispose()

	a.machine, err = bootMachine(a.config, a.trace.Print, a.display, a.gamepad)
	if err != nil {
		return err
	}

	printHelp()

	for {
		select {
		case <-a.machine.Done():
			printSummary(a.machine)
			return nil
		default:
		}

		if err := a.mainLoop(); err != nil {
			return err
		}
	}
}

// mainLoop performs all main loop operations.
func (a *App) mainLoop() error {
	a.gamepad.Update()

	// The window opens once the program asks for it.
	if a.window == nil {
		if a.display.OpenRequested() {
			if err := a.initGL(); err != nil {
				return err
			}
		} else {
			glfw.WaitEventsTimeout(0.01)
			return nil
		}
	}

	if a.window.ShouldClose() {
		a.window.SetShouldClose(false)
		a.display.Close()
	}

	// Periodically render display contents.
	if time.Since(a.lastRendered) >= time.Second/60 {
		a.lastRendered = time.Now()
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		a.display.Draw()
		a.window.SwapBuffers()
	}

	// Periodically update the window title to show the current cpu clock frequency.
	if time.Since(a.titleUpdated) >= time.Second*2 {
		a.titleUpdated = time.Now()
		freq := prettyFrequency(a.printer, float64(a.machine.Frequency()))
		a.window.SetTitle(a.printer.Sprintf("%s %s - %s", AppName, AppVersion, freq))
	}

	glfw.PollEvents()
	return nil
}

// dispose ensures openGL/GLFW and other resources are cleaned up.
func (a *App) dispose() {
	if a.machine != nil {
		if err := a.machine.Shutdown(); err != nil {
			log.Println(err)
		}
		a.machine.Wait()
	}

	if a.window != nil {
		a.display.ReleaseGL()
		a.window.Destroy()
		a.window = nil
	}

	glfw.Terminate()
}

func (a *App) keyCallback(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}

	switch key {
	case glfw.KeyF1:
		if action == glfw.Press {
			printHelp()
		}
	case glfw.KeyF2:
		if action == glfw.Press {
			a.togglePause()
		}
	case glfw.KeyF3:
		if action == glfw.Press {
			a.trace.Toggle()
		}
	default:
		a.display.KeyEvent(action == glfw.Press, uint8(scancode))
	}
}

// togglePause pauses or resumes execution.
func (a *App) togglePause() {
	if a.machine.Paused() {
		log.Println("resumed")
		a.machine.Resume()
		return
	}

	a.machine.Pause()
	r := a.machine.Registers()
	log.Println(a.printer.Sprintf("paused at %08x after %d ticks", r.PC, a.machine.Ticks()))
}

// initGL creates the display window and initializes openGL.
func (a *App) initGL() error {
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.Focused, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 2)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor

	scale := a.display.Scale()
	if a.config.ScaleFactor > scale {
		scale = a.config.ScaleFactor
	}

	width := screen.Width * scale
	height := screen.Height * scale

	if a.config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()

		width = mode.Width
		height = mode.Height

		glfw.WindowHint(glfw.Decorated, glfw.False)
		glfw.WindowHint(glfw.Maximized, glfw.True)
	} else {
		glfw.WindowHint(glfw.Decorated, glfw.True)
		glfw.WindowHint(glfw.Maximized, glfw.False)
	}

	var err error
	a.window, err = glfw.CreateWindow(width, height, AppName, monitor, nil)
	if err != nil {
		return errors.Wrapf(err, "glfw.CreateWindow failed")
	}

	a.window.MakeContextCurrent()
	a.window.SetKeyCallback(a.keyCallback)

	glfw.SwapInterval(0)

	if err = gl.Init(); err != nil {
		return errors.Wrapf(err, "gl.Init failed")
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0, 0, 0, 1.0)

	return a.display.InitGL()
}

// printHelp writes a short overview of supported shortcut keys to stdout.
func printHelp() {
	var sb strings.Builder
	sb.WriteString("shortcut keys:\n")
	sb.WriteString(" F1       Display this help.\n")
	sb.WriteString(" F2       Pause/Resume execution.\n")
	sb.WriteString(" F3       Enable/Disable trace output.\n")
	sb.WriteString(" Closing the window powers off the machine.")
	log.Println(sb.String())
}
