package main

import (
	"log"
	"os"
	"os/signal"

	"github.com/pkg/errors"

	"github.com/hexaflex/cvm/devices"
	"github.com/hexaflex/cvm/devices/fffe/console"
	"github.com/hexaflex/cvm/devices/fffe/cpu"
	"github.com/hexaflex/cvm/devices/fffe/storage"
	"github.com/hexaflex/cvm/vm"
)

// bootMachine creates a machine with the configured storage and the given
// devices, and boots the configured program image.
func bootMachine(config *Config, trace cpu.TraceFunc, devs ...devices.Device) (*vm.Machine, error) {
	image, err := os.ReadFile(config.Image)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read program image")
	}

	machine := vm.New(vm.Config{
		MemorySize:  uint32(config.MemorySize),
		Rate:        config.Rate,
		Trace:       trace,
		Breakpoints: config.Breakpoints,
	})

	if len(config.Storage) > 0 {
		devs = append(devs, storage.New(config.Storage, config.Readonly))
	}

	for _, dev := range devs {
		machine.Connect(dev)
	}

	log.Println(Version())
	log.Println("loading", config.Image)

	if err := machine.Boot(image); err != nil {
		return nil, err
	}

	return machine, nil
}

// runConsole runs the machine in the terminal until it powers off.
func runConsole(config *Config) error {
	tp := newTracePrinter(config.PrintTrace)
	con := console.NewTerminal(os.Stdin, os.Stdout)

	machine, err := bootMachine(config, tp.Print, con)
	if err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-machine.Done():
	case <-interrupt:
	}

	err = machine.Shutdown()
	machine.Wait()
	printSummary(machine)
	return err
}

// printSummary logs the final machine state.
func printSummary(machine *vm.Machine) {
	p := newPrinter()

	log.Println(p.Sprintf("%d ticks, status %s", machine.Ticks(), machine.Status()))
	if fault := machine.LastFault(); fault != nil {
		log.Printf("fault: %v (%s)", fault, fault.Instruction)
	}
}
