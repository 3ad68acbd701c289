package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hexaflex/cvm/asm"
)

func main() {
	config := parseArgs()

	prog, err := asm.Build(config.Input, config.Includes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if config.Dump {
		fmt.Println(prog)
		return
	}

	if err := writeProgram(config.Output, prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// writeProgram writes the program image to the requested output location.
func writeProgram(file string, prog *asm.Program) error {
	w, close, err := makeWriter(file)
	if err != nil {
		return err
	}

	defer close()

	_, err = w.Write(prog.Code)
	return err
}

// makeWriter creates an output writer and a cleanup function for it.
func makeWriter(file string) (io.Writer, func(), error) {
	if file == "" {
		return os.Stdout, func() {}, nil
	}

	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0744); err != nil {
			return nil, nil, err
		}
	}

	fd, err := os.Create(file)
	if err != nil {
		return nil, nil, err
	}

	return fd, func() { fd.Close() }, nil
}
