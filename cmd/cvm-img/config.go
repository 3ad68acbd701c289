package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Config defines program configuration.
type Config struct {
	Output  string   // Target image file.
	Inputs  []string // Files stored back to back from the start of the image.
	Force   bool     // Overwrite an existing image.
	Version bool     // Print the version and exit.
}

// ErrUsage is returned when the command line names no output file.
var ErrUsage = errors.New("missing output file")

// parseArgs reads the command line in args, excluding the program name.
// Usage text and flag errors are written to w.
func parseArgs(name string, args []string, w io.Writer) (*Config, error) {
	var c Config

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "usage: %s [-force] <image> [<file>...]\n\n", name)
		fmt.Fprintln(w, "Creates a storage image. Each file is copied into the image in order;")
		fmt.Fprintln(w, "the remainder is zero filled.")
		fmt.Fprintln(w)
		fs.PrintDefaults()
	}

	fs.BoolVar(&c.Force, "force", false, "replace the image if it already exists")
	fs.BoolVar(&c.Version, "version", false, "print version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if c.Version {
		return &c, nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, ErrUsage
	}

	c.Output = fs.Arg(0)
	c.Inputs = fs.Args()[1:]
	return &c, nil
}

// Version returns program version information.
func Version() string {
	return "cvm-img 1.0.0"
}
