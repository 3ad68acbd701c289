package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hexaflex/cvm/devices/fffe/clock"
	"github.com/hexaflex/cvm/devices/fffe/cpu"
)

// Config defines program configuration.
type Config struct {
	Image       string   // Path to the program image to load.
	Storage     string   // Path to the storage image file.
	MemorySize  uint     // RAM size in bytes.
	Rate        int      // Clock rate in Hz.
	ScaleFactor int      // Amount by which each pixel is scaled.
	Fullscreen  bool     // Run in fullscreen?
	Console     bool     // Use the terminal instead of a window?
	Readonly    bool     // Is the storage image read-only?
	PrintTrace  bool     // Print instruction trace data?
	Breakpoints []uint32 // Addresses at which execution pauses.
}

// addrList collects hexadecimal addresses from repeated flags.
type addrList []uint32

func (l *addrList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = fmt.Sprintf("%x", v)
	}
	return strings.Join(parts, ",")
}

func (l *addrList) Set(v string) error {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(v), "0x"), 16, 32)
	if err != nil {
		return err
	}
	*l = append(*l, uint32(n))
	return nil
}

// parseArgs parses command line arguments as applicable.
//
// If an error occurred, this exits the program with an appropriate message.
// When version information is requested, it is printed to stdout and the program ends cleanly.
func parseArgs() *Config {
	var c Config
	c.Storage = "data.img"
	c.MemorySize = cpu.DefaultMemorySize
	c.Rate = clock.DefaultRate
	c.ScaleFactor = 1

	flag.Usage = func() {
		fmt.Printf("%s [options] <image file>\n", os.Args[0])
		flag.PrintDefaults()
	}

	var breakpoints addrList

	flag.StringVar(&c.Storage, "storage", c.Storage, "Storage image file. An empty value disables storage.")
	flag.BoolVar(&c.Readonly, "readonly", c.Readonly, "Is the storage image write protected?")
	flag.UintVar(&c.MemorySize, "memory", c.MemorySize, "RAM size in bytes.")
	flag.IntVar(&c.Rate, "rate", c.Rate, "Clock rate in Hz.")
	flag.IntVar(&c.ScaleFactor, "scale", c.ScaleFactor, "Pixel scale factor for the display, unless a program selects one.")
	flag.BoolVar(&c.Fullscreen, "fullscreen", c.Fullscreen, "Run the display in fullscreen or windowed mode.")
	flag.BoolVar(&c.Console, "console", c.Console, "Run in the terminal without a display window.")
	flag.BoolVar(&c.PrintTrace, "trace", c.PrintTrace, "Print instruction trace data.")
	flag.Var(&breakpoints, "break", "Pause execution at the given hexadecimal address. Can be repeated.")

	version := flag.Bool("version", false, "Display version information.")
	flag.Parse()

	if *version {
		fmt.Println(Version())
		os.Exit(0)
	}

	if flag.NArg() == 0 || c.MemorySize == 0 || c.MemorySize > 1<<32-1 {
		flag.Usage()
		os.Exit(1)
	}

	c.Image = flag.Arg(0)
	c.Breakpoints = breakpoints
	return &c
}
