package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hexaflex/cvm/devices/fffe/storage"
)

// ErrExists is returned when the target image exists and may not be replaced.
var ErrExists = errors.New("image exists")

func main() {
	config, err := parseArgs(filepath.Base(os.Args[0]), os.Args[1:], os.Stderr)
	switch {
	case err == flag.ErrHelp:
		return
	case err != nil:
		os.Exit(2)
	case config.Version:
		fmt.Println(Version())
		return
	}

	if !config.Force {
		if _, err := os.Stat(config.Output); err == nil {
			fmt.Fprintln(os.Stderr, errors.Wrapf(ErrExists, "%s; use -force to replace it", config.Output))
			os.Exit(1)
		}
	}

	if err := createImage(config.Output, config.Inputs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// createImage creates a new image file. The contents of the given input
// files are stored back to back from the start of the image. The rest of
// the image is zeroed.
func createImage(file string, inputs []string) error {
	// Ensure the target directory exists.
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0744); err != nil {
			return err
		}
	}

	if len(inputs) == 0 {
		return storage.CreateImage(file)
	}

	image, err := pack(inputs)
	if err != nil {
		return err
	}

	return errors.Wrapf(os.WriteFile(file, image, 0644), "failed to write %s", file)
}

// pack concatenates the given files into a blank storage image.
func pack(inputs []string) ([]byte, error) {
	image := make([]byte, storage.ImageSize)
	offset := 0

	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, err
		}

		if len(data) > len(image)-offset {
			return nil, errors.Errorf("%s does not fit in the image: %d bytes at offset %d", in, len(data), offset)
		}

		fmt.Printf("%08x %s\n", offset, in)
		offset += copy(image[offset:], data)
	}

	return image, nil
}
