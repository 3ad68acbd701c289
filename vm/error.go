package vm

import "github.com/pkg/errors"

// Boot errors.
var (
	ErrImageTooLarge = errors.New("program image does not fit in memory")
	ErrBooted        = errors.New("machine already booted")
)
