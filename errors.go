package filein

import (
	"errors"

	"github.com/brettbedarf/filein/config"
)

// Setup failures, reported by Initialize.
var (
	ErrBadConfiguration    = config.ErrBadConfiguration
	ErrUnsupportedLocator  = errors.New("unsupported locator")
	ErrResourceUnreachable = errors.New("resource unreachable")
)

// Service errors, reported by Process.
var (
	ErrPortDeclarationFailed = errors.New("port declaration failed")
	ErrNotInitialized        = errors.New("adapter not initialized")
	ErrReadFailed            = errors.New("resource read failed")
)

// ErrEOS is the status returned by Process once the stream is complete.
// It is the success terminal state, not a failure.
var ErrEOS = errors.New("end of stream")
