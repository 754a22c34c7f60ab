package core

import "errors"

const (
	// DefaultSampleRate is the conversion cadence of the validated
	// hardware build, in samples per second. Front-ends use it when
	// nothing else is configured; the core itself never handles time.
	DefaultSampleRate = 1200

	// DefaultWindowSize averages one second of samples per report at
	// the default rate.
	DefaultWindowSize = 1200

	// lineBufCap bounds the receive line buffer. One slot stays
	// reserved, so at most lineBufCap-1 bytes accumulate before an
	// unrecognized line is dropped.
	lineBufCap = 16

	// maxWindowSize keeps the worst-case window sum inside uint32:
	// maxWindowSize * MaxSample <= 2^32-1. Larger windows could
	// overflow the accumulator, which is never checked at runtime.
	maxWindowSize = (1<<32 - 1) / MaxSample
)

// ErrWindowTooLarge is returned by New when the configured window could
// overflow the 32-bit sample sum.
var ErrWindowTooLarge = errors.New("core: window size exceeds sum capacity")

// Config carries the build-time parameters of the control loop. Values
// are fixed for the life of the controller; there is no runtime
// reconfiguration.
type Config struct {
	// WindowSize is the number of accepted samples averaged into one
	// reported value. Zero selects DefaultWindowSize.
	WindowSize uint32
}

func (c *Config) setDefaults() {
	if c.WindowSize == 0 {
		c.WindowSize = DefaultWindowSize
	}
}
