// Package serial opens the link to a sampler board and enumerates
// candidate ports.
package serial

import (
	"io"

	"meanline/proto"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-process soft boards (sim.Board's host side)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (ignored for USB CDC)
	Baud int

	// Read timeout in milliseconds. Zero means blocking reads, which
	// is what the line-oriented reader wants.
	ReadTimeout int
}

// DefaultConfig returns the configuration matching the board firmware.
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   proto.DefaultBaud,
	}
}
