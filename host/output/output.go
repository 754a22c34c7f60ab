// Package output fans averaged readings out to their destinations.
package output

import "meanline/host/device"

// Output publishes averaged readings somewhere useful.
type Output interface {
	Publish(device.Reading) error
	Close() error
}

// helper constructors are in subpackages
