package serial

import (
	"fmt"

	"go.bug.st/serial"
)

// ListPorts returns the names of the serial ports present on the
// system, for picking the board when no device path is configured.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
