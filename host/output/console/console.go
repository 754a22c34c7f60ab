// Package console prints readings to stdout, one line each.
package console

import (
	"fmt"
	"time"

	"meanline/host/device"
	"meanline/host/output"
)

type ConsoleOutput struct{}

func NewConsole() output.Output { return &ConsoleOutput{} }

func (c *ConsoleOutput) Publish(r device.Reading) error {
	fmt.Printf("%s average=%d\n", r.At.Format(time.RFC3339), r.Average)
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
