//go:build rp2040 || rp2350

// Firmware entry point for RP2040/RP2350 boards: ADC0 is the analog
// input, UART0 the command link. The control loop itself lives in core;
// this file only binds it to the metal.
package main

import (
	"context"
	"machine"
	"time"

	"meanline/core"
	"meanline/proto"
)

var (
	uart = machine.UART0
	adc  machine.ADC
)

// pollInterval paces the receive poll between bytes.
const pollInterval = 100 * time.Microsecond

// board adapts the TinyGo machine layer to the controller's front-end
// and link interfaces.
type board struct {
	armed  chan struct{}
	last   core.Sample
	onConv func()
	onByte func(b byte)
}

func main() {
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	machine.LED.High()

	uart.Configure(machine.UARTConfig{BaudRate: proto.DefaultBaud})

	machine.InitADC()
	adc = machine.ADC{Pin: machine.ADC0}
	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return
	}

	b := &board{armed: make(chan struct{}, 1)}
	ctrl, err := core.New(b, b, core.Config{})
	if err != nil {
		return
	}

	go b.receiveLoop()

	// Never returns on the device.
	_ = ctrl.Run(context.Background())
}

// Start launches the conversion ticker. The controller calls it once
// during startup.
func (b *board) Start() error {
	go b.convertLoop()
	return nil
}

func (b *board) convertLoop() {
	ticker := time.NewTicker(time.Second / time.Duration(core.DefaultSampleRate))
	defer ticker.Stop()
	for range ticker.C {
		b.last = core.Sample(adc.Get())
		if b.onConv != nil {
			b.onConv()
		}
	}
}

// Last returns the most recent conversion.
func (b *board) Last() core.Sample { return b.last }

// ClearInterrupt is a no-op: the ticker paces delivery, there is no
// latched flag to release.
func (b *board) ClearInterrupt() {}

// OnConversion binds the conversion-complete callback.
func (b *board) OnConversion(fn func()) { b.onConv = fn }

// Write pushes p into the UART transmit FIFO.
func (b *board) Write(p []byte) {
	_, _ = uart.Write(p)
}

// WriteBusy reports false: uart.Write returns only after the bytes are
// queued to the shifter.
func (b *board) WriteBusy() bool { return false }

// OnByte binds the byte-received callback.
func (b *board) OnByte(fn func(b byte)) { b.onByte = fn }

// Rearm releases the next received byte. Extra arms collapse into one.
func (b *board) Rearm() {
	select {
	case b.armed <- struct{}{}:
	default:
	}
}

// receiveLoop polls the UART and hands bytes to the controller one per
// arming, holding each until the previous one has been consumed.
func (b *board) receiveLoop() {
	for {
		if uart.Buffered() > 0 {
			c, err := uart.ReadByte()
			if err == nil {
				<-b.armed
				if b.onByte != nil {
					b.onByte(c)
				}
			}
			continue
		}
		time.Sleep(pollInterval)
	}
}
