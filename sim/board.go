// Package sim provides an in-memory board so the real control loop can
// run as a soft device: a ticker stands in for the conversion timer, a
// pair of byte queues stands in for the UART, and the host talks to the
// far end through an io.ReadWriteCloser.
package sim

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"meanline/core"
)

// Board implements core.AnalogSource and core.SerialLink over channels,
// queues and a ticker goroutine. The hardware contracts are kept
// deliberately sharp: a conversion interrupt left uncleared holds off
// further conversions, and received bytes are delivered strictly one
// per arming.
type Board struct {
	cfg Config
	src Source

	mu         sync.Mutex
	last       core.Sample
	irqPending bool
	onConv     func()
	onByte     func(b byte)
	busyUntil  time.Time
	started    bool

	armed chan struct{}
	rx    *fifo // host → device
	tx    *fifo // device → host

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBoard builds a board from the given profile and starts its receive
// pump. The conversion stream stays idle until Start.
func NewBoard(cfg Config) *Board {
	cfg.ensureDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{
		cfg:    cfg,
		src:    cfg.Source.build(cfg.SampleRate, cfg.Resolution),
		armed:  make(chan struct{}, 1),
		rx:     newFifo(rxFifoSize),
		tx:     newFifo(txFifoSize),
		ctx:    ctx,
		cancel: cancel,
	}
	b.wg.Add(1)
	go b.pumpReceive()
	return b
}

// Start launches the conversion ticker.
func (b *Board) Start() error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return errors.New("sim: conversion stream already started")
	}
	b.started = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.convertLoop()
	return nil
}

// Last returns the most recent converted value.
func (b *Board) Last() core.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// ClearInterrupt acknowledges the pending conversion, releasing the
// next one.
func (b *Board) ClearInterrupt() {
	b.mu.Lock()
	b.irqPending = false
	b.mu.Unlock()
}

// OnConversion binds the conversion-complete callback.
func (b *Board) OnConversion(fn func()) {
	b.mu.Lock()
	b.onConv = fn
	b.mu.Unlock()
}

func (b *Board) convertLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(time.Second / time.Duration(b.cfg.SampleRate))
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
		}

		b.mu.Lock()
		if b.irqPending {
			// Previous conversion still unacknowledged; hardware
			// holds off until the flag is cleared.
			b.mu.Unlock()
			continue
		}
		b.last = b.src.Next()
		b.irqPending = true
		cb := b.onConv
		b.mu.Unlock()

		// Invoked outside the lock: the handler reads Last and clears
		// the flag through us.
		if cb != nil {
			cb()
		}
	}
}

// Write queues p for the host and, when a per-byte shift time is
// configured, marks the transmitter busy for its duration.
func (b *Board) Write(p []byte) {
	if b.cfg.TxByteTime > 0 {
		b.mu.Lock()
		b.busyUntil = time.Now().Add(time.Duration(len(p)) * b.cfg.TxByteTime)
		b.mu.Unlock()
	}
	// A closed link swallows the write, as unplugged hardware would.
	_, _ = b.tx.Write(p)
}

// WriteBusy reports whether the simulated shift register is still
// draining.
func (b *Board) WriteBusy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Now().Before(b.busyUntil)
}

// OnByte binds the byte-received callback.
func (b *Board) OnByte(fn func(b byte)) {
	b.mu.Lock()
	b.onByte = fn
	b.mu.Unlock()
}

// Rearm releases the next queued byte to the receive callback. Extra
// arms collapse into one: the contract is one byte per arming.
func (b *Board) Rearm() {
	select {
	case b.armed <- struct{}{}:
	default:
	}
}

func (b *Board) pumpReceive() {
	defer b.wg.Done()
	for {
		c, err := b.rx.ReadByte()
		if err != nil {
			return
		}

		// The byte sits in the shift register until the core arms.
		select {
		case <-b.ctx.Done():
			return
		case <-b.armed:
		}

		b.mu.Lock()
		cb := b.onByte
		b.mu.Unlock()
		if cb != nil {
			cb(c)
		}
	}
}

// HostPort returns the host end of the serial link: reads see device
// transmissions, writes feed the device receiver. Closing the port
// shuts the whole board down.
func (b *Board) HostPort() io.ReadWriteCloser {
	return hostPort{b}
}

type hostPort struct{ b *Board }

func (p hostPort) Read(q []byte) (int, error)  { return p.b.tx.Read(q) }
func (p hostPort) Write(q []byte) (int, error) { return p.b.rx.Write(q) }
func (p hostPort) Close() error                { return p.b.Close() }

// Close stops the board goroutines and both ends of the link.
func (b *Board) Close() error {
	b.cancel()
	b.rx.Close()
	b.tx.Close()
	b.wg.Wait()
	return nil
}
