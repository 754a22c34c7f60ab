// Package ads1115 implements the analog front-end over a TI ADS1115
// I2C converter via periph.io, for running the control loop on a Linux
// host (a Pi wired to the sensor) instead of a microcontroller.
package ads1115

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"meanline/core"
)

// Register pointers.
const (
	pointerConv   = 0x00
	pointerConfig = 0x01
)

const (
	// DefaultAddr is the ADDR-pin-to-ground address.
	DefaultAddr = 0x48

	// MaxSampleRate is the fastest data rate the converter supports.
	MaxSampleRate = 860

	// maxFailures is how many consecutive bus errors the read loop
	// tolerates before it stops the stream, the way dead hardware
	// would.
	maxFailures = 5
)

// Config selects the bus, device and channel.
type Config struct {
	// Bus names the I2C bus ("1", "/dev/i2c-1", ...). Empty opens the
	// first available bus.
	Bus string `yaml:"bus"`

	// Addr is the 7-bit device address. Zero selects DefaultAddr.
	Addr uint16 `yaml:"addr"`

	// Channel is the single-ended input, 0 through 3.
	Channel int `yaml:"channel"`

	// SampleRate paces the conversion stream, capped by the hardware
	// at MaxSampleRate. Zero selects MaxSampleRate.
	SampleRate int `yaml:"sample_rate"`
}

// Frontend implements core.AnalogSource over the converter running in
// continuous mode: the chip free-runs at its own data rate and the read
// loop latches the newest conversion at the configured cadence.
type Frontend struct {
	cfg Config
	dev *i2c.Dev
	bus i2c.BusCloser

	mu      sync.Mutex
	last    core.Sample
	onConv  func()
	lastErr error
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open validates cfg and connects to the converter. The conversion
// stream stays idle until Start.
func Open(cfg Config) (*Frontend, error) {
	if cfg.Channel < 0 || cfg.Channel > 3 {
		return nil, fmt.Errorf("ads1115: invalid channel %d", cfg.Channel)
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = MaxSampleRate
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > MaxSampleRate {
		return nil, fmt.Errorf("ads1115: sample rate %d outside 1..%d", cfg.SampleRate, MaxSampleRate)
	}
	if cfg.Addr == 0 {
		cfg.Addr = DefaultAddr
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ads1115: host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("ads1115: open i2c: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Frontend{
		cfg:    cfg,
		dev:    &i2c.Dev{Addr: cfg.Addr, Bus: bus},
		bus:    bus,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start programs continuous conversion and launches the read loop.
func (f *Frontend) Start() error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return fmt.Errorf("ads1115: already started")
	}
	f.started = true
	f.mu.Unlock()

	msb, lsb := configWord(f.cfg.Channel, f.cfg.SampleRate)
	if err := f.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return fmt.Errorf("ads1115: write config: %w", err)
	}

	f.wg.Add(1)
	go f.readLoop()
	return nil
}

func (f *Frontend) readLoop() {
	defer f.wg.Done()
	ticker := time.NewTicker(time.Second / time.Duration(f.cfg.SampleRate))
	defer ticker.Stop()

	failures := 0
	buf := make([]byte, 2)
	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
		}

		if err := f.dev.Tx([]byte{pointerConv}, buf); err != nil {
			f.mu.Lock()
			f.lastErr = err
			f.mu.Unlock()
			failures++
			if failures >= maxFailures {
				// Bus is gone; stop the stream.
				return
			}
			continue
		}
		failures = 0

		raw := int16(buf[0])<<8 | int16(buf[1])
		if raw < 0 {
			// Single-ended readings below ground are noise.
			raw = 0
		}

		f.mu.Lock()
		f.last = core.Sample(raw)
		cb := f.onConv
		f.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

// Last returns the newest latched conversion.
func (f *Frontend) Last() core.Sample {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// ClearInterrupt is a no-op: the converter has no latched flag on the
// I2C side, the read loop paces delivery instead.
func (f *Frontend) ClearInterrupt() {}

// OnConversion binds the conversion-complete callback.
func (f *Frontend) OnConversion(fn func()) {
	f.mu.Lock()
	f.onConv = fn
	f.mu.Unlock()
}

// Err returns the most recent bus error, if any.
func (f *Frontend) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Close stops the read loop and releases the bus.
func (f *Frontend) Close() error {
	f.cancel()
	f.wg.Wait()
	return f.bus.Close()
}

// configWord packs the config register: single-ended mux for the
// channel, ±4.096V PGA, continuous mode, the closest data rate, and
// the comparator disabled.
func configWord(channel, sampleRate int) (msb, lsb byte) {
	mux := byte(0x4 + channel)
	pga := byte(0x1)

	var w uint16
	w |= uint16(mux) << 12
	w |= uint16(pga) << 9
	// MODE bit 8 stays 0: continuous conversion.
	w |= uint16(rateBits(sampleRate)) << 5
	w |= 0x3 // comparator disabled

	return byte(w >> 8), byte(w)
}

// rateBits maps a requested rate to the nearest data-rate setting at or
// above it, so the latched value is never older than one tick.
func rateBits(rate int) byte {
	rates := [...]int{8, 16, 32, 64, 128, 250, 475, 860}
	for i, r := range rates {
		if rate <= r {
			return byte(i)
		}
	}
	return 0x7
}
