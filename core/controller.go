// Package core implements the sampling control loop: a fixed-rate
// conversion stream is block-averaged into one reading per window,
// enabled and disabled by text commands arriving on a serial link.
//
// The controller runs in three contexts. HandleConversion is the
// conversion-complete interrupt body, HandleByte the byte-received
// interrupt body, and Run polls for completed windows from the ordinary
// context. Shared state lives behind an interrupt guard with two build
// flavors (interrupt_go.go, interrupt_tinygo.go), so the same core runs
// on metal and on a host OS.
package core

// accumState is the window state shared between the conversion
// interrupt (append) and the ordinary-context reporter (snapshot and
// reset). count never exceeds the window size; ready is set at the
// instant count reaches it.
type accumState struct {
	sum   uint32
	count uint32
	ready bool
}

// Controller owns the accumulator, the enable flag and the receive
// line buffer, and drives them from the three execution contexts.
type Controller struct {
	src  AnalogSource
	link SerialLink
	cfg  Config

	irq     irqGuard
	acc     accumState // guarded by irq
	enabled bool       // guarded by irq

	// Line assembly state. Owned exclusively by the receive interrupt
	// context; no guard.
	line    [lineBufCap]byte
	lineLen int

	// Scratch for formatting one report line.
	out [16]byte
}

// New builds a controller over the given front-end and link. The
// hardware must be non-nil; the window size is validated against the
// accumulator width once, here, and never checked again.
func New(src AnalogSource, link SerialLink, cfg Config) (*Controller, error) {
	if src == nil {
		panic("core: analog source not configured")
	}
	if link == nil {
		panic("core: serial link not configured")
	}
	cfg.setDefaults()
	if cfg.WindowSize > maxWindowSize {
		return nil, ErrWindowTooLarge
	}
	return &Controller{src: src, link: link, cfg: cfg}, nil
}

// WindowSize reports the configured samples-per-window.
func (c *Controller) WindowSize() uint32 {
	return c.cfg.WindowSize
}

// transmit blocks until the previous transmission has drained, then
// starts sending p. The spin is bounded: transmission is fast relative
// to both callers' invocation rates.
func (c *Controller) transmit(p []byte) {
	for c.link.WriteBusy() {
		spinWait()
	}
	c.link.Write(p)
}
