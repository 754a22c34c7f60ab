package core

import "meanline/proto"

// command pairs one vocabulary word with its state transition and its
// acknowledgement line. The table is closed: matching is whole-buffer,
// case-sensitive, attempted after every appended byte.
type command struct {
	word  string
	ack   []byte
	apply func(c *Controller)
}

var commandTable = [...]command{
	{
		word:  proto.CmdStart,
		ack:   []byte(proto.AckStart + proto.LineEnd),
		apply: (*Controller).enableSampling,
	},
	{
		word:  proto.CmdStop,
		ack:   []byte(proto.AckStop + proto.LineEnd),
		apply: (*Controller).disableSampling,
	},
}

// enableSampling turns the accumulator on. A window already in progress
// is kept; repeated START must not disturb accumulation.
func (c *Controller) enableSampling() {
	st := c.irq.disable()
	c.enabled = true
	c.irq.restore(st)
}

// disableSampling turns the accumulator off and discards the window in
// the same critical section, so a partial window can never leak into
// the next START.
func (c *Controller) disableSampling() {
	st := c.irq.disable()
	c.enabled = false
	c.acc = accumState{}
	c.irq.restore(st)
}

// HandleByte is the byte-received interrupt body, bound via
// SerialLink.OnByte. One byte per invocation. The line buffer belongs
// to this context alone; the buffer resets only on a command match or
// on overflow, never on control bytes.
func (c *Controller) HandleByte(b byte) {
	if b >= 0x20 && b <= 0x7E {
		if c.lineLen < len(c.line)-1 {
			c.line[c.lineLen] = b
			c.lineLen++

			if cmd := c.matchCommand(); cmd != nil {
				cmd.apply(c)
				c.lineLen = 0
				c.transmit(cmd.ack)
			} else if c.lineLen == len(c.line)-1 {
				// Unrecognized and full: drop the line silently.
				c.lineLen = 0
			}
		}
	}
	// Re-arm no matter what the byte was; the stream must not stall.
	c.link.Rearm()
}

func (c *Controller) matchCommand() *command {
	for i := range commandTable {
		if string(c.line[:c.lineLen]) == commandTable[i].word {
			return &commandTable[i]
		}
	}
	return nil
}
