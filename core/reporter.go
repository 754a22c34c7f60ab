package core

import "meanline/proto"

// takeWindow atomically consumes the completed window, if any. Check,
// snapshot and reset share one critical section, so the conversion
// interrupt can never observe a half-drained window.
func (c *Controller) takeWindow() (sum, count uint32, ok bool) {
	st := c.irq.disable()
	if !c.acc.ready {
		c.irq.restore(st)
		return 0, 0, false
	}
	sum = c.acc.sum
	count = c.acc.count
	c.acc = accumState{}
	c.irq.restore(st)
	return sum, count, true
}

// Service drains one completed window: snapshot-and-reset, integer
// mean, decimal line out. Ordinary context only. Reports whether a
// line was transmitted.
func (c *Controller) Service() bool {
	sum, count, ok := c.takeWindow()
	if !ok {
		return false
	}
	if count == 0 {
		// ready observed stale after a concurrent reset. Benign;
		// produce nothing.
		return false
	}

	line := appendUint(c.out[:0], sum/count)
	line = append(line, proto.LineEnd...)
	c.transmit(line)
	return true
}
