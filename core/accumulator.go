package core

// HandleConversion is the conversion-complete interrupt body, bound via
// AnalogSource.OnConversion. It runs at the sampling cadence, the
// highest rate in the system, so it does nothing but the interrupt
// acknowledgement and the guarded accumulator update. No blocking, no
// formatting, no output.
func (c *Controller) HandleConversion() {
	// Acknowledge first, even while disabled. The next conversion
	// never fires on a still-pending condition.
	c.src.ClearInterrupt()

	st := c.irq.disable()
	if !c.enabled {
		c.irq.restore(st)
		return
	}
	if c.acc.count >= c.cfg.WindowSize {
		// Completed window still waiting for the reporter. Drop the
		// sample; count must never pass the window size.
		c.irq.restore(st)
		return
	}
	c.acc.sum += uint32(c.src.Last())
	c.acc.count++
	if c.acc.count == c.cfg.WindowSize {
		c.acc.ready = true
	}
	c.irq.restore(st)
}
