package core

import (
	"context"
	"time"

	"meanline/proto"
)

// idleInterval paces the ordinary-context poll. Readiness arrives once
// per window (one second at the defaults), so a sub-millisecond poll
// loses nothing and keeps a host CPU idle.
const idleInterval = 100 * time.Microsecond

var bannerLine = []byte(proto.Banner + proto.LineEnd)

// Run announces the device, arms both interrupt paths and services
// completed windows until ctx ends. The banner is transmitted before
// the first byte can be consumed, so a host waiting for READY never
// misses it.
func (c *Controller) Run(ctx context.Context) error {
	c.transmit(bannerLine)

	c.link.OnByte(c.HandleByte)
	c.link.Rearm()

	c.src.OnConversion(c.HandleConversion)
	if err := c.src.Start(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !c.Service() {
			time.Sleep(idleInterval)
		}
	}
}
