//go:build tinygo

package core

import "runtime/interrupt"

// irqState is the saved interrupt mask.
type irqState = interrupt.State

// irqGuard masks interrupts around shared controller state. Disable
// returns the previous mask, so nested sections restore correctly from
// either execution context.
type irqGuard struct{}

// disable masks interrupts and returns the previous state.
func (g *irqGuard) disable() irqState {
	return interrupt.Disable()
}

// restore re-enables interrupts to the saved state.
func (g *irqGuard) restore(state irqState) {
	interrupt.Restore(state)
}

// spinWait stays a raw spin under TinyGo. The acknowledgement path
// polls from interrupt context, where rescheduling is not allowed.
func spinWait() {}
