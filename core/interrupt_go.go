//go:build !tinygo

package core

import (
	"runtime"
	"sync"
)

// irqState is a placeholder for saved interrupt state on regular Go.
type irqState struct{}

// irqGuard serializes interrupt-context and ordinary-context access to
// shared controller state. On regular Go the "interrupt contexts" are
// real goroutines, so the guard must be a true lock rather than the
// no-op it could be on a single-core MCU.
type irqGuard struct {
	mu sync.Mutex
}

// disable enters the critical section and returns the previous state.
func (g *irqGuard) disable() irqState {
	g.mu.Lock()
	return irqState{}
}

// restore leaves the critical section.
func (g *irqGuard) restore(irqState) {
	g.mu.Unlock()
}

// spinWait is called between polls of a busy transmitter. Yielding here
// keeps the spin from starving the goroutine that would drain it.
func spinWait() {
	runtime.Gosched()
}
