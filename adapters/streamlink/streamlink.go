// Package streamlink adapts a plain byte stream (stdio, a TCP
// connection, a pty) into the serial-link interface the controller
// consumes, so the control loop can be served over anything that reads
// and writes bytes.
package streamlink

import (
	"bufio"
	"io"
	"sync"
)

// Link implements core.SerialLink over an io.ReadWriter. A reader
// goroutine holds each received byte until the core arms for it; writes
// pass straight through, serialized, with the busy flag covering the
// in-flight call.
type Link struct {
	rw io.ReadWriter

	mu     sync.Mutex
	onByte func(b byte)
	busy   bool

	wmu   sync.Mutex
	armed chan struct{}
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// New wraps rw and starts the receive pump.
func New(rw io.ReadWriter) *Link {
	l := &Link{
		rw:    rw,
		armed: make(chan struct{}, 1),
		stop:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.pump()
	return l
}

// Write sends p. Overlapping writers queue on the internal lock rather
// than interleaving bytes on the stream.
func (l *Link) Write(p []byte) {
	l.wmu.Lock()
	l.setBusy(true)
	_, _ = l.rw.Write(p)
	l.setBusy(false)
	l.wmu.Unlock()
}

// WriteBusy reports whether a write is in flight on the stream.
func (l *Link) WriteBusy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

func (l *Link) setBusy(v bool) {
	l.mu.Lock()
	l.busy = v
	l.mu.Unlock()
}

// OnByte binds the byte-received callback.
func (l *Link) OnByte(fn func(b byte)) {
	l.mu.Lock()
	l.onByte = fn
	l.mu.Unlock()
}

// Rearm releases the next buffered byte to the callback. Extra arms
// collapse into one.
func (l *Link) Rearm() {
	select {
	case l.armed <- struct{}{}:
	default:
	}
}

func (l *Link) pump() {
	defer l.wg.Done()
	br := bufio.NewReaderSize(l.rw, 256)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		select {
		case <-l.stop:
			return
		case <-l.armed:
		}
		l.mu.Lock()
		cb := l.onByte
		l.mu.Unlock()
		if cb != nil {
			cb(b)
		}
	}
}

// Close stops the pump. When the underlying stream has a Close method
// it is closed too; that is what unblocks a pump waiting in Read.
func (l *Link) Close() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		if c, ok := l.rw.(io.Closer); ok {
			err = c.Close()
			l.wg.Wait()
		}
	})
	return err
}
