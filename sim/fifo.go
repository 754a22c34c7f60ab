package sim

import (
	"io"
	"sync"
)

// fifo is a bounded circular byte queue connecting the board goroutines
// to the host end of the link. Reads block until data arrives or the
// queue closes; writes block while full. One slot stays reserved, so
// usable capacity is len(buf)-1.
type fifo struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []byte
	read     int
	write    int
	closed   bool
}

func newFifo(capacity int) *fifo {
	f := &fifo{buf: make([]byte, capacity)}
	f.notEmpty = sync.NewCond(&f.mu)
	f.notFull = sync.NewCond(&f.mu)
	return f
}

// Write queues all of p, blocking while the buffer is full. Returns
// io.ErrClosedPipe with a short count if the fifo closes first.
func (f *fifo) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	written := 0
	for written < len(p) {
		if f.closed {
			return written, io.ErrClosedPipe
		}

		n := 0
		for written+n < len(p) {
			next := (f.write + 1) % len(f.buf)
			if next == f.read {
				// Buffer full
				break
			}
			f.buf[f.write] = p[written+n]
			f.write = next
			n++
		}
		if n == 0 {
			f.notFull.Wait()
			continue
		}
		written += n
		f.notEmpty.Broadcast()
	}
	return written, nil
}

// Read blocks until at least one byte is queued, then drains up to
// len(p). A closed fifo keeps returning queued bytes until empty, then
// io.EOF.
func (f *fifo) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.read == f.write {
		if f.closed {
			return 0, io.EOF
		}
		f.notEmpty.Wait()
	}

	n := 0
	for n < len(p) && f.read != f.write {
		p[n] = f.buf[f.read]
		f.read = (f.read + 1) % len(f.buf)
		n++
	}
	f.notFull.Broadcast()
	return n, nil
}

// ReadByte blocks for the next single byte.
func (f *fifo) ReadByte() (byte, error) {
	var one [1]byte
	n, err := f.Read(one[:])
	if n == 1 {
		return one[0], nil
	}
	return 0, err
}

// Close wakes every waiter. Queued bytes stay readable.
func (f *fifo) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.notEmpty.Broadcast()
	f.notFull.Broadcast()
	return nil
}
