// Package device speaks the sampler board's line protocol from the
// host side: it sends START/STOP, matches their acknowledgements, and
// streams averaged readings as they arrive.
package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"meanline/host/logging"
	"meanline/host/serial"
	"meanline/proto"
)

// DefaultBufferSize is the default capacity of the readings channel.
const DefaultBufferSize = 100

// Reading is one averaged window reported by the board.
type Reading struct {
	Average uint32
	At      time.Time
}

// Conn is a connection to a sampler board. A reader goroutine owns the
// receive side for the lifetime of the connection; command methods may
// be called from any goroutine but are serialized.
type Conn struct {
	rw io.ReadWriteCloser

	readings chan Reading
	acks     chan proto.Kind

	ready     chan struct{}
	readyOnce sync.Once

	cmdMu sync.Mutex

	done    chan struct{}
	readErr error

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an open byte stream, typically a serial port or a soft
// board's host side, and starts reading from it.
func NewConn(rw io.ReadWriteCloser) *Conn {
	c := &Conn{
		rw:       rw,
		readings: make(chan Reading, DefaultBufferSize),
		acks:     make(chan proto.Kind, 1),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Dial opens the serial port described by cfg and connects to the
// board behind it.
func Dial(cfg *serial.Config) (*Conn, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return NewConn(port), nil
}

// readLoop parses incoming lines and dispatches them. It is the only
// sender on, and the only closer of, the readings channel.
func (c *Conn) readLoop() {
	scanner := bufio.NewScanner(c.rw)
	for scanner.Scan() {
		line := scanner.Text()
		msg, ok := proto.ParseLine(line)
		if !ok {
			logging.Warn().Str("line", line).Msg("Unparseable line from board")
			continue
		}

		switch msg.Kind {
		case proto.KindReady:
			c.readyOnce.Do(func() { close(c.ready) })

		case proto.KindAckStart, proto.KindAckStop:
			select {
			case c.acks <- msg.Kind:
			default:
				logging.Warn().Stringer("ack", msg.Kind).Msg("Dropping ack no one is waiting for")
			}

		case proto.KindReading:
			select {
			case c.readings <- Reading{Average: msg.Average, At: time.Now()}:
			default:
				logging.Warn().Msg("Readings channel full, dropping reading")
			}
		}
	}

	c.readErr = scanner.Err()
	close(c.done)
	close(c.readings)
}

// WaitReady blocks until the board announces itself. Boards announce
// once at reset, so a host attaching to an already running board
// should bound the wait with the context and proceed on timeout.
func (c *Conn) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-c.done:
		return fmt.Errorf("wait ready: %w", c.linkErr())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start enables sampling on the board and waits for the acknowledgement.
func (c *Conn) Start(ctx context.Context) error {
	return c.command(ctx, proto.CmdStart, proto.KindAckStart)
}

// Stop disables sampling on the board and waits for the acknowledgement.
func (c *Conn) Stop(ctx context.Context) error {
	return c.command(ctx, proto.CmdStop, proto.KindAckStop)
}

func (c *Conn) command(ctx context.Context, word string, want proto.Kind) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	// Drop any ack left over from a command that timed out.
	select {
	case <-c.acks:
	default:
	}

	if _, err := c.rw.Write([]byte(word + proto.LineEnd)); err != nil {
		return fmt.Errorf("send %s: %w", word, err)
	}

	select {
	case got := <-c.acks:
		if got != want {
			return fmt.Errorf("%s: unexpected ack %s", word, got)
		}
		return nil
	case <-c.done:
		return fmt.Errorf("%s: %w", word, c.linkErr())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Readings returns the channel of averaged readings. It is closed when
// the link goes away.
func (c *Conn) Readings() <-chan Reading {
	return c.readings
}

// Err reports why the receive side stopped, or nil while it is running.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.linkErr()
	default:
		return nil
	}
}

// linkErr is only valid after done is closed.
func (c *Conn) linkErr() error {
	if c.readErr != nil {
		return c.readErr
	}
	return io.EOF
}

// Close closes the underlying stream and waits for the reader to exit.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rw.Close()
		<-c.done
	})
	return c.closeErr
}
