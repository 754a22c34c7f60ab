package streamlink

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkDeliversOneBytePerArm(t *testing.T) {
	near, far := net.Pipe()
	l := New(near)
	defer l.Close()

	var mu sync.Mutex
	var got []byte
	l.OnByte(func(b byte) {
		mu.Lock()
		got = append(got, b)
		mu.Unlock()
	})
	received := func() string {
		mu.Lock()
		defer mu.Unlock()
		return string(got)
	}

	go func() {
		_, _ = far.Write([]byte("AB"))
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "", received(), "nothing may arrive before the first arming")

	l.Rearm()
	assert.Eventually(t, func() bool { return received() == "A" },
		time.Second, time.Millisecond)

	l.Rearm()
	assert.Eventually(t, func() bool { return received() == "AB" },
		time.Second, time.Millisecond)
}

func TestLinkWriteReachesStream(t *testing.T) {
	near, far := net.Pipe()
	l := New(near)
	defer l.Close()

	go l.Write([]byte("READY\r\n"))

	buf := make([]byte, 16)
	require.NoError(t, far.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := far.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "READY\r\n", string(buf[:n]))
}

func TestLinkBusyWhileWriteBlocked(t *testing.T) {
	near, far := net.Pipe()
	l := New(near)
	defer l.Close()

	// net.Pipe is synchronous: the write blocks until the far end
	// reads, holding the busy flag up.
	go l.Write([]byte("X"))
	assert.Eventually(t, func() bool { return l.WriteBusy() },
		time.Second, time.Millisecond)

	buf := make([]byte, 1)
	_, err := far.Read(buf)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !l.WriteBusy() },
		time.Second, time.Millisecond)
}

func TestLinkCloseIdempotent(t *testing.T) {
	near, _ := net.Pipe()
	l := New(near)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}
