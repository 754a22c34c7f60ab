package sim

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFifoRoundTrip(t *testing.T) {
	f := newFifo(16)

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 16)
	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestFifoReadBlocksUntilWrite(t *testing.T) {
	f := newFifo(16)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = f.Write([]byte{42})
	}()

	b, err := f.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(42), b)
}

func TestFifoCloseDrainsThenEOF(t *testing.T) {
	f := newFifo(16)

	_, err := f.Write([]byte("ab"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(buf[:n]))

	_, err = f.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFifoWriteAfterClose(t *testing.T) {
	f := newFifo(16)
	require.NoError(t, f.Close())

	_, err := f.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestFifoCloseUnblocksReader(t *testing.T) {
	f := newFifo(16)

	errc := make(chan error, 1)
	go func() {
		_, err := f.ReadByte()
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, f.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("reader not released by Close")
	}
}

func TestFifoFullWriteUnblocksOnRead(t *testing.T) {
	f := newFifo(8) // 7 usable bytes

	done := make(chan struct{})
	go func() {
		n, err := f.Write([]byte("0123456789"))
		assert.NoError(t, err)
		assert.Equal(t, 10, n)
		close(done)
	}()

	got := make([]byte, 0, 10)
	buf := make([]byte, 4)
	for len(got) < 10 {
		n, err := f.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer not released by reads")
	}
	assert.Equal(t, "0123456789", string(got))
}
