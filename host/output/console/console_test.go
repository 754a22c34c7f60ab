package console

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"meanline/host/device"
)

func captureStdout(f func()) string {
	r, w, _ := os.Pipe()
	stdout := os.Stdout
	os.Stdout = w
	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()
	f()
	_ = w.Close()
	os.Stdout = stdout
	return <-outC
}

func TestConsolePublish(t *testing.T) {
	c := NewConsole()
	at := time.Date(2026, 8, 21, 9, 30, 0, 0, time.UTC)
	out := captureStdout(func() {
		_ = c.Publish(device.Reading{Average: 2047, At: at})
	})
	assert.Equal(t, "2026-08-21T09:30:00Z average=2047\n", out)
}
