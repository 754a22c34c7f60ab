package core

import "testing"

func TestAverageUsesIntegerDivision(t *testing.T) {
	c, fb := newTestController(t, 3)
	fb.feed("START")

	fb.tick(10)
	fb.tick(21)
	fb.tick(10)

	if !c.Service() {
		t.Fatal("Expected a completed window")
	}
	// floor(41/3) = 13
	if got := fb.writes[len(fb.writes)-1]; got != "13\r\n" {
		t.Errorf("Expected truncated average \"13\\r\\n\", got %q", got)
	}
}

func TestServiceWithoutWindow(t *testing.T) {
	c, fb := newTestController(t, 3)

	if c.Service() {
		t.Error("Expected Service to be a no-op with nothing pending")
	}
	if len(fb.writes) != 0 {
		t.Errorf("Expected no output, got %q", fb.writes)
	}
}

func TestStaleReadyProducesNothing(t *testing.T) {
	c, fb := newTestController(t, 3)

	// ready observed true with the window already drained; the guard
	// must skip silently rather than divide by zero.
	c.acc.ready = true

	if c.Service() {
		t.Error("Expected no report from a stale ready flag")
	}
	if len(fb.writes) != 0 {
		t.Errorf("Expected no output, got %q", fb.writes)
	}
}

func TestTransmitWaitsForBusyLink(t *testing.T) {
	c, fb := newTestController(t, 1)
	fb.feed("START")

	fb.tick(5)
	fb.busyPolls = 3

	if !c.Service() {
		t.Fatal("Expected a completed window")
	}
	if fb.busyPolls != 0 {
		t.Errorf("Expected the transmit spin to drain the busy link, %d polls left", fb.busyPolls)
	}
	if got := fb.writes[len(fb.writes)-1]; got != "5\r\n" {
		t.Errorf("Expected report \"5\\r\\n\", got %q", got)
	}
}

func TestWindowsReportInOrder(t *testing.T) {
	c, fb := newTestController(t, 2)
	fb.feed("START")

	fb.tick(1)
	fb.tick(3)
	if !c.Service() {
		t.Fatal("Expected first window")
	}
	fb.tick(5)
	fb.tick(7)
	if !c.Service() {
		t.Fatal("Expected second window")
	}

	// writes[0] is the START ack.
	if fb.writes[1] != "2\r\n" || fb.writes[2] != "6\r\n" {
		t.Errorf("Expected ordered reports [2 6], got %q", fb.writes[1:])
	}
}

func TestMaxSampleWindowDoesNotOverflow(t *testing.T) {
	c, fb := newTestController(t, maxWindowSize)
	fb.feed("START")

	// Worst case by construction: a full window of max samples sums to
	// exactly the top of uint32.
	for i := uint32(0); i < maxWindowSize; i++ {
		fb.tick(MaxSample)
	}

	if !c.Service() {
		t.Fatal("Expected the window to complete")
	}
	if got := fb.writes[len(fb.writes)-1]; got != "65535\r\n" {
		t.Errorf("Expected average 65535, got %q", got)
	}
}
