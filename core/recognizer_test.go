package core

import "testing"

func TestCommandVocabulary(t *testing.T) {
	testCases := []struct {
		word string
		ack  string
	}{
		{"START", "OK_START\r\n"},
		{"STOP", "OK_STOP\r\n"},
	}

	for _, tc := range testCases {
		_, fb := newTestController(t, 3)
		fb.feed(tc.word)

		if len(fb.writes) != 1 || fb.writes[0] != tc.ack {
			t.Errorf("Expected ack %q for %q, got %q", tc.ack, tc.word, fb.writes)
		}
	}
}

func TestCommandNeedsNoTerminator(t *testing.T) {
	_, fb := newTestController(t, 3)

	// The ack goes out on the final command byte; the CR/LF that a
	// terminal sends afterwards is filtered and changes nothing.
	fb.feed("START\r\n")

	if len(fb.writes) != 1 || fb.writes[0] != "OK_START\r\n" {
		t.Errorf("Expected a single OK_START ack, got %q", fb.writes)
	}
}

func TestStartEnablesSampling(t *testing.T) {
	c, fb := newTestController(t, 3)
	fb.feed("START")

	fb.tick(10)
	fb.tick(20)
	fb.tick(30)

	if !c.Service() {
		t.Error("Expected sampling to be enabled after START")
	}
}

func TestStopDisablesAndResets(t *testing.T) {
	c, fb := newTestController(t, 3)

	fb.feed("START")
	fb.tick(100)
	fb.tick(200)

	fb.feed("STOP")
	fb.tick(300) // must be suppressed

	fb.feed("START")
	fb.tick(10)
	fb.tick(20)
	fb.tick(30)

	if !c.Service() {
		t.Error("Expected a completed window after restart")
	}
	// Only samples after the second START may contribute.
	if got := fb.writes[len(fb.writes)-1]; got != "20\r\n" {
		t.Errorf("Expected average 20 after restart, got %q", got)
	}
}

func TestStopWhileIdle(t *testing.T) {
	c, fb := newTestController(t, 3)

	fb.feed("STOP")

	if len(fb.writes) != 1 || fb.writes[0] != "OK_STOP\r\n" {
		t.Errorf("Expected only the OK_STOP ack, got %q", fb.writes)
	}
	if c.Service() {
		t.Error("Expected no pending window after idle STOP")
	}
}

func TestStartIdempotent(t *testing.T) {
	c, fb := newTestController(t, 3)

	fb.feed("START")
	fb.tick(10)
	fb.tick(20)
	fb.feed("START") // must not disturb the window in progress
	fb.tick(30)

	if !c.Service() {
		t.Error("Expected the window to complete across repeated START")
	}

	acks := 0
	for _, w := range fb.writes {
		if w == "OK_START\r\n" {
			acks++
		}
	}
	if acks != 2 {
		t.Errorf("Expected 2 START acks, got %d (%q)", acks, fb.writes)
	}
	if got := fb.writes[len(fb.writes)-1]; got != "20\r\n" {
		t.Errorf("Expected average 20 across repeated START, got %q", got)
	}
}

func TestOverlongLineDropped(t *testing.T) {
	c, fb := newTestController(t, 3)

	// 15 printable bytes with an embedded word fill the buffer exactly;
	// the line is dropped whole, no partial match fires.
	fb.feed("AAAAAAAAAASTART")

	if len(fb.writes) != 0 {
		t.Errorf("Expected no ack for an overlong line, got %q", fb.writes)
	}
	fb.tick(1)
	if c.Service() {
		t.Error("Expected sampling to stay disabled after an overlong line")
	}

	// The buffer reset on overflow, so a clean command now matches.
	fb.feed("START")
	if len(fb.writes) != 1 || fb.writes[0] != "OK_START\r\n" {
		t.Errorf("Expected ack after buffer reset, got %q", fb.writes)
	}
}

func TestEmbeddedWordNotMatched(t *testing.T) {
	_, fb := newTestController(t, 3)

	// Matching is whole-buffer: leading garbage poisons the line until
	// it overflows.
	fb.feed("XSTART")

	if len(fb.writes) != 0 {
		t.Errorf("Expected no ack for embedded word, got %q", fb.writes)
	}
}

func TestNonPrintablesNeverContributeOrReset(t *testing.T) {
	_, fb := newTestController(t, 3)

	fb.feed("ST")
	fb.byteCb(0x00)
	fb.byteCb(0x1F)
	fb.byteCb(0x7F)
	fb.feed("ART")

	// Control bytes are filtered before buffering, so the split word
	// still assembles and matches.
	if len(fb.writes) != 1 || fb.writes[0] != "OK_START\r\n" {
		t.Errorf("Expected START to match across control bytes, got %q", fb.writes)
	}
}

func TestUnknownLineSilent(t *testing.T) {
	c, fb := newTestController(t, 3)

	fb.feed("RESET")

	if len(fb.writes) != 0 {
		t.Errorf("Expected no reply for unknown input, got %q", fb.writes)
	}
	fb.tick(1)
	if c.Service() {
		t.Error("Expected unknown input to leave sampling disabled")
	}
}

func TestReceiveAlwaysRearmed(t *testing.T) {
	_, fb := newTestController(t, 3)

	fb.feed("START")   // match path
	fb.byteCb(0x00)    // filtered path
	fb.feed("NOMATCH") // accumulate path

	want := 5 + 1 + 7
	if fb.rearms != want {
		t.Errorf("Expected %d rearms (one per byte), got %d", want, fb.rearms)
	}
}
