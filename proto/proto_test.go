package proto

import (
	"testing"
)

func TestParseLine(t *testing.T) {
	testCases := []struct {
		line string
		want Message
		ok   bool
	}{
		{"READY", Message{Kind: KindReady}, true},
		{"READY\r", Message{Kind: KindReady}, true},
		{"OK_START", Message{Kind: KindAckStart}, true},
		{"OK_STOP", Message{Kind: KindAckStop}, true},
		{"0", Message{Kind: KindReading, Average: 0}, true},
		{"20", Message{Kind: KindReading, Average: 20}, true},
		{"2048\r", Message{Kind: KindReading, Average: 2048}, true},
		{"4294967295", Message{Kind: KindReading, Average: 4294967295}, true},
		{"", Message{}, false},
		{"\r", Message{}, false},
		{"ok_start", Message{}, false},
		{"READY2", Message{}, false},
		{"-5", Message{}, false},
		{"12.5", Message{}, false},
		{"4294967296", Message{}, false}, // overflows uint32
		{"12 34", Message{}, false},
	}

	for _, tc := range testCases {
		got, ok := ParseLine(tc.line)
		if ok != tc.ok {
			t.Errorf("ParseLine(%q): ok = %v, expected %v", tc.line, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseLine(%q) = %+v, expected %+v", tc.line, got, tc.want)
		}
	}
}

func TestKindString(t *testing.T) {
	testCases := []struct {
		kind Kind
		want string
	}{
		{KindReady, "ready"},
		{KindAckStart, "ack_start"},
		{KindAckStop, "ack_stop"},
		{KindReading, "reading"},
		{KindUnknown, "unknown"},
		{Kind(200), "unknown"},
	}

	for _, tc := range testCases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind(%d).String() = %q, expected %q", tc.kind, got, tc.want)
		}
	}
}
