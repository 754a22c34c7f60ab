// Package proto defines the wire vocabulary of the serial line protocol
// shared by the device core and the host tooling.
package proto

import (
	"strconv"
	"strings"
)

// Command words, matched case-sensitively against the whole accumulated
// line on the device. No terminator is required on the wire; CR/LF are
// filtered out before matching.
const (
	CmdStart = "START"
	CmdStop  = "STOP"
)

// Lines the device transmits.
const (
	AckStart = "OK_START"
	AckStop  = "OK_STOP"
	Banner   = "READY"

	// LineEnd terminates every transmitted line.
	LineEnd = "\r\n"
)

// DefaultBaud is the serial rate of the validated hardware build. Both
// ends must use it or the link decodes garbage.
const DefaultBaud = 230400

// Kind classifies a line received from the device.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindReady
	KindAckStart
	KindAckStop
	KindReading
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return "ready"
	case KindAckStart:
		return "ack_start"
	case KindAckStop:
		return "ack_stop"
	case KindReading:
		return "reading"
	default:
		return "unknown"
	}
}

// Message is one classified line from the device.
type Message struct {
	Kind    Kind
	Average uint32 // set when Kind == KindReading
}

// ParseLine classifies one received line. A trailing CR left over from
// LF-splitting readers is tolerated. Returns ok=false for anything
// outside the protocol.
func ParseLine(line string) (Message, bool) {
	line = strings.TrimSuffix(line, "\r")
	switch line {
	case Banner:
		return Message{Kind: KindReady}, true
	case AckStart:
		return Message{Kind: KindAckStart}, true
	case AckStop:
		return Message{Kind: KindAckStop}, true
	case "":
		return Message{}, false
	}
	v, err := strconv.ParseUint(line, 10, 32)
	if err != nil {
		return Message{}, false
	}
	return Message{Kind: KindReading, Average: uint32(v)}, true
}
