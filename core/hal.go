package core

// Sample is one converted analog value as seen by the rest of the
// firmware. Convention: 16-bit value, even when the underlying
// hardware is 10 or 12 bits.
type Sample uint16

// MaxSample is the largest value a front-end may report.
const MaxSample = 1<<16 - 1

// AnalogSource is the conversion front-end the accumulator consumes.
// Target-specific code implements it over the on-chip ADC, an external
// converter, or a simulation; the controller treats it purely as an
// injected interface.
type AnalogSource interface {
	// Start begins the periodic conversion stream.
	Start() error

	// Last returns the newest converted value.
	Last() Sample

	// ClearInterrupt acknowledges the conversion-complete condition.
	// The next conversion does not fire until it has been cleared.
	ClearInterrupt()

	// OnConversion binds the conversion-complete callback. The source
	// invokes fn once per conversion, from interrupt context.
	OnConversion(fn func())
}

// SerialLink is the byte channel commands arrive on and reports leave
// by.
type SerialLink interface {
	// Write begins transmitting p. Callers must check WriteBusy first;
	// the link is free to reject or mangle overlapping writes.
	Write(p []byte)

	// WriteBusy reports whether a prior transmission is still in
	// flight.
	WriteBusy() bool

	// OnByte binds the byte-received callback. The link invokes fn
	// with one byte per arming, from interrupt context.
	OnByte(fn func(b byte))

	// Rearm requests delivery of the next single byte.
	Rearm()
}
