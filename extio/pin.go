// Package extio maps native microcontroller pins and the pins of attached
// expanders (multiplexers, shift registers, IO expanders) onto one flat pin
// number space.
//
// Native pins keep their platform numbers. Every registered expander gets a
// contiguous block of numbers directly above the native range, in the order
// the expanders were registered. For a board with 20 native pins, an 8-channel
// multiplexer registered first owns pins 20..27 and a second one owns 28..35;
// IO.DigitalRead(27) ends up as mux1.DigitalRead(7).
//
// Nothing in this package is safe for concurrent use. Registration, lookup and
// dispatch are expected to run on the firmware's single main loop.
package extio

import "strconv"

// Pin is a global pin number. Native pins occupy [0, Registry.Native()),
// extended pins follow.
type Pin uint16

// NoPin marks an absent pin. It is never handed out by an AddressSpace.
const NoPin Pin = 0xFFFF

func (p Pin) String() string {
	if p == NoPin {
		return "none"
	}
	return strconv.Itoa(int(p))
}

// Mode is the IO mode of a pin.
type Mode uint8

const (
	ModeInput Mode = iota
	ModeOutput
	ModeInputPullup
	ModeInputPulldown
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	case ModeInputPullup:
		return "input_pullup"
	case ModeInputPulldown:
		return "input_pulldown"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "input":
		return ModeInput, true
	case "output":
		return ModeOutput, true
	case "input_pullup":
		return ModeInputPullup, true
	case "input_pulldown":
		return ModeInputPulldown, true
	}
	return 0, false
}

// Digital levels.
const (
	Low  = false
	High = true
)

// Analog is an analog sample or output level.
//
// Reads use the 10-bit range [0, AnalogReadMax]; writes use the 8-bit duty
// range [0, AnalogWriteMax], as on Arduino.
type Analog uint16

const (
	AnalogReadMax  Analog = 1023
	AnalogWriteMax Analog = 255
)

// BitOrder selects the bit order for ShiftOut.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)
