package extio

// Element is the contract every expander driver implements.
//
// Pin arguments are always local indices in [0, length). Per-pin calls only
// touch the element's buffers; bus traffic happens in Begin and Update, so
// writes take effect on the next Update and reads return what the last Update
// sampled.
type Element interface {
	PinMode(pin Pin, mode Mode)
	DigitalWrite(pin Pin, level bool)
	DigitalRead(pin Pin) bool
	AnalogRead(pin Pin) Analog
	AnalogWrite(pin Pin, level Analog)

	// Begin performs one-time hardware initialisation. Registry.BeginAll
	// calls it exactly once per element.
	Begin() error
	// Update commits buffered outputs to the hardware and samples inputs into
	// the read buffers. The application loop calls it periodically.
	Update() error
}

// Base ties an element to the registry slot that owns its pin range.
// Drivers embed it and fill it in from Registry.Register.
type Base struct {
	reg  *Registry
	h    Handle
	span Span
}

// Pin returns the global pin number of local pin p.
func (b *Base) Pin(p Pin) Pin { return b.span.Pin(p) }

// Start returns the lowest global pin number of the element.
func (b *Base) Start() Pin { return b.span.Start }

// End returns the highest global pin number of the element.
func (b *Base) End() Pin { return b.span.End }

// Len returns the number of pins the element exposes.
func (b *Base) Len() Pin { return b.span.Len() }

func (b *Base) Span() Span     { return b.span }
func (b *Base) Handle() Handle { return b.h }

// Close removes the element from its registry. The pin range is not reused.
func (b *Base) Close() {
	if b.reg != nil {
		b.reg.Deregister(b.h)
		b.reg = nil
	}
}
