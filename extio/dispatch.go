package extio

import (
	"extio-go/errcode"
)

// Native is the platform's own pin IO, addressed by native pin number.
type Native interface {
	PinMode(pin Pin, mode Mode)
	DigitalWrite(pin Pin, level bool)
	DigitalRead(pin Pin) bool
	AnalogRead(pin Pin) Analog
	AnalogWrite(pin Pin, level Analog)
}

// IO dispatches pin operations on global pin numbers. Pins below
// Registry.Native go unchanged to the native delegate, the rest to the
// element that owns them.
type IO struct {
	native Native
	reg    *Registry
}

func NewIO(native Native, reg *Registry) *IO {
	return &IO{native: native, reg: reg}
}

func (io *IO) Registry() *Registry { return io.reg }
func (io *IO) Native() Native      { return io.native }

// IsNative reports whether pin is handled by the native delegate.
func (io *IO) IsNative(pin Pin) bool { return pin < io.reg.Native() }

// Owner returns the element that owns an extended pin and the local index.
func (io *IO) Owner(pin Pin) (Element, Pin, bool) {
	if io.IsNative(pin) {
		return nil, 0, false
	}
	return io.reg.FindOwner(pin)
}

// owner resolves an extended pin. An unowned pin is a programming error.
func (io *IO) owner(op string, pin Pin) (Element, Pin) {
	el, local, ok := io.reg.FindOwner(pin)
	if !ok {
		panic(&errcode.E{C: errcode.UnknownPin, Op: op, Msg: "pin " + pin.String() + " has no owner"})
	}
	return el, local
}

func (io *IO) PinMode(pin Pin, mode Mode) {
	if io.IsNative(pin) {
		io.native.PinMode(pin, mode)
		return
	}
	el, local := io.owner("extio.PinMode", pin)
	el.PinMode(local, mode)
}

func (io *IO) DigitalWrite(pin Pin, level bool) {
	if io.IsNative(pin) {
		io.native.DigitalWrite(pin, level)
		return
	}
	el, local := io.owner("extio.DigitalWrite", pin)
	el.DigitalWrite(local, level)
}

func (io *IO) DigitalRead(pin Pin) bool {
	if io.IsNative(pin) {
		return io.native.DigitalRead(pin)
	}
	el, local := io.owner("extio.DigitalRead", pin)
	return el.DigitalRead(local)
}

func (io *IO) AnalogRead(pin Pin) Analog {
	if io.IsNative(pin) {
		return io.native.AnalogRead(pin)
	}
	el, local := io.owner("extio.AnalogRead", pin)
	return el.AnalogRead(local)
}

func (io *IO) AnalogWrite(pin Pin, level Analog) {
	if io.IsNative(pin) {
		io.native.AnalogWrite(pin, level)
		return
	}
	el, local := io.owner("extio.AnalogWrite", pin)
	el.AnalogWrite(local, level)
}

// ShiftOut clocks val out on data/clock one bit at a time. Both pins may be
// native or extended; for buffered elements each edge only lands on the bus
// when the element is updated, so bit-banging through an expander needs an
// element that flushes its writes immediately.
func (io *IO) ShiftOut(data, clock Pin, order BitOrder, val uint8) {
	for i := 0; i < 8; i++ {
		var bit bool
		if order == LSBFirst {
			bit = val&(1<<i) != 0
		} else {
			bit = val&(1<<(7-i)) != 0
		}
		io.DigitalWrite(data, bit)
		io.DigitalWrite(clock, High)
		io.DigitalWrite(clock, Low)
	}
}
