// Package gpioexp exposes an MCP23017 16-bit I2C port expander as an extio
// element.
//
// All per-pin calls work on a local copy of the chip state. Update pushes
// changed modes and output levels in at most three register writes and then
// reads both GPIO ports in one transaction.
package gpioexp

import (
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/x/mathx"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"
)

// PinCount is the number of pins an Expander registers.
const PinCount = mcp23017.PinCount

// DefaultAddress is the address with A0..A2 tied low.
const DefaultAddress = 0x20

type Expander struct {
	extio.Base

	bus  drivers.I2C
	addr uint8
	dev  *mcp23017.Device

	modes      [PinCount]mcp23017.PinMode
	modesDirty bool

	out      mcp23017.Pins // output latch
	outMask  mcp23017.Pins // pins configured as outputs
	outDirty bool

	in mcp23017.Pins // last sampled GPIO state
}

// New registers a 16-pin expander at addr on bus. The chip is not touched
// until Begin.
func New(reg *extio.Registry, bus drivers.I2C, addr uint8) *Expander {
	e := &Expander{bus: bus, addr: addr}
	e.Base = reg.Register(e, PinCount)
	return e
}

func (e *Expander) Address() uint8 { return e.addr }

func (e *Expander) PinMode(pin extio.Pin, mode extio.Mode) {
	if pin >= PinCount {
		return
	}
	i := int(pin)
	var m mcp23017.PinMode
	switch mode {
	case extio.ModeOutput:
		m = mcp23017.Output
		e.outMask.High(i)
	case extio.ModeInputPullup:
		m = mcp23017.Input | mcp23017.Pullup
		e.outMask.Low(i)
	default:
		// No pull-down on this part; a pull-down request is a plain input.
		m = mcp23017.Input
		e.outMask.Low(i)
	}
	if e.modes[i] != m {
		e.modes[i] = m
		e.modesDirty = true
		e.outDirty = true
	}
}

func (e *Expander) DigitalWrite(pin extio.Pin, level bool) {
	if pin >= PinCount {
		return
	}
	if e.out.Get(int(pin)) != level {
		e.out.Set(int(pin), level)
		e.outDirty = true
	}
}

// DigitalRead returns the latch for outputs and the last sample for inputs.
func (e *Expander) DigitalRead(pin extio.Pin) bool {
	if pin >= PinCount {
		return false
	}
	if e.outMask.Get(int(pin)) {
		return e.out.Get(int(pin))
	}
	return e.in.Get(int(pin))
}

func (e *Expander) AnalogRead(pin extio.Pin) extio.Analog {
	if e.DigitalRead(pin) {
		return extio.AnalogReadMax
	}
	return 0
}

func (e *Expander) AnalogWrite(pin extio.Pin, level extio.Analog) {
	e.DigitalWrite(pin, mathx.Threshold(level, extio.AnalogWriteMax))
}

// Begin checks the chip is present, applies the buffered modes and output
// levels, and takes the first input sample.
func (e *Expander) Begin() error {
	dev, err := mcp23017.NewI2C(e.bus, e.addr)
	if err != nil {
		return errcode.Wrap(errcode.IOFailed, "gpioexp.Begin", err)
	}
	e.dev = dev
	e.modesDirty = true
	e.outDirty = true
	if err := e.flush(); err != nil {
		return errcode.Wrap(errcode.IOFailed, "gpioexp.Begin", err)
	}
	return nil
}

func (e *Expander) Update() error {
	if e.dev == nil {
		return &errcode.E{C: errcode.NotBegun, Op: "gpioexp.Update"}
	}
	if err := e.flush(); err != nil {
		return errcode.Wrap(errcode.IOFailed, "gpioexp.Update", err)
	}
	return nil
}

func (e *Expander) flush() error {
	if e.modesDirty {
		if err := e.dev.SetModes(e.modes[:]); err != nil {
			return err
		}
		e.modesDirty = false
	}
	if e.outDirty {
		if err := e.dev.SetPins(e.out, e.outMask); err != nil {
			return err
		}
		e.outDirty = false
	}
	in, err := e.dev.GetPins()
	if err != nil {
		return err
	}
	e.in = in
	return nil
}
