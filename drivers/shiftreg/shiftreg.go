// Package shiftreg drives a daisy chain of 74HC595 serial-in parallel-out
// shift registers as an extio element with 8 outputs per chip.
//
// Local pin 0 is output Q0 of the chip nearest the microcontroller. The data
// goes out either over a hardware SPI bus (MOSI to DS, SCK to SH_CP) or by
// bit-banging two pins through the dispatch facade. The latch (ST_CP) is
// always driven through the facade and should be a native pin: buffered
// expander pins would only move on their own Update.
package shiftreg

import (
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/x/mathx"

	"tinygo.org/x/drivers"
)

type Chain struct {
	extio.Base

	spi   drivers.SPI // nil when bit-banging
	io    *extio.IO
	data  extio.Pin
	clock extio.Pin
	latch extio.Pin
	order extio.BitOrder

	state []byte // state[i] holds outputs 8i..8i+7
	wire  []byte // transmit order, last chip first

	begun bool
	dirty bool
}

// NewSPI registers a chain of chips clocked out over spi. The bus must be
// configured for mode 0 and the bit order the wiring expects.
func NewSPI(reg *extio.Registry, spi drivers.SPI, io *extio.IO, latch extio.Pin, chips int) *Chain {
	c := newChain(io, latch, chips)
	c.spi = spi
	c.data, c.clock = extio.NoPin, extio.NoPin
	c.Base = reg.Register(c, extio.Pin(8*chips))
	return c
}

// NewBitBang registers a chain of chips whose data and clock lines are
// toggled through io.
func NewBitBang(reg *extio.Registry, io *extio.IO, data, clock, latch extio.Pin, chips int, order extio.BitOrder) *Chain {
	c := newChain(io, latch, chips)
	c.data, c.clock, c.order = data, clock, order
	c.Base = reg.Register(c, extio.Pin(8*chips))
	return c
}

func newChain(io *extio.IO, latch extio.Pin, chips int) *Chain {
	if chips <= 0 {
		panic("shiftreg: chain needs at least one chip")
	}
	return &Chain{
		io:    io,
		latch: latch,
		state: make([]byte, chips),
		wire:  make([]byte, chips),
	}
}

func (c *Chain) Chips() int { return len(c.state) }

// State returns the buffered output bytes, nearest chip first.
func (c *Chain) State() []byte { return c.state }

// PinMode is a no-op: every pin is an output.
func (c *Chain) PinMode(pin extio.Pin, mode extio.Mode) {}

func (c *Chain) DigitalWrite(pin extio.Pin, level bool) {
	if int(pin) >= 8*len(c.state) {
		return
	}
	i, bit := pin/8, byte(1)<<(pin%8)
	old := c.state[i]
	if level {
		c.state[i] |= bit
	} else {
		c.state[i] &^= bit
	}
	if c.state[i] != old {
		c.dirty = true
	}
}

// DigitalRead returns the buffered output level.
func (c *Chain) DigitalRead(pin extio.Pin) bool {
	if int(pin) >= 8*len(c.state) {
		return false
	}
	return c.state[pin/8]&(1<<(pin%8)) != 0
}

func (c *Chain) AnalogRead(pin extio.Pin) extio.Analog {
	if c.DigitalRead(pin) {
		return extio.AnalogReadMax
	}
	return 0
}

func (c *Chain) AnalogWrite(pin extio.Pin, level extio.Analog) {
	c.DigitalWrite(pin, mathx.Threshold(level, extio.AnalogWriteMax))
}

// Begin configures the control pins and shifts out the initial state.
func (c *Chain) Begin() error {
	c.io.PinMode(c.latch, extio.ModeOutput)
	c.io.DigitalWrite(c.latch, extio.High)
	if c.spi == nil {
		c.io.PinMode(c.data, extio.ModeOutput)
		c.io.PinMode(c.clock, extio.ModeOutput)
		c.io.DigitalWrite(c.clock, extio.Low)
	}
	c.begun = true
	return errcode.Wrap(errcode.IOFailed, "shiftreg.Begin", c.flush())
}

// Update shifts the chain out when any output changed since the last flush.
func (c *Chain) Update() error {
	if !c.begun {
		return &errcode.E{C: errcode.NotBegun, Op: "shiftreg.Update"}
	}
	if !c.dirty {
		return nil
	}
	return errcode.Wrap(errcode.IOFailed, "shiftreg.Update", c.flush())
}

func (c *Chain) flush() error {
	n := len(c.state)
	for i := range c.state {
		c.wire[i] = c.state[n-1-i]
	}
	c.io.DigitalWrite(c.latch, extio.Low)
	if c.spi != nil {
		if err := c.spi.Tx(c.wire, nil); err != nil {
			c.io.DigitalWrite(c.latch, extio.High)
			return err
		}
	} else {
		for _, b := range c.wire {
			c.io.ShiftOut(c.data, c.clock, c.order, b)
		}
	}
	c.io.DigitalWrite(c.latch, extio.High)
	c.dirty = false
	return nil
}
