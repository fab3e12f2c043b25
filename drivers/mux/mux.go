// Package mux reads a CD74HC4051 (8 channel) or CD74HC4067 (16 channel)
// analog multiplexer as an extio element.
//
// The address lines, the optional enable line and the common pin are all
// driven through the dispatch facade, so they can be native pins or pins of
// another element. Update steps through every channel and samples the common
// pin into a buffer; the per-pin reads return those samples.
package mux

import (
	"time"

	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/x/mathx"
)

type Mux struct {
	extio.Base

	io      *extio.IO
	common  extio.Pin
	selects []extio.Pin
	enable  extio.Pin // active low; NoPin when tied to ground

	mode    extio.Mode
	samples []extio.Analog
	begun   bool

	// Settle is waited after switching channels before sampling. Zero skips
	// the wait.
	Settle time.Duration
}

// New registers a multiplexer with 1<<len(selects) channels. selects[0] is
// the least significant address line (S0).
func New(reg *extio.Registry, io *extio.IO, common extio.Pin, selects []extio.Pin, enable extio.Pin) *Mux {
	if len(selects) == 0 || len(selects) > 4 {
		panic("mux: need 1 to 4 address lines")
	}
	n := 1 << len(selects)
	m := &Mux{
		io:      io,
		common:  common,
		selects: append([]extio.Pin(nil), selects...),
		enable:  enable,
		samples: make([]extio.Analog, n),
	}
	m.Base = reg.Register(m, extio.Pin(n))
	return m
}

func (m *Mux) Channels() int { return len(m.samples) }

// PinMode sets the mode of the common pin; channels have no mode of their
// own.
func (m *Mux) PinMode(pin extio.Pin, mode extio.Mode) {
	m.mode = mode
	if m.begun {
		m.io.PinMode(m.common, mode)
	}
}

// Writes are ignored: the multiplexer is used as an input.
func (m *Mux) DigitalWrite(pin extio.Pin, level bool)        {}
func (m *Mux) AnalogWrite(pin extio.Pin, level extio.Analog) {}

func (m *Mux) AnalogRead(pin extio.Pin) extio.Analog {
	if int(pin) >= len(m.samples) {
		return 0
	}
	return m.samples[pin]
}

func (m *Mux) DigitalRead(pin extio.Pin) bool {
	return mathx.Threshold(m.AnalogRead(pin), extio.AnalogReadMax)
}

// Begin configures the address lines, enables the part and takes the first
// round of samples.
func (m *Mux) Begin() error {
	for _, s := range m.selects {
		m.io.PinMode(s, extio.ModeOutput)
	}
	if m.enable != extio.NoPin {
		m.io.PinMode(m.enable, extio.ModeOutput)
		m.io.DigitalWrite(m.enable, extio.Low)
	}
	m.io.PinMode(m.common, m.mode)
	m.begun = true
	m.scan()
	return nil
}

func (m *Mux) Update() error {
	if !m.begun {
		return &errcode.E{C: errcode.NotBegun, Op: "mux.Update"}
	}
	m.scan()
	return nil
}

// scan samples every channel. With a pull resistor on the common pin the
// channels are read digitally and stored as 0 or AnalogReadMax.
func (m *Mux) scan() {
	digital := m.mode == extio.ModeInputPullup || m.mode == extio.ModeInputPulldown
	for ch := range m.samples {
		m.selectChannel(ch)
		if m.Settle > 0 {
			time.Sleep(m.Settle)
		}
		if digital {
			if m.io.DigitalRead(m.common) {
				m.samples[ch] = extio.AnalogReadMax
			} else {
				m.samples[ch] = 0
			}
			continue
		}
		m.samples[ch] = m.io.AnalogRead(m.common)
	}
}

func (m *Mux) selectChannel(ch int) {
	for i, s := range m.selects {
		m.io.DigitalWrite(s, ch&(1<<i) != 0)
	}
}
