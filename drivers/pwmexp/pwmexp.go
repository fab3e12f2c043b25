// Package pwmexp exposes a PCA9685 16-channel PWM controller as an extio
// element. Every channel is an output; duty cycles are staged in the
// driver's LED buffer and written in a single I2C transaction on Update.
package pwmexp

import (
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/x/mathx"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/pca9685"
)

const (
	ChannelCount = 16
	// DefaultAddress is the address with A0..A5 tied low.
	DefaultAddress = 0x40
)

type Expander struct {
	extio.Base

	dev    *pca9685.DevBuffered
	period uint64
	duty   [ChannelCount]uint16

	begun bool
	dirty bool
}

// New registers a 16-channel PWM expander. period is the PWM period in
// nanoseconds; zero picks the controller default of 1 ms.
func New(reg *extio.Registry, bus drivers.I2C, addr uint8, period uint64) *Expander {
	e := &Expander{
		dev:    pca9685.NewBuffered(bus, addr),
		period: period,
	}
	e.Base = reg.Register(e, ChannelCount)
	return e
}

func (e *Expander) top() uint16 { return uint16(e.dev.Top()) }

// PinMode is a no-op: the channels are output-only.
func (e *Expander) PinMode(pin extio.Pin, mode extio.Mode) {}

func (e *Expander) DigitalWrite(pin extio.Pin, level bool) {
	var d uint16
	if level {
		d = e.top()
	}
	e.setDuty(pin, d)
}

func (e *Expander) DigitalRead(pin extio.Pin) bool {
	if pin >= ChannelCount {
		return false
	}
	return mathx.Threshold(e.duty[pin], e.top())
}

// AnalogRead returns the staged duty cycle on the 10-bit read scale.
func (e *Expander) AnalogRead(pin extio.Pin) extio.Analog {
	if pin >= ChannelCount {
		return 0
	}
	return extio.Analog(mathx.Scale(e.duty[pin], e.top(), uint16(extio.AnalogReadMax)))
}

func (e *Expander) AnalogWrite(pin extio.Pin, level extio.Analog) {
	e.setDuty(pin, mathx.Scale(uint16(level), uint16(extio.AnalogWriteMax), e.top()))
}

// Duty returns the staged 12-bit duty cycle of a channel.
func (e *Expander) Duty(pin extio.Pin) uint16 {
	if pin >= ChannelCount {
		return 0
	}
	return e.duty[pin]
}

func (e *Expander) setDuty(pin extio.Pin, d uint16) {
	if pin >= ChannelCount || e.duty[pin] == d {
		return
	}
	e.duty[pin] = d
	e.dev.PrepSet(uint8(pin), uint32(d))
	e.dirty = true
}

// Begin enables register auto-increment, sets the period and pushes the
// staged duty cycles.
func (e *Expander) Begin() error {
	if err := e.dev.Configure(pca9685.PWMConfig{Period: e.period}); err != nil {
		return errcode.Wrap(errcode.IOFailed, "pwmexp.Begin", err)
	}
	e.begun = true
	e.dirty = true
	return errcode.Wrap(errcode.IOFailed, "pwmexp.Begin", e.push())
}

func (e *Expander) Update() error {
	if !e.begun {
		return &errcode.E{C: errcode.NotBegun, Op: "pwmexp.Update"}
	}
	return errcode.Wrap(errcode.IOFailed, "pwmexp.Update", e.push())
}

func (e *Expander) push() error {
	if !e.dirty {
		return nil
	}
	if err := e.dev.Update(); err != nil {
		return err
	}
	e.dirty = false
	return nil
}
