package extio

import (
	"errors"
	"strconv"
)

// probe is an instrumented element that records every call it receives.
type probe struct {
	Base
	name    string
	log     *[]string
	begins  int
	updates int
	fail    bool

	modes  map[Pin]Mode
	levels map[Pin]bool
	duty   map[Pin]Analog
}

func newProbe(reg *Registry, name string, n Pin, log *[]string) *probe {
	p := &probe{
		name:   name,
		log:    log,
		modes:  map[Pin]Mode{},
		levels: map[Pin]bool{},
		duty:   map[Pin]Analog{},
	}
	p.Base = reg.Register(p, n)
	return p
}

func (p *probe) record(op string, pin Pin) {
	if p.log != nil {
		*p.log = append(*p.log, p.name+"."+op+"("+strconv.Itoa(int(pin))+")")
	}
}

func (p *probe) PinMode(pin Pin, mode Mode) {
	p.record("mode", pin)
	p.modes[pin] = mode
}

func (p *probe) DigitalWrite(pin Pin, level bool) {
	p.record("write", pin)
	p.levels[pin] = level
}

func (p *probe) DigitalRead(pin Pin) bool {
	p.record("read", pin)
	return p.levels[pin]
}

func (p *probe) AnalogRead(pin Pin) Analog {
	p.record("aread", pin)
	return Analog(100 + pin)
}

func (p *probe) AnalogWrite(pin Pin, level Analog) {
	p.record("awrite", pin)
	p.duty[pin] = level
}

func (p *probe) Begin() error {
	p.begins++
	if p.log != nil {
		*p.log = append(*p.log, p.name+".begin")
	}
	if p.fail {
		return errors.New(p.name + " failed")
	}
	return nil
}

func (p *probe) Update() error {
	p.updates++
	if p.fail {
		return errors.New(p.name + " update failed")
	}
	return nil
}

// bank is a minimal native delegate.
type bank struct {
	levels map[Pin]bool
	modes  map[Pin]Mode
	duty   map[Pin]Analog
	trace  []string
}

func newBank() *bank {
	return &bank{levels: map[Pin]bool{}, modes: map[Pin]Mode{}, duty: map[Pin]Analog{}}
}

func (b *bank) PinMode(pin Pin, mode Mode) { b.modes[pin] = mode }

func (b *bank) DigitalWrite(pin Pin, level bool) {
	b.levels[pin] = level
	v := "0"
	if level {
		v = "1"
	}
	b.trace = append(b.trace, pin.String()+"="+v)
}

func (b *bank) DigitalRead(pin Pin) bool          { return b.levels[pin] }
func (b *bank) AnalogRead(pin Pin) Analog         { return Analog(pin) * 10 }
func (b *bank) AnalogWrite(pin Pin, level Analog) { b.duty[pin] = level }
