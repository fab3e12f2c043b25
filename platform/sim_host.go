//go:build !rp2040 && !rp2350

package platform

import (
	"errors"
	"strconv"
	"sync"

	"extio-go/extio"
)

// ----------------------------- Native pins (host) ----------------------------

// Sim is an in-memory native pin bank for host builds and tests. Inputs are
// injected with SetLevel and SetAnalog; outputs can be inspected with Level
// and Duty.
type Sim struct {
	mu     sync.RWMutex
	modes  []extio.Mode
	levels []bool
	analog []extio.Analog // injected analog inputs
	duty   []extio.Analog // last AnalogWrite
}

func NewSim(n int) *Sim {
	return &Sim{
		modes:  make([]extio.Mode, n),
		levels: make([]bool, n),
		analog: make([]extio.Analog, n),
		duty:   make([]extio.Analog, n),
	}
}

func (s *Sim) Len() int { return len(s.modes) }

func (s *Sim) in(pin extio.Pin) bool { return int(pin) < len(s.modes) }

func (s *Sim) PinMode(pin extio.Pin, mode extio.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.in(pin) {
		return
	}
	s.modes[pin] = mode
	if mode == extio.ModeInputPullup {
		s.levels[pin] = true
	}
}

func (s *Sim) DigitalWrite(pin extio.Pin, level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in(pin) {
		s.levels[pin] = level
	}
}

func (s *Sim) DigitalRead(pin extio.Pin) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.in(pin) && s.levels[pin]
}

func (s *Sim) AnalogRead(pin extio.Pin) extio.Analog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.in(pin) {
		return 0
	}
	return s.analog[pin]
}

func (s *Sim) AnalogWrite(pin extio.Pin, level extio.Analog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in(pin) {
		s.duty[pin] = level
	}
}

// SetLevel drives an input as if from outside.
func (s *Sim) SetLevel(pin extio.Pin, level bool) { s.DigitalWrite(pin, level) }

// SetAnalog sets the value AnalogRead returns for pin.
func (s *Sim) SetAnalog(pin extio.Pin, v extio.Analog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in(pin) {
		s.analog[pin] = v
	}
}

func (s *Sim) Mode(pin extio.Pin) extio.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.in(pin) {
		return extio.ModeInput
	}
	return s.modes[pin]
}

func (s *Sim) Level(pin extio.Pin) bool { return s.DigitalRead(pin) }

func (s *Sim) Duty(pin extio.Pin) extio.Analog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.in(pin) {
		return 0
	}
	return s.duty[pin]
}

// ----------------------------- I²C (host) ------------------------------------

// SimDevice is a chip with 256 8-bit registers and an auto-incrementing
// register pointer, which is how the MCP23017 (IOCON.BANK=0) and the PCA9685
// (MODE1.AI) are driven.
type SimDevice struct {
	Regs [256]byte
	// Err, when set, fails every transaction with this device.
	Err error
	ptr byte
}

// SimI2C implements drivers.I2C over a set of SimDevices.
type SimI2C struct {
	mu   sync.Mutex
	devs map[uint16]*SimDevice
	txs  int
}

func NewSimI2C() *SimI2C { return &SimI2C{devs: make(map[uint16]*SimDevice)} }

// Device returns the device at addr, attaching a blank one if needed.
func (b *SimI2C) Device(addr uint16) *SimDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devs[addr]
	if !ok {
		d = &SimDevice{}
		b.devs[addr] = d
	}
	return d
}

// Peek reads a register under the bus lock.
func (b *SimI2C) Peek(addr uint16, reg byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.devs[addr]; ok {
		return d.Regs[reg]
	}
	return 0
}

// Poke writes a register under the bus lock.
func (b *SimI2C) Poke(addr uint16, reg, v byte) {
	d := b.Device(addr)
	b.mu.Lock()
	d.Regs[reg] = v
	b.mu.Unlock()
}

// Transactions returns the number of completed Tx calls.
func (b *SimI2C) Transactions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txs
}

// Tx writes w (register pointer first) and then reads r from the pointer.
func (b *SimI2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devs[addr]
	if !ok {
		return errors.New("i2c: no device at " + strconv.Itoa(int(addr)))
	}
	if d.Err != nil {
		return d.Err
	}
	if len(w) > 0 {
		d.ptr = w[0]
		for _, v := range w[1:] {
			d.Regs[d.ptr] = v
			d.ptr++
		}
	}
	for i := range r {
		r[i] = d.Regs[d.ptr]
		d.ptr++
	}
	b.txs++
	return nil
}

// ----------------------------- SPI (host) ------------------------------------

// SimSPI records transmitted frames.
type SimSPI struct {
	mu     sync.Mutex
	frames [][]byte
}

func (s *SimSPI) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, append([]byte(nil), w...))
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (s *SimSPI) Transfer(b byte) (byte, error) {
	_ = s.Tx([]byte{b}, nil)
	return 0, nil
}

// Frames returns a copy of the recorded frames.
func (s *SimSPI) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

// ----------------------------- Defaults --------------------------------------

// DefaultNative returns a simulated bank of NativePins pins.
func DefaultNative() *Sim { return NewSim(NativePins) }

// DefaultI2CFactory creates simulated buses "i2c0" and "i2c1".
func DefaultI2CFactory() I2CBuses {
	return I2CBuses{"i2c0": NewSimI2C(), "i2c1": NewSimI2C()}
}

// DefaultSPIFactory creates simulated buses "spi0" and "spi1".
func DefaultSPIFactory() SPIBuses {
	return SPIBuses{"spi0": &SimSPI{}, "spi1": &SimSPI{}}
}
