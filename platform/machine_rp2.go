//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"extio-go/extio"
	"extio-go/x/timex"

	"tinygo.org/x/drivers"
)

// PWMFrequency is used for AnalogWrite on native pins, close to the
// classic analogWrite rate.
const PWMFrequency = 500

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// Select controller handle for a given slice number.
func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

type pwmChan struct {
	ctrl pwmCtrl
	ch   uint8 // 0 => A, 1 => B
}

// Machine is the native pin delegate on RP2 parts. Pin numbers are GP
// numbers. AnalogRead is only meaningful on the ADC pins GP26..GP29.
type Machine struct {
	adc        map[extio.Pin]machine.ADC
	pwm        map[extio.Pin]pwmChan
	sliceReady map[uint8]bool
}

func NewMachine() *Machine {
	machine.InitADC()
	return &Machine{
		adc:        make(map[extio.Pin]machine.ADC),
		pwm:        make(map[extio.Pin]pwmChan),
		sliceReady: make(map[uint8]bool),
	}
}

func (m *Machine) PinMode(pin extio.Pin, mode extio.Mode) {
	if pin >= NativePins {
		return
	}
	delete(m.pwm, pin)
	var pm machine.PinMode
	switch mode {
	case extio.ModeOutput:
		pm = machine.PinOutput
	case extio.ModeInputPullup:
		pm = machine.PinInputPullup
	case extio.ModeInputPulldown:
		pm = machine.PinInputPulldown
	default:
		pm = machine.PinInput
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: pm})
}

func (m *Machine) DigitalWrite(pin extio.Pin, level bool) {
	if pin < NativePins {
		machine.Pin(pin).Set(level)
	}
}

func (m *Machine) DigitalRead(pin extio.Pin) bool {
	return pin < NativePins && machine.Pin(pin).Get()
}

// AnalogRead samples an ADC pin and returns the upper 10 bits.
func (m *Machine) AnalogRead(pin extio.Pin) extio.Analog {
	if pin < 26 || pin >= NativePins {
		return 0
	}
	a, ok := m.adc[pin]
	if !ok {
		a = machine.ADC{Pin: machine.Pin(pin)}
		a.Configure(machine.ADCConfig{})
		m.adc[pin] = a
	}
	return extio.Analog(a.Get() >> 6)
}

// AnalogWrite switches the pin to its PWM slice on first use. All users of a
// slice share PWMFrequency.
func (m *Machine) AnalogWrite(pin extio.Pin, level extio.Analog) {
	if pin >= NativePins {
		return
	}
	pc, ok := m.pwm[pin]
	if !ok {
		slice, err := machine.PWMPeripheral(machine.Pin(pin))
		if err != nil {
			return
		}
		pc = pwmChan{ctrl: pwmGroupBySlice(slice), ch: uint8(pin & 1)}
		if !m.sliceReady[slice] {
			if err := pc.ctrl.Configure(machine.PWMConfig{Period: timex.PeriodNs(PWMFrequency)}); err != nil {
				return
			}
			m.sliceReady[slice] = true
		}
		machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinPWM})
		m.pwm[pin] = pc
	}
	level = min(level, extio.AnalogWriteMax)
	top := pc.ctrl.Top()
	pc.ctrl.Set(pc.ch, uint32(level)*top/uint32(extio.AnalogWriteMax))
}

// DefaultNative returns the machine pin delegate.
func DefaultNative() *Machine { return NewMachine() }

// DefaultI2CFactory configures i2c0 and i2c1 with board-default pins at 400 kHz.
func DefaultI2CFactory() I2CBuses {
	b0 := machine.I2C0
	_ = b0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	b1 := machine.I2C1
	_ = b1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	return I2CBuses{"i2c0": b0, "i2c1": b1}
}

// DefaultSPIFactory configures spi0 and spi1 in mode 0 at 4 MHz, MSB first,
// on board-default pins.
func DefaultSPIFactory() SPIBuses {
	buses := SPIBuses{}
	for id, s := range map[string]*machine.SPI{"spi0": machine.SPI0, "spi1": machine.SPI1} {
		if err := s.Configure(machine.SPIConfig{Frequency: 4 * machine.MHz, Mode: 0}); err != nil {
			continue
		}
		buses[id] = s
	}
	return buses
}

var _ drivers.SPI = (*machine.SPI)(nil)
