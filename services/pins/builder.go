package pins

import (
	"sync"

	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/types"

	"tinygo.org/x/drivers"
)

// I2CFactory resolves a configured I2C bus by id.
type I2CFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// SPIFactory resolves a configured SPI bus by id.
type SPIFactory interface {
	ByID(id string) (drivers.SPI, bool)
}

// Resources are the platform handles the service builds elements against.
type Resources struct {
	Native extio.Native
	I2C    I2CFactory
	SPI    SPIFactory
	// NativePins is used when the config does not set native_pins.
	NativePins int
}

// BuildInput is what a Builder gets for one configured element.
type BuildInput struct {
	ID, Type string
	Params   any
	BusRef   types.BusRef
	Reg      *extio.Registry
	IO       *extio.IO
	Res      Resources

	// refs collects the extended pins the element drives through the facade.
	refs *[]extio.Pin
}

// Builder constructs and registers one element. A builder must validate
// everything before constructing, since construction registers the element
// and claims its pin range.
type Builder interface {
	Build(in BuildInput) (extio.Element, error)
}

type BuilderFunc func(in BuildInput) (extio.Element, error)

func (f BuilderFunc) Build(in BuildInput) (extio.Element, error) { return f(in) }

var (
	regMu    sync.RWMutex
	builders = map[string]Builder{}
)

func RegisterBuilder(typ string, b Builder) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := builders[typ]; exists {
		panic("duplicate element builder: " + typ)
	}
	builders[typ] = b
}

func lookupBuilder(typ string) (Builder, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	b, ok := builders[typ]
	return b, ok
}

// ---- shared helpers for builders ----

func (in BuildInput) i2c() (drivers.I2C, error) {
	if in.BusRef.Type != "i2c" || in.Res.I2C == nil {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: in.Type, Msg: "needs an i2c bus_ref"}
	}
	b, ok := in.Res.I2C.ByID(in.BusRef.ID)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: in.Type, Msg: in.BusRef.ID}
	}
	return b, nil
}

func (in BuildInput) spi() (drivers.SPI, error) {
	if in.BusRef.Type != "spi" || in.Res.SPI == nil {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: in.Type, Msg: "needs an spi bus_ref"}
	}
	b, ok := in.Res.SPI.ByID(in.BusRef.ID)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: in.Type, Msg: in.BusRef.ID}
	}
	return b, nil
}

// pin checks that a pin named in params is already addressable: native, or
// owned by an element registered earlier. Extended pins are recorded in refs.
func (in BuildInput) pin(name string, n int) (extio.Pin, error) {
	if n < 0 || n >= int(extio.NoPin) {
		return extio.NoPin, &errcode.E{C: errcode.PinOutOfRange, Op: in.Type, Msg: name}
	}
	p := extio.Pin(n)
	if in.IO.IsNative(p) {
		return p, nil
	}
	if _, _, ok := in.IO.Owner(p); !ok {
		return extio.NoPin, &errcode.E{C: errcode.UnknownPin, Op: in.Type, Msg: name + " " + p.String()}
	}
	if in.refs != nil {
		*in.refs = append(*in.refs, p)
	}
	return p, nil
}
