// Package colormap turns a range of small values (0..127) into colors for an
// addressable LED strip. A Mapper picks the color for each value, the strip
// applies a global brightness and a Writer pushes the result out, e.g. a
// ws2812.Device.
package colormap

import (
	"image/color"

	"extio-go/extio"
	"extio-go/x/mathx"
)

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff} }

// Mapper picks the color for a value in 0..127.
type Mapper interface {
	Map(value uint8) Color
}

type MapperFunc func(value uint8) Color

func (f MapperFunc) Map(value uint8) Color { return f(value) }

// DefaultMapper maps v to the grey level 2v.
var DefaultMapper Mapper = MapperFunc(func(v uint8) Color {
	g := v << 1
	return Color{g, g, g}
})

// Scale8Video scales every channel by scale/256 but never turns a lit
// channel fully off while scale is non-zero.
func Scale8Video(c Color, scale uint8) Color {
	return Color{scale8Video(c.R, scale), scale8Video(c.G, scale), scale8Video(c.B, scale)}
}

func scale8Video(x, scale uint8) uint8 {
	if x == 0 {
		return 0
	}
	v := uint8(uint16(x) * uint16(scale) >> 8)
	if scale != 0 {
		v++
	}
	return v
}

// Source is a range of values to display, one per LED.
type Source interface {
	Len() int
	Value(i int) uint8
}

// AnalogReader is the read half of the pin dispatch facade.
type AnalogReader interface {
	AnalogRead(pin extio.Pin) extio.Analog
}

// PinSource reads each value from a pin, scaling 0..1023 down to 0..127.
type PinSource struct {
	IO   AnalogReader
	Pins []extio.Pin
}

func (s PinSource) Len() int { return len(s.Pins) }

func (s PinSource) Value(i int) uint8 {
	v := s.IO.AnalogRead(s.Pins[i])
	return uint8(mathx.Scale(uint16(v), uint16(extio.AnalogReadMax), 127))
}

// Writer consumes one frame of colors.
type Writer interface {
	WriteColors(buf []color.RGBA) error
}

// Strip holds one color per LED. Begin and Update only touch the frame
// buffer; Flush sends it to the Writer.
type Strip struct {
	leds       []color.RGBA
	out        Writer
	mapper     Mapper
	brightness uint8
}

// NewStrip returns a strip of n LEDs at full brightness. A nil mapper selects
// DefaultMapper.
func NewStrip(n int, out Writer, mapper Mapper) *Strip {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return &Strip{
		leds:       make([]color.RGBA, n),
		out:        out,
		mapper:     mapper,
		brightness: 255,
	}
}

func (s *Strip) SetBrightness(b uint8) { s.brightness = b }
func (s *Strip) Brightness() uint8     { return s.brightness }
func (s *Strip) Colors() []color.RGBA  { return s.leds }

func (s *Strip) Begin(src Source) { s.Update(src) }

// Update recomputes every LED that src has a value for.
func (s *Strip) Update(src Source) {
	n := min(src.Len(), len(s.leds))
	for i := 0; i < n; i++ {
		s.UpdateIndex(src, i)
	}
}

// UpdateIndex recomputes a single LED.
func (s *Strip) UpdateIndex(src Source, i int) {
	if i < 0 || i >= len(s.leds) || i >= src.Len() {
		return
	}
	c := s.mapper.Map(src.Value(i))
	s.leds[i] = Scale8Video(c, s.brightness).RGBA()
}

// Flush writes the frame buffer out.
func (s *Strip) Flush() error {
	if s.out == nil {
		return nil
	}
	return s.out.WriteColors(s.leds)
}
