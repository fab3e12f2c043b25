package pins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extio-go/drivers/mux"
	"extio-go/drivers/shiftreg"
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/platform"
	"extio-go/types"
)

func buildInput(typ string, params any, ref types.BusRef) BuildInput {
	reg := extio.NewRegistry(platform.NativePins)
	return BuildInput{
		ID:     typ + "0",
		Type:   typ,
		Params: params,
		BusRef: ref,
		Reg:    reg,
		IO:     extio.NewIO(platform.NewSim(platform.NativePins), reg),
		Res: Resources{
			I2C: platform.I2CBuses{"i2c0": platform.NewSimI2C()},
			SPI: platform.SPIBuses{"spi0": &platform.SimSPI{}},
		},
	}
}

func build(t *testing.T, in BuildInput) (extio.Element, error) {
	t.Helper()
	b, ok := lookupBuilder(in.Type)
	require.True(t, ok, "builder %q", in.Type)
	return b.Build(in)
}

func TestBuiltinTypesRegistered(t *testing.T) {
	for _, typ := range []string{"mcp23017", "pca9685", "shift595", "shift595_bitbang", "mux"} {
		_, ok := lookupBuilder(typ)
		assert.True(t, ok, typ)
	}
	_, ok := lookupBuilder("tm1637")
	assert.False(t, ok)
}

func TestDuplicateBuilderPanics(t *testing.T) {
	assert.PanicsWithValue(t, "duplicate element builder: mux", func() {
		RegisterBuilder("mux", BuilderFunc(buildMux))
	})
}

func TestBuildMCP23017FromJSONParams(t *testing.T) {
	in := buildInput("mcp23017", map[string]any{"address": float64(0x21)}, types.BusRef{Type: "i2c", ID: "i2c0"})
	el, err := build(t, in)
	require.NoError(t, err)

	_, span, ok := in.Reg.Element(1)
	require.True(t, ok)
	assert.Equal(t, extio.Span{Start: 30, End: 45}, span)
	assert.NotNil(t, el)
}

func TestBuildRejectsBadAddress(t *testing.T) {
	in := buildInput("mcp23017", GPIOExpParams{Address: 0x40}, types.BusRef{Type: "i2c", ID: "i2c0"})
	_, err := build(t, in)
	assert.ErrorIs(t, err, errcode.InvalidParams)
	assert.Equal(t, 0, in.Reg.Len(), "nothing registered")
}

func TestBuildBusErrors(t *testing.T) {
	_, err := build(t, buildInput("mcp23017", nil, types.BusRef{}))
	assert.ErrorIs(t, err, errcode.UnknownBus)

	_, err = build(t, buildInput("pca9685", nil, types.BusRef{Type: "i2c", ID: "i2c7"}))
	assert.ErrorIs(t, err, errcode.UnknownBus)

	_, err = build(t, buildInput("shift595", ShiftParams{Latch: 17, Chips: 1}, types.BusRef{Type: "i2c", ID: "i2c0"}))
	assert.ErrorIs(t, err, errcode.UnknownBus)
}

func TestBuildBadParamsType(t *testing.T) {
	_, err := build(t, buildInput("mux", map[string]any{"common": "adc0"}, types.BusRef{}))
	assert.ErrorIs(t, err, errcode.InvalidParams)
}

func TestBuildShiftChips(t *testing.T) {
	_, err := build(t, buildInput("shift595", ShiftParams{Latch: 17}, types.BusRef{Type: "spi", ID: "spi0"}))
	assert.ErrorIs(t, err, errcode.InvalidParams)

	el, err := build(t, buildInput("shift595", &ShiftParams{Latch: 17, Chips: 3}, types.BusRef{Type: "spi", ID: "spi0"}))
	require.NoError(t, err)
	c, ok := el.(*shiftreg.Chain)
	require.True(t, ok)
	assert.Equal(t, 3, c.Chips())
	assert.Equal(t, extio.Pin(24), c.Len())
}

func TestBuildPinValidation(t *testing.T) {
	_, err := build(t, buildInput("shift595_bitbang", ShiftBitBangParams{Data: -1, Clock: 7, Latch: 8, Chips: 1}, types.BusRef{}))
	assert.ErrorIs(t, err, errcode.PinOutOfRange)

	// 40 is neither native nor owned yet.
	_, err = build(t, buildInput("shift595_bitbang", ShiftBitBangParams{Data: 6, Clock: 40, Latch: 8, Chips: 1}, types.BusRef{}))
	assert.ErrorIs(t, err, errcode.UnknownPin)
}

func TestBuildMuxOnExpanderPins(t *testing.T) {
	in := buildInput("mcp23017", nil, types.BusRef{Type: "i2c", ID: "i2c0"})
	_, err := build(t, in)
	require.NoError(t, err)

	// Selects driven through the expander registered first.
	in.Type = "mux"
	in.Params = MuxParams{Common: 26, Selects: []int{30, 31}, Enable: ptr(32), SettleUs: 50}
	var refs []extio.Pin
	in.refs = &refs
	el, err := build(t, in)
	require.NoError(t, err)
	assert.Equal(t, []extio.Pin{30, 31, 32}, refs, "native common pin not recorded")

	m, ok := el.(*mux.Mux)
	require.True(t, ok)
	assert.Equal(t, extio.Pin(46), m.Start())
	assert.Equal(t, extio.Pin(4), m.Len())
}

func TestBuildMuxSelectCount(t *testing.T) {
	_, err := build(t, buildInput("mux", MuxParams{Common: 26}, types.BusRef{}))
	assert.ErrorIs(t, err, errcode.InvalidParams)

	_, err = build(t, buildInput("mux", MuxParams{Common: 26, Selects: []int{1, 2, 3, 4, 5}}, types.BusRef{}))
	assert.ErrorIs(t, err, errcode.InvalidParams)
}

func TestBuildPinSpaceExhausted(t *testing.T) {
	in := buildInput("shift595_bitbang", ShiftBitBangParams{Data: 6, Clock: 7, Latch: 8, Chips: 9000}, types.BusRef{})
	_, err := build(t, in)
	assert.ErrorIs(t, err, errcode.PinOutOfRange)
	assert.Equal(t, 0, in.Reg.Len())
}

func ptr[T any](v T) *T { return &v }
