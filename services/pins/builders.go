package pins

import (
	"time"

	"extio-go/drivers/gpioexp"
	"extio-go/drivers/mux"
	"extio-go/drivers/pwmexp"
	"extio-go/drivers/shiftreg"
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/x/timex"
)

func init() {
	RegisterBuilder("mcp23017", BuilderFunc(buildMCP23017))
	RegisterBuilder("pca9685", BuilderFunc(buildPCA9685))
	RegisterBuilder("shift595", BuilderFunc(buildShift595))
	RegisterBuilder("shift595_bitbang", BuilderFunc(buildShift595BitBang))
	RegisterBuilder("mux", BuilderFunc(buildMux))
}

type GPIOExpParams struct {
	Address uint8 `json:"address"`
}

type PWMExpParams struct {
	Address uint8  `json:"address"`
	FreqHz  uint32 `json:"freq_hz"` // 40..1000 Hz; 0 picks 1 kHz
}

type ShiftParams struct {
	Latch int `json:"latch"`
	Chips int `json:"chips"`
}

type ShiftBitBangParams struct {
	Data     int  `json:"data"`
	Clock    int  `json:"clock"`
	Latch    int  `json:"latch"`
	Chips    int  `json:"chips"`
	LSBFirst bool `json:"lsb_first,omitempty"`
}

type MuxParams struct {
	Common   int   `json:"common"`
	Selects  []int `json:"selects"`
	Enable   *int  `json:"enable,omitempty"`
	SettleUs int   `json:"settle_us,omitempty"`
}

func buildMCP23017(in BuildInput) (extio.Element, error) {
	p := GPIOExpParams{Address: gpioexp.DefaultAddress}
	if err := decodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if p.Address < 0x20 || p.Address > 0x27 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: in.Type, Msg: "address"}
	}
	if err := room(in, gpioexp.PinCount); err != nil {
		return nil, err
	}
	b, err := in.i2c()
	if err != nil {
		return nil, err
	}
	return gpioexp.New(in.Reg, b, p.Address), nil
}

func buildPCA9685(in BuildInput) (extio.Element, error) {
	p := PWMExpParams{Address: pwmexp.DefaultAddress}
	if err := decodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if err := room(in, pwmexp.ChannelCount); err != nil {
		return nil, err
	}
	b, err := in.i2c()
	if err != nil {
		return nil, err
	}
	var period uint64
	if p.FreqHz != 0 {
		period = timex.PeriodNs(p.FreqHz)
	}
	return pwmexp.New(in.Reg, b, p.Address, period), nil
}

// room checks that n more pins fit below NoPin.
func room(in BuildInput, n int) error {
	if n > int(extio.NoPin-in.Reg.NextPin()) {
		return &errcode.E{C: errcode.PinOutOfRange, Op: in.Type, Msg: "pin space exhausted"}
	}
	return nil
}

func chips(in BuildInput, n int) error {
	if n <= 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: in.Type, Msg: "chips"}
	}
	return room(in, 8*n)
}

func buildShift595(in BuildInput) (extio.Element, error) {
	var p ShiftParams
	if err := decodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if err := chips(in, p.Chips); err != nil {
		return nil, err
	}
	latch, err := in.pin("latch", p.Latch)
	if err != nil {
		return nil, err
	}
	b, err := in.spi()
	if err != nil {
		return nil, err
	}
	return shiftreg.NewSPI(in.Reg, b, in.IO, latch, p.Chips), nil
}

func buildShift595BitBang(in BuildInput) (extio.Element, error) {
	var p ShiftBitBangParams
	if err := decodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if err := chips(in, p.Chips); err != nil {
		return nil, err
	}
	data, err := in.pin("data", p.Data)
	if err != nil {
		return nil, err
	}
	clock, err := in.pin("clock", p.Clock)
	if err != nil {
		return nil, err
	}
	latch, err := in.pin("latch", p.Latch)
	if err != nil {
		return nil, err
	}
	order := extio.MSBFirst
	if p.LSBFirst {
		order = extio.LSBFirst
	}
	return shiftreg.NewBitBang(in.Reg, in.IO, data, clock, latch, p.Chips, order), nil
}

func buildMux(in BuildInput) (extio.Element, error) {
	var p MuxParams
	if err := decodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if len(p.Selects) == 0 || len(p.Selects) > 4 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: in.Type, Msg: "selects"}
	}
	if err := room(in, 1<<len(p.Selects)); err != nil {
		return nil, err
	}
	common, err := in.pin("common", p.Common)
	if err != nil {
		return nil, err
	}
	sel := make([]extio.Pin, len(p.Selects))
	for i, n := range p.Selects {
		if sel[i], err = in.pin("select", n); err != nil {
			return nil, err
		}
	}
	enable := extio.NoPin
	if p.Enable != nil {
		if enable, err = in.pin("enable", *p.Enable); err != nil {
			return nil, err
		}
	}
	m := mux.New(in.Reg, in.IO, common, sel, enable)
	m.Settle = time.Duration(p.SettleUs) * time.Microsecond
	return m, nil
}
