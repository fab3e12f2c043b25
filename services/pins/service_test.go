package pins

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extio-go/bus"
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/platform"
	"extio-go/types"
)

const (
	mcpAddr = 0x20
	mcpGPIO = 0x12
)

type rig struct {
	bus  *bus.Bus
	conn *bus.Connection
	sim  *platform.Sim
	i2c  *platform.SimI2C
	spi  *platform.SimSPI
}

func startService(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		bus: bus.NewBus(32),
		sim: platform.NewSim(platform.NativePins),
		i2c: platform.NewSimI2C(),
		spi: &platform.SimSPI{},
	}
	r.i2c.Device(mcpAddr)
	r.conn = r.bus.NewConnection("test")

	svc := New(r.bus.NewConnection("pins"), Resources{
		Native:     r.sim,
		I2C:        platform.I2CBuses{"i2c0": r.i2c},
		SPI:        platform.SPIBuses{"spi0": r.spi},
		NativePins: platform.NativePins,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r
}

func (r *rig) configure(t *testing.T, cfg types.PinsConfig) {
	t.Helper()
	r.conn.Publish(r.conn.NewMessage(topicConfigPins(), cfg, true))
	r.waitState(t, "ready")
}

func (r *rig) waitState(t *testing.T, level string) {
	t.Helper()
	sub := r.conn.Subscribe(topicState())
	defer r.conn.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.ServiceState); ok && st.Level == level {
				return
			}
		case <-deadline:
			t.Fatalf("service never reached %q", level)
		}
	}
}

func (r *rig) control(t *testing.T, pin int, verb string, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rep, err := r.conn.RequestWait(ctx, r.conn.NewMessage(TopicControl(pin, verb), payload, false))
	require.NoError(t, err)
	return rep.Payload
}

func (r *rig) info(t *testing.T, id string) types.ElementInfo {
	t.Helper()
	sub := r.conn.Subscribe(TopicElementInfo(id))
	defer r.conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		info, ok := m.Payload.(types.ElementInfo)
		require.True(t, ok, "payload type %T", m.Payload)
		return info
	case <-time.After(time.Second):
		t.Fatalf("no info for %s", id)
	}
	return types.ElementInfo{}
}

func assertErr(t *testing.T, code errcode.Code, got any) {
	t.Helper()
	assert.Equal(t, types.ErrorReply{OK: false, Error: string(code)}, got)
}

func baseConfig() types.PinsConfig {
	return types.PinsConfig{
		NativePins:    platform.NativePins,
		UpdateEveryMs: 5,
		Elements: []types.Element{
			{ID: "gpio0", Type: "mcp23017", Params: GPIOExpParams{Address: mcpAddr}, BusRef: types.BusRef{Type: "i2c", ID: "i2c0"}},
			{ID: "sr0", Type: "shift595", Params: map[string]any{"latch": 17, "chips": 1}, BusRef: types.BusRef{Type: "spi", ID: "spi0"}},
			{ID: "mux0", Type: "mux", Params: MuxParams{Common: 26, Selects: []int{2, 3, 4}}},
		},
	}
}

func TestControlsRejectedBeforeConfig(t *testing.T) {
	r := startService(t)
	r.waitState(t, "idle")

	assertErr(t, errcode.NotReady, r.control(t, 3, "get", nil))
}

func TestConfigRegistersElementsInOrder(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())

	gpio := r.info(t, "gpio0")
	assert.True(t, gpio.Begun)
	assert.Equal(t, 30, gpio.Start)
	assert.Equal(t, 45, gpio.End)

	sr := r.info(t, "sr0")
	assert.True(t, sr.Begun)
	assert.Equal(t, 46, sr.Start)
	assert.Equal(t, 53, sr.End)

	mx := r.info(t, "mux0")
	assert.Equal(t, "mux", mx.Type)
	assert.Equal(t, 54, mx.Start)
	assert.Equal(t, 61, mx.End)
}

func TestExpanderOutputReachesChip(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())

	assert.Equal(t, types.OKReply{OK: true}, r.control(t, 30, "mode", types.PinModeSet{Mode: "output"}))
	assert.Equal(t, types.OKReply{OK: true}, r.control(t, 30, "set", types.DigitalSet{Level: true}))

	require.Eventually(t, func() bool {
		return r.i2c.Peek(mcpAddr, mcpGPIO)&0x01 != 0
	}, time.Second, 5*time.Millisecond)

	got, ok := r.control(t, 30, "get", nil).(types.DigitalValue)
	require.True(t, ok)
	assert.Equal(t, 30, got.Pin)
	assert.True(t, got.Level)
}

func TestExpanderInputSampledByUpdate(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())

	// Pin 9 of the expander sits on port B.
	r.i2c.Poke(mcpAddr, mcpGPIO+1, 0x02)

	c := NewClient(r.conn)
	require.Eventually(t, func() bool {
		level, err := c.Get(context.Background(), 39)
		return err == nil && level
	}, time.Second, 10*time.Millisecond)
}

func TestShiftRegisterLatchesOnUpdate(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())
	before := len(r.spi.Frames())

	assert.Equal(t, types.OKReply{OK: true}, r.control(t, 46+7, "set", types.DigitalSet{Level: true}))

	require.Eventually(t, func() bool {
		frames := r.spi.Frames()
		if len(frames) <= before {
			return false
		}
		last := frames[len(frames)-1]
		return len(last) == 1 && last[0] == 0x80
	}, time.Second, 5*time.Millisecond)
	assert.True(t, r.sim.Level(17), "latch released high")
}

func TestNativePinsPassThrough(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())

	r.sim.SetLevel(5, true)
	got, ok := r.control(t, 5, "get", nil).(types.DigitalValue)
	require.True(t, ok)
	assert.True(t, got.Level)

	r.sim.SetAnalog(27, 700)
	a, ok := r.control(t, 27, "read", nil).(types.AnalogValue)
	require.True(t, ok)
	assert.Equal(t, uint16(700), a.Value)

	assert.Equal(t, types.OKReply{OK: true}, r.control(t, 12, "write", types.AnalogSet{Level: 128}))
	assert.Equal(t, extio.Analog(128), r.sim.Duty(12))
}

func TestPinTokenAsString(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())
	r.sim.SetLevel(8, true)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rep, err := r.conn.RequestWait(ctx, r.conn.NewMessage(T("pins", "8", "control", "get"), nil, false))
	require.NoError(t, err)
	got, ok := rep.Payload.(types.DigitalValue)
	require.True(t, ok)
	assert.Equal(t, 8, got.Pin)
	assert.True(t, got.Level)
}

func TestControlErrors(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())

	assertErr(t, errcode.UnknownPin, r.control(t, 200, "get", nil))
	assertErr(t, errcode.Unsupported, r.control(t, 30, "toggle", nil))
	assertErr(t, errcode.InvalidPayload, r.control(t, 30, "set", "high"))
	assertErr(t, errcode.InvalidPayload, r.control(t, 30, "mode", types.PinModeSet{Mode: "floating"}))
	assertErr(t, errcode.InvalidParams, r.control(t, 12, "write", types.AnalogSet{Level: 300}))
	assertErr(t, errcode.InvalidTopic, r.control(t, int(extio.NoPin), "get", nil))
}

func TestFailedBeginReleasesElement(t *testing.T) {
	r := startService(t)
	cfg := baseConfig()
	// No chip answers at 0x41.
	cfg.Elements = append(cfg.Elements, types.Element{
		ID: "pwm0", Type: "pca9685", Params: PWMExpParams{Address: 0x41},
		BusRef: types.BusRef{Type: "i2c", ID: "i2c0"},
	})
	r.configure(t, cfg)

	info := r.info(t, "pwm0")
	assert.False(t, info.Begun)
	assert.Equal(t, string(errcode.IOFailed), info.Detail)
	assert.Equal(t, 62, info.Start)

	assertErr(t, errcode.UnknownPin, r.control(t, 62, "get", nil))
}

func TestLaterConfigAddsOnlyNewElements(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())

	cfg := baseConfig()
	cfg.Elements = append(cfg.Elements, types.Element{
		ID: "sr1", Type: "shift595_bitbang",
		Params: ShiftBitBangParams{Data: 6, Clock: 7, Latch: 8, Chips: 2},
	})
	r.conn.Publish(r.conn.NewMessage(topicConfigPins(), cfg, true))

	require.Eventually(t, func() bool {
		sub := r.conn.Subscribe(TopicElementInfo("sr1"))
		defer r.conn.Unsubscribe(sub)
		select {
		case m := <-sub.Channel():
			info := m.Payload.(types.ElementInfo)
			return info.Begun && info.Start == 62 && info.End == 77
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// gpio0 kept its range.
	assert.Equal(t, 30, r.info(t, "gpio0").Start)
}

func TestUnknownTypeSkipped(t *testing.T) {
	r := startService(t)
	cfg := baseConfig()
	cfg.Elements = append([]types.Element{{ID: "x", Type: "tm1637"}}, cfg.Elements...)
	cfg.Elements = append(cfg.Elements, types.Element{ID: "bad", Type: "mux", Params: MuxParams{Common: 26}})
	r.configure(t, cfg)

	assert.Equal(t, 30, r.info(t, "gpio0").Start)

	x := r.info(t, "x")
	assert.False(t, x.Begun)
	assert.Equal(t, -1, x.Start)
	assert.Equal(t, string(errcode.UnknownElementType), x.Detail)
	assert.Equal(t, string(errcode.InvalidParams), r.info(t, "bad").Detail)
}

func TestDuplicateIDInConfig(t *testing.T) {
	r := startService(t)
	cfg := baseConfig()
	cfg.Elements = append(cfg.Elements, types.Element{
		ID: "gpio0", Type: "shift595_bitbang",
		Params: ShiftBitBangParams{Data: 6, Clock: 7, Latch: 8, Chips: 1},
	})
	r.configure(t, cfg)

	gpio := r.info(t, "gpio0")
	assert.Equal(t, "mcp23017", gpio.Type)
	// Nothing was allocated after mux0.
	assertErr(t, errcode.UnknownPin, r.control(t, 62, "get", nil))
}

func TestFailedBeginDropsDependents(t *testing.T) {
	r := startService(t)
	// No chip answers at 0x21; the mux selects and the bit-banged chain
	// both sit on its pins.
	r.configure(t, types.PinsConfig{
		NativePins:    platform.NativePins,
		UpdateEveryMs: 5,
		Elements: []types.Element{
			{ID: "gpio1", Type: "mcp23017", Params: GPIOExpParams{Address: 0x21}, BusRef: types.BusRef{Type: "i2c", ID: "i2c0"}},
			{ID: "mux1", Type: "mux", Params: MuxParams{Common: 26, Selects: []int{30, 31}}},
			{ID: "sr1", Type: "shift595_bitbang", Params: ShiftBitBangParams{Data: 6, Clock: 7, Latch: 44, Chips: 1}},
			{ID: "sr2", Type: "shift595_bitbang", Params: ShiftBitBangParams{Data: 6, Clock: 7, Latch: 8, Chips: 1}},
		},
	})

	assert.Equal(t, string(errcode.IOFailed), r.info(t, "gpio1").Detail)

	mx := r.info(t, "mux1")
	assert.False(t, mx.Begun)
	assert.Equal(t, string(errcode.UnknownPin), mx.Detail)
	assert.Equal(t, 46, mx.Start)

	sr1 := r.info(t, "sr1")
	assert.False(t, sr1.Begun)
	assert.Equal(t, string(errcode.UnknownPin), sr1.Detail)

	// Native-only element after them still comes up.
	sr2 := r.info(t, "sr2")
	assert.True(t, sr2.Begun)
	assert.Equal(t, 58, sr2.Start)

	// The service keeps serving across update ticks.
	time.Sleep(30 * time.Millisecond)
	assertErr(t, errcode.UnknownPin, r.control(t, 46, "read", nil))
	assert.Equal(t, types.OKReply{OK: true}, r.control(t, 58, "set", types.DigitalSet{Level: true}))
	r.sim.SetLevel(5, true)
	got, ok := r.control(t, 5, "get", nil).(types.DigitalValue)
	require.True(t, ok)
	assert.True(t, got.Level)
}
