//go:build rp2040 || rp2350

// Command extio-demo is the firmware image: it loads the embedded "pico"
// config, runs the pins service, drives a WS2812 strip from the mux channels
// and serves a line console on UART0.
package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/ws2812"

	"extio-go/bus"
	"extio-go/colormap"
	"extio-go/extio"
	"extio-go/platform"
	"extio-go/services/config"
	"extio-go/services/heartbeat"
	"extio-go/services/pins"
	"extio-go/types"
)

const consoleBaud = 115200

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")
	ctx := context.Background()

	b := bus.NewBus(4)

	println("[main] starting pins service …")
	svc := pins.New(b.NewConnection("pins"), pins.Resources{
		Native:     platform.DefaultNative(),
		I2C:        platform.DefaultI2CFactory(),
		SPI:        platform.DefaultSPIFactory(),
		NativePins: platform.NativePins,
	})
	go svc.Run(ctx)

	if err := (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("[main] heartbeat:", err.Error())
	}

	println("[main] publishing config …")
	config.NewConfigService().Start(config.WithDevice(ctx, "pico"), b.NewConnection("config"))

	go console(ctx, pins.NewClient(b.NewConnection("console")))

	strip(b)
}

// console reads lines from UART0 and answers each one.
func console(ctx context.Context, c *pins.Client) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: consoleBaud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		println("[console] configure failed:", err.Error())
		return
	}
	_, _ = u.Write([]byte("extio console\r\n> "))

	var line []byte
	buf := make([]byte, 32)
	for {
		n, err := u.RecvSomeContext(ctx, buf)
		if err != nil {
			return
		}
		for _, ch := range buf[:n] {
			switch ch {
			case '\r', '\n':
				if len(line) == 0 {
					continue
				}
				resp := c.Exec(ctx, string(line))
				line = line[:0]
				_, _ = u.Write([]byte(resp + "\r\n> "))
			default:
				if len(line) < 64 {
					line = append(line, ch)
				}
			}
		}
	}
}

// strip mirrors the mux channels onto the WS2812 strip named by config/strip.
func strip(b *bus.Bus) {
	conn := b.NewConnection("strip")

	cfgSub := conn.Subscribe(bus.T("config", "strip"))
	sc, ok := (<-cfgSub.Channel()).Payload.(types.StripConfig)
	conn.Unsubscribe(cfgSub)
	if !ok || sc.LEDs <= 0 {
		println("[strip] no strip configured")
		select {}
	}

	infoSub := conn.Subscribe(pins.TopicElementInfo("mux0"))
	var mux types.ElementInfo
	for mux.End == 0 {
		info, _ := (<-infoSub.Channel()).Payload.(types.ElementInfo)
		if info.Begun {
			mux = info
		}
	}
	conn.Unsubscribe(infoSub)

	src := colormap.PinSource{IO: pins.NewClient(conn)}
	for p := mux.Start; p <= mux.End && len(src.Pins) < sc.LEDs; p++ {
		src.Pins = append(src.Pins, extio.Pin(p))
	}

	pin := machine.Pin(sc.Pin)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s := colormap.NewStrip(sc.LEDs, ws2812.NewWS2812(pin), nil)
	if sc.Brightness != 0 {
		s.SetBrightness(sc.Brightness)
	}
	s.Begin(src)
	println("[strip] leds:", sc.LEDs, "from pins", int(mux.Start), "..", int(mux.End))

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for range tick.C {
		s.Update(src)
		if err := s.Flush(); err != nil {
			println("[strip] write failed:", err.Error())
		}
	}
}
