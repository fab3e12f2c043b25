//go:build !rp2040 && !rp2350

// Command extio-sim runs the config and pins services against the simulated
// platform and logs bus traffic as JSON lines.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"image/color"
	"os"
	"os/signal"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"extio-go/bus"
	"extio-go/colormap"
	"extio-go/extio"
	"extio-go/platform"
	"extio-go/services/config"
	"extio-go/services/heartbeat"
	"extio-go/services/pins"
	"extio-go/types"
)

type logger = *logiface.Logger[*stumpy.Event]

func main() {
	device := flag.String("device", "sim", "embedded config to load")
	runFor := flag.Duration("run", 0, "stop after this long (0 runs until interrupted)")
	debug := flag.Bool("debug", false, "log every bus message")
	console := flag.String("console", "", "serve the pin console on this serial port")
	baud := flag.Int("baud", 115200, "console baud rate")
	flag.Parse()

	level := logiface.LevelInformational
	if *debug {
		level = logiface.LevelDebug
	}
	log := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stdout)),
		stumpy.L.WithLevel(level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	b := bus.NewBus(8)
	sim := platform.NewSim(platform.NativePins)

	// Chips answer at the default addresses on i2c0.
	i2c0 := platform.NewSimI2C()
	i2c0.Device(0x20)
	i2c0.Device(0x40)

	svc := pins.New(b.NewConnection("pins"), pins.Resources{
		Native:     sim,
		I2C:        platform.I2CBuses{"i2c0": i2c0, "i2c1": platform.NewSimI2C()},
		SPI:        platform.DefaultSPIFactory(),
		NativePins: platform.NativePins,
	})
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	go monitor(ctx, log, b.NewConnection("monitor"))
	if err := (&heartbeat.Service{Quiet: true}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		log.Err().Err(err).Log("heartbeat")
	}

	log.Info().Str("device", *device).Log("starting")
	config.NewConfigService().Start(config.WithDevice(ctx, *device), b.NewConnection("config"))

	if *console != "" {
		go func() {
			if err := serveSerial(ctx, log, *console, *baud, pins.NewClient(b.NewConnection("console"))); err != nil {
				log.Err().Err(err).Str("port", *console).Log("console")
			}
		}()
	}

	mux, ok := waitElement(ctx, b.NewConnection("main"), "mux0")
	if ok {
		run(ctx, log, b, sim, mux)
	}
	<-done
	log.Info().Log("stopped")
}

// monitor logs service state and element info, and the heartbeat and every
// other pins/# message at debug level.
func monitor(ctx context.Context, log logger, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("pins", "#"))
	defer conn.Unsubscribe(sub)
	hbSub := conn.Subscribe(heartbeat.Topic())
	defer conn.Unsubscribe(hbSub)
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-hbSub.Channel():
			if hb, ok := m.Payload.(types.Heartbeat); ok {
				log.Debug().Int64("seq", int64(hb.Seq)).Int64("uptime_ms", hb.UptimeMs).Log("heartbeat")
			}
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			switch p := m.Payload.(type) {
			case types.ServiceState:
				log.Notice().Str("level", p.Level).Str("status", p.Status).Log("pins state")
			case types.ElementInfo:
				e := log.Info().
					Str("id", p.ID).
					Str("type", p.Type).
					Int("start", p.Start).
					Int("end", p.End).
					Bool("begun", p.Begun)
				if p.Detail != nil {
					e = e.Any("detail", p.Detail)
				}
				e.Log("element")
			default:
				log.Debug().Str("topic", m.Topic.String()).Any("payload", m.Payload).Log("bus")
			}
		}
	}
}

func waitElement(ctx context.Context, conn *bus.Connection, id string) (types.ElementInfo, bool) {
	sub := conn.Subscribe(pins.TopicElementInfo(id))
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return types.ElementInfo{}, false
		case m := <-sub.Channel():
			if info, ok := m.Payload.(types.ElementInfo); ok && info.Begun {
				return info, true
			}
		}
	}
}

// run sweeps the simulated analog input behind the mux and mirrors the mux
// channels onto a logged LED strip.
func run(ctx context.Context, log logger, b *bus.Bus, sim *platform.Sim, mux types.ElementInfo) {
	client := pins.NewClient(b.NewConnection("strip"))
	src := colormap.PinSource{IO: client}
	for p := mux.Start; p <= mux.End; p++ {
		src.Pins = append(src.Pins, extio.Pin(p))
	}
	out := stripLog{log: log, limit: catrate.NewLimiter(map[time.Duration]int{time.Second: 2})}
	strip := colormap.NewStrip(src.Len(), out, nil)
	strip.Begin(src)

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	var v extio.Analog
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			v = (v + 64) % (extio.AnalogReadMax + 1)
			sim.SetAnalog(26, v)
			strip.Update(src)
			if err := strip.Flush(); err != nil {
				log.Err().Err(err).Log("strip flush")
			}
		}
	}
}

// stripLog logs strip frames, at most two a second at info level and every
// frame at debug.
type stripLog struct {
	log   logger
	limit *catrate.Limiter
}

func (s stripLog) WriteColors(buf []color.RGBA) error {
	raw := make([]byte, 0, 3*len(buf))
	for _, c := range buf {
		raw = append(raw, c.R, c.G, c.B)
	}
	e := s.log.Debug()
	if _, ok := s.limit.Allow("strip"); ok {
		e = s.log.Info()
	}
	e.Str("rgb", hex.EncodeToString(raw)).Log("strip")
	return nil
}
