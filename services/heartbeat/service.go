// Package heartbeat publishes a liveness tick on the bus.
package heartbeat

import (
	"context"
	"time"

	"extio-go/bus"
	"extio-go/errcode"
	"extio-go/types"
	"extio-go/x/timex"
)

const DefaultEvery = time.Second

func topicConfigHeartbeat() bus.Topic { return bus.T("config", "heartbeat") }

// Topic carries types.Heartbeat.
func Topic() bus.Topic { return bus.T("heartbeat") }

type Service struct {
	// Every is the initial interval; config/heartbeat {"interval": seconds}
	// overrides it.
	Every time.Duration
	// Quiet stops the console line on every tick.
	Quiet bool
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat())
	defer conn.Unsubscribe(cfgSub)

	every := s.Every
	if every <= 0 {
		every = DefaultEvery
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	start := time.Now()
	var seq uint32
	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			seq++
			hb := types.Heartbeat{Seq: seq, UptimeMs: time.Since(start).Milliseconds(), TS: timex.NowMs()}
			conn.Publish(conn.NewMessage(Topic(), hb, false))
			if !s.Quiet {
				println("[heartbeat]", seq, "uptime_ms", hb.UptimeMs)
			}
		case msg := <-cfgSub.Channel():
			if d, ok := interval(msg.Payload); ok {
				tick.Reset(d)
				println("[heartbeat] interval set to", d.String())
			}
		}
	}
}

// interval reads the config section, typed or as a plain map.
func interval(payload any) (time.Duration, bool) {
	var secs float64
	switch v := payload.(type) {
	case types.HeartbeatConfig:
		secs = v.Interval
	case map[string]any:
		f, ok := v["interval"].(float64)
		if !ok {
			return 0, false
		}
		secs = f
	default:
		return 0, false
	}
	if secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// Start runs the heartbeat until ctx is done.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if conn == nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "heartbeat.Start", Msg: "nil connection"}
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
