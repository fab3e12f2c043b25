package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extio-go/bus"
	"extio-go/errcode"
	"extio-go/types"
)

func next(t *testing.T, sub *bus.Subscription, within time.Duration) types.Heartbeat {
	t.Helper()
	select {
	case m := <-sub.Channel():
		hb, ok := m.Payload.(types.Heartbeat)
		require.True(t, ok, "payload type %T", m.Payload)
		return hb
	case <-time.After(within):
		t.Fatalf("no heartbeat within %v", within)
	}
	return types.Heartbeat{}
}

func TestHeartbeatSequence(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(Topic())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, (&Service{Every: 5 * time.Millisecond, Quiet: true}).Start(ctx, b.NewConnection("hb")))

	first := next(t, sub, time.Second)
	second := next(t, sub, time.Second)
	assert.Equal(t, uint32(1), first.Seq)
	assert.Equal(t, uint32(2), second.Seq)
	assert.GreaterOrEqual(t, second.UptimeMs, first.UptimeMs)
}

func TestIntervalFromConfig(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(Topic())
	conn.Publish(conn.NewMessage(topicConfigHeartbeat(), map[string]any{"interval": 0.005}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, (&Service{Every: time.Hour, Quiet: true}).Start(ctx, b.NewConnection("hb")))

	assert.Equal(t, uint32(1), next(t, sub, time.Second).Seq)
}

func TestInterval(t *testing.T) {
	d, ok := interval(map[string]any{"interval": 2.5})
	assert.True(t, ok)
	assert.Equal(t, 2500*time.Millisecond, d)

	_, ok = interval(map[string]any{"interval": "fast"})
	assert.False(t, ok)
	_, ok = interval(map[string]any{"interval": -1.0})
	assert.False(t, ok)
	_, ok = interval(nil)
	assert.False(t, ok)
}

func TestIntervalTyped(t *testing.T) {
	d, ok := interval(types.HeartbeatConfig{Interval: 5})
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	_, ok = interval(types.HeartbeatConfig{})
	assert.False(t, ok)
}

func TestStartNeedsConnection(t *testing.T) {
	err := (&Service{}).Start(context.Background(), nil)
	assert.ErrorIs(t, err, errcode.InvalidParams)
}
