package pins

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"extio-go/extio"
)

func TestConsoleCommands(t *testing.T) {
	r := startService(t)
	r.configure(t, baseConfig())
	r.sim.SetAnalog(27, 512)

	c := NewClient(r.conn)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, tc := range []struct{ in, want string }{
		{"mode 30 output", "ok"},
		{"set 30 1", "ok"},
		{"get 30", "1"},
		{"read 27", "512"},
		{"write 12 90", "ok"},
		{"write 12 900", "err invalid_params"},
		{"mode 30 analog", "err invalid_payload"},
		{"set 30 high", "err invalid_payload"},
		{"get 999", "err unknown_pin"},
		{"get x", "err pin_out_of_range"},
		{"blink 3", "err unsupported"},
		{"get", "err invalid_payload"},
		{"fade 12 0 200 60", "ok"},
		{"fade 12 0 300 0", "err invalid_params"},
		{"fade 12 0", "err invalid_payload"},
	} {
		assert.Equal(t, tc.want, c.Exec(ctx, tc.in), tc.in)
	}
	assert.Equal(t, extio.Analog(200), r.sim.Duty(12))
}
