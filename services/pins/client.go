package pins

import (
	"context"
	"time"

	"extio-go/bus"
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/types"
	"extio-go/x/ramp"
)

// fadeStep is the interval between levels written by Fade.
const fadeStep = 20 * time.Millisecond

// Client issues pin controls to a running Service over the bus.
type Client struct {
	conn *bus.Connection
	// Timeout bounds the calls that take no context.
	Timeout time.Duration
}

func NewClient(conn *bus.Connection) *Client {
	return &Client{conn: conn, Timeout: 250 * time.Millisecond}
}

func (c *Client) call(ctx context.Context, pin extio.Pin, verb string, payload any) (any, error) {
	rep, err := c.conn.RequestWait(ctx, c.conn.NewMessage(TopicControl(int(pin), verb), payload, false))
	if err != nil {
		return nil, err
	}
	if e, ok := rep.Payload.(types.ErrorReply); ok {
		return nil, &errcode.E{C: errcode.Code(e.Error), Op: "pins." + verb, Msg: "pin " + pin.String()}
	}
	return rep.Payload, nil
}

func (c *Client) Mode(ctx context.Context, pin extio.Pin, mode extio.Mode) error {
	_, err := c.call(ctx, pin, "mode", types.PinModeSet{Mode: mode.String()})
	return err
}

func (c *Client) Set(ctx context.Context, pin extio.Pin, level bool) error {
	_, err := c.call(ctx, pin, "set", types.DigitalSet{Level: level})
	return err
}

func (c *Client) Write(ctx context.Context, pin extio.Pin, level extio.Analog) error {
	_, err := c.call(ctx, pin, "write", types.AnalogSet{Level: uint16(level)})
	return err
}

func (c *Client) Get(ctx context.Context, pin extio.Pin) (bool, error) {
	v, err := c.call(ctx, pin, "get", nil)
	if err != nil {
		return false, err
	}
	dv, code := As[types.DigitalValue](v)
	if code != "" {
		return false, code
	}
	return dv.Level, nil
}

func (c *Client) Read(ctx context.Context, pin extio.Pin) (extio.Analog, error) {
	v, err := c.call(ctx, pin, "read", nil)
	if err != nil {
		return 0, err
	}
	av, code := As[types.AnalogValue](v)
	if code != "" {
		return 0, code
	}
	return extio.Analog(av.Value), nil
}

// Fade ramps an analog output from `from` to `to` over d. It blocks until the
// ramp ends or ctx is done.
func (c *Client) Fade(ctx context.Context, pin extio.Pin, from, to extio.Analog, d time.Duration) error {
	steps := int(d / fadeStep)
	return ramp.Linear(ctx, from, to, d, steps, func(v extio.Analog) error {
		return c.Write(ctx, pin, v)
	})
}

// AnalogRead reads a pin within Timeout and returns 0 on failure, so a Client
// can stand in for the dispatch facade as a colormap source.
func (c *Client) AnalogRead(pin extio.Pin) extio.Analog {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	v, err := c.Read(ctx, pin)
	if err != nil {
		return 0
	}
	return v
}
