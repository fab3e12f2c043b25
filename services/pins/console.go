package pins

import (
	"context"
	"strconv"
	"strings"
	"time"

	"extio-go/errcode"
	"extio-go/extio"
)

// Exec runs one console line against the service and returns the response
// line:
//
//	mode <pin> input|output|input_pullup|input_pulldown
//	set <pin> 0|1
//	get <pin>
//	write <pin> <0..255>
//	read <pin>
//	fade <pin> <from> <to> <ms>
//
// Responses are "ok", the value read, or "err <code>".
func (c *Client) Exec(ctx context.Context, line string) string {
	f := strings.Fields(line)
	if len(f) < 2 {
		return "err " + string(errcode.InvalidPayload)
	}
	n, err := strconv.Atoi(f[1])
	if err != nil || n < 0 || n >= int(extio.NoPin) {
		return "err " + string(errcode.PinOutOfRange)
	}
	pin := extio.Pin(n)
	arg := ""
	if len(f) > 2 {
		arg = f[2]
	}

	switch f[0] {
	case "mode":
		mode, ok := extio.ParseMode(arg)
		if !ok {
			return "err " + string(errcode.InvalidPayload)
		}
		return status(c.Mode(ctx, pin, mode))
	case "set":
		if arg != "0" && arg != "1" {
			return "err " + string(errcode.InvalidPayload)
		}
		return status(c.Set(ctx, pin, arg == "1"))
	case "get":
		v, err := c.Get(ctx, pin)
		if err != nil {
			return status(err)
		}
		if v {
			return "1"
		}
		return "0"
	case "write":
		v, err := strconv.Atoi(arg)
		if err != nil || v < 0 {
			return "err " + string(errcode.InvalidPayload)
		}
		if v > int(extio.AnalogWriteMax) {
			return "err " + string(errcode.InvalidParams)
		}
		return status(c.Write(ctx, pin, extio.Analog(v)))
	case "fade":
		if len(f) != 5 {
			return "err " + string(errcode.InvalidPayload)
		}
		from, err1 := strconv.Atoi(f[2])
		to, err2 := strconv.Atoi(f[3])
		ms, err3 := strconv.Atoi(f[4])
		if err1 != nil || err2 != nil || err3 != nil || from < 0 || to < 0 || ms < 0 {
			return "err " + string(errcode.InvalidPayload)
		}
		if from > int(extio.AnalogWriteMax) || to > int(extio.AnalogWriteMax) {
			return "err " + string(errcode.InvalidParams)
		}
		return status(c.Fade(ctx, pin, extio.Analog(from), extio.Analog(to), time.Duration(ms)*time.Millisecond))
	case "read":
		v, err := c.Read(ctx, pin)
		if err != nil {
			return status(err)
		}
		return strconv.Itoa(int(v))
	}
	return "err " + string(errcode.Unsupported)
}

func status(err error) string {
	if err == nil {
		return "ok"
	}
	return "err " + string(errcode.Of(err))
}
