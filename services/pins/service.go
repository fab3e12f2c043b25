// Package pins owns the extended pin address space of the device. It builds
// expander elements from "config/pins", keeps them updated from a ticker and
// serves per-pin controls on pins/<n>/control/<verb>.
//
// All registry and element access happens on the Run goroutine.
package pins

import (
	"context"
	"strconv"
	"time"

	"extio-go/bus"
	"extio-go/errcode"
	"extio-go/extio"
	"extio-go/types"
	"extio-go/x/timex"
)

// DefaultUpdateEvery is the element update period when the config sets none.
const DefaultUpdateEvery = 10 * time.Millisecond

type element struct {
	id   string
	typ  string
	el   extio.Element
	h    extio.Handle
	span extio.Span
	refs []extio.Pin // extended pins owned by other elements
}

// registered is what every driver gets from embedding extio.Base.
type registered interface {
	Handle() extio.Handle
	Span() extio.Span
	Close()
}

type Service struct {
	conn *bus.Connection
	res  Resources

	reg   *extio.Registry
	io    *extio.IO
	elems map[string]*element

	every   time.Duration
	lastErr string

	cfgSub  *bus.Subscription
	ctrlSub *bus.Subscription
}

func New(conn *bus.Connection, res Resources) *Service {
	return &Service{
		conn:  conn,
		res:   res,
		elems: map[string]*element{},
		every: DefaultUpdateEvery,
	}
}

func (s *Service) Run(ctx context.Context) {
	s.cfgSub = s.conn.Subscribe(topicConfigPins())
	s.ctrlSub = s.conn.Subscribe(ctrlWildcard())
	defer s.conn.Unsubscribe(s.cfgSub)
	defer s.conn.Unsubscribe(s.ctrlSub)

	s.pubState("idle", "awaiting_config")

	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.pubState("stopped", "context_cancelled")
			return
		case msg := <-s.cfgSub.Channel():
			cfg, code := As[types.PinsConfig](msg.Payload)
			if code != "" || msg.Payload == nil {
				println("[pins] ignoring config payload")
				continue
			}
			first := s.io == nil
			if !s.applyConfig(cfg) {
				continue
			}
			if first {
				ticker = time.NewTicker(s.every)
				tick = ticker.C
				s.pubState("ready", "")
			}
		case m := <-s.ctrlSub.Channel():
			if s.io == nil {
				// Reject controls until the pin space has been configured.
				s.replyErr(m, errcode.NotReady)
				continue
			}
			s.handleControl(m)
		case <-tick:
			s.update()
		}
	}
}

// applyConfig builds the elements the service does not know yet, in config
// order, and begins each new element once. It reports false if the config
// could not be used at all.
func (s *Service) applyConfig(cfg types.PinsConfig) bool {
	if s.io == nil {
		n := cfg.NativePins
		if n <= 0 {
			n = s.res.NativePins
		}
		if n <= 0 || n >= int(extio.NoPin) {
			println("[pins] config has no usable native_pins")
			return false
		}
		s.reg = extio.NewRegistry(extio.Pin(n))
		s.io = extio.NewIO(s.res.Native, s.reg)
		s.every = timex.Every(cfg.UpdateEveryMs, DefaultUpdateEvery)
		println("[pins] native pins:", n)
	} else if cfg.NativePins != 0 && cfg.NativePins != int(s.reg.Native()) {
		println("[pins] native_pins change ignored:", cfg.NativePins)
	}

	var added []*element
	seen := map[string]bool{}
	for i := range cfg.Elements {
		ec := cfg.Elements[i]
		if ec.ID == "" {
			println("[pins] element without id, type:", ec.Type)
			continue
		}
		if seen[ec.ID] {
			println("[pins]", string(errcode.DuplicateElement)+":", ec.ID)
			continue
		}
		seen[ec.ID] = true
		if _, exists := s.elems[ec.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(ec.Type)
		if !ok {
			println("[pins] no builder for type:", ec.Type, "id:", ec.ID)
			s.pubUnbuilt(ec, errcode.UnknownElementType)
			continue
		}
		var refs []extio.Pin
		el, err := b.Build(BuildInput{
			ID:     ec.ID,
			Type:   ec.Type,
			Params: ec.Params,
			BusRef: ec.BusRef,
			Reg:    s.reg,
			IO:     s.io,
			Res:    s.res,
			refs:   &refs,
		})
		if err != nil {
			println("[pins] build failed for:", ec.ID, "err:", err.Error())
			s.pubUnbuilt(ec, errcode.Of(err))
			continue
		}
		r, ok := el.(registered)
		if !ok {
			println("[pins] builder returned an unregistered element:", ec.ID)
			continue
		}
		e := &element{id: ec.ID, typ: ec.Type, el: el, h: r.Handle(), span: r.Span(), refs: refs}
		s.elems[e.id] = e
		added = append(added, e)
	}

	// Registration order, so elements driven through earlier ones come up
	// after them. An element whose pins went with a dropped element is
	// dropped too, before it touches them.
	for _, e := range added {
		info := types.ElementInfo{ID: e.id, Type: e.typ, Start: int(e.span.Start), End: int(e.span.End)}
		if p, ok := s.orphaned(e); ok {
			println("[pins] element", e.id, "lost pin", int(p))
			info.Detail = string(errcode.UnknownPin)
			s.drop(e)
		} else if err := s.reg.Begin(e.h); err != nil {
			println("[pins] begin failed for:", e.id, "err:", err.Error())
			info.Detail = string(errcode.Of(err))
			s.drop(e)
		} else {
			info.Begun = true
			println("[pins] element", e.id, "pins", info.Start, "..", info.End)
		}
		s.conn.Publish(s.conn.NewMessage(TopicElementInfo(e.id), info, true))
	}
	return true
}

// pubUnbuilt reports an element that got no pin range.
func (s *Service) pubUnbuilt(ec types.Element, code errcode.Code) {
	info := types.ElementInfo{ID: ec.ID, Type: ec.Type, Start: -1, End: -1, Detail: string(code)}
	s.conn.Publish(s.conn.NewMessage(TopicElementInfo(ec.ID), info, true))
}

// orphaned reports the first referenced pin that no longer has an owner.
func (s *Service) orphaned(e *element) (extio.Pin, bool) {
	for _, p := range e.refs {
		if _, _, ok := s.io.Owner(p); !ok {
			return p, true
		}
	}
	return extio.NoPin, false
}

// drop deregisters an element that failed to begin. Its range stays retired.
func (s *Service) drop(e *element) {
	e.el.(registered).Close()
	delete(s.elems, e.id)
}

// update runs one UpdateAll pass. A failure is logged once until it changes.
func (s *Service) update() {
	err := s.reg.UpdateAll()
	if err == nil {
		s.lastErr = ""
		return
	}
	if msg := err.Error(); msg != s.lastErr {
		s.lastErr = msg
		println("[pins] update:", msg)
	}
}

func (s *Service) handleControl(msg *bus.Message) {
	// pins/<n>/control/<verb>
	if msg.Topic.Len() != 4 {
		s.replyErr(msg, errcode.InvalidTopic)
		return
	}
	n, ok := pinToken(msg.Topic.At(1))
	if !ok {
		s.replyErr(msg, errcode.InvalidTopic)
		return
	}
	verb, _ := msg.Topic.At(3).(string)

	// Bus input is untrusted: never let an unowned pin reach the facade.
	pin := extio.Pin(n)
	if !s.io.IsNative(pin) {
		if _, _, ok := s.io.Owner(pin); !ok {
			s.replyErr(msg, errcode.UnknownPin)
			return
		}
	}

	switch verb {
	case "mode":
		v, code := As[types.PinModeSet](msg.Payload)
		if code != "" {
			s.replyErr(msg, code)
			return
		}
		mode, ok := extio.ParseMode(v.Mode)
		if !ok {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		s.io.PinMode(pin, mode)
		s.replyOK(msg)
	case "set":
		v, code := As[types.DigitalSet](msg.Payload)
		if code != "" {
			s.replyErr(msg, code)
			return
		}
		s.io.DigitalWrite(pin, v.Level)
		s.replyOK(msg)
	case "get":
		s.reply(msg, types.DigitalValue{Pin: n, Level: s.io.DigitalRead(pin), TS: timex.NowMs()})
	case "write":
		v, code := As[types.AnalogSet](msg.Payload)
		if code != "" {
			s.replyErr(msg, code)
			return
		}
		if v.Level > uint16(extio.AnalogWriteMax) {
			s.replyErr(msg, errcode.InvalidParams)
			return
		}
		s.io.AnalogWrite(pin, extio.Analog(v.Level))
		s.replyOK(msg)
	case "read":
		s.reply(msg, types.AnalogValue{Pin: n, Value: uint16(s.io.AnalogRead(pin)), TS: timex.NowMs()})
	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

// pinToken accepts the pin number as an int token or a decimal string.
func pinToken(tok bus.Token) (int, bool) {
	var n int
	switch v := tok.(type) {
	case int:
		n = v
	case string:
		var err error
		if n, err = strconv.Atoi(v); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if n < 0 || n >= int(extio.NoPin) {
		return 0, false
	}
	return n, true
}

func (s *Service) pubState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		topicState(),
		types.ServiceState{Level: level, Status: status, TS: timex.NowMs()},
		true,
	))
}
