package pins

import (
	"extio-go/bus"
	"extio-go/errcode"
	"extio-go/types"
)

func (s *Service) reply(m *bus.Message, payload any) {
	if m.CanReply() {
		s.conn.Reply(m, payload, false)
	}
}

func (s *Service) replyOK(m *bus.Message) { s.reply(m, types.OKReply{OK: true}) }

func (s *Service) replyErr(m *bus.Message, code errcode.Code) {
	if code == "" {
		code = errcode.Error
	}
	s.reply(m, types.ErrorReply{OK: false, Error: string(code)})
}
