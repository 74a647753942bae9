package mockrobot

import (
	"fmt"
	"log/slog"

	"github.com/ValerySidorin/mockrobot/internal/protocol"
)

// handleRequest answers one request. The returned bool is true when the
// controller asked to disconnect.
func (s *Server) handleRequest(req protocol.Request, l *slog.Logger) (protocol.Response, bool) {
	call, err := protocol.Decode(req)
	if err != nil {
		l.Warn("invalid param", "command", req.Command, "param", req.Param.String(), "err", err)
		return protocol.Fail(fmt.Sprintf("INVALID PARAM %s", req.Param)), false
	}

	if call.Kind == protocol.CurrentStatusIDCall || call.Kind == protocol.StatusCall {
		l.Debug("request", "command", req.Command, "param", req.Param.String())
	} else {
		l.Info("request", "command", req.Command, "param", req.Param.String())
	}

	switch call.Kind {
	case protocol.HomeCall:
		return s.handleMotion(MotionHome, 0), false
	case protocol.PickCall:
		return s.handleMotion(MotionPick, call.Location), false
	case protocol.PlaceCall:
		return s.handleMotion(MotionPlace, call.Location), false
	case protocol.StatusCall:
		return s.handleStatus(StatusCode(call.Code)), false
	case protocol.CurrentStatusIDCall:
		return protocol.OK(s.registry.CurrentCode()), false
	case protocol.DisconnectCall:
		return protocol.OK(s.registry.CurrentCode()), true
	default:
		return protocol.Fail("UNKNOWN COMMAND"), false
	}
}

func (s *Server) handleMotion(kind MotionKind, location int) protocol.Response {
	code, err := s.registry.Begin(kind, location)
	if err != nil {
		return protocol.Fail(code)
	}
	return protocol.OK(code)
}

func (s *Server) handleStatus(code StatusCode) protocol.Response {
	text, err := s.registry.Text(code)
	if err != nil {
		return protocol.Fail(fmt.Sprintf("UNKNOWN STATUS ID %d", int(code)))
	}
	return protocol.OK(text)
}
