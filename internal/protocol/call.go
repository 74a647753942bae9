package protocol

import (
	"fmt"
)

type CallKind byte

const (
	UnknownCall CallKind = iota
	HomeCall
	PickCall
	PlaceCall
	StatusCall
	CurrentStatusIDCall
	DisconnectCall
)

func (k CallKind) String() string {
	switch k {
	case HomeCall:
		return string(HomeCommand)
	case PickCall:
		return string(PickCommand)
	case PlaceCall:
		return string(PlaceCommand)
	case StatusCall:
		return string(StatusCommand)
	case CurrentStatusIDCall:
		return string(GetCurrentStatusIDCommand)
	case DisconnectCall:
		return string(DisconnectCommand)
	default:
		return "unknown"
	}
}

// IsMotion reports whether the call starts a motion on the actuator.
func (k CallKind) IsMotion() bool {
	return k == HomeCall || k == PickCall || k == PlaceCall
}

// Call is a request decoded into its command variant. Location is set for
// pick and place, Code for status.
type Call struct {
	Kind     CallKind
	Command  Command
	Location int
	Code     int
}

// Decode turns a request into a Call. Unrecognized commands decode to
// UnknownCall without error; a recognized command with an unusable param
// returns an error wrapping ErrInvalidParam.
func Decode(req Request) (Call, error) {
	c := Call{Command: req.Command}

	switch req.Command {
	case HomeCommand:
		c.Kind = HomeCall
	case PickCommand, PlaceCommand:
		c.Kind = PickCall
		if req.Command == PlaceCommand {
			c.Kind = PlaceCall
		}
		loc, err := req.Param.Int()
		if err != nil {
			return c, fmt.Errorf("decode %s location: %w", req.Command, err)
		}
		c.Location = loc
	case StatusCommand:
		c.Kind = StatusCall
		code, err := req.Param.Int()
		if err != nil {
			return c, fmt.Errorf("decode status code: %w", err)
		}
		c.Code = code
	case GetCurrentStatusIDCommand:
		c.Kind = CurrentStatusIDCall
	case DisconnectCommand:
		c.Kind = DisconnectCall
	default:
		c.Kind = UnknownCall
	}

	return c, nil
}
