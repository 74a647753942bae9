package mockrobot

import (
	"strconv"

	"github.com/ValerySidorin/mockrobot/internal/protocol"
)

type Operation string

const (
	OperationPick     Operation = "Pick"
	OperationPlace    Operation = "Place"
	OperationTransfer Operation = "Transfer"
)

// Initiated is the message reported once the operation is queued.
func (o Operation) Initiated() string {
	switch o {
	case OperationPick:
		return "Picking process initiated"
	case OperationPlace:
		return "Placing process initiated"
	case OperationTransfer:
		return "Transfer process initiated"
	default:
		return ""
	}
}

type ParamName string

const (
	ParamNone        ParamName = "None"
	ParamSource      ParamName = "Source Location"
	ParamDestination ParamName = "Destination Location"
)

func (n ParamName) valid() bool {
	switch n {
	case ParamNone, ParamSource, ParamDestination:
		return true
	default:
		return false
	}
}

const (
	MsgConnected    = "Connected to MockRobot!"
	MsgDisconnected = "Disconnected from MockRobot!"
	MsgHoming       = "Homing process initiated"
)

// BuildQueue validates an operation request and turns it into queue
// entries. Nothing is returned on a violation.
func BuildQueue(op Operation, names [2]ParamName, values [2]string, locations LocationValidator) ([]Entry, error) {
	if locations == nil {
		locations = DefaultLocations
	}

	for _, v := range values {
		if !locations.IsValidLocation(v) {
			return nil, inputError("Input valid location values")
		}
	}

	for _, n := range names {
		if !n.valid() {
			return nil, inputError("Input valid parameter names")
		}
	}

	switch op {
	case OperationPick, OperationPlace:
		return buildSingle(op, names, values)
	case OperationTransfer:
		return buildTransfer(names, values)
	default:
		return nil, inputError("Input valid operation")
	}
}

func buildSingle(op Operation, names [2]ParamName, values [2]string) ([]Entry, error) {
	if values[0] == "" {
		return nil, inputError("Input location value in first row")
	}
	if names[1] != ParamNone || values[1] != "" {
		return nil, inputError("Delete entries in second row")
	}

	loc, err := strconv.Atoi(values[0])
	if err != nil {
		return nil, inputError("Input valid location values")
	}

	if op == OperationPick {
		if names[0] != ParamSource {
			return nil, inputError("Select Source Location for Picking")
		}
		return []Entry{{Command: protocol.PickCommand, Location: loc}}, nil
	}

	if names[0] != ParamDestination {
		return nil, inputError("Select Destination Location for Placing")
	}
	return []Entry{{Command: protocol.PlaceCommand, Location: loc}}, nil
}

func buildTransfer(names [2]ParamName, values [2]string) ([]Entry, error) {
	if names[0] == ParamNone || names[1] == ParamNone || names[0] == names[1] {
		return nil, inputError("Select Source and Destination for Transfer")
	}
	if values[0] == values[1] {
		return nil, inputError("Cannot Transfer same location")
	}
	if values[0] == "" || values[1] == "" {
		return nil, inputError("Input all location values for Transfer")
	}

	src, dst := values[0], values[1]
	if names[0] == ParamDestination {
		src, dst = dst, src
	}

	srcLoc, err := strconv.Atoi(src)
	if err != nil {
		return nil, inputError("Input valid location values")
	}
	dstLoc, err := strconv.Atoi(dst)
	if err != nil {
		return nil, inputError("Input valid location values")
	}

	return []Entry{
		{Command: protocol.PickCommand, Location: srcLoc},
		{Command: protocol.PlaceCommand, Location: dstLoc},
	}, nil
}
