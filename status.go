package mockrobot

import (
	"fmt"
	"strconv"
)

type StatusCode int

const (
	StatusIdle       StatusCode = 100
	StatusInProgress StatusCode = 101
	StatusFinished   StatusCode = 102
	StatusTerminated StatusCode = 103

	// StatusRejected is returned instead of a status when a motion is
	// requested while another one is in progress.
	StatusRejected StatusCode = -300
)

var statusTexts = map[StatusCode]string{
	StatusIdle:       "Idle",
	StatusInProgress: "In Progress",
	StatusFinished:   "Finished Successfully",
	StatusTerminated: "Terminated With Error",
	StatusRejected:   "Bad Request, In Progress",
}

// StatusText returns the human-readable meaning of code.
func StatusText(code StatusCode) (string, error) {
	text, ok := statusTexts[code]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownStatus, code)
	}
	return text, nil
}

func (c StatusCode) String() string {
	if text, ok := statusTexts[c]; ok {
		return text
	}
	return "StatusCode(" + strconv.Itoa(int(c)) + ")"
}
