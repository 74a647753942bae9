package mockrobot

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyConnected is returned by Connect on a connected session.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrNotConnected is returned when a session operation needs a connection.
	ErrNotConnected = errors.New("not connected")

	// ErrInProgress is returned when a motion is requested while one is running.
	ErrInProgress = errors.New("process already in progress")

	// ErrSlotOccupied is returned when the server already admitted another controller.
	ErrSlotOccupied = errors.New("server has an existing connection")

	// ErrUnknownStatus is returned for codes outside the status table.
	ErrUnknownStatus = errors.New("unknown status id")

	// ErrRequestFailed is returned when the server answers with a 400 response.
	ErrRequestFailed = errors.New("request failed")
)

type ErrorClass int

const (
	ClassInput ErrorClass = iota + 1
	ClassDriver
	ClassServer
	ClassTransport
)

func (c ErrorClass) String() string {
	switch c {
	case ClassInput:
		return "INPUT ERROR"
	case ClassDriver:
		return "DRIVER ERROR"
	case ClassServer:
		return "SERVER ERROR"
	case ClassTransport:
		return "TRANSPORT ERROR"
	default:
		return "ERROR"
	}
}

// Error is a classified failure reported by driver operations.
type Error struct {
	Class ErrorClass
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("<%s> %s", e.Class, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func inputError(msg string) error {
	return &Error{Class: ClassInput, Msg: msg}
}

func driverError(msg string, err error) error {
	return &Error{Class: ClassDriver, Msg: msg, Err: err}
}

func serverError(msg string, err error) error {
	return &Error{Class: ClassServer, Msg: msg, Err: err}
}

func transportError(msg string, err error) error {
	return &Error{Class: ClassTransport, Msg: msg, Err: err}
}

// ClassOf returns the class of err, or 0 when err is not an *Error.
func ClassOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return 0
}

// ResultString renders the outcome of a driver operation the way front
// ends display it.
func ResultString(success string, err error) string {
	if err == nil {
		return "<SUCCESS> " + success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "<ERROR> " + err.Error()
}
