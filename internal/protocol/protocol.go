package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type Command string

const (
	HomeCommand               Command = "home"
	PickCommand               Command = "pick"
	PlaceCommand              Command = "place"
	StatusCommand             Command = "status"
	GetCurrentStatusIDCommand Command = "getCurrentStatusID"
	DisconnectCommand         Command = "disconnect"
)

// Request status codes carried in Response.RequestStatus.
const (
	StatusOK         = 200
	StatusBadRequest = 400
)

var ErrEmptyRequest = errors.New("empty request")

type Request struct {
	Command Command `json:"command"`
	Param   Param   `json:"param"`
}

func NewRequest(cmd Command, param Param) Request {
	return Request{Command: cmd, Param: param}
}

func (r Request) Bytes() ([]byte, error) {
	return json.Marshal(r)
}

type Response struct {
	RequestStatus int     `json:"request_status"`
	Data          Payload `json:"data"`
}

type payloadValue interface {
	~int | ~string
}

// OK builds a 200 response around v.
func OK[T payloadValue](v T) Response {
	return Response{RequestStatus: StatusOK, Data: mustPayload(v)}
}

// Fail builds a 400 response around v.
func Fail[T payloadValue](v T) Response {
	return Response{RequestStatus: StatusBadRequest, Data: mustPayload(v)}
}

func (r Response) Success() bool {
	return r.RequestStatus == StatusOK
}

func (r Response) Bytes() ([]byte, error) {
	return json.Marshal(r)
}

func mustPayload[T payloadValue](v T) Payload {
	// ints and strings always marshal
	b, _ := json.Marshal(v)
	return Payload(b)
}

func WriteRequest(req Request, w io.Writer) error {
	b, err := req.Bytes()
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if err := WriteFrame(w, b); err != nil {
		return fmt.Errorf("write %s request: %w", req.Command, err)
	}

	return nil
}

func ReadRequest(r io.Reader, maxFrameSize int) (Request, error) {
	data, err := ReadFrame(r, maxFrameSize)
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}

	return DecodeRequest(data)
}

// DecodeRequest parses the payload of one request frame.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if len(data) == 0 {
		return req, ErrEmptyRequest
	}

	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("unmarshal request: %w", err)
	}

	return req, nil
}

func WriteResponse(resp Response, w io.Writer) error {
	b, err := resp.Bytes()
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := WriteFrame(w, b); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

func ReadResponse(r io.Reader, maxFrameSize int) (Response, error) {
	var resp Response

	data, err := ReadFrame(r, maxFrameSize)
	if err != nil {
		return resp, fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("unmarshal response: %w", err)
	}

	return resp, nil
}
