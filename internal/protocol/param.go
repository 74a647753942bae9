package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type ParamKind byte

const (
	ParamNone ParamKind = iota
	ParamString
	ParamInt
)

var ErrInvalidParam = errors.New("invalid param")

// Param is the request argument: null, a string or an integer.
// The zero value is null.
type Param struct {
	kind ParamKind
	s    string
	i    int
}

func NoParam() Param {
	return Param{}
}

func IntParam(v int) Param {
	return Param{kind: ParamInt, i: v}
}

func StringParam(v string) Param {
	return Param{kind: ParamString, s: v}
}

func (p Param) Kind() ParamKind {
	return p.kind
}

func (p Param) IsNone() bool {
	return p.kind == ParamNone
}

// Int returns the integer value, accepting decimal strings as well.
func (p Param) Int() (int, error) {
	switch p.kind {
	case ParamInt:
		return p.i, nil
	case ParamString:
		v, err := strconv.Atoi(p.s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidParam, p.s)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("%w: missing", ErrInvalidParam)
	}
}

func (p Param) String() string {
	switch p.kind {
	case ParamInt:
		return strconv.Itoa(p.i)
	case ParamString:
		return p.s
	default:
		return "null"
	}
}

func (p Param) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case ParamInt:
		return []byte(strconv.Itoa(p.i)), nil
	case ParamString:
		return json.Marshal(p.s)
	default:
		return []byte("null"), nil
	}
}

func (p *Param) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*p = Param{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParam, err)
		}
		*p = StringParam(s)
		return nil
	default:
		v, err := strconv.Atoi(string(data))
		if err != nil {
			return fmt.Errorf("%w: %s is not a string, integer or null", ErrInvalidParam, data)
		}
		*p = IntParam(v)
		return nil
	}
}
