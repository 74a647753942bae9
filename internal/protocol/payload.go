package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload is the raw JSON carried in Response.Data.
type Payload []byte

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

func (p Payload) Int() (int, error) {
	var v int
	if err := json.Unmarshal(p, &v); err != nil {
		return 0, fmt.Errorf("payload %s is not an integer: %w", string(p), err)
	}
	return v, nil
}

func (p Payload) Text() (string, error) {
	var v string
	if err := json.Unmarshal(p, &v); err != nil {
		return "", fmt.Errorf("payload %s is not a string: %w", string(p), err)
	}
	return v, nil
}

// String renders strings without quotes and everything else as raw JSON.
func (p Payload) String() string {
	if s, err := p.Text(); err == nil {
		return s
	}
	return strings.TrimSpace(string(p))
}

// IsNumber reports whether the payload holds an integer.
func (p Payload) IsNumber() bool {
	_, err := strconv.Atoi(strings.TrimSpace(string(p)))
	return err == nil
}
