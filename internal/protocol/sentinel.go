package protocol

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel is the plain-text admission answer the server sends before any
// Request/Response exchange.
type Sentinel string

const (
	Welcome      Sentinel = "WELCOME"
	ExistingConn Sentinel = "EXISTING_CONN"
)

var ErrUnexpectedSentinel = errors.New("unexpected sentinel")

func WriteSentinel(s Sentinel, w io.Writer) error {
	if err := WriteFrame(w, []byte(s)); err != nil {
		return fmt.Errorf("write sentinel %s: %w", s, err)
	}
	return nil
}

func ReadSentinel(r io.Reader, maxFrameSize int) (Sentinel, error) {
	b, err := ReadFrame(r, maxFrameSize)
	if err != nil {
		return "", fmt.Errorf("read sentinel: %w", err)
	}

	s := Sentinel(b)
	switch s {
	case Welcome, ExistingConn:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnexpectedSentinel, b)
	}
}
