package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultMaxFrameSize bounds a single message unless the caller sets its own limit.
	DefaultMaxFrameSize = 64 << 10

	frameHeaderLen = 8
)

var ErrFrameTooLarge = errors.New("frame too large")

// WriteFrame writes p prefixed with its length as a little-endian uint64.
// Header and payload go out in one Write call.
func WriteFrame(w io.Writer, p []byte) error {
	buf := make([]byte, frameHeaderLen, frameHeaderLen+len(p))
	binary.LittleEndian.PutUint64(buf, uint64(len(p)))
	buf = append(buf, p...)

	if _, err := w.Write(buf); err != nil {
		return err
	}

	return nil
}

// ReadFrame reads one frame written by WriteFrame. Frames longer than
// maxFrameSize are rejected before the payload is read.
func ReadFrame(r io.Reader, maxFrameSize int) ([]byte, error) {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}

	header := make([]byte, frameHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	n := binary.LittleEndian.Uint64(header)
	if n > uint64(maxFrameSize) {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, n, maxFrameSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}

	return payload, nil
}
