package mockrobot

import (
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	defaultAddr = "127.0.0.1:1000"

	defaultHomeDuration = 2 * time.Second
	defaultMoveDuration = 5 * time.Second
)

type MotionConfig struct {
	HomeDuration time.Duration
	MoveDuration time.Duration
}

type ServerConfig struct {
	Addr string

	// QUICAddr enables a second listener speaking the same protocol over
	// QUIC. TLS is required when it is set.
	QUICAddr string
	TLS      *tls.Config
	QUIC     *quic.Config

	Motion       MotionConfig
	MaxFrameSize int

	// ResetOnAdmit puts an idle registry back to Idle whenever a new
	// controller is admitted. Status persists across sessions otherwise.
	ResetOnAdmit bool
}

func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr not specified")
	}

	if c.QUICAddr != "" && c.TLS == nil {
		return errors.New("tls config not specified, while quic addr set")
	}

	if c.MaxFrameSize < 0 {
		return errors.New("max frame size must not be negative")
	}

	if err := c.Motion.Validate(); err != nil {
		return fmt.Errorf("validate motion config: %w", err)
	}

	return nil
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	c.Motion.SetDefaults()
}

func (c *MotionConfig) Validate() error {
	if c.HomeDuration <= 0 {
		return errors.New("home duration must be positive")
	}

	if c.MoveDuration <= 0 {
		return errors.New("move duration must be positive")
	}

	return nil
}

func (c *MotionConfig) SetDefaults() {
	if c.HomeDuration == 0 {
		c.HomeDuration = defaultHomeDuration
	}
	if c.MoveDuration == 0 {
		c.MoveDuration = defaultMoveDuration
	}
}

func (c MotionConfig) durationOf(kind MotionKind) time.Duration {
	if kind == MotionHome {
		return c.HomeDuration
	}
	return c.MoveDuration
}
