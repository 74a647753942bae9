package mockrobot

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	defaultPollInterval  = 10 * time.Millisecond
	defaultQueueInterval = 50 * time.Millisecond
)

type DriverConfig struct {
	// Transport is TransportTCP or TransportQUIC.
	Transport string
	TLS       *tls.Config
	QUIC      *quic.Config

	PollInterval  time.Duration
	QueueInterval time.Duration
	MaxFrameSize  int

	Locations LocationValidator
	Logger    *slog.Logger
}

func (c *DriverConfig) Validate() error {
	switch c.Transport {
	case TransportTCP:
	case TransportQUIC:
		if c.TLS == nil {
			return errors.New("tls config not specified, while quic transport set")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}

	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}

	if c.QueueInterval <= 0 {
		return errors.New("queue interval must be positive")
	}

	if c.MaxFrameSize < 0 {
		return errors.New("max frame size must not be negative")
	}

	return nil
}

func (c *DriverConfig) SetDefaults() {
	if c.Transport == "" {
		c.Transport = TransportTCP
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.QueueInterval == 0 {
		c.QueueInterval = defaultQueueInterval
	}
	if c.Locations == nil {
		c.Locations = DefaultLocations
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
