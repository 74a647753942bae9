package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ValerySidorin/mockrobot"
	"github.com/ValerySidorin/mockrobot/internal/log"
	"github.com/quic-go/quic-go"
)

type LogConfig struct {
	Level     string `long:"level" description:"Log level: debug, info, warn or error" env:"LEVEL" default:"info"`
	Format    string `long:"format" description:"Log format" env:"FORMAT" choice:"json" choice:"text" default:"json"`
	File      string `long:"file" description:"Rotating log file, stdout only when empty" env:"FILE"`
	MaxSizeKB int64  `long:"max-size-kb" description:"Log file size that triggers rotation" env:"MAX_SIZE_KB"`
	MaxRolls  int    `long:"max-rolls" description:"Rotated log files to keep" env:"MAX_ROLLS"`
}

type MotionConfig struct {
	HomeDuration time.Duration `long:"home-duration" description:"Simulated home duration" env:"HOME_DURATION" default:"2s"`
	MoveDuration time.Duration `long:"move-duration" description:"Simulated pick and place duration" env:"MOVE_DURATION" default:"5s"`
}

type TLSConfig struct {
	ClientCertsDir    string   `long:"client-certs-dir" description:"TLS client certs dir" env:"CLIENT_CERTS_DIR"`
	ServerCertPEMPath string   `long:"server-cert-path" description:"TLS server cert path" env:"SERVER_CERT_PATH"`
	ServerKeyPEMPath  string   `long:"server-key-path" description:"TLS server key path" env:"SERVER_KEY_PATH"`
	MTLSEnabled       bool     `short:"m" long:"mtls-enabled" description:"MTLS enable flag" env:"MTLS_ENABLED"`
	NextProtos        []string `long:"next-proto" description:"TLS next proto" env:"NEXT_PROTOS" env-delim:","`
}

type ClientTLSConfig struct {
	CACertPath         string   `long:"ca-cert-path" description:"CA cert used to verify the server" env:"CA_CERT_PATH"`
	ClientCertPEMPath  string   `long:"client-cert-path" description:"TLS client cert path, for mTLS" env:"CLIENT_CERT_PATH"`
	ClientKeyPEMPath   string   `long:"client-key-path" description:"TLS client key path, for mTLS" env:"CLIENT_KEY_PATH"`
	ServerName         string   `long:"server-name" description:"Expected server name" env:"SERVER_NAME"`
	InsecureSkipVerify bool     `long:"insecure-skip-verify" description:"Skip server certificate verification" env:"INSECURE_SKIP_VERIFY"`
	NextProtos         []string `long:"next-proto" description:"TLS next proto" env:"NEXT_PROTOS" env-delim:","`
}

type QUICConfig struct {
	KeepAlivePeriod      time.Duration `long:"keepalive-period" description:"QUIC keepalive period" env:"KEEPALIVE_PERIOD"`
	HandshakeIdleTimeout time.Duration `long:"handshake-idle-timeout" description:"QUIC handshake idle timeout" env:"HANDSHAKE_IDLE_TIMEOUT"`
	MaxIdleTimeout       time.Duration `long:"max-idle-timeout" description:"QUIC max idle timeout" env:"MAX_IDLE_TIMEOUT"`
}

// ServerConfig is the command line of the robot server.
type ServerConfig struct {
	Addr         string       `short:"a" long:"addr" description:"MockRobot TCP server address" env:"MOCKROBOT_ADDR" default:"127.0.0.1:1000"`
	QUICAddr     string       `long:"quic-addr" description:"MockRobot QUIC server address, disabled when empty" env:"MOCKROBOT_QUIC_ADDR"`
	MaxFrameSize int          `long:"max-frame-size" description:"Largest accepted message in bytes. Defaults to 64KiB" env:"MOCKROBOT_MAX_FRAME_SIZE"`
	ResetOnAdmit bool         `long:"reset-on-admit" description:"Reset an idle status to Idle for every new controller" env:"MOCKROBOT_RESET_ON_ADMIT"`
	Motion       MotionConfig `group:"motion" namespace:"motion" env-namespace:"MOCKROBOT_MOTION"`
	TLS          TLSConfig    `group:"tls" namespace:"tls" env-namespace:"MOCKROBOT_TLS"`
	QUIC         QUICConfig   `group:"quic" namespace:"quic" env-namespace:"MOCKROBOT_QUIC"`
	Log          LogConfig    `group:"log" namespace:"log" env-namespace:"MOCKROBOT_LOG"`
}

// DriverConfig is the command line of the driver control panel.
type DriverConfig struct {
	Listen          string          `short:"l" long:"listen" description:"Control panel HTTP address" env:"MOCKROBOT_LISTEN" default:"127.0.0.1:8080"`
	Connect         string          `short:"c" long:"connect" description:"Robot address (host:port) to connect to on startup" env:"MOCKROBOT_CONNECT"`
	Transport       string          `short:"t" long:"transport" description:"Robot transport" env:"MOCKROBOT_TRANSPORT" choice:"tcp" choice:"quic" default:"tcp"`
	PollInterval    time.Duration   `long:"poll-interval" description:"Status poll interval. Defaults to 10ms" env:"MOCKROBOT_POLL_INTERVAL"`
	QueueInterval   time.Duration   `long:"queue-interval" description:"Queue wait interval. Defaults to 50ms" env:"MOCKROBOT_QUEUE_INTERVAL"`
	RefreshInterval time.Duration   `long:"refresh-interval" description:"Control panel status refresh interval" env:"MOCKROBOT_REFRESH_INTERVAL" default:"100ms"`
	MaxFrameSize    int             `long:"max-frame-size" description:"Largest accepted message in bytes. Defaults to 64KiB" env:"MOCKROBOT_MAX_FRAME_SIZE"`
	TLS             ClientTLSConfig `group:"tls" namespace:"tls" env-namespace:"MOCKROBOT_TLS"`
	QUIC            QUICConfig      `group:"quic" namespace:"quic" env-namespace:"MOCKROBOT_QUIC"`
	Log             LogConfig       `group:"log" namespace:"log" env-namespace:"MOCKROBOT_LOG"`
}

func (c *ServerConfig) Parse() (mockrobot.ServerConfig, error) {
	conf := mockrobot.ServerConfig{
		Addr:         c.Addr,
		QUICAddr:     c.QUICAddr,
		MaxFrameSize: c.MaxFrameSize,
		ResetOnAdmit: c.ResetOnAdmit,
		Motion: mockrobot.MotionConfig{
			HomeDuration: c.Motion.HomeDuration,
			MoveDuration: c.Motion.MoveDuration,
		},
	}

	if c.QUICAddr != "" {
		tlsConf, err := c.TLS.Parse()
		if err != nil {
			return mockrobot.ServerConfig{}, fmt.Errorf("parse TLS conf: %w", err)
		}
		conf.TLS = tlsConf
		conf.QUIC = c.QUIC.Parse()
	}

	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return mockrobot.ServerConfig{}, fmt.Errorf("validate: %w", err)
	}

	return conf, nil
}

// Parse converts the command line into a driver config. The logger is
// left for the caller to set.
func (c *DriverConfig) Parse() (mockrobot.DriverConfig, error) {
	conf := mockrobot.DriverConfig{
		Transport:     c.Transport,
		PollInterval:  c.PollInterval,
		QueueInterval: c.QueueInterval,
		MaxFrameSize:  c.MaxFrameSize,
	}

	if c.Transport == mockrobot.TransportQUIC {
		tlsConf, err := c.TLS.Parse()
		if err != nil {
			return mockrobot.DriverConfig{}, fmt.Errorf("parse TLS conf: %w", err)
		}
		conf.TLS = tlsConf
		conf.QUIC = c.QUIC.Parse()
	}

	if c.RefreshInterval <= 0 {
		return mockrobot.DriverConfig{}, errors.New("refresh interval must be positive")
	}

	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return mockrobot.DriverConfig{}, fmt.Errorf("validate: %w", err)
	}

	return conf, nil
}

func (c *LogConfig) Parse() log.Config {
	return log.Config{
		Level:     c.Level,
		Format:    c.Format,
		File:      c.File,
		MaxSizeKB: c.MaxSizeKB,
		MaxRolls:  c.MaxRolls,
	}
}

func (c *QUICConfig) Parse() *quic.Config {
	return &quic.Config{
		KeepAlivePeriod:      c.KeepAlivePeriod,
		HandshakeIdleTimeout: c.HandshakeIdleTimeout,
		MaxIdleTimeout:       c.MaxIdleTimeout,
	}
}

// Parse loads the server key pair and, when mTLS is on, the controller CAs.
func (c *TLSConfig) Parse() (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate tls: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(c.ServerCertPEMPath, c.ServerKeyPEMPath)
	if err != nil {
		return nil, fmt.Errorf("load server key pair: %w", err)
	}

	conf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   nextProtos(c.NextProtos),
	}
	if !c.MTLSEnabled {
		return conf, nil
	}

	pool, err := controllerCAs(c.ClientCertsDir)
	if err != nil {
		return nil, err
	}
	conf.ClientCAs = pool
	conf.ClientAuth = tls.RequireAndVerifyClientCert
	return conf, nil
}

// controllerCAs reads every PEM file directly under dir.
func controllerCAs(dir string) (*x509.CertPool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read controller CAs: %w", err)
	}

	pool := x509.NewCertPool()
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read controller CA %s: %w", e.Name(), err)
		}
		if pool.AppendCertsFromPEM(data) {
			found = true
		}
	}

	if !found {
		return nil, fmt.Errorf("no controller CAs in %s", dir)
	}
	return pool, nil
}

func (c *TLSConfig) Validate() error {
	switch {
	case c.ServerCertPEMPath == "" || c.ServerKeyPEMPath == "":
		return errors.New("tls needs both server-cert-path and server-key-path")
	case c.MTLSEnabled && c.ClientCertsDir == "":
		return errors.New("mtls needs client-certs-dir")
	}
	return nil
}

func (c *ClientTLSConfig) Parse() (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	conf := &tls.Config{
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify,
		NextProtos:         nextProtos(c.NextProtos),
	}

	if c.CACertPath != "" {
		ca, err := os.ReadFile(c.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, errors.New("no certificates in CA cert file")
		}
		conf.RootCAs = pool
	}

	if c.ClientCertPEMPath != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCertPEMPath, c.ClientKeyPEMPath)
		if err != nil {
			return nil, fmt.Errorf("load x509 key pair: %w", err)
		}
		conf.Certificates = []tls.Certificate{cert}
	}

	return conf, nil
}

func (c *ClientTLSConfig) Validate() error {
	if (c.ClientCertPEMPath == "") != (c.ClientKeyPEMPath == "") {
		return errors.New("client cert and key paths must be set together")
	}

	if c.CACertPath == "" && !c.InsecureSkipVerify {
		return errors.New("ca cert path not specified, while server verification enabled")
	}

	return nil
}

func nextProtos(protos []string) []string {
	if len(protos) == 0 {
		return []string{mockrobot.NextProto}
	}
	return protos
}
