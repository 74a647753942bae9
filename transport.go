package mockrobot

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"

	"github.com/quic-go/quic-go"
)

const (
	TransportTCP  = "tcp"
	TransportQUIC = "quic"

	// ALPN protocol negotiated on QUIC connections.
	NextProto = "mockrobot"
)

// conn is one ordered byte stream between a controller and the server.
type conn interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
}

// quicConn carries the session over a single bidirectional stream. The
// server opens the stream so its sentinel is the first data on it.
type quicConn struct {
	conn   quic.Connection
	stream quic.Stream
}

func (c *quicConn) Read(p []byte) (int, error) {
	return c.stream.Read(p)
}

func (c *quicConn) Write(p []byte) (int, error) {
	return c.stream.Write(p)
}

func (c *quicConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *quicConn) Close() error {
	c.stream.CancelRead(0)
	_ = c.stream.Close()
	return c.conn.CloseWithError(0, "")
}

func acceptQUICConn(ctx context.Context, qc quic.Connection) (*quicConn, error) {
	stream, err := qc.OpenStreamSync(ctx)
	if err != nil {
		_ = qc.CloseWithError(0, "open stream")
		return nil, fmt.Errorf("open stream: %w", err)
	}
	return &quicConn{conn: qc, stream: stream}, nil
}

func dialQUIC(ctx context.Context, addr string, tlsConf *tls.Config, quicConf *quic.Config) (*quicConn, error) {
	qc, err := quic.DialAddr(ctx, addr, tlsConf, quicConf)
	if err != nil {
		return nil, fmt.Errorf("dial quic: %w", err)
	}

	stream, err := qc.AcceptStream(ctx)
	if err != nil {
		_ = qc.CloseWithError(0, "accept stream")
		return nil, fmt.Errorf("accept stream: %w", err)
	}

	return &quicConn{conn: qc, stream: stream}, nil
}

func dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp: %w", err)
	}
	return c, nil
}
