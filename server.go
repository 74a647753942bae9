package mockrobot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/ValerySidorin/mockrobot/internal/protocol"
	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	conf     *ServerConfig
	registry *Registry
	slot     *Slot
	l        *slog.Logger

	mu    sync.Mutex
	ln    net.Listener
	qln   *quic.Listener
	conns map[conn]struct{}
	ready chan struct{}
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.l = logger
	}
}

func NewServer(conf ServerConfig, opts ...ServerOption) *Server {
	s := &Server{
		conf:  &conf,
		slot:  &Slot{},
		l:     slog.Default(),
		conns: make(map[conn]struct{}),
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func ListenAndServe(ctx context.Context, conf ServerConfig, logger *slog.Logger) error {
	return NewServer(conf, WithLogger(logger)).ListenAndServe(ctx)
}

// ListenAndServe serves controllers until ctx is cancelled, then closes
// listeners and live connections and waits for every handler to return.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.conf.SetDefaults()
	if err := s.conf.Validate(); err != nil {
		return fmt.Errorf("validate server config: %w", err)
	}

	ln, err := net.Listen("tcp", s.conf.Addr)
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}

	var qln *quic.Listener
	if s.conf.QUICAddr != "" {
		qln, err = quic.ListenAddr(s.conf.QUICAddr, s.conf.TLS, s.conf.QUIC)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen quic: %w", err)
		}
	}

	registry := NewRegistry(s.conf.Motion, s.l)
	defer registry.Close()

	s.mu.Lock()
	s.ln = ln
	s.qln = qln
	s.registry = registry
	s.mu.Unlock()
	close(s.ready)

	s.l.Info("mockrobot server started", "addr", ln.Addr().String())
	defer s.l.Info("mockrobot server stopped")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		ln.Close()
		if qln != nil {
			qln.Close()
		}
		s.closeConns()
		return nil
	})
	g.Go(func() error {
		return s.serveTCP(gctx, g, ln)
	})
	if qln != nil {
		s.l.Info("quic listener started", "addr", qln.Addr().String())
		g.Go(func() error {
			return s.serveQUIC(gctx, g, qln)
		})
	}

	return g.Wait()
}

func (s *Server) serveTCP(ctx context.Context, g *errgroup.Group, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.l.Error(fmt.Errorf("accept tcp: %w", err).Error())
			continue
		}

		g.Go(func() error {
			s.handleConn(c)
			return nil
		})
	}
}

func (s *Server) serveQUIC(ctx context.Context, g *errgroup.Group, ln *quic.Listener) error {
	for {
		qc, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			s.l.Error(fmt.Errorf("accept quic: %w", err).Error())
			continue
		}

		g.Go(func() error {
			c, err := acceptQUICConn(ctx, qc)
			if err != nil {
				s.l.Error(fmt.Errorf("handle quic conn: %w", err).Error())
				return nil
			}
			s.handleConn(c)
			return nil
		})
	}
}

func (s *Server) handleConn(c conn) {
	if !s.track(c) {
		c.Close()
		return
	}
	defer s.untrack(c)
	defer c.Close()

	addr := c.RemoteAddr().String()
	l := s.l.With("addr", addr)
	l.Debug("new connection")

	defer func() {
		if p := recover(); p != nil {
			l.Error(fmt.Sprintf("handle conn: panic: %v", p))
		}
	}()

	if !s.slot.Admit(addr) {
		l.Info("connection rejected, existing controller")
		if err := protocol.WriteSentinel(protocol.ExistingConn, c); err != nil {
			l.Error(fmt.Errorf("reject conn: %w", err).Error())
			return
		}
		drain(c)
		return
	}
	defer s.release(addr, l)

	if s.conf.ResetOnAdmit {
		if err := s.registry.Reset(); err != nil {
			l.Warn("status not reset on admission", "err", err)
		}
	}

	if err := protocol.WriteSentinel(protocol.Welcome, c); err != nil {
		l.Error(fmt.Errorf("admit conn: %w", err).Error())
		return
	}
	l.Info("controller admitted")

	if err := s.serveSession(c, l); err != nil {
		l.Info("controller dropped", "err", err)
		return
	}

	s.release(addr, l)
	drain(c)
}

// serveSession answers requests until the controller disconnects, which
// returns nil, or the connection fails.
func (s *Server) serveSession(c conn, l *slog.Logger) error {
	for {
		data, err := protocol.ReadFrame(c, s.conf.MaxFrameSize)
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}

		var resp protocol.Response
		done := false

		req, err := protocol.DecodeRequest(data)
		if err != nil {
			l.Warn("malformed request", "err", err)
			resp = protocol.Fail("MALFORMED REQUEST")
		} else {
			resp, done = s.handleRequest(req, l)
		}

		if err := protocol.WriteResponse(resp, c); err != nil {
			return fmt.Errorf("write response: %w", err)
		}

		if done {
			return nil
		}
	}
}

// release frees the slot held by addr. A motion still in flight is
// terminated before the slot becomes available to the next controller.
func (s *Server) release(addr string, l *slog.Logger) {
	if occupant, ok := s.slot.Occupant(); !ok || occupant != addr {
		return
	}

	if s.registry.Interrupt() {
		l.Warn("motion terminated by disconnect")
	}
	if s.slot.Release(addr) {
		l.Info("controller disconnected")
	}
}

func (s *Server) track(c conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.conns {
		c.Close()
	}
	s.conns = nil
}

// Ready is closed once the listeners are bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) QUICAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.qln == nil {
		return nil
	}
	return s.qln.Addr()
}

// Registry returns the status registry, nil before ListenAndServe binds.
func (s *Server) Registry() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry
}

// drain discards input until the peer goes away.
func drain(c conn) {
	_, _ = io.Copy(io.Discard, c)
}
