// Package web serves the driver control panel: a small HTTP API over one
// driver session and a websocket stream of its status.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/ValerySidorin/mockrobot"
	"github.com/ValerySidorin/mockrobot/internal/hub"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRefreshInterval = 100 * time.Millisecond
	defaultConnectTimeout  = 10 * time.Second
)

// Driver is the set of session operations the panel exposes.
type Driver interface {
	Connect(ctx context.Context, address, port string) error
	Initialize() error
	ExecuteOperation(op mockrobot.Operation, names [2]mockrobot.ParamName, values [2]string) error
	Abort() error
	Connected() bool
	ProcessStatus() string
}

type Config struct {
	RefreshInterval time.Duration
	ConnectTimeout  time.Duration
	Logger          *slog.Logger
}

func (c *Config) SetDefaults() {
	if c.RefreshInterval == 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Status is what the panel displays.
type Status struct {
	Connected     bool   `json:"connected"`
	ProcessStatus string `json:"process_status"`
}

type Server struct {
	app    *fiber.App
	driver Driver
	hub    *hub.Hub
	conf   Config
	l      *slog.Logger
}

func NewServer(d Driver, conf Config) *Server {
	conf.SetDefaults()

	s := &Server{
		driver: d,
		hub:    hub.New("status", conf.Logger),
		conf:   conf,
		l:      conf.Logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "MockRobot Control Panel",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/connect", s.handleConnect)
	api.Post("/initialize", s.handleInitialize)
	api.Post("/operation", s.handleOperation)
	api.Post("/abort", s.handleAbort)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the panel on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.refresh(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := s.app.Shutdown(); err != nil {
			return fmt.Errorf("shutdown app: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.l.Info("control panel started", "addr", ln.Addr().String())
		if err := s.app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("serve app: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// refresh broadcasts the status on a fixed timer. It is display only.
func (s *Server) refresh(ctx context.Context) {
	ticker := time.NewTicker(s.conf.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.hub.ClientCount() == 0 {
				continue
			}
			if err := s.hub.BroadcastJSON(s.status()); err != nil {
				s.l.Error(fmt.Errorf("broadcast status: %w", err).Error())
			}
		}
	}
}

func (s *Server) status() Status {
	return Status{
		Connected:     s.driver.Connected(),
		ProcessStatus: s.driver.ProcessStatus(),
	}
}
