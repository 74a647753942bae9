package web

import (
	"context"
	"net/http"

	"github.com/ValerySidorin/mockrobot"
	"github.com/ValerySidorin/mockrobot/internal/hub"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ConnectRequest struct {
	Address string `json:"address"`
	Port    string `json:"port"`
}

type OperationRequest struct {
	Operation string    `json:"operation"`
	Names     [2]string `json:"names"`
	Values    [2]string `json:"values"`
}

// Result carries the tagged outcome string, e.g. "<SUCCESS> Homing process initiated".
type Result struct {
	Result string `json:"result"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handleConnect(c *fiber.Ctx) error {
	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.conf.ConnectTimeout)
	defer cancel()

	return s.reply(c, mockrobot.MsgConnected, s.driver.Connect(ctx, req.Address, req.Port))
}

func (s *Server) handleInitialize(c *fiber.Ctx) error {
	return s.reply(c, mockrobot.MsgHoming, s.driver.Initialize())
}

func (s *Server) handleOperation(c *fiber.Ctx) error {
	var req OperationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	op := mockrobot.Operation(req.Operation)
	names := [2]mockrobot.ParamName{
		mockrobot.ParamName(req.Names[0]),
		mockrobot.ParamName(req.Names[1]),
	}

	return s.reply(c, op.Initiated(), s.driver.ExecuteOperation(op, names, req.Values))
}

func (s *Server) handleAbort(c *fiber.Ctx) error {
	return s.reply(c, mockrobot.MsgDisconnected, s.driver.Abort())
}

func (s *Server) reply(c *fiber.Ctx, success string, err error) error {
	if err != nil {
		s.l.Info("operation refused", "path", c.Path(), "err", err)
	}
	return c.Status(statusOf(err)).JSON(Result{Result: mockrobot.ResultString(success, err)})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(Result{Result: "<INPUT ERROR> Malformed request body"})
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch mockrobot.ClassOf(err) {
	case mockrobot.ClassInput:
		return http.StatusBadRequest
	case mockrobot.ClassDriver:
		return http.StatusConflict
	case mockrobot.ClassServer, mockrobot.ClassTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	// first frame goes out before the write pump owns the connection
	if err := c.WriteJSON(s.status()); err != nil {
		c.Close()
		return
	}

	client := hub.NewClient(s.hub, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
