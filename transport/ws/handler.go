package ws

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/chaintalk/chaintalk/registry"
	"github.com/chaintalk/chaintalk/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ConnStats counts connection lifecycle transitions. Nil disables counting.
type ConnStats interface {
	ConnectionOpened()
	ConnectionClosed()
}

// Handler upgrades HTTP requests and runs one actor per socket.
type Handler struct {
	auth   *service.AuthService
	reg    *registry.Registry
	router *registry.Router
	stats  ConnStats
	logger *slog.Logger
}

// NewHandler creates a websocket handler. stats may be nil.
func NewHandler(auth *service.AuthService, reg *registry.Registry, router *registry.Router, stats ConnStats, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, reg: reg, router: router, stats: stats, logger: logger}
}

// Handle upgrades the request and blocks until the connection ends.
func (h *Handler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	if h.stats != nil {
		h.stats.ConnectionOpened()
		defer h.stats.ConnectionClosed()
	}

	h.logger.Info("websocket connection opened", "remote", c.Request.RemoteAddr)

	actor := NewActor(conn, h.auth, h.reg, h.router, h.logger)
	actor.Run(c.Request.Context())
}
