// Package http exposes the REST facade over the auth service and registry,
// plus the websocket upgrade and metrics endpoints.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chaintalk/chaintalk/registry"
	"github.com/chaintalk/chaintalk/service"
	"github.com/chaintalk/chaintalk/transport/ws"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Auth        *service.AuthService
	Registry    *registry.Registry
	Router      *registry.Router
	ConnStats   ws.ConnStats
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *slog.Logger
}

// SetupRouter sets up the Gin router.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware(deps.CORSOrigins))

	handlers := NewHandlers(deps.Auth, deps.Registry, deps.Logger)
	wsHandler := ws.NewHandler(deps.Auth, deps.Registry, deps.Router, deps.ConnStats, deps.Logger)

	router.GET("/health", handlers.Health)
	router.GET("/ws", wsHandler.Handle)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := router.Group("/api/auth")
	{
		auth.POST("/nonce", handlers.Nonce)
		auth.POST("/login", handlers.Login)
	}

	api := router.Group("/api")
	{
		api.GET("/user/:address", handlers.UserInfo)
		api.GET("/rooms", handlers.Rooms)
		api.GET("/rooms/:room", handlers.RoomInfo)
		api.POST("/token-gate/verify", handlers.TokenGate)
	}

	protected := router.Group("/api")
	protected.Use(AuthMiddleware(deps.Auth))
	{
		protected.GET("/me", handlers.Me)
	}

	return router
}
