package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/auth"
	"github.com/vovakirdan/wiregate/internal/command"
	"github.com/vovakirdan/wiregate/internal/config"
	"github.com/vovakirdan/wiregate/internal/core"
)

// NewServer builds the admin HTTP server: health, login, the read-only
// inspection API and the WebSocket line transport.
func NewServer(gw *core.Gateway, authService *auth.Service, commands *command.Registry, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(gw, authService, commands, logger)

	router.GET("/health", healthHandler)
	router.POST("/api/login", api.Login)

	protected := router.Group("/api", AuthMiddleware(authService, logger))
	{
		protected.GET("/sessions", api.Sessions)
		protected.GET("/channels", api.Channels)
		protected.GET("/commands", api.Commands)
	}

	router.GET("/irc", gin.WrapH(NewWSHandler(gw, WSOptions{
		MaxLineBytes:      cfg.MaxLineBytes,
		CommandsPerMinute: cfg.CommandsPerMinute,
	}, logger)))

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
