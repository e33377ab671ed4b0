package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/auth"
	"github.com/vovakirdan/wiregate/internal/command"
	"github.com/vovakirdan/wiregate/internal/core"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	gateway     *core.Gateway
	authService *auth.Service
	commands    *command.Registry
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(gw *core.Gateway, authService *auth.Service, commands *command.Registry, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		gateway:     gw,
		authService: authService,
		commands:    commands,
		log:         logger,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Login exchanges the admin password for a token.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Warn().Str("remote", c.ClientIP()).Msg("admin login rejected")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Msg("failed to issue admin token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("remote", c.ClientIP()).Msg("admin logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// Sessions lists the live sessions.
// GET /api/sessions
func (h *APIHandlers) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, toSessionResponses(h.gateway.Sessions().Snapshot()))
}

// Channels lists every channel with its members.
// GET /api/channels
func (h *APIHandlers) Channels(c *gin.Context) {
	c.JSON(http.StatusOK, toChannelResponses(h.gateway.Channels().Snapshot()))
}

// Commands lists the registered commands.
// GET /api/commands
func (h *APIHandlers) Commands(c *gin.Context) {
	if h.commands == nil {
		c.JSON(http.StatusOK, []CommandResponse{})
		return
	}
	c.JSON(http.StatusOK, toCommandResponses(h.commands.Specs()))
}
