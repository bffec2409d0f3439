package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/registry"
	"github.com/chaintalk/chaintalk/service"
)

// Handlers contains the HTTP handlers for the REST facade.
type Handlers struct {
	auth   *service.AuthService
	reg    *registry.Registry
	logger *slog.Logger
}

// NewHandlers creates the REST handlers.
func NewHandlers(auth *service.AuthService, reg *registry.Registry, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{auth: auth, reg: reg, logger: logger}
}

// statusFor maps taxonomy errors to HTTP status codes. Anything outside the
// taxonomy is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrAuthenticationFailed),
		errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrInvalidNonce):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrAuthorizationFailed):
		return http.StatusForbidden
	case errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrSerialization):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "chaintalk"})
}

// Nonce issues a fresh single-use challenge.
func (h *Handlers) Nonce(c *gin.Context) {
	nonce, err := h.auth.IssueChallenge(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to issue challenge", "err", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Login verifies a structured signed message and returns a session token.
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Message   string `json:"message" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identity, err := h.auth.VerifySIWE(c.Request.Context(), req.Message, req.Signature)
	if err != nil {
		h.logger.Warn("login rejected", "err", err)
		respondError(c, err)
		return
	}

	token, err := h.auth.IssueToken(identity)
	if err != nil {
		h.logger.Error("failed to issue session token", "err", err)
		respondError(c, err)
		return
	}

	h.auth.NotifyLogin(c.Request.Context(), identity.Address)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"address":  identity.Address,
			"ens_name": identity.ENSName,
			"avatar":   nil,
		},
	})
}

// UserInfo returns the cached identity profile for an address.
func (h *Handlers) UserInfo(c *gin.Context) {
	address := c.Param("address")

	identity, ok := h.auth.CachedIdentity(address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":        identity.Address,
		"ens_name":       identity.ENSName,
		"token_holdings": identity.TokenHoldings,
		"nft_holdings":   identity.NFTHoldings,
	})
}

// Rooms lists all rooms with their member rosters.
func (h *Handlers) Rooms(c *gin.Context) {
	rooms := h.reg.ListRooms()

	out := make([]gin.H, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, gin.H{
			"name":       room.Name,
			"user_count": len(room.Members),
			"users":      room.Members,
		})
	}

	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// RoomInfo returns one room's roster.
func (h *Handlers) RoomInfo(c *gin.Context) {
	name := c.Param("room")

	users := h.reg.RoomMembers(name)
	c.JSON(http.StatusOK, gin.H{
		"name":       name,
		"user_count": len(users),
		"users":      users,
	})
}

// TokenGate checks whether a user's token balance clears a threshold.
func (h *Handlers) TokenGate(c *gin.Context) {
	var req struct {
		UserAddress     string  `json:"user_address" binding:"required"`
		ContractAddress string  `json:"contract_address" binding:"required"`
		MinimumBalance  *string `json:"minimum_balance"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	hasAccess, err := h.auth.CheckAccessPolicy(c.Request.Context(), req.UserAddress, req.ContractAddress, req.MinimumBalance)
	if err != nil {
		h.logger.Warn("token gate check failed", "user", req.UserAddress, "err", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"has_access":       hasAccess,
		"user_address":     req.UserAddress,
		"contract_address": req.ContractAddress,
	})
}

// Me returns the authenticated caller's session claims.
func (h *Handlers) Me(c *gin.Context) {
	address, exists := c.Get("userAddress")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	out := gin.H{"address": address}
	if ens, ok := c.Get("userENS"); ok {
		out["ens_name"] = ens
	}
	c.JSON(http.StatusOK, out)
}
