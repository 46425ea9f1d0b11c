package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"phantom-world/internal/auth"
	"phantom-world/internal/middleware"
	"phantom-world/internal/nft"
)

// AuthHandler mints editor-API tokens for a wallet. There is no challenge
// step; possession of the key string is enough for this surface, so the
// endpoint is rate limited instead.
type AuthHandler struct {
	TokenConfig auth.TokenConfig
	Limiter     *middleware.RateLimiter
}

type authBody struct {
	PublicKey string `json:"publicKey"`
}

func (h *AuthHandler) Auth(c *gin.Context) {
	if h.Limiter != nil && !h.Limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	var body authBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !nft.ValidPubkey(body.PublicKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid public key"})
		return
	}

	token, err := auth.CreateToken(body.PublicKey, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}
