package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"phantom-world/internal/auth"
)

const walletKeyContextKey = "walletKey"

func WalletKeyFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(walletKeyContextKey)
	if !ok {
		return "", false
	}
	value, ok := v.(string)
	return value, ok && value != ""
}

func RequireAuth(cfg auth.TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			c.Abort()
			return
		}

		claims, err := auth.VerifyToken(parts[1], cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			c.Abort()
			return
		}

		c.Set(walletKeyContextKey, claims.WalletKey)
		c.Next()
	}
}
