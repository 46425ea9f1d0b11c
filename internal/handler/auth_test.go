package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"phantom-world/internal/auth"
	"phantom-world/internal/middleware"
)

const testWallet = "AWalletPublicKeyThatIsLongEnough0001"

func newAuthRouter(limiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &AuthHandler{
		TokenConfig: auth.DefaultTokenConfig("test-secret"),
		Limiter:     limiter,
	}
	r := gin.New()
	r.POST("/api/auth", h.Auth)
	return r
}

func TestAuthMintsVerifiableToken(t *testing.T) {
	r := newAuthRouter(nil)

	w := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"publicKey": testWallet})
	if w.Code != http.StatusOK {
		t.Fatalf("auth: %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("response: %s", w.Body.String())
	}

	claims, err := auth.VerifyToken(resp.Token, auth.DefaultTokenConfig("test-secret"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.WalletKey != testWallet {
		t.Fatalf("wallet = %q", claims.WalletKey)
	}
}

func TestAuthRejectsShortKey(t *testing.T) {
	r := newAuthRouter(nil)
	w := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"publicKey": "short"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAuthRateLimited(t *testing.T) {
	r := newAuthRouter(middleware.NewRateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		if w := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"publicKey": testWallet}); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	if w := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"publicKey": testWallet}); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}
