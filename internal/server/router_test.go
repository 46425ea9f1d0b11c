package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"phantom-world/internal/auth"
	"phantom-world/internal/game"
	"phantom-world/internal/hub"
	"phantom-world/internal/nft"
	"phantom-world/internal/store"
	"phantom-world/internal/world"
)

const testWallet = "AWalletPublicKeyThatIsLongEnough0001"

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	params := world.DefaultParams()
	st.SetWorld(world.Generate(rand.New(rand.NewSource(3)), params))
	st.InitPlots()

	h := hub.New()
	loader := nft.NewLoader("http://127.0.0.1:1")
	eng := game.New(game.Options{
		Store:       st,
		Hub:         h,
		Loader:      loader,
		WorldParams: params,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	t.Cleanup(cancel)

	return Deps{
		Store:       st,
		Engine:      eng,
		Hub:         h,
		Loader:      loader,
		TokenConfig: auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"},
		BaseURL:     "http://localhost:3000",
		ImagesDir:   t.TempDir(),
		ModelsDir:   t.TempDir(),
	}
}

func TestHealthAndStats(t *testing.T) {
	deps := newTestDeps(t)
	r := NewRouter(deps)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	var stats struct {
		Users      int `json:"users"`
		Plots      int `json:"plots"`
		WorldNodes int `json:"worldNodes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("stats body: %v", err)
	}
	if stats.Users != 0 {
		t.Fatalf("users = %d", stats.Users)
	}
	if stats.Plots == 0 || stats.Plots != stats.WorldNodes {
		t.Fatalf("plots = %d, worldNodes = %d", stats.Plots, stats.WorldNodes)
	}
}

func TestModelWriteRequiresAuth(t *testing.T) {
	deps := newTestDeps(t)
	r := NewRouter(deps)

	body, _ := json.Marshal(map[string]any{"name": "x"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/models", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthThenModelCreate(t *testing.T) {
	deps := newTestDeps(t)
	r := NewRouter(deps)

	body, _ := json.Marshal(map[string]any{"publicKey": testWallet})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("auth: %d: %s", w.Code, w.Body.String())
	}
	var authResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &authResp); err != nil || authResp.Token == "" {
		t.Fatalf("auth body: %s", w.Body.String())
	}

	body, _ = json.Marshal(map[string]any{
		"name":     "cube",
		"vertices": []map[string]any{{"pos": []float64{0, 0, 0}, "size": 0.2, "color": []int{255, 0, 0}}},
		"edges":    []string{"0-0"},
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/models", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authResp.Token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("model create: %d: %s", w.Code, w.Body.String())
	}
}
