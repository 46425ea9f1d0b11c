package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"phantom-world/internal/auth"
	"phantom-world/internal/game"
	"phantom-world/internal/handler"
	"phantom-world/internal/hub"
	"phantom-world/internal/middleware"
	"phantom-world/internal/nft"
	"phantom-world/internal/socketio"
	"phantom-world/internal/store"
)

type Deps struct {
	Store       *store.Store
	Engine      *game.Engine
	Hub         *hub.Hub
	Loader      *nft.Loader
	TokenConfig auth.TokenConfig

	BaseURL   string
	ImagesDir string
	ModelsDir string
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	ws := socketio.NewServer(socketio.Deps{Engine: deps.Engine, Hub: deps.Hub})
	r.GET("/socket.io/", gin.WrapH(ws))

	statsHandler := &handler.StatsHandler{Engine: deps.Engine, Store: deps.Store}
	r.GET("/api/stats", statsHandler.Stats)

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	authHandler := &handler.AuthHandler{TokenConfig: deps.TokenConfig, Limiter: authLimiter}
	r.POST("/api/auth", authHandler.Auth)

	nftHandler := &handler.NFTHandler{Loader: deps.Loader}
	r.POST("/api/load-nft", nftHandler.LoadNFT)

	modelsHandler := &handler.ModelsHandler{Dir: deps.ModelsDir}
	r.GET("/api/models", modelsHandler.List)
	r.GET("/api/models/:id", modelsHandler.Get)

	uploadHandler := &handler.UploadHandler{ImagesDir: deps.ImagesDir, BaseURL: deps.BaseURL}

	protected := r.Group("/api")
	protected.Use(middleware.RequireAuth(deps.TokenConfig))
	protected.POST("/models", modelsHandler.Create)
	protected.PUT("/models/:id", modelsHandler.Update)
	protected.DELETE("/models/:id", modelsHandler.Delete)
	protected.POST("/upload-image", uploadHandler.UploadImage)
	protected.POST("/create-nft-metadata", uploadHandler.CreateNFTMetadata)

	r.Static("/images", deps.ImagesDir)
	r.Static("/models", deps.ModelsDir)

	return r
}
