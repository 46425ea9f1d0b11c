package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"phantom-world/internal/auth"
	"phantom-world/internal/config"
	"phantom-world/internal/game"
	"phantom-world/internal/hub"
	"phantom-world/internal/nft"
	"phantom-world/internal/server"
	"phantom-world/internal/store"
	"phantom-world/internal/world"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	gin.SetMode(cfg.GinMode)

	imagesDir := filepath.Join(cfg.DataDir, "images")
	modelsDir := filepath.Join(cfg.DataDir, "models")
	for _, dir := range []string{cfg.DataDir, imagesDir, modelsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}

	params := world.DefaultParams()
	var throttle time.Duration
	if cfg.WorldTuningFile != "" {
		tuning, err := config.LoadTuning(cfg.WorldTuningFile)
		if err != nil {
			log.Fatal(err)
		}
		params = applyTuning(params, tuning)
		if tuning.MoveBroadcastMs > 0 {
			throttle = time.Duration(tuning.MoveBroadcastMs) * time.Millisecond
		}
	}

	if !st.HasWorld() {
		st.SetWorld(world.Generate(rand.New(rand.NewSource(time.Now().UnixNano())), params))
		log.Printf("generated new world map")
	}
	st.InitPlots()
	log.Printf("world has %d nodes, %d plots", len(st.World().Nodes), st.PlotCount())

	h := hub.New()
	loader := nft.NewLoader(cfg.RPCEndpoint)
	eng := game.New(game.Options{
		Store:             st,
		Hub:               h,
		Loader:            loader,
		WorldParams:       params,
		StrictWorldMoves:  cfg.StrictWorldMoves,
		BroadcastInterval: throttle,
	})

	tokenCfg := auth.TokenConfig{
		Secret: cfg.MasterSecret,
		Expiry: cfg.TokenExpiry,
		Issuer: "phantom-world",
	}

	router := server.NewRouter(server.Deps{
		Store:       st,
		Engine:      eng,
		Hub:         h,
		Loader:      loader,
		TokenConfig: tokenCfg,
		BaseURL:     cfg.BaseURL,
		ImagesDir:   imagesDir,
		ModelsDir:   modelsDir,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return st.Run(ctx, cfg.FlushInterval) })
	g.Go(func() error {
		log.Printf("listening on :%d", cfg.Port)
		return server.Run(ctx, cfg, router)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("run: %v", err)
	}

	if cfg.BackupDir != "" {
		if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
			log.Printf("backup dir: %v", err)
		} else if path, err := st.WriteArchive(cfg.BackupDir); err != nil {
			log.Printf("archive: %v", err)
		} else {
			log.Printf("wrote shutdown archive %s", path)
		}
	}
	log.Println("shutdown complete")
}

func applyTuning(p world.Params, t config.Tuning) world.Params {
	if t.NumNodes > 0 {
		p.NumNodes = t.NumNodes
	}
	if t.MapWidth > 0 {
		p.MapWidth = t.MapWidth
	}
	if t.MapHeight > 0 {
		p.MapHeight = t.MapHeight
	}
	if t.MinDistance > 0 {
		p.MinDistance = t.MinDistance
	}
	if t.NodeRadius > 0 {
		p.NodeRadius = t.NodeRadius
	}
	if t.CorridorWidth > 0 {
		p.CorridorWidth = t.CorridorWidth
	}
	return p
}
