package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"phantom-world/internal/game"
	"phantom-world/internal/store"
)

type StatsHandler struct {
	Engine *game.Engine
	Store  *store.Store
}

func (h *StatsHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"users":      h.Engine.OnlineUsers(),
		"plots":      h.Store.PlotCount(),
		"worldNodes": len(h.Store.World().Nodes),
	})
}
