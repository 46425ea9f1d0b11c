package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"phantom-world/internal/nft"
)

// NFTHandler exposes the editor's strict single-NFT load. Unlike the
// in-world inventory path this one fails loudly: no fallback models.
type NFTHandler struct {
	Loader *nft.Loader
}

type loadNFTBody struct {
	Pubkey string `json:"pubkey"`
}

func (h *NFTHandler) LoadNFT(c *gin.Context) {
	var body loadNFTBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Pubkey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "NFT public key is required"})
		return
	}
	if !nft.ValidPubkey(body.Pubkey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid NFT public key format"})
		return
	}

	result, err := h.Loader.LoadStrict(c.Request.Context(), body.Pubkey)
	if err != nil {
		if errors.Is(err, nft.ErrNoModelData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"details": "Failed to load NFT. Make sure the public key is valid and the NFT contains 3D model data.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"model": gin.H{
			"name":        result.Name,
			"description": result.Description,
			"image":       result.Image,
			"properties":  gin.H{"modelData": result.ModelData},
			"nftInfo":     gin.H{"pubkey": body.Pubkey},
		},
	})
}
