package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"phantom-world/internal/model"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// UploadHandler stores editor uploads: PNG images and minting-ready NFT
// metadata documents, both served back from the public images directory.
type UploadHandler struct {
	ImagesDir string
	BaseURL   string
}

type uploadImageBody struct {
	ImageData string `json:"imageData"`
}

func (h *UploadHandler) UploadImage(c *gin.Context) {
	var body uploadImageBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ImageData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image data provided"})
		return
	}

	raw := dataURLPrefix.ReplaceAllString(body.ImageData, "")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image data"})
		return
	}

	filename := uuid.NewString() + ".png"
	if err := os.WriteFile(filepath.Join(h.ImagesDir, filename), decoded, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     fmt.Sprintf("%s/images/%s", h.BaseURL, filename),
	})
}

type createMetadataBody struct {
	Name      string           `json:"name"`
	ImageURL  string           `json:"imageUrl"`
	ModelData *model.ModelData `json:"modelData"`
}

type nftFileRef struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// CreateNFTMetadata writes a metadata document wrapping the model for
// minting. The model itself is embedded as a JSON string, which is the
// shape the inventory loader's properties.modelData path expects back.
func (h *UploadHandler) CreateNFTMetadata(c *gin.Context) {
	var body createMetadataBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if body.Name == "" || body.ImageURL == "" || body.ModelData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	embedded, err := json.Marshal(body.ModelData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create metadata"})
		return
	}

	metadata := gin.H{
		"name":        body.Name,
		"image":       body.ImageURL,
		"description": fmt.Sprintf("3D model with %d vertices and %d edges", len(body.ModelData.Vertices), len(body.ModelData.Edges)),
		"attributes": []modelTrait{
			{TraitType: "Vertices", Value: fmt.Sprint(len(body.ModelData.Vertices))},
			{TraitType: "Edges", Value: fmt.Sprint(len(body.ModelData.Edges))},
			{TraitType: "Type", Value: "3D Model"},
		},
		"properties": gin.H{
			"files":     []nftFileRef{{URI: body.ImageURL, Type: "image/png"}},
			"category":  "image",
			"modelData": string(embedded),
		},
	}

	metadataID := uuid.NewString()
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create metadata"})
		return
	}
	if err := os.WriteFile(filepath.Join(h.ImagesDir, metadataID+".json"), data, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create metadata"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"metadataUrl": fmt.Sprintf("%s/images/%s.json", h.BaseURL, metadataID),
		"metadataId":  metadataID,
	})
}
