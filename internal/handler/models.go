package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"phantom-world/internal/model"
)

// ModelsHandler is the editor's model library: one JSON metadata document
// per model, stored as flat files under Dir.
type ModelsHandler struct {
	Dir string
}

type modelTrait struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type modelMetadata struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Image       string       `json:"image"`
	Attributes  []modelTrait `json:"attributes"`
	Properties  struct {
		ModelData model.ModelData `json:"modelData"`
	} `json:"properties"`
}

type modelBody struct {
	Name     string         `json:"name"`
	Vertices []model.Vertex `json:"vertices"`
	Edges    []string       `json:"edges"`
	Image    *string        `json:"image"`
}

func buildModelMetadata(name, image string, data model.ModelData) modelMetadata {
	meta := modelMetadata{
		Name:        name,
		Description: fmt.Sprintf("3D model with %d vertices and %d edges", len(data.Vertices), len(data.Edges)),
		Image:       image,
		Attributes: []modelTrait{
			{TraitType: "Vertices", Value: strconv.Itoa(len(data.Vertices))},
			{TraitType: "Edges", Value: strconv.Itoa(len(data.Edges))},
			{TraitType: "Type", Value: "3D Model"},
		},
	}
	meta.Properties.ModelData = data
	return meta
}

func validModelID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\.")
}

func (h *ModelsHandler) path(id string) string {
	return filepath.Join(h.Dir, id+".json")
}

func (h *ModelsHandler) List(c *gin.Context) {
	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type listEntry struct {
		ID      string    `json:"id"`
		Name    string    `json:"name"`
		Created time.Time `json:"created"`
	}
	models := make([]listEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(h.Dir, entry.Name()))
		if err != nil {
			continue
		}
		var meta modelMetadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		models = append(models, listEntry{
			ID:      strings.TrimSuffix(entry.Name(), ".json"),
			Name:    meta.Name,
			Created: info.ModTime(),
		})
	}
	c.JSON(http.StatusOK, models)
}

func (h *ModelsHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !validModelID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		return
	}
	raw, err := os.ReadFile(h.path(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (h *ModelsHandler) Create(c *gin.Context) {
	var body modelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if body.Name == "" || len(body.Vertices) == 0 || len(body.Edges) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	idBytes := make([]byte, 8)
	if _, err := rand.Read(idBytes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	id := hex.EncodeToString(idBytes)

	image := ""
	if body.Image != nil {
		image = *body.Image
	}
	meta := buildModelMetadata(body.Name, image, model.ModelData{
		Vertices: body.Vertices,
		Edges:    body.Edges,
	})
	if err := h.write(id, meta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Model saved successfully"})
}

func (h *ModelsHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !validModelID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		return
	}
	raw, err := os.ReadFile(h.path(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		return
	}
	var existing modelMetadata
	if err := json.Unmarshal(raw, &existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var body modelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	name := existing.Name
	if body.Name != "" {
		name = body.Name
	}
	image := existing.Image
	if body.Image != nil {
		image = *body.Image
	}
	data := existing.Properties.ModelData
	if len(body.Vertices) > 0 {
		data.Vertices = body.Vertices
	}
	if len(body.Edges) > 0 {
		data.Edges = body.Edges
	}

	if err := h.write(id, buildModelMetadata(name, image, data)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Model updated successfully"})
}

func (h *ModelsHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !validModelID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		return
	}
	if err := os.Remove(h.path(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Model deleted successfully"})
}

func (h *ModelsHandler) write(id string, meta modelMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.path(id), data, 0o644)
}
