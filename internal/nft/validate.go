package nft

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"phantom-world/internal/model"
)

// Structural shape of wireframe model data. Edge index bounds cannot be
// expressed in the schema and are checked separately.
const modelSchema = `{
  "type": "object",
  "required": ["vertices", "edges"],
  "properties": {
    "vertices": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["pos", "size", "color"],
        "properties": {
          "pos": {"type": "array", "minItems": 3, "maxItems": 3, "items": {"type": "number"}},
          "size": {"type": "number"},
          "color": {
            "anyOf": [
              {"type": "string"},
              {"type": "array", "minItems": 3, "maxItems": 3, "items": {"type": "number"}}
            ]
          }
        }
      }
    },
    "edges": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "pattern": "^[0-9]+-[0-9]+$"}
    }
  }
}`

var compiledModelSchema = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("model.schema.json", strings.NewReader(modelSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("model.schema.json")
}()

// ParseModelData validates raw model JSON against the structural rule and
// decodes it. Any violation, including an edge referencing a missing vertex,
// reports false.
func ParseModelData(raw json.RawMessage) (model.ModelData, bool) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.ModelData{}, false
	}
	if err := compiledModelSchema.Validate(decoded); err != nil {
		return model.ModelData{}, false
	}

	var data model.ModelData
	if err := json.Unmarshal(raw, &data); err != nil {
		return model.ModelData{}, false
	}
	for _, edge := range data.Edges {
		i, j, ok := splitEdge(edge)
		if !ok || i >= len(data.Vertices) || j >= len(data.Vertices) {
			return model.ModelData{}, false
		}
	}
	return data, true
}

func splitEdge(edge string) (int, int, bool) {
	parts := strings.SplitN(edge, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	i, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	j, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return i, j, true
}

// DefaultModel is the synthesized pyramid used whenever an NFT carries no
// usable model data.
func DefaultModel() model.ModelData {
	return model.ModelData{
		Vertices: []model.Vertex{
			{Pos: [3]float64{-1, 0, -1}, Size: 1, Color: json.RawMessage(`[1, 0.2, 0.2]`)},
			{Pos: [3]float64{1, 0, -1}, Size: 1, Color: json.RawMessage(`[0.2, 1, 0.2]`)},
			{Pos: [3]float64{1, 0, 1}, Size: 1, Color: json.RawMessage(`[0.2, 0.2, 1]`)},
			{Pos: [3]float64{-1, 0, 1}, Size: 1, Color: json.RawMessage(`[1, 1, 0.2]`)},
			{Pos: [3]float64{0, 2, 0}, Size: 1.5, Color: json.RawMessage(`[1, 0.2, 1]`)},
		},
		Edges: []string{"0-1", "1-2", "2-3", "3-0", "0-4", "1-4", "2-4", "3-4"},
	}
}

// ValidPubkey bounds the plausible length of a base58 NFT public key.
func ValidPubkey(pubkey string) bool {
	return len(pubkey) >= 32 && len(pubkey) <= 64
}
